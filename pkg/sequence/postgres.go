package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// postgresGenerator allocates numbers from a per-prefix, per-day counter
// row. The upsert is atomic at the database level, so two concurrent
// callers can never receive the same value.
type postgresGenerator struct {
	pool *pgxpool.Pool
}

// NewPostgresGenerator creates a database-backed sequence generator.
func NewPostgresGenerator(pool *pgxpool.Pool) Generator {
	return &postgresGenerator{pool: pool}
}

// The rendered date comes from the counter row itself, not the app
// clock: around midnight the counter resets on the database's date, and
// formatting from any other clock could repeat a number.
const allocateQuery = `
	INSERT INTO document_sequences (prefix, seq_date, value)
	VALUES ($1, CURRENT_DATE, 1)
	ON CONFLICT (prefix, seq_date)
	DO UPDATE SET value = document_sequences.value + 1
	RETURNING seq_date, value
`

func (g *postgresGenerator) Next(ctx context.Context, prefix string) (string, error) {
	var (
		seqDate time.Time
		value   int64
	)
	if err := g.pool.QueryRow(ctx, allocateQuery, prefix).Scan(&seqDate, &value); err != nil {
		return "", fmt.Errorf("failed to allocate %s sequence: %w", prefix, err)
	}

	return Format(prefix, seqDate, value), nil
}

func (g *postgresGenerator) NextInTx(ctx context.Context, tx pgx.Tx, prefix string) (string, error) {
	var (
		seqDate time.Time
		value   int64
	)
	if err := tx.QueryRow(ctx, allocateQuery, prefix).Scan(&seqDate, &value); err != nil {
		return "", fmt.Errorf("failed to allocate %s sequence: %w", prefix, err)
	}

	return Format(prefix, seqDate, value), nil
}

// Format renders a document number as <prefix><yyyymmdd>-<nnnn>.
func Format(prefix string, t time.Time, value int64) string {
	return fmt.Sprintf("%s%s-%04d", prefix, t.Format("20060102"), value)
}
