package sequence

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Generator allocates unique, human-readable document numbers
// (order numbers, stock-in numbers). Implementations must guarantee
// global uniqueness under concurrent callers - an in-memory counter
// is not an acceptable implementation.
type Generator interface {
	// Next allocates the next number for the given prefix,
	// e.g. Next(ctx, "PO") -> "PO20250901-0042".
	Next(ctx context.Context, prefix string) (string, error)

	// NextInTx allocates a number inside the caller's transaction so
	// the counter increment commits or rolls back together with the
	// document that uses it.
	NextInTx(ctx context.Context, tx pgx.Tx, prefix string) (string, error)
}
