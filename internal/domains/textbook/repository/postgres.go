package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"textbook-backend/internal/domains/textbook/model"
	"textbook-backend/internal/shared/apperror"
	"textbook-backend/internal/shared/pagination"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) TextbookRepository {
	return &postgresRepository{pool: pool}
}

const textbookColumns = `
	t.id, t.isbn, t.name, t.author, t.edition, t.price, t.type_id, t.publisher_id,
	tt.name AS type_name, p.name AS publisher_name,
	t.created_at, t.updated_at, t.deleted_at
`

const textbookJoins = `
	FROM textbooks t
	JOIN textbook_types tt ON tt.id = t.type_id
	JOIN publishers p ON p.id = t.publisher_id
`

func scanTextbook(row pgx.Row, t *model.Textbook) error {
	return row.Scan(
		&t.ID, &t.ISBN, &t.Name, &t.Author, &t.Edition, &t.Price,
		&t.TypeID, &t.PublisherID, &t.TypeName, &t.PublisherName,
		&t.CreatedAt, &t.UpdatedAt, &t.DeletedAt,
	)
}

func (r *postgresRepository) Create(ctx context.Context, t *model.Textbook) error {
	query := `
		INSERT INTO textbooks (isbn, name, author, edition, price, type_id, publisher_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		t.ISBN, t.Name, t.Author, t.Edition, t.Price, t.TypeID, t.PublisherID,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return apperror.Conflict("isbn already exists")
			case "23503":
				return apperror.NotFound("textbook type or publisher")
			}
		}
		return apperror.Storage("create textbook", err)
	}
	return nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Textbook, error) {
	query := `SELECT ` + textbookColumns + textbookJoins + `
		WHERE t.id = $1 AND t.deleted_at IS NULL`

	t := &model.Textbook{}
	err := scanTextbook(r.pool.QueryRow(ctx, query, id), t)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("textbook")
	}
	if err != nil {
		return nil, apperror.Storage("find textbook", err)
	}
	return t, nil
}

func (r *postgresRepository) FindByISBN(ctx context.Context, isbn string) (*model.Textbook, error) {
	query := `SELECT ` + textbookColumns + textbookJoins + `
		WHERE t.isbn = $1 AND t.deleted_at IS NULL`

	t := &model.Textbook{}
	err := scanTextbook(r.pool.QueryRow(ctx, query, isbn), t)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("textbook")
	}
	if err != nil {
		return nil, apperror.Storage("find textbook by isbn", err)
	}
	return t, nil
}

func (r *postgresRepository) List(ctx context.Context, params pagination.Params, filter model.ListFilter) ([]model.Textbook, int, error) {
	where := "WHERE t.deleted_at IS NULL"
	args := []interface{}{}
	idx := 1

	if filter.Keyword != "" {
		where += fmt.Sprintf(" AND (t.name ILIKE $%d OR t.isbn ILIKE $%d)", idx, idx)
		args = append(args, "%"+filter.Keyword+"%")
		idx++
	}
	if filter.TypeID != nil {
		where += fmt.Sprintf(" AND t.type_id = $%d", idx)
		args = append(args, *filter.TypeID)
		idx++
	}
	if filter.PublisherID != nil {
		where += fmt.Sprintf(" AND t.publisher_id = $%d", idx)
		args = append(args, *filter.PublisherID)
		idx++
	}

	var total int
	countQuery := "SELECT COUNT(*) " + textbookJoins + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, apperror.Storage("count textbooks", err)
	}

	query := fmt.Sprintf(
		"SELECT %s %s %s ORDER BY t.name LIMIT $%d OFFSET $%d",
		textbookColumns, textbookJoins, where, idx, idx+1,
	)
	args = append(args, params.Size, params.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperror.Storage("list textbooks", err)
	}
	defer rows.Close()

	textbooks := make([]model.Textbook, 0, params.Size)
	for rows.Next() {
		var t model.Textbook
		if err := scanTextbook(rows, &t); err != nil {
			return nil, 0, apperror.Storage("scan textbook", err)
		}
		textbooks = append(textbooks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperror.Storage("list textbooks", err)
	}

	return textbooks, total, nil
}

func (r *postgresRepository) Update(ctx context.Context, t *model.Textbook) error {
	query := `
		UPDATE textbooks
		SET name = $2, author = $3, edition = $4, price = $5,
		    type_id = $6, publisher_id = $7, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		t.ID, t.Name, t.Author, t.Edition, t.Price, t.TypeID, t.PublisherID,
	).Scan(&t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NotFound("textbook")
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return apperror.NotFound("textbook type or publisher")
		}
		return apperror.Storage("update textbook", err)
	}
	return nil
}

func (r *postgresRepository) CountOpenOrders(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM purchase_orders
		WHERE textbook_id = $1
		  AND status NOT IN ('issued', 'cancelled')
		  AND deleted_at IS NULL
	`, id).Scan(&count)
	if err != nil {
		return 0, apperror.Storage("count open orders", err)
	}
	return count, nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE textbooks
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return apperror.Storage("delete textbook", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("textbook")
	}
	return nil
}
