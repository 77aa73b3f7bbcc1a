package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"textbook-backend/internal/domains/textbooktype/model"
	"textbook-backend/internal/shared/apperror"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) TextbookTypeRepository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) Create(ctx context.Context, t *model.TextbookType) error {
	query := `
		INSERT INTO textbook_types (code, name, description)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query, t.Code, t.Name, t.Description).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.Conflict("textbook type code or name already exists")
		}
		return apperror.Storage("create textbook type", err)
	}
	return nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.TextbookType, error) {
	query := `
		SELECT id, code, name, description, created_at, updated_at, deleted_at
		FROM textbook_types
		WHERE id = $1 AND deleted_at IS NULL
	`
	t := &model.TextbookType{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Code, &t.Name, &t.Description,
		&t.CreatedAt, &t.UpdatedAt, &t.DeletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("textbook type")
	}
	if err != nil {
		return nil, apperror.Storage("find textbook type", err)
	}
	return t, nil
}

// List returns all types unpaginated. The catalog stays small enough
// that clients use it to populate dropdowns.
func (r *postgresRepository) List(ctx context.Context) ([]model.TextbookType, error) {
	query := `
		SELECT id, code, name, description, created_at, updated_at, deleted_at
		FROM textbook_types
		WHERE deleted_at IS NULL
		ORDER BY code
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, apperror.Storage("list textbook types", err)
	}
	defer rows.Close()

	var types []model.TextbookType
	for rows.Next() {
		var t model.TextbookType
		if err := rows.Scan(
			&t.ID, &t.Code, &t.Name, &t.Description,
			&t.CreatedAt, &t.UpdatedAt, &t.DeletedAt,
		); err != nil {
			return nil, apperror.Storage("scan textbook type", err)
		}
		types = append(types, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Storage("list textbook types", err)
	}

	return types, nil
}

func (r *postgresRepository) Update(ctx context.Context, t *model.TextbookType) error {
	query := `
		UPDATE textbook_types
		SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at
	`
	err := r.pool.QueryRow(ctx, query, t.ID, t.Name, t.Description).Scan(&t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NotFound("textbook type")
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.Conflict("textbook type name already exists")
		}
		return apperror.Storage("update textbook type", err)
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE textbook_types
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return apperror.Storage("delete textbook type", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("textbook type")
	}
	return nil
}

func (r *postgresRepository) CountTextbooks(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM textbooks WHERE type_id = $1 AND deleted_at IS NULL`
	if err := r.pool.QueryRow(ctx, query, id).Scan(&count); err != nil {
		return 0, apperror.Storage("count type textbooks", err)
	}
	return count, nil
}
