package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"textbook-backend/internal/domains/publisher/model"
	"textbook-backend/internal/shared/apperror"
	"textbook-backend/internal/shared/pagination"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) PublisherRepository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) Create(ctx context.Context, p *model.Publisher) error {
	query := `
		INSERT INTO publishers (name, contact_person, phone, address)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		p.Name, p.ContactPerson, p.Phone, p.Address,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.Conflict("publisher name already exists")
		}
		return apperror.Storage("create publisher", err)
	}
	return nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Publisher, error) {
	query := `
		SELECT id, name, contact_person, phone, address, created_at, updated_at, deleted_at
		FROM publishers
		WHERE id = $1 AND deleted_at IS NULL
	`
	p := &model.Publisher{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.ContactPerson, &p.Phone, &p.Address,
		&p.CreatedAt, &p.UpdatedAt, &p.DeletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("publisher")
	}
	if err != nil {
		return nil, apperror.Storage("find publisher", err)
	}
	return p, nil
}

func (r *postgresRepository) List(ctx context.Context, params pagination.Params, keyword string) ([]model.Publisher, int, error) {
	pattern := "%" + keyword + "%"

	var total int
	countQuery := `
		SELECT COUNT(*) FROM publishers
		WHERE deleted_at IS NULL AND ($1 = '%%' OR name ILIKE $1)
	`
	if err := r.pool.QueryRow(ctx, countQuery, pattern).Scan(&total); err != nil {
		return nil, 0, apperror.Storage("count publishers", err)
	}

	query := `
		SELECT id, name, contact_person, phone, address, created_at, updated_at, deleted_at
		FROM publishers
		WHERE deleted_at IS NULL AND ($1 = '%%' OR name ILIKE $1)
		ORDER BY name
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, pattern, params.Size, params.Offset())
	if err != nil {
		return nil, 0, apperror.Storage("list publishers", err)
	}
	defer rows.Close()

	publishers := make([]model.Publisher, 0, params.Size)
	for rows.Next() {
		var p model.Publisher
		if err := rows.Scan(
			&p.ID, &p.Name, &p.ContactPerson, &p.Phone, &p.Address,
			&p.CreatedAt, &p.UpdatedAt, &p.DeletedAt,
		); err != nil {
			return nil, 0, apperror.Storage("scan publisher", err)
		}
		publishers = append(publishers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperror.Storage("list publishers", err)
	}

	return publishers, total, nil
}

func (r *postgresRepository) Update(ctx context.Context, p *model.Publisher) error {
	query := `
		UPDATE publishers
		SET name = $2, contact_person = $3, phone = $4, address = $5, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		p.ID, p.Name, p.ContactPerson, p.Phone, p.Address,
	).Scan(&p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NotFound("publisher")
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.Conflict("publisher name already exists")
		}
		return apperror.Storage("update publisher", err)
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE publishers
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return apperror.Storage("delete publisher", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("publisher")
	}
	return nil
}

func (r *postgresRepository) CountTextbooks(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM textbooks WHERE publisher_id = $1 AND deleted_at IS NULL`
	if err := r.pool.QueryRow(ctx, query, id).Scan(&count); err != nil {
		return 0, apperror.Storage("count publisher textbooks", err)
	}
	return count, nil
}
