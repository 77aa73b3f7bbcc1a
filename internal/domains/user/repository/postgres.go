package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"textbook-backend/internal/domains/user/model"
	"textbook-backend/internal/shared/apperror"
	"textbook-backend/internal/shared/pagination"
	"textbook-backend/pkg/cache"
)

const userCacheTTL = 5 * time.Minute

// postgresRepository keeps a Redis cache of username lookups because
// the visibility policy resolves order owners by username on every
// teacher-scoped list query.
type postgresRepository struct {
	pool  *pgxpool.Pool
	cache cache.Cache
}

func NewPostgresRepository(pool *pgxpool.Pool, cache cache.Cache) UserRepository {
	return &postgresRepository{
		pool:  pool,
		cache: cache,
	}
}

func usernameCacheKey(username string) string {
	return fmt.Sprintf("user:username:%s", username)
}

func (r *postgresRepository) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (username, password_hash, full_name, role, department, phone, email, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		u.Username,
		u.PasswordHash,
		u.FullName,
		u.Role,
		u.Department,
		u.Phone,
		u.Email,
		u.IsActive,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.Conflict("username already exists")
		}
		return apperror.Storage("create user", err)
	}

	return nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `
		SELECT id, username, password_hash, full_name, role, department, phone, email,
		       is_active, last_login_at, created_at, updated_at, deleted_at
		FROM users
		WHERE id = $1 AND deleted_at IS NULL
	`
	u := &model.User{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Role,
		&u.Department, &u.Phone, &u.Email, &u.IsActive, &u.LastLoginAt,
		&u.CreatedAt, &u.UpdatedAt, &u.DeletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("user")
	}
	if err != nil {
		return nil, apperror.Storage("find user by id", err)
	}
	return u, nil
}

// FindByUsername uses the cache-aside pattern: check Redis first, fall
// back to the database and repopulate on a miss. Cache errors are
// ignored so a Redis outage degrades to plain DB reads.
func (r *postgresRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	cacheKey := usernameCacheKey(username)

	var cached model.User
	if found, err := r.cache.Get(ctx, cacheKey, &cached); err == nil && found {
		return &cached, nil
	}

	query := `
		SELECT id, username, password_hash, full_name, role, department, phone, email,
		       is_active, last_login_at, created_at, updated_at, deleted_at
		FROM users
		WHERE username = $1 AND deleted_at IS NULL
	`
	u := &model.User{}
	err := r.pool.QueryRow(ctx, query, username).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Role,
		&u.Department, &u.Phone, &u.Email, &u.IsActive, &u.LastLoginAt,
		&u.CreatedAt, &u.UpdatedAt, &u.DeletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("user")
	}
	if err != nil {
		return nil, apperror.Storage("find user by username", err)
	}

	_ = r.cache.Set(ctx, cacheKey, u, userCacheTTL)

	return u, nil
}

func (r *postgresRepository) List(ctx context.Context, params pagination.Params) ([]model.User, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`
	if err := r.pool.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, apperror.Storage("count users", err)
	}

	query := `
		SELECT id, username, password_hash, full_name, role, department, phone, email,
		       is_active, last_login_at, created_at, updated_at, deleted_at
		FROM users
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, params.Size, params.Offset())
	if err != nil {
		return nil, 0, apperror.Storage("list users", err)
	}
	defer rows.Close()

	users := make([]model.User, 0, params.Size)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(
			&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Role,
			&u.Department, &u.Phone, &u.Email, &u.IsActive, &u.LastLoginAt,
			&u.CreatedAt, &u.UpdatedAt, &u.DeletedAt,
		); err != nil {
			return nil, 0, apperror.Storage("scan user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperror.Storage("list users", err)
	}

	return users, total, nil
}

func (r *postgresRepository) Update(ctx context.Context, u *model.User) error {
	query := `
		UPDATE users
		SET full_name = $2, role = $3, department = $4, phone = $5, email = $6,
		    is_active = $7, password_hash = $8, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		u.ID, u.FullName, u.Role, u.Department, u.Phone, u.Email,
		u.IsActive, u.PasswordHash,
	).Scan(&u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NotFound("user")
	}
	if err != nil {
		return apperror.Storage("update user", err)
	}

	// Stale role/password must not be served from cache.
	_ = r.cache.Delete(ctx, usernameCacheKey(u.Username))

	return nil
}

func (r *postgresRepository) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	var username string
	query := `
		UPDATE users
		SET last_login_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING username
	`
	err := r.pool.QueryRow(ctx, query, id).Scan(&username)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NotFound("user")
	}
	if err != nil {
		return apperror.Storage("touch last login", err)
	}

	_ = r.cache.Delete(ctx, usernameCacheKey(username))

	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	var username string
	query := `
		UPDATE users
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING username
	`
	err := r.pool.QueryRow(ctx, query, id).Scan(&username)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NotFound("user")
	}
	if err != nil {
		return apperror.Storage("delete user", err)
	}

	_ = r.cache.Delete(ctx, usernameCacheKey(username))

	return nil
}
