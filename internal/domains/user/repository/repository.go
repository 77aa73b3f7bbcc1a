package repository

import (
	"context"

	"github.com/google/uuid"

	"textbook-backend/internal/domains/user/model"
	"textbook-backend/internal/shared/pagination"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context, params pagination.Params) ([]model.User, int, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uuid.UUID) error

	// TouchLastLogin stamps the user's last successful login.
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
}
