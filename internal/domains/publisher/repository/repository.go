package repository

import (
	"context"

	"github.com/google/uuid"

	"textbook-backend/internal/domains/publisher/model"
	"textbook-backend/internal/shared/pagination"
)

type PublisherRepository interface {
	Create(ctx context.Context, publisher *model.Publisher) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Publisher, error)
	List(ctx context.Context, params pagination.Params, keyword string) ([]model.Publisher, int, error)
	Update(ctx context.Context, publisher *model.Publisher) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountTextbooks(ctx context.Context, id uuid.UUID) (int, error)
}
