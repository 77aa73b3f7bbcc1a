package repository

import (
	"context"

	"github.com/google/uuid"

	"textbook-backend/internal/domains/textbooktype/model"
)

type TextbookTypeRepository interface {
	Create(ctx context.Context, t *model.TextbookType) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.TextbookType, error)
	List(ctx context.Context) ([]model.TextbookType, error)
	Update(ctx context.Context, t *model.TextbookType) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountTextbooks(ctx context.Context, id uuid.UUID) (int, error)
}
