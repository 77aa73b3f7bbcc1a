package repository

import (
	"context"

	"github.com/google/uuid"

	"textbook-backend/internal/domains/textbook/model"
	"textbook-backend/internal/shared/pagination"
)

type TextbookRepository interface {
	Create(ctx context.Context, t *model.Textbook) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Textbook, error)
	FindByISBN(ctx context.Context, isbn string) (*model.Textbook, error)
	List(ctx context.Context, params pagination.Params, filter model.ListFilter) ([]model.Textbook, int, error)
	Update(ctx context.Context, t *model.Textbook) error
	Delete(ctx context.Context, id uuid.UUID) error

	// CountOpenOrders counts purchase orders for the textbook that have
	// not reached a terminal status.
	CountOpenOrders(ctx context.Context, id uuid.UUID) (int, error)
}
