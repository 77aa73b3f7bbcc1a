package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"textbook-backend/internal/domains/stockin/model"
	"textbook-backend/internal/shared/pagination"
)

type StockInRepository interface {
	CreateInTx(ctx context.Context, tx pgx.Tx, s *model.StockIn) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.StockIn, error)
	List(ctx context.Context, params pagination.Params, filter model.ListFilter) ([]model.StockIn, int, error)
	DeleteInTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}
