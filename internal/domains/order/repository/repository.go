package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"textbook-backend/internal/domains/order/model"
	"textbook-backend/internal/shared/pagination"
	"textbook-backend/internal/shared/rbac"
)

// OrderRepository persists purchase orders. The *InTx methods run in
// the caller's transaction so the stock-in reconciler and the delivery
// dispatcher can mutate orders atomically with inventory.
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	CreateInTx(ctx context.Context, tx pgx.Tx, order *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, params pagination.Params, scope rbac.Scope, filter model.ListFilter) ([]model.Order, int, error)
	Update(ctx context.Context, order *model.Order) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error

	// Cancel marks the order cancelled and appends the remark.
	Cancel(ctx context.Context, id uuid.UUID, remark string) error

	// FindByIDForUpdateInTx locks the order row for the duration of the
	// transaction.
	FindByIDForUpdateInTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error)

	// SetArrivalInTx writes the arrived count and derived status.
	SetArrivalInTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, arrived int, status string) error

	// IssueInTx marks the order issued and appends the delivery remark.
	IssueInTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, remark string) error
}
