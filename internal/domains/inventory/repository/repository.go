package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"textbook-backend/internal/domains/inventory/model"
	"textbook-backend/internal/shared/pagination"
)

// InventoryRepository exposes plain reads on the pool plus tx-scoped
// mutations. AddInTx and DeductInTx run inside the caller's transaction
// so stock movements commit atomically with their order and stock-in
// records.
type InventoryRepository interface {
	FindByTextbook(ctx context.Context, textbookID uuid.UUID) (*model.Inventory, error)
	List(ctx context.Context, params pagination.Params, filter model.ListFilter) ([]model.Inventory, int, error)
	UpdateThresholds(ctx context.Context, textbookID uuid.UUID, min, max int) (*model.Inventory, error)

	// AddInTx upserts the inventory row: quantity and total_in both
	// grow by qty, and last_in_date is stamped.
	AddInTx(ctx context.Context, tx pgx.Tx, textbookID uuid.UUID, qty int) error

	// DeductInTx locks the row, subtracts qty from the balance, grows
	// total_out and stamps last_out_date. Fails with InsufficientStock
	// when the balance would go negative.
	DeductInTx(ctx context.Context, tx pgx.Tx, textbookID uuid.UUID, qty int) error

	// ReverseInTx backs a recorded arrival out of the ledger: quantity
	// and total_in both step down. Fails with InvalidState when the
	// goods have already left the warehouse.
	ReverseInTx(ctx context.Context, tx pgx.Tx, textbookID uuid.UUID, qty int) error
}
