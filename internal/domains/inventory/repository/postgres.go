package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"textbook-backend/internal/domains/inventory/model"
	"textbook-backend/internal/shared/apperror"
	"textbook-backend/internal/shared/pagination"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) InventoryRepository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) FindByTextbook(ctx context.Context, textbookID uuid.UUID) (*model.Inventory, error) {
	query := `
		SELECT i.id, i.textbook_id, i.quantity, i.total_in_quantity, i.total_out_quantity,
		       i.min_threshold, i.max_threshold, i.last_in_date, i.last_out_date,
		       t.name, t.isbn, i.created_at, i.updated_at
		FROM inventories i
		JOIN textbooks t ON t.id = i.textbook_id
		WHERE i.textbook_id = $1
	`
	inv := &model.Inventory{}
	err := r.pool.QueryRow(ctx, query, textbookID).Scan(
		&inv.ID, &inv.TextbookID, &inv.Quantity, &inv.TotalIn, &inv.TotalOut,
		&inv.MinThreshold, &inv.MaxThreshold, &inv.LastInDate, &inv.LastOutDate,
		&inv.TextbookName, &inv.ISBN, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("inventory")
	}
	if err != nil {
		return nil, apperror.Storage("find inventory", err)
	}
	return inv, nil
}

func (r *postgresRepository) List(ctx context.Context, params pagination.Params, filter model.ListFilter) ([]model.Inventory, int, error) {
	where := "WHERE t.deleted_at IS NULL"
	args := []interface{}{}
	idx := 1

	if filter.Keyword != "" {
		where += fmt.Sprintf(" AND (t.name ILIKE $%d OR t.isbn ILIKE $%d)", idx, idx)
		args = append(args, "%"+filter.Keyword+"%")
		idx++
	}
	switch filter.Warning {
	case model.WarningLow:
		where += " AND i.quantity < i.min_threshold"
	case model.WarningHigh:
		where += " AND i.quantity > i.max_threshold"
	}

	base := `
		FROM inventories i
		JOIN textbooks t ON t.id = i.textbook_id
	` + where

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+base, args...).Scan(&total); err != nil {
		return nil, 0, apperror.Storage("count inventories", err)
	}

	query := fmt.Sprintf(`
		SELECT i.id, i.textbook_id, i.quantity, i.total_in_quantity, i.total_out_quantity,
		       i.min_threshold, i.max_threshold, i.last_in_date, i.last_out_date,
		       t.name, t.isbn, i.created_at, i.updated_at
		%s
		ORDER BY t.name
		LIMIT $%d OFFSET $%d
	`, base, idx, idx+1)
	args = append(args, params.Size, params.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperror.Storage("list inventories", err)
	}
	defer rows.Close()

	inventories := make([]model.Inventory, 0, params.Size)
	for rows.Next() {
		var inv model.Inventory
		if err := rows.Scan(
			&inv.ID, &inv.TextbookID, &inv.Quantity, &inv.TotalIn, &inv.TotalOut,
			&inv.MinThreshold, &inv.MaxThreshold, &inv.LastInDate, &inv.LastOutDate,
			&inv.TextbookName, &inv.ISBN, &inv.CreatedAt, &inv.UpdatedAt,
		); err != nil {
			return nil, 0, apperror.Storage("scan inventory", err)
		}
		inventories = append(inventories, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperror.Storage("list inventories", err)
	}

	return inventories, total, nil
}

func (r *postgresRepository) UpdateThresholds(ctx context.Context, textbookID uuid.UUID, min, max int) (*model.Inventory, error) {
	query := `
		UPDATE inventories
		SET min_threshold = $2, max_threshold = $3, updated_at = NOW()
		WHERE textbook_id = $1
	`
	tag, err := r.pool.Exec(ctx, query, textbookID, min, max)
	if err != nil {
		return nil, apperror.Storage("update thresholds", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperror.NotFound("inventory")
	}
	return r.FindByTextbook(ctx, textbookID)
}

func (r *postgresRepository) AddInTx(ctx context.Context, tx pgx.Tx, textbookID uuid.UUID, qty int) error {
	query := `
		INSERT INTO inventories (textbook_id, quantity, total_in_quantity, total_out_quantity,
		                         min_threshold, max_threshold, last_in_date)
		VALUES ($1, $2, $2, 0, $3, $4, CURRENT_DATE)
		ON CONFLICT (textbook_id)
		DO UPDATE SET quantity = inventories.quantity + EXCLUDED.quantity,
		              total_in_quantity = inventories.total_in_quantity + EXCLUDED.quantity,
		              last_in_date = CURRENT_DATE,
		              updated_at = NOW()
	`
	_, err := tx.Exec(ctx, query, textbookID, qty,
		model.DefaultMinThreshold, model.DefaultMaxThreshold)
	if err != nil {
		return apperror.Storage("add inventory", err)
	}
	return nil
}

func (r *postgresRepository) DeductInTx(ctx context.Context, tx pgx.Tx, textbookID uuid.UUID, qty int) error {
	var quantity int
	err := tx.QueryRow(ctx, `
		SELECT quantity FROM inventories
		WHERE textbook_id = $1
		FOR UPDATE
	`, textbookID).Scan(&quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.InsufficientStock("no inventory for textbook")
	}
	if err != nil {
		return apperror.Storage("lock inventory", err)
	}

	if quantity < qty {
		return apperror.Newf(apperror.KindInsufficientStock,
			"insufficient stock: have %d, need %d", quantity, qty)
	}

	_, err = tx.Exec(ctx, `
		UPDATE inventories
		SET quantity = quantity - $2,
		    total_out_quantity = total_out_quantity + $2,
		    last_out_date = CURRENT_DATE,
		    updated_at = NOW()
		WHERE textbook_id = $1
	`, textbookID, qty)
	if err != nil {
		return apperror.Storage("deduct inventory", err)
	}
	return nil
}

func (r *postgresRepository) ReverseInTx(ctx context.Context, tx pgx.Tx, textbookID uuid.UUID, qty int) error {
	var quantity int
	err := tx.QueryRow(ctx, `
		SELECT quantity FROM inventories
		WHERE textbook_id = $1
		FOR UPDATE
	`, textbookID).Scan(&quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.InvalidState("no inventory row to reverse")
	}
	if err != nil {
		return apperror.Storage("lock inventory", err)
	}

	if quantity < qty {
		return apperror.Newf(apperror.KindInvalidState,
			"reversing %d would drive stock negative, have %d", qty, quantity)
	}

	_, err = tx.Exec(ctx, `
		UPDATE inventories
		SET quantity = quantity - $2,
		    total_in_quantity = total_in_quantity - $2,
		    updated_at = NOW()
		WHERE textbook_id = $1
	`, textbookID, qty)
	if err != nil {
		return apperror.Storage("reverse inventory", err)
	}
	return nil
}
