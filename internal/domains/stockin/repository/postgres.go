package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"textbook-backend/internal/domains/stockin/model"
	"textbook-backend/internal/shared/apperror"
	"textbook-backend/internal/shared/pagination"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) StockInRepository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) CreateInTx(ctx context.Context, tx pgx.Tx, s *model.StockIn) error {
	query := `
		INSERT INTO stock_ins (stock_in_no, order_id, textbook_id, stock_in_quantity,
		                       actual_quantity, quality_status, operator, remark)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	err := tx.QueryRow(ctx, query,
		s.StockInNo, s.OrderID, s.TextbookID, s.StockInQuantity, s.ActualQuantity,
		s.QualityStatus, s.Operator, s.Remark,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return apperror.Storage("create stock-in", err)
	}
	return nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.StockIn, error) {
	query := `
		SELECT s.id, s.stock_in_no, s.order_id, s.textbook_id, s.stock_in_quantity, s.actual_quantity,
		       s.quality_status, s.operator, s.remark, o.order_no, t.name, s.created_at
		FROM stock_ins s
		JOIN purchase_orders o ON o.id = s.order_id
		JOIN textbooks t ON t.id = s.textbook_id
		WHERE s.id = $1
	`
	s := &model.StockIn{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.StockInNo, &s.OrderID, &s.TextbookID, &s.StockInQuantity, &s.ActualQuantity,
		&s.QualityStatus, &s.Operator, &s.Remark, &s.OrderNo, &s.TextbookName, &s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("stock-in record")
	}
	if err != nil {
		return nil, apperror.Storage("find stock-in", err)
	}
	return s, nil
}

func (r *postgresRepository) List(ctx context.Context, params pagination.Params, filter model.ListFilter) ([]model.StockIn, int, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	idx := 1

	if filter.OrderID != nil {
		where += fmt.Sprintf(" AND s.order_id = $%d", idx)
		args = append(args, *filter.OrderID)
		idx++
	}
	if filter.TextbookID != nil {
		where += fmt.Sprintf(" AND s.textbook_id = $%d", idx)
		args = append(args, *filter.TextbookID)
		idx++
	}
	if filter.Keyword != "" {
		where += fmt.Sprintf(" AND (s.stock_in_no ILIKE $%d OR t.name ILIKE $%d)", idx, idx)
		args = append(args, "%"+filter.Keyword+"%")
		idx++
	}

	base := `
		FROM stock_ins s
		JOIN purchase_orders o ON o.id = s.order_id
		JOIN textbooks t ON t.id = s.textbook_id
	` + where

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+base, args...).Scan(&total); err != nil {
		return nil, 0, apperror.Storage("count stock-ins", err)
	}

	query := fmt.Sprintf(`
		SELECT s.id, s.stock_in_no, s.order_id, s.textbook_id, s.stock_in_quantity, s.actual_quantity,
		       s.quality_status, s.operator, s.remark, o.order_no, t.name, s.created_at
		%s
		ORDER BY s.created_at DESC
		LIMIT $%d OFFSET $%d
	`, base, idx, idx+1)
	args = append(args, params.Size, params.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperror.Storage("list stock-ins", err)
	}
	defer rows.Close()

	records := make([]model.StockIn, 0, params.Size)
	for rows.Next() {
		var s model.StockIn
		if err := rows.Scan(
			&s.ID, &s.StockInNo, &s.OrderID, &s.TextbookID, &s.StockInQuantity, &s.ActualQuantity,
			&s.QualityStatus, &s.Operator, &s.Remark, &s.OrderNo, &s.TextbookName, &s.CreatedAt,
		); err != nil {
			return nil, 0, apperror.Storage("scan stock-in", err)
		}
		records = append(records, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperror.Storage("list stock-ins", err)
	}

	return records, total, nil
}

func (r *postgresRepository) DeleteInTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM stock_ins WHERE id = $1`, id)
	if err != nil {
		return apperror.Storage("delete stock-in", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("stock-in record")
	}
	return nil
}
