package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"textbook-backend/internal/domains/order/model"
	"textbook-backend/internal/shared/apperror"
	"textbook-backend/internal/shared/pagination"
	"textbook-backend/internal/shared/rbac"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) OrderRepository {
	return &postgresRepository{pool: pool}
}

const orderColumns = `
	o.id, o.order_no, o.textbook_id, o.quantity, o.arrived, o.status,
	o.order_person, o.remark, t.name, t.isbn,
	o.created_at, o.updated_at, o.deleted_at
`

func scanOrder(row pgx.Row, o *model.Order) error {
	return row.Scan(
		&o.ID, &o.OrderNo, &o.TextbookID, &o.Quantity, &o.Arrived, &o.Status,
		&o.OrderPerson, &o.Remark, &o.TextbookName, &o.ISBN,
		&o.CreatedAt, &o.UpdatedAt, &o.DeletedAt,
	)
}

const insertOrderQuery = `
	INSERT INTO purchase_orders (order_no, textbook_id, quantity, arrived, status, order_person, remark)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id, created_at, updated_at
`

func (r *postgresRepository) Create(ctx context.Context, o *model.Order) error {
	err := r.pool.QueryRow(ctx, insertOrderQuery,
		o.OrderNo, o.TextbookID, o.Quantity, o.Arrived, o.Status, o.OrderPerson, o.Remark,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return apperror.Storage("create order", err)
	}
	return nil
}

func (r *postgresRepository) CreateInTx(ctx context.Context, tx pgx.Tx, o *model.Order) error {
	err := tx.QueryRow(ctx, insertOrderQuery,
		o.OrderNo, o.TextbookID, o.Quantity, o.Arrived, o.Status, o.OrderPerson, o.Remark,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return apperror.Storage("create order", err)
	}
	return nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM purchase_orders o
		JOIN textbooks t ON t.id = o.textbook_id
		WHERE o.id = $1 AND o.deleted_at IS NULL`

	o := &model.Order{}
	err := scanOrder(r.pool.QueryRow(ctx, query, id), o)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("order")
	}
	if err != nil {
		return nil, apperror.Storage("find order", err)
	}
	return o, nil
}

// List composes the visibility scope into SQL. Teacher scope admits
// both the teacher's own orders and orders whose owner currently holds
// the regular_user role, resolved live against the users table.
func (r *postgresRepository) List(ctx context.Context, params pagination.Params, scope rbac.Scope, filter model.ListFilter) ([]model.Order, int, error) {
	where := "WHERE o.deleted_at IS NULL"
	args := []interface{}{}
	idx := 1

	if !scope.All {
		if scope.OwnerRole != "" {
			where += fmt.Sprintf(` AND (o.order_person = $%d OR o.order_person IN (
				SELECT username FROM users WHERE role = $%d AND deleted_at IS NULL))`, idx, idx+1)
			args = append(args, scope.Username, scope.OwnerRole)
			idx += 2
		} else {
			where += fmt.Sprintf(" AND o.order_person = $%d", idx)
			args = append(args, scope.Username)
			idx++
		}
	}

	if filter.Status != "" {
		where += fmt.Sprintf(" AND o.status = $%d", idx)
		args = append(args, filter.Status)
		idx++
	}
	if filter.OrderPerson != "" {
		where += fmt.Sprintf(" AND o.order_person = $%d", idx)
		args = append(args, filter.OrderPerson)
		idx++
	}
	if filter.Keyword != "" {
		where += fmt.Sprintf(" AND (o.order_no ILIKE $%d OR t.name ILIKE $%d)", idx, idx)
		args = append(args, "%"+filter.Keyword+"%")
		idx++
	}

	base := `
		FROM purchase_orders o
		JOIN textbooks t ON t.id = o.textbook_id
	` + where

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+base, args...).Scan(&total); err != nil {
		return nil, 0, apperror.Storage("count orders", err)
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d",
		orderColumns, base, idx, idx+1)
	args = append(args, params.Size, params.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperror.Storage("list orders", err)
	}
	defer rows.Close()

	orders := make([]model.Order, 0, params.Size)
	for rows.Next() {
		var o model.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, 0, apperror.Storage("scan order", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperror.Storage("list orders", err)
	}

	return orders, total, nil
}

func (r *postgresRepository) Update(ctx context.Context, o *model.Order) error {
	query := `
		UPDATE purchase_orders
		SET quantity = $2, remark = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at
	`
	err := r.pool.QueryRow(ctx, query, o.ID, o.Quantity, o.Remark).Scan(&o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NotFound("order")
	}
	if err != nil {
		return apperror.Storage("update order", err)
	}
	return nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE purchase_orders
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, id, status)
	if err != nil {
		return apperror.Storage("update order status", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("order")
	}
	return nil
}

func (r *postgresRepository) Cancel(ctx context.Context, id uuid.UUID, remark string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE purchase_orders
		SET status = $2,
		    remark = CONCAT_WS(E'\n', remark, $3::text),
		    updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, id, model.StatusCancelled, remark)
	if err != nil {
		return apperror.Storage("cancel order", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("order")
	}
	return nil
}

func (r *postgresRepository) FindByIDForUpdateInTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	// No join here: FOR UPDATE locks only the order row.
	query := `
		SELECT id, order_no, textbook_id, quantity, arrived, status,
		       order_person, remark, created_at, updated_at, deleted_at
		FROM purchase_orders
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE
	`
	o := &model.Order{}
	err := tx.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.OrderNo, &o.TextbookID, &o.Quantity, &o.Arrived, &o.Status,
		&o.OrderPerson, &o.Remark, &o.CreatedAt, &o.UpdatedAt, &o.DeletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("order")
	}
	if err != nil {
		return nil, apperror.Storage("lock order", err)
	}
	return o, nil
}

func (r *postgresRepository) SetArrivalInTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, arrived int, status string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE purchase_orders
		SET arrived = $2, status = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, id, arrived, status)
	if err != nil {
		return apperror.Storage("set order arrival", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("order")
	}
	return nil
}

func (r *postgresRepository) IssueInTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, remark string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE purchase_orders
		SET status = $2,
		    remark = CONCAT_WS(E'\n', remark, $3::text),
		    updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, id, model.StatusIssued, remark)
	if err != nil {
		return apperror.Storage("issue order", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("order")
	}
	return nil
}
