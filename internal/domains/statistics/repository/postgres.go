package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"textbook-backend/internal/domains/statistics/model"
	"textbook-backend/internal/shared/apperror"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) StatisticsRepository {
	return &postgresRepository{pool: pool}
}

// rangeClause builds the optional created_at bounds. Cancelled orders
// are excluded from every aggregate.
func rangeClause(rng model.DateRange, startIdx int) (string, []interface{}) {
	clause := " AND o.status <> 'cancelled'"
	args := []interface{}{}
	idx := startIdx

	if rng.From != "" {
		clause += fmt.Sprintf(" AND o.created_at >= $%d::date", idx)
		args = append(args, rng.From)
		idx++
	}
	if rng.To != "" {
		clause += fmt.Sprintf(" AND o.created_at < $%d::date + INTERVAL '1 day'", idx)
		args = append(args, rng.To)
	}
	return clause, args
}

func (r *postgresRepository) groupQuery(ctx context.Context, label, joins string, rng model.DateRange) ([]model.GroupStat, error) {
	clause, args := rangeClause(rng, 1)
	query := fmt.Sprintf(`
		SELECT %s,
		       COUNT(o.id),
		       COALESCE(SUM(o.quantity), 0),
		       COALESCE(SUM(o.arrived), 0),
		       COALESCE(SUM(CASE WHEN o.status = 'issued' THEN o.quantity ELSE 0 END), 0)
		FROM purchase_orders o
		%s
		WHERE o.deleted_at IS NULL %s
		GROUP BY 1
		ORDER BY 3 DESC
	`, label, joins, clause)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperror.Storage("order statistics", err)
	}
	defer rows.Close()

	var stats []model.GroupStat
	for rows.Next() {
		var s model.GroupStat
		if err := rows.Scan(&s.Label, &s.OrderCount, &s.TotalQuantity, &s.TotalArrived, &s.TotalIssued); err != nil {
			return nil, apperror.Storage("scan statistics", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Storage("order statistics", err)
	}
	return stats, nil
}

func (r *postgresRepository) OrdersByType(ctx context.Context, rng model.DateRange) ([]model.GroupStat, error) {
	return r.groupQuery(ctx, "tt.name", `
		JOIN textbooks t ON t.id = o.textbook_id
		JOIN textbook_types tt ON tt.id = t.type_id
	`, rng)
}

func (r *postgresRepository) OrdersByPublisher(ctx context.Context, rng model.DateRange) ([]model.GroupStat, error) {
	return r.groupQuery(ctx, "p.name", `
		JOIN textbooks t ON t.id = o.textbook_id
		JOIN publishers p ON p.id = t.publisher_id
	`, rng)
}

func (r *postgresRepository) OrdersByTextbook(ctx context.Context, rng model.DateRange) ([]model.GroupStat, error) {
	return r.groupQuery(ctx, "t.name", `
		JOIN textbooks t ON t.id = o.textbook_id
	`, rng)
}

func (r *postgresRepository) OrdersByMonth(ctx context.Context, rng model.DateRange) ([]model.MonthlyStat, error) {
	clause, args := rangeClause(rng, 1)
	query := fmt.Sprintf(`
		SELECT TO_CHAR(DATE_TRUNC('month', o.created_at), 'YYYY-MM'),
		       COUNT(o.id),
		       COALESCE(SUM(o.quantity), 0),
		       COALESCE(SUM(o.arrived), 0)
		FROM purchase_orders o
		WHERE o.deleted_at IS NULL %s
		GROUP BY 1
		ORDER BY 1
	`, clause)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperror.Storage("monthly statistics", err)
	}
	defer rows.Close()

	var stats []model.MonthlyStat
	for rows.Next() {
		var s model.MonthlyStat
		if err := rows.Scan(&s.Month, &s.OrderCount, &s.TotalQuantity, &s.TotalArrived); err != nil {
			return nil, apperror.Storage("scan monthly statistics", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Storage("monthly statistics", err)
	}
	return stats, nil
}

func (r *postgresRepository) Dashboard(ctx context.Context) (*model.Dashboard, error) {
	d := &model.Dashboard{}

	query := `
		SELECT
			(SELECT COUNT(*) FROM textbooks WHERE deleted_at IS NULL),
			(SELECT COUNT(*) FROM purchase_orders WHERE deleted_at IS NULL),
			(SELECT COUNT(*) FROM purchase_orders WHERE deleted_at IS NULL AND status = 'pending'),
			(SELECT COUNT(*) FROM purchase_orders WHERE deleted_at IS NULL AND status = 'arrived'),
			(SELECT COALESCE(SUM(quantity), 0) FROM inventories),
			(SELECT COALESCE(SUM(i.quantity * t.price), 0)
				FROM inventories i JOIN textbooks t ON t.id = i.textbook_id),
			(SELECT COUNT(*) FROM inventories WHERE quantity < min_threshold),
			(SELECT COUNT(*) FROM inventories WHERE quantity > max_threshold),
			(SELECT COUNT(*) FROM stock_ins
				WHERE created_at >= DATE_TRUNC('month', CURRENT_DATE))
	`
	err := r.pool.QueryRow(ctx, query).Scan(
		&d.TotalTextbooks, &d.TotalOrders, &d.PendingOrders, &d.ArrivedOrders,
		&d.TotalStock, &d.StockValue, &d.LowStockCount, &d.HighStockCount,
		&d.StockInsThisMonth,
	)
	if err != nil {
		return nil, apperror.Storage("dashboard statistics", err)
	}
	return d, nil
}
