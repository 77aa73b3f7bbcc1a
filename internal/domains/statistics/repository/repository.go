package repository

import (
	"context"

	"textbook-backend/internal/domains/statistics/model"
)

type StatisticsRepository interface {
	OrdersByType(ctx context.Context, rng model.DateRange) ([]model.GroupStat, error)
	OrdersByPublisher(ctx context.Context, rng model.DateRange) ([]model.GroupStat, error)
	OrdersByTextbook(ctx context.Context, rng model.DateRange) ([]model.GroupStat, error)
	OrdersByMonth(ctx context.Context, rng model.DateRange) ([]model.MonthlyStat, error)
	Dashboard(ctx context.Context) (*model.Dashboard, error)
}
