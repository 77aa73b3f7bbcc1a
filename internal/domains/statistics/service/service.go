package service

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"textbook-backend/internal/domains/statistics/model"
	"textbook-backend/internal/domains/statistics/repository"
	"textbook-backend/internal/shared/apperror"
	"textbook-backend/internal/shared/rbac"
)

type StatisticsService interface {
	OrdersByType(ctx context.Context, rng model.DateRange) ([]model.GroupStat, error)
	OrdersByPublisher(ctx context.Context, rng model.DateRange) ([]model.GroupStat, error)
	OrdersByTextbook(ctx context.Context, rng model.DateRange) ([]model.GroupStat, error)
	OrdersByMonth(ctx context.Context, rng model.DateRange) ([]model.MonthlyStat, error)
	Dashboard(ctx context.Context) (*model.Dashboard, error)
	ExportOrderReport(ctx context.Context, actor rbac.Actor, rng model.DateRange) (*excelize.File, error)
}

type statisticsService struct {
	repo repository.StatisticsRepository
}

func NewStatisticsService(repo repository.StatisticsRepository) StatisticsService {
	return &statisticsService{repo: repo}
}

func (s *statisticsService) OrdersByType(ctx context.Context, rng model.DateRange) ([]model.GroupStat, error) {
	return s.repo.OrdersByType(ctx, rng)
}

func (s *statisticsService) OrdersByPublisher(ctx context.Context, rng model.DateRange) ([]model.GroupStat, error) {
	return s.repo.OrdersByPublisher(ctx, rng)
}

func (s *statisticsService) OrdersByTextbook(ctx context.Context, rng model.DateRange) ([]model.GroupStat, error) {
	return s.repo.OrdersByTextbook(ctx, rng)
}

func (s *statisticsService) OrdersByMonth(ctx context.Context, rng model.DateRange) ([]model.MonthlyStat, error) {
	return s.repo.OrdersByMonth(ctx, rng)
}

func (s *statisticsService) Dashboard(ctx context.Context) (*model.Dashboard, error) {
	return s.repo.Dashboard(ctx)
}

// ExportOrderReport builds an Excel workbook with one sheet per
// grouping dimension plus the monthly trend.
func (s *statisticsService) ExportOrderReport(ctx context.Context, actor rbac.Actor, rng model.DateRange) (*excelize.File, error) {
	if err := rbac.RequireRole(actor, rbac.RoleAdmin, rbac.RoleWarehouseManager); err != nil {
		return nil, err
	}

	byType, err := s.repo.OrdersByType(ctx, rng)
	if err != nil {
		return nil, err
	}
	byPublisher, err := s.repo.OrdersByPublisher(ctx, rng)
	if err != nil {
		return nil, err
	}
	byTextbook, err := s.repo.OrdersByTextbook(ctx, rng)
	if err != nil {
		return nil, err
	}
	byMonth, err := s.repo.OrdersByMonth(ctx, rng)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()

	if err := writeGroupSheet(f, "By Type", byType); err != nil {
		return nil, apperror.Storage("write report sheet", err)
	}
	if err := writeGroupSheet(f, "By Publisher", byPublisher); err != nil {
		return nil, apperror.Storage("write report sheet", err)
	}
	if err := writeGroupSheet(f, "By Textbook", byTextbook); err != nil {
		return nil, apperror.Storage("write report sheet", err)
	}
	if err := writeMonthlySheet(f, byMonth); err != nil {
		return nil, apperror.Storage("write report sheet", err)
	}

	// Drop the default sheet created by NewFile.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, apperror.Storage("finalize report", err)
	}

	return f, nil
}

func writeGroupSheet(f *excelize.File, name string, stats []model.GroupStat) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}

	headers := []interface{}{"Name", "Orders", "Ordered Qty", "Arrived Qty", "Issued Qty"}
	if err := f.SetSheetRow(name, "A1", &headers); err != nil {
		return err
	}

	for i, s := range stats {
		row := []interface{}{s.Label, s.OrderCount, s.TotalQuantity, s.TotalArrived, s.TotalIssued}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeMonthlySheet(f *excelize.File, stats []model.MonthlyStat) error {
	const name = "By Month"
	if _, err := f.NewSheet(name); err != nil {
		return err
	}

	headers := []interface{}{"Month", "Orders", "Ordered Qty", "Arrived Qty"}
	if err := f.SetSheetRow(name, "A1", &headers); err != nil {
		return err
	}

	for i, s := range stats {
		row := []interface{}{s.Month, s.OrderCount, s.TotalQuantity, s.TotalArrived}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
