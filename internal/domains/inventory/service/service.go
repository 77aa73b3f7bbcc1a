package service

import (
	"context"

	"github.com/google/uuid"

	"textbook-backend/internal/domains/inventory/model"
	"textbook-backend/internal/domains/inventory/repository"
	"textbook-backend/internal/shared/apperror"
	"textbook-backend/internal/shared/pagination"
	"textbook-backend/internal/shared/rbac"
)

type InventoryService interface {
	GetByTextbook(ctx context.Context, textbookID uuid.UUID) (*model.InventoryView, error)
	List(ctx context.Context, params pagination.Params, filter model.ListFilter) ([]model.InventoryView, int, error)
	UpdateThresholds(ctx context.Context, actor rbac.Actor, textbookID uuid.UUID, req model.UpdateThresholdsRequest) (*model.InventoryView, error)
}

type inventoryService struct {
	repo repository.InventoryRepository
}

func NewInventoryService(repo repository.InventoryRepository) InventoryService {
	return &inventoryService{repo: repo}
}

func (s *inventoryService) GetByTextbook(ctx context.Context, textbookID uuid.UUID) (*model.InventoryView, error) {
	inv, err := s.repo.FindByTextbook(ctx, textbookID)
	if err != nil {
		return nil, err
	}
	view := model.NewView(*inv)
	return &view, nil
}

func (s *inventoryService) List(ctx context.Context, params pagination.Params, filter model.ListFilter) ([]model.InventoryView, int, error) {
	inventories, total, err := s.repo.List(ctx, params.Clamped(), filter)
	if err != nil {
		return nil, 0, err
	}

	views := make([]model.InventoryView, 0, len(inventories))
	for _, inv := range inventories {
		views = append(views, model.NewView(inv))
	}
	return views, total, nil
}

func (s *inventoryService) UpdateThresholds(ctx context.Context, actor rbac.Actor, textbookID uuid.UUID, req model.UpdateThresholdsRequest) (*model.InventoryView, error) {
	if err := rbac.RequireRole(actor, rbac.RoleAdmin, rbac.RoleWarehouseManager); err != nil {
		return nil, err
	}
	if req.MaxThreshold <= req.MinThreshold {
		return nil, apperror.InvalidQuantity("max_threshold must be greater than min_threshold")
	}

	inv, err := s.repo.UpdateThresholds(ctx, textbookID, req.MinThreshold, req.MaxThreshold)
	if err != nil {
		return nil, err
	}
	view := model.NewView(*inv)
	return &view, nil
}
