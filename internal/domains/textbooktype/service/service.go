package service

import (
	"context"

	"github.com/google/uuid"

	"textbook-backend/internal/domains/textbooktype/model"
	"textbook-backend/internal/domains/textbooktype/repository"
	"textbook-backend/internal/shared/apperror"
	"textbook-backend/internal/shared/rbac"
)

type TextbookTypeService interface {
	Create(ctx context.Context, actor rbac.Actor, req model.CreateTextbookTypeRequest) (*model.TextbookType, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.TextbookType, error)
	List(ctx context.Context) ([]model.TextbookType, error)
	Update(ctx context.Context, actor rbac.Actor, id uuid.UUID, req model.UpdateTextbookTypeRequest) (*model.TextbookType, error)
	Delete(ctx context.Context, actor rbac.Actor, id uuid.UUID) error
}

type textbookTypeService struct {
	repo repository.TextbookTypeRepository
}

func NewTextbookTypeService(repo repository.TextbookTypeRepository) TextbookTypeService {
	return &textbookTypeService{repo: repo}
}

func (s *textbookTypeService) Create(ctx context.Context, actor rbac.Actor, req model.CreateTextbookTypeRequest) (*model.TextbookType, error) {
	if err := rbac.RequireRole(actor, rbac.RoleAdmin, rbac.RoleWarehouseManager); err != nil {
		return nil, err
	}

	t := &model.TextbookType{
		Code: req.Code,
		Name: req.Name,
	}
	if req.Description != "" {
		t.Description = &req.Description
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *textbookTypeService) GetByID(ctx context.Context, id uuid.UUID) (*model.TextbookType, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *textbookTypeService) List(ctx context.Context) ([]model.TextbookType, error) {
	return s.repo.List(ctx)
}

func (s *textbookTypeService) Update(ctx context.Context, actor rbac.Actor, id uuid.UUID, req model.UpdateTextbookTypeRequest) (*model.TextbookType, error) {
	if err := rbac.RequireRole(actor, rbac.RoleAdmin, rbac.RoleWarehouseManager); err != nil {
		return nil, err
	}

	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.Description != nil {
		t.Description = req.Description
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *textbookTypeService) Delete(ctx context.Context, actor rbac.Actor, id uuid.UUID) error {
	if err := rbac.RequireRole(actor, rbac.RoleAdmin); err != nil {
		return err
	}

	count, err := s.repo.CountTextbooks(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperror.Conflict("textbook type still has textbooks")
	}

	return s.repo.Delete(ctx, id)
}
