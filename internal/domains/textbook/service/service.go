package service

import (
	"context"

	"github.com/google/uuid"

	"textbook-backend/internal/domains/textbook/model"
	"textbook-backend/internal/domains/textbook/repository"
	"textbook-backend/internal/shared/apperror"
	"textbook-backend/internal/shared/pagination"
	"textbook-backend/internal/shared/rbac"
)

type TextbookService interface {
	Create(ctx context.Context, actor rbac.Actor, req model.CreateTextbookRequest) (*model.Textbook, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Textbook, error)
	GetByISBN(ctx context.Context, isbn string) (*model.Textbook, error)
	List(ctx context.Context, params pagination.Params, filter model.ListFilter) ([]model.Textbook, int, error)
	Update(ctx context.Context, actor rbac.Actor, id uuid.UUID, req model.UpdateTextbookRequest) (*model.Textbook, error)
	Delete(ctx context.Context, actor rbac.Actor, id uuid.UUID) error
}

type textbookService struct {
	repo repository.TextbookRepository
}

func NewTextbookService(repo repository.TextbookRepository) TextbookService {
	return &textbookService{repo: repo}
}

func (s *textbookService) Create(ctx context.Context, actor rbac.Actor, req model.CreateTextbookRequest) (*model.Textbook, error) {
	if err := rbac.RequireRole(actor, rbac.RoleAdmin, rbac.RoleWarehouseManager); err != nil {
		return nil, err
	}

	t := &model.Textbook{
		ISBN:        req.ISBN,
		Name:        req.Name,
		Price:       req.Price,
		TypeID:      req.TypeID,
		PublisherID: req.PublisherID,
	}
	if req.Author != "" {
		t.Author = &req.Author
	}
	if req.Edition != "" {
		t.Edition = &req.Edition
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *textbookService) GetByID(ctx context.Context, id uuid.UUID) (*model.Textbook, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *textbookService) GetByISBN(ctx context.Context, isbn string) (*model.Textbook, error) {
	return s.repo.FindByISBN(ctx, isbn)
}

func (s *textbookService) List(ctx context.Context, params pagination.Params, filter model.ListFilter) ([]model.Textbook, int, error) {
	return s.repo.List(ctx, params.Clamped(), filter)
}

func (s *textbookService) Update(ctx context.Context, actor rbac.Actor, id uuid.UUID, req model.UpdateTextbookRequest) (*model.Textbook, error) {
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
	if req.Author != nil {
		t.Author = req.Author
	}
	if req.Edition != nil {
		t.Edition = req.Edition
	}
	if req.Price != nil {
		t.Price = *req.Price
	}
	if req.TypeID != nil {
		t.TypeID = *req.TypeID
	}
	if req.PublisherID != nil {
		t.PublisherID = *req.PublisherID
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *textbookService) Delete(ctx context.Context, actor rbac.Actor, id uuid.UUID) error {
	if err := rbac.RequireRole(actor, rbac.RoleAdmin); err != nil {
		return err
	}

	open, err := s.repo.CountOpenOrders(ctx, id)
	if err != nil {
		return err
	}
	if open > 0 {
		return apperror.Conflict("textbook has open purchase orders")
	}

	return s.repo.Delete(ctx, id)
}
