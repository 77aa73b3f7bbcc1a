package service

import (
	"context"

	"github.com/google/uuid"

	"textbook-backend/internal/domains/publisher/model"
	"textbook-backend/internal/domains/publisher/repository"
	"textbook-backend/internal/shared/apperror"
	"textbook-backend/internal/shared/pagination"
	"textbook-backend/internal/shared/rbac"
)

type PublisherService interface {
	Create(ctx context.Context, actor rbac.Actor, req model.CreatePublisherRequest) (*model.Publisher, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Publisher, error)
	List(ctx context.Context, params pagination.Params, keyword string) ([]model.Publisher, int, error)
	Update(ctx context.Context, actor rbac.Actor, id uuid.UUID, req model.UpdatePublisherRequest) (*model.Publisher, error)
	Delete(ctx context.Context, actor rbac.Actor, id uuid.UUID) error
}

type publisherService struct {
	repo repository.PublisherRepository
}

func NewPublisherService(repo repository.PublisherRepository) PublisherService {
	return &publisherService{repo: repo}
}

func (s *publisherService) Create(ctx context.Context, actor rbac.Actor, req model.CreatePublisherRequest) (*model.Publisher, error) {
	if err := rbac.RequireRole(actor, rbac.RoleAdmin, rbac.RoleWarehouseManager); err != nil {
		return nil, err
	}

	p := &model.Publisher{Name: req.Name}
	if req.ContactPerson != "" {
		p.ContactPerson = &req.ContactPerson
	}
	if req.Phone != "" {
		p.Phone = &req.Phone
	}
	if req.Address != "" {
		p.Address = &req.Address
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *publisherService) GetByID(ctx context.Context, id uuid.UUID) (*model.Publisher, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *publisherService) List(ctx context.Context, params pagination.Params, keyword string) ([]model.Publisher, int, error) {
	return s.repo.List(ctx, params.Clamped(), keyword)
}

func (s *publisherService) Update(ctx context.Context, actor rbac.Actor, id uuid.UUID, req model.UpdatePublisherRequest) (*model.Publisher, error) {
	if err := rbac.RequireRole(actor, rbac.RoleAdmin, rbac.RoleWarehouseManager); err != nil {
		return nil, err
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.ContactPerson != nil {
		p.ContactPerson = req.ContactPerson
	}
	if req.Phone != nil {
		p.Phone = req.Phone
	}
	if req.Address != nil {
		p.Address = req.Address
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete refuses to remove a publisher that still has textbooks, so
// catalog rows never point at a missing publisher.
func (s *publisherService) Delete(ctx context.Context, actor rbac.Actor, id uuid.UUID) error {
	if err := rbac.RequireRole(actor, rbac.RoleAdmin); err != nil {
		return err
	}

	count, err := s.repo.CountTextbooks(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperror.Conflict("publisher still has textbooks")
	}

	return s.repo.Delete(ctx, id)
}
