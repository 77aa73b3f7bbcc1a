package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	invrepo "textbook-backend/internal/domains/inventory/repository"
	"textbook-backend/internal/domains/order/model"
	"textbook-backend/internal/domains/order/repository"
	"textbook-backend/internal/shared/apperror"
	"textbook-backend/internal/shared/pagination"
	"textbook-backend/internal/shared/rbac"
	"textbook-backend/pkg/database"
	"textbook-backend/pkg/logger"
	"textbook-backend/pkg/sequence"
)

// OrderNoPrefix is the document number prefix for purchase orders.
const OrderNoPrefix = "PO"

// RoleResolver looks up the current role of a username. The visibility
// policy evaluates the owner's role at inspection time, so role changes
// take effect immediately.
type RoleResolver func(ctx context.Context, username string) (string, error)

type OrderService interface {
	Create(ctx context.Context, actor rbac.Actor, req model.CreateOrderRequest) (*model.Order, error)
	GetByID(ctx context.Context, actor rbac.Actor, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, actor rbac.Actor, params pagination.Params, filter model.ListFilter) ([]model.Order, int, error)
	Update(ctx context.Context, actor rbac.Actor, id uuid.UUID, req model.UpdateOrderRequest) (*model.Order, error)
	Approve(ctx context.Context, actor rbac.Actor, id uuid.UUID) (*model.Order, error)
	MarkOrdered(ctx context.Context, actor rbac.Actor, id uuid.UUID) (*model.Order, error)
	Cancel(ctx context.Context, actor rbac.Actor, id uuid.UUID, reason string) (*model.Order, error)
	Deliver(ctx context.Context, actor rbac.Actor, id uuid.UUID) (*model.Order, error)
}

type orderService struct {
	tx          database.TxRunner
	repo        repository.OrderRepository
	invRepo     invrepo.InventoryRepository
	seq         sequence.Generator
	resolveRole RoleResolver
}

func NewOrderService(
	tx database.TxRunner,
	repo repository.OrderRepository,
	invRepo invrepo.InventoryRepository,
	seq sequence.Generator,
	resolveRole RoleResolver,
) OrderService {
	return &orderService{
		tx:          tx,
		repo:        repo,
		invRepo:     invRepo,
		seq:         seq,
		resolveRole: resolveRole,
	}
}

// ownerRole resolves the order owner's current role. A missing owner
// (deleted account) yields an empty role, which restricts visibility to
// exact username matches.
func (s *orderService) ownerRole(ctx context.Context, orderPerson string) string {
	role, err := s.resolveRole(ctx, orderPerson)
	if err != nil {
		return ""
	}
	return role
}

func (s *orderService) Create(ctx context.Context, actor rbac.Actor, req model.CreateOrderRequest) (*model.Order, error) {
	if req.Quantity < 1 {
		return nil, apperror.InvalidQuantity("quantity must be at least 1")
	}

	orderPerson := req.OrderPerson
	if orderPerson == "" {
		orderPerson = actor.Username
	}
	if orderPerson != actor.Username && !rbac.IsPrivileged(actor.Role) {
		return nil, apperror.PermissionDenied("cannot place orders for another user")
	}

	orderNo, err := s.seq.Next(ctx, OrderNoPrefix)
	if err != nil {
		return nil, apperror.Storage("allocate order number", err)
	}

	o := &model.Order{
		OrderNo:     orderNo,
		TextbookID:  req.TextbookID,
		Quantity:    req.Quantity,
		Arrived:     0,
		Status:      model.StatusPending,
		OrderPerson: orderPerson,
	}
	if req.Remark != "" {
		o.Remark = &req.Remark
	}

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}

	logger.Info("order created", map[string]interface{}{
		"order_no":     o.OrderNo,
		"order_person": o.OrderPerson,
		"quantity":     o.Quantity,
	})

	return o, nil
}

func (s *orderService) GetByID(ctx context.Context, actor rbac.Actor, id uuid.UUID) (*model.Order, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := rbac.CanAccessOrder(actor, o.OrderPerson, s.ownerRole(ctx, o.OrderPerson)); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *orderService) List(ctx context.Context, actor rbac.Actor, params pagination.Params, filter model.ListFilter) ([]model.Order, int, error) {
	scope := rbac.VisibilityScope(actor)
	return s.repo.List(ctx, params.Clamped(), scope, filter)
}

func (s *orderService) Update(ctx context.Context, actor rbac.Actor, id uuid.UUID, req model.UpdateOrderRequest) (*model.Order, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := rbac.CanMutateOrder(actor, o.OrderPerson, s.ownerRole(ctx, o.OrderPerson), o.Status); err != nil {
		return nil, err
	}
	if model.IsTerminal(o.Status) {
		return nil, apperror.InvalidState("order is in a terminal state")
	}

	if req.Quantity != nil {
		if *req.Quantity < 1 {
			return nil, apperror.InvalidQuantity("quantity must be at least 1")
		}
		if *req.Quantity < o.Arrived {
			return nil, apperror.InvalidQuantity("quantity cannot be below the arrived count")
		}
		o.Quantity = *req.Quantity
	}
	if req.Remark != nil {
		o.Remark = req.Remark
	}

	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *orderService) Approve(ctx context.Context, actor rbac.Actor, id uuid.UUID) (*model.Order, error) {
	return s.transition(ctx, actor, id, model.StatusApproved)
}

func (s *orderService) MarkOrdered(ctx context.Context, actor rbac.Actor, id uuid.UUID) (*model.Order, error) {
	return s.transition(ctx, actor, id, model.StatusOrdered)
}

func (s *orderService) transition(ctx context.Context, actor rbac.Actor, id uuid.UUID, to string) (*model.Order, error) {
	if err := rbac.RequireRole(actor, rbac.RoleAdmin, rbac.RoleWarehouseManager); err != nil {
		return nil, err
	}

	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !model.CanTransition(o.Status, to) {
		return nil, apperror.Newf(apperror.KindInvalidState,
			"cannot move order from %s to %s", o.Status, to)
	}

	if err := s.repo.UpdateStatus(ctx, id, to); err != nil {
		return nil, err
	}
	o.Status = to

	logger.Info("order status changed", map[string]interface{}{
		"order_no": o.OrderNo,
		"status":   to,
	})

	return o, nil
}

// Cancel closes an order before its stock fully arrives. Fully arrived
// orders can no longer be cancelled, only issued.
func (s *orderService) Cancel(ctx context.Context, actor rbac.Actor, id uuid.UUID, reason string) (*model.Order, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := rbac.CanMutateOrder(actor, o.OrderPerson, s.ownerRole(ctx, o.OrderPerson), o.Status); err != nil {
		return nil, err
	}
	if !model.CanCancel(o.Status) {
		return nil, apperror.Newf(apperror.KindInvalidState,
			"cannot cancel an order that is %s", o.Status)
	}

	remark := fmt.Sprintf("[%s] cancelled by %s",
		time.Now().Format("2006-01-02"), actor.Username)
	if reason != "" {
		remark += ": " + reason
	}
	if err := s.repo.Cancel(ctx, id, remark); err != nil {
		return nil, err
	}
	o.Status = model.StatusCancelled

	logger.Info("order cancelled", map[string]interface{}{
		"order_no":     o.OrderNo,
		"cancelled_by": actor.Username,
	})

	return o, nil
}

// Deliver issues a fully arrived order: the order quantity is deducted
// from inventory and the order closes to issued, atomically. A trace of
// who issued and when is appended to the remark.
func (s *orderService) Deliver(ctx context.Context, actor rbac.Actor, id uuid.UUID) (*model.Order, error) {
	if err := rbac.RequireRole(actor, rbac.RoleAdmin, rbac.RoleWarehouseManager); err != nil {
		return nil, err
	}

	var delivered *model.Order
	err := s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		o, err := s.repo.FindByIDForUpdateInTx(ctx, tx, id)
		if err != nil {
			return err
		}

		if o.Status != model.StatusArrived {
			return apperror.Newf(apperror.KindInvalidState,
				"only arrived orders can be issued, current status is %s", o.Status)
		}
		if o.Arrived <= 0 {
			return apperror.InvalidQuantity("order has no arrived stock to issue")
		}

		if err := s.invRepo.DeductInTx(ctx, tx, o.TextbookID, o.Quantity); err != nil {
			return err
		}

		remark := fmt.Sprintf("[%s] issued by %s, quantity: %d",
			time.Now().Format("2006-01-02"), actor.Username, o.Quantity)
		if err := s.repo.IssueInTx(ctx, tx, o.ID, remark); err != nil {
			return err
		}

		o.Status = model.StatusIssued
		delivered = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("order issued", map[string]interface{}{
		"order_no":  delivered.OrderNo,
		"quantity":  delivered.Quantity,
		"issued_by": actor.Username,
	})

	return delivered, nil
}
