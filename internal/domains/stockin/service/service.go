package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	invrepo "textbook-backend/internal/domains/inventory/repository"
	ordermodel "textbook-backend/internal/domains/order/model"
	orderrepo "textbook-backend/internal/domains/order/repository"
	"textbook-backend/internal/domains/stockin/model"
	"textbook-backend/internal/domains/stockin/repository"
	"textbook-backend/internal/shared/apperror"
	"textbook-backend/internal/shared/pagination"
	"textbook-backend/internal/shared/rbac"
	"textbook-backend/pkg/database"
	"textbook-backend/pkg/logger"
	"textbook-backend/pkg/sequence"
)

// StockInNoPrefix is the document number prefix for stock-in records.
const StockInNoPrefix = "SI"

// StockInService reconciles arrivals: every stock-in commits the order's
// arrived count, the inventory balance and the stock-in record in one
// transaction, or none of them.
type StockInService interface {
	Create(ctx context.Context, actor rbac.Actor, req model.CreateStockInRequest) (*model.StockIn, error)
	DirectStockIn(ctx context.Context, actor rbac.Actor, req model.DirectStockInRequest) (*model.StockIn, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.StockIn, error)
	List(ctx context.Context, params pagination.Params, filter model.ListFilter) ([]model.StockIn, int, error)
	Delete(ctx context.Context, actor rbac.Actor, id uuid.UUID) error
}

type stockInService struct {
	tx        database.TxRunner
	repo      repository.StockInRepository
	orderRepo orderrepo.OrderRepository
	invRepo   invrepo.InventoryRepository
	seq       sequence.Generator
}

func NewStockInService(
	tx database.TxRunner,
	repo repository.StockInRepository,
	orderRepo orderrepo.OrderRepository,
	invRepo invrepo.InventoryRepository,
	seq sequence.Generator,
) StockInService {
	return &stockInService{
		tx:        tx,
		repo:      repo,
		orderRepo: orderRepo,
		invRepo:   invRepo,
		seq:       seq,
	}
}

// Create records an arrival against an order. The order row is locked
// for the whole transaction so concurrent arrivals against the same
// order serialize instead of double-counting.
func (s *stockInService) Create(ctx context.Context, actor rbac.Actor, req model.CreateStockInRequest) (*model.StockIn, error) {
	if err := rbac.RequireRole(actor, rbac.RoleAdmin, rbac.RoleWarehouseManager); err != nil {
		return nil, err
	}
	if req.StockInQuantity < 1 {
		return nil, apperror.InvalidQuantity("stock-in quantity must be at least 1")
	}

	// The accepted quantity defaults to the declared one; it is what
	// actually moves the order and the inventory.
	actual := req.StockInQuantity
	if req.ActualQuantity != nil {
		actual = *req.ActualQuantity
	}
	if actual < 0 {
		return nil, apperror.InvalidQuantity("actual quantity cannot be negative")
	}

	var record *model.StockIn
	err := s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		order, err := s.orderRepo.FindByIDForUpdateInTx(ctx, tx, req.OrderID)
		if err != nil {
			return err
		}

		if ordermodel.IsTerminal(order.Status) {
			return apperror.Newf(apperror.KindInvalidState,
				"cannot stock in against a %s order", order.Status)
		}
		if actual > order.Remaining() {
			return apperror.Newf(apperror.KindInvalidQuantity,
				"quantity %d exceeds remaining %d", actual, order.Remaining())
		}

		// A fully rejected shipment (actual 0) is recorded but moves
		// neither the order nor the stock.
		if actual > 0 {
			newArrived := order.Arrived + actual
			newStatus := ordermodel.ArrivalStatus(order.Quantity, newArrived)
			if err := s.orderRepo.SetArrivalInTx(ctx, tx, order.ID, newArrived, newStatus); err != nil {
				return err
			}

			if err := s.invRepo.AddInTx(ctx, tx, order.TextbookID, actual); err != nil {
				return err
			}
		}

		stockInNo, err := s.seq.NextInTx(ctx, tx, StockInNoPrefix)
		if err != nil {
			return apperror.Storage("allocate stock-in number", err)
		}

		record = &model.StockIn{
			StockInNo:       stockInNo,
			OrderID:         order.ID,
			TextbookID:      order.TextbookID,
			StockInQuantity: req.StockInQuantity,
			ActualQuantity:  actual,
			QualityStatus:   req.QualityStatus,
			Operator:        actor.Username,
			OrderNo:         order.OrderNo,
		}
		if req.Remark != "" {
			record.Remark = &req.Remark
		}

		return s.repo.CreateInTx(ctx, tx, record)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("stock-in recorded", map[string]interface{}{
		"stock_in_no": record.StockInNo,
		"order_no":    record.OrderNo,
		"quantity":    record.ActualQuantity,
		"operator":    actor.Username,
	})

	return record, nil
}

// DirectStockIn handles goods that arrive without a prior order: a
// backing order is created already fully arrived, in the same
// transaction as the inventory movement and the stock-in record.
func (s *stockInService) DirectStockIn(ctx context.Context, actor rbac.Actor, req model.DirectStockInRequest) (*model.StockIn, error) {
	if err := rbac.RequireRole(actor, rbac.RoleAdmin, rbac.RoleWarehouseManager); err != nil {
		return nil, err
	}
	if req.Quantity < 1 {
		return nil, apperror.InvalidQuantity("quantity must be at least 1")
	}

	var record *model.StockIn
	err := s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		orderNo, err := s.seq.NextInTx(ctx, tx, "PO")
		if err != nil {
			return apperror.Storage("allocate order number", err)
		}

		remark := "direct stock-in"
		order := &ordermodel.Order{
			OrderNo:     orderNo,
			TextbookID:  req.TextbookID,
			Quantity:    req.Quantity,
			Arrived:     req.Quantity,
			Status:      ordermodel.StatusArrived,
			OrderPerson: actor.Username,
			Remark:      &remark,
		}
		if err := s.orderRepo.CreateInTx(ctx, tx, order); err != nil {
			return err
		}

		if err := s.invRepo.AddInTx(ctx, tx, req.TextbookID, req.Quantity); err != nil {
			return err
		}

		stockInNo, err := s.seq.NextInTx(ctx, tx, StockInNoPrefix)
		if err != nil {
			return apperror.Storage("allocate stock-in number", err)
		}

		record = &model.StockIn{
			StockInNo:       stockInNo,
			OrderID:         order.ID,
			TextbookID:      req.TextbookID,
			StockInQuantity: req.Quantity,
			ActualQuantity:  req.Quantity,
			QualityStatus:   req.QualityStatus,
			Operator:        actor.Username,
			OrderNo:         order.OrderNo,
		}
		if req.Remark != "" {
			record.Remark = &req.Remark
		}

		return s.repo.CreateInTx(ctx, tx, record)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("direct stock-in recorded", map[string]interface{}{
		"stock_in_no": record.StockInNo,
		"quantity":    record.ActualQuantity,
		"operator":    actor.Username,
	})

	return record, nil
}

func (s *stockInService) GetByID(ctx context.Context, id uuid.UUID) (*model.StockIn, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *stockInService) List(ctx context.Context, params pagination.Params, filter model.ListFilter) ([]model.StockIn, int, error) {
	return s.repo.List(ctx, params.Clamped(), filter)
}

// Delete reverses a stock-in: the order's arrived count and the
// inventory balance both step back, atomically with the record's
// removal. Admin only, and refused once the order has been issued.
func (s *stockInService) Delete(ctx context.Context, actor rbac.Actor, id uuid.UUID) error {
	if err := rbac.RequireRole(actor, rbac.RoleAdmin); err != nil {
		return err
	}

	err := s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		record, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}

		order, err := s.orderRepo.FindByIDForUpdateInTx(ctx, tx, record.OrderID)
		if err != nil {
			return err
		}

		if order.Status == ordermodel.StatusIssued {
			return apperror.InvalidState("cannot reverse a stock-in on an issued order")
		}

		newArrived := order.Arrived - record.ActualQuantity
		if newArrived < 0 {
			return apperror.InvalidState("reversal would drive the arrived count negative")
		}

		// The goods may already have been issued from stock through
		// other orders; the reversal fails rather than driving the
		// balance negative.
		if record.ActualQuantity > 0 {
			if err := s.invRepo.ReverseInTx(ctx, tx, record.TextbookID, record.ActualQuantity); err != nil {
				return err
			}
		}

		newStatus := order.Status
		if order.Status != ordermodel.StatusCancelled {
			if newArrived == 0 {
				newStatus = ordermodel.StatusOrdered
			} else {
				newStatus = ordermodel.ArrivalStatus(order.Quantity, newArrived)
			}
		}
		if err := s.orderRepo.SetArrivalInTx(ctx, tx, order.ID, newArrived, newStatus); err != nil {
			return err
		}

		return s.repo.DeleteInTx(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	logger.Info("stock-in reversed", map[string]interface{}{
		"stock_in_id": id.String(),
		"operator":    actor.Username,
	})

	return nil
}
