package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invmodel "textbook-backend/internal/domains/inventory/model"
	"textbook-backend/internal/domains/order/model"
	"textbook-backend/internal/shared/apperror"
	"textbook-backend/internal/shared/pagination"
	"textbook-backend/internal/shared/rbac"
	"textbook-backend/pkg/database"
	"textbook-backend/pkg/sequence"
)

// =====================================================
// IN-MEMORY FAKES
// =====================================================

type fakeTxRunner struct{}

func (fakeTxRunner) RunInTx(ctx context.Context, fn database.TxFunc) error {
	return fn(nil)
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*model.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func (r *fakeOrderRepo) Create(ctx context.Context, o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o.ID = uuid.New()
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) CreateInTx(ctx context.Context, tx pgx.Tx, o *model.Order) error {
	return r.Create(ctx, o)
}

func (r *fakeOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, apperror.NotFound("order")
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) List(ctx context.Context, params pagination.Params, scope rbac.Scope, filter model.ListFilter) ([]model.Order, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Order
	for _, o := range r.orders {
		if !scope.All && o.OrderPerson != scope.Username {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (r *fakeOrderRepo) Update(ctx context.Context, o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[o.ID]
	if !ok {
		return apperror.NotFound("order")
	}
	stored.Quantity = o.Quantity
	stored.Remark = o.Remark
	return nil
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return apperror.NotFound("order")
	}
	o.Status = status
	return nil
}

func (r *fakeOrderRepo) Cancel(ctx context.Context, id uuid.UUID, remark string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return apperror.NotFound("order")
	}
	o.Status = model.StatusCancelled
	if o.Remark == nil {
		o.Remark = &remark
	} else {
		joined := *o.Remark + "\n" + remark
		o.Remark = &joined
	}
	return nil
}

func (r *fakeOrderRepo) FindByIDForUpdateInTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeOrderRepo) SetArrivalInTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, arrived int, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return apperror.NotFound("order")
	}
	o.Arrived = arrived
	o.Status = status
	return nil
}

func (r *fakeOrderRepo) IssueInTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, remark string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return apperror.NotFound("order")
	}
	o.Status = model.StatusIssued
	if o.Remark == nil {
		o.Remark = &remark
	} else {
		joined := *o.Remark + "\n" + remark
		o.Remark = &joined
	}
	return nil
}

type fakeInventoryRepo struct {
	mu    sync.Mutex
	stock map[uuid.UUID]*invmodel.Inventory
}

func newFakeInventoryRepo() *fakeInventoryRepo {
	return &fakeInventoryRepo{stock: make(map[uuid.UUID]*invmodel.Inventory)}
}

func (r *fakeInventoryRepo) FindByTextbook(ctx context.Context, textbookID uuid.UUID) (*invmodel.Inventory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.stock[textbookID]
	if !ok {
		return nil, apperror.NotFound("inventory")
	}
	cp := *inv
	return &cp, nil
}

func (r *fakeInventoryRepo) List(ctx context.Context, params pagination.Params, filter invmodel.ListFilter) ([]invmodel.Inventory, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []invmodel.Inventory
	for _, inv := range r.stock {
		out = append(out, *inv)
	}
	return out, len(out), nil
}

func (r *fakeInventoryRepo) UpdateThresholds(ctx context.Context, textbookID uuid.UUID, min, max int) (*invmodel.Inventory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.stock[textbookID]
	if !ok {
		return nil, apperror.NotFound("inventory")
	}
	inv.MinThreshold = min
	inv.MaxThreshold = max
	cp := *inv
	return &cp, nil
}

func (r *fakeInventoryRepo) AddInTx(ctx context.Context, tx pgx.Tx, textbookID uuid.UUID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	inv, ok := r.stock[textbookID]
	if !ok {
		r.stock[textbookID] = &invmodel.Inventory{
			ID:           uuid.New(),
			TextbookID:   textbookID,
			Quantity:     qty,
			TotalIn:      qty,
			LastInDate:   &now,
			MinThreshold: invmodel.DefaultMinThreshold,
			MaxThreshold: invmodel.DefaultMaxThreshold,
		}
		return nil
	}
	inv.Quantity += qty
	inv.TotalIn += qty
	inv.LastInDate = &now
	return nil
}

func (r *fakeInventoryRepo) DeductInTx(ctx context.Context, tx pgx.Tx, textbookID uuid.UUID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.stock[textbookID]
	if !ok {
		return apperror.InsufficientStock("no inventory for textbook")
	}
	if inv.Quantity < qty {
		return apperror.Newf(apperror.KindInsufficientStock,
			"insufficient stock: have %d, need %d", inv.Quantity, qty)
	}
	now := time.Now()
	inv.Quantity -= qty
	inv.TotalOut += qty
	inv.LastOutDate = &now
	return nil
}

func (r *fakeInventoryRepo) ReverseInTx(ctx context.Context, tx pgx.Tx, textbookID uuid.UUID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.stock[textbookID]
	if !ok {
		return apperror.InvalidState("no inventory row to reverse")
	}
	if inv.Quantity < qty {
		return apperror.Newf(apperror.KindInvalidState,
			"reversing %d would drive stock negative, have %d", qty, inv.Quantity)
	}
	inv.Quantity -= qty
	inv.TotalIn -= qty
	return nil
}

type fakeSequence struct {
	mu sync.Mutex
	n  int64
}

func (g *fakeSequence) Next(ctx context.Context, prefix string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return sequence.Format(prefix, time.Now(), g.n), nil
}

func (g *fakeSequence) NextInTx(ctx context.Context, tx pgx.Tx, prefix string) (string, error) {
	return g.Next(ctx, prefix)
}

func staticRoles(roles map[string]string) RoleResolver {
	return func(ctx context.Context, username string) (string, error) {
		role, ok := roles[username]
		if !ok {
			return "", apperror.NotFound("user")
		}
		return role, nil
	}
}

// =====================================================
// TESTS
// =====================================================

var (
	admin   = rbac.Actor{UserID: uuid.NewString(), Username: "root", Role: rbac.RoleAdmin}
	manager = rbac.Actor{UserID: uuid.NewString(), Username: "wh", Role: rbac.RoleWarehouseManager}
	prof    = rbac.Actor{UserID: uuid.NewString(), Username: "prof", Role: rbac.RoleTeacher}
	bob     = rbac.Actor{UserID: uuid.NewString(), Username: "bob", Role: rbac.RoleRegularUser}
	alice   = rbac.Actor{UserID: uuid.NewString(), Username: "alice", Role: rbac.RoleRegularUser}
)

var testRoles = map[string]string{
	"root":  rbac.RoleAdmin,
	"wh":    rbac.RoleWarehouseManager,
	"prof":  rbac.RoleTeacher,
	"bob":   rbac.RoleRegularUser,
	"alice": rbac.RoleRegularUser,
}

func newTestService() (OrderService, *fakeOrderRepo, *fakeInventoryRepo) {
	orders := newFakeOrderRepo()
	inv := newFakeInventoryRepo()
	svc := NewOrderService(fakeTxRunner{}, orders, inv, &fakeSequence{}, staticRoles(testRoles))
	return svc, orders, inv
}

func TestCreateOrder(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	o, err := svc.Create(ctx, bob, model.CreateOrderRequest{
		TextbookID: uuid.New(),
		Quantity:   50,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, o.Status)
	assert.Equal(t, "bob", o.OrderPerson)
	assert.Equal(t, 0, o.Arrived)
	assert.True(t, strings.HasPrefix(o.OrderNo, "PO"), "order no: %s", o.OrderNo)
}

func TestCreateOrderInvalidQuantity(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create(context.Background(), bob, model.CreateOrderRequest{
		TextbookID: uuid.New(),
		Quantity:   0,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidQuantity))
}

func TestCreateOrderForAnotherUser(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, bob, model.CreateOrderRequest{
		TextbookID:  uuid.New(),
		Quantity:    10,
		OrderPerson: "alice",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindPermissionDenied))

	// A warehouse manager may order on someone else's behalf.
	o, err := svc.Create(ctx, manager, model.CreateOrderRequest{
		TextbookID:  uuid.New(),
		Quantity:    10,
		OrderPerson: "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", o.OrderPerson)
}

func TestGetOrderVisibility(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	o, err := svc.Create(ctx, alice, model.CreateOrderRequest{
		TextbookID: uuid.New(),
		Quantity:   10,
	})
	require.NoError(t, err)

	// bob cannot see alice's order
	_, err = svc.GetByID(ctx, bob, o.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindPermissionDenied))

	// the teacher can, because alice is a regular user
	got, err := svc.GetByID(ctx, prof, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	// the admin always can
	_, err = svc.GetByID(ctx, admin, o.ID)
	assert.NoError(t, err)
}

func TestApproveAndMarkOrdered(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	o, err := svc.Create(ctx, bob, model.CreateOrderRequest{TextbookID: uuid.New(), Quantity: 10})
	require.NoError(t, err)

	// bob cannot approve his own order
	_, err = svc.Approve(ctx, bob, o.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindPermissionDenied))

	approved, err := svc.Approve(ctx, manager, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, approved.Status)

	// approving twice is an invalid transition
	_, err = svc.Approve(ctx, manager, o.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidState))

	ordered, err := svc.MarkOrdered(ctx, manager, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOrdered, ordered.Status)
}

func TestMarkOrderedRequiresApproval(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	o, err := svc.Create(ctx, bob, model.CreateOrderRequest{TextbookID: uuid.New(), Quantity: 10})
	require.NoError(t, err)

	_, err = svc.MarkOrdered(ctx, manager, o.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidState))
}

func TestUpdateOrder(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	o, err := svc.Create(ctx, bob, model.CreateOrderRequest{TextbookID: uuid.New(), Quantity: 10})
	require.NoError(t, err)

	qty := 25
	updated, err := svc.Update(ctx, bob, o.ID, model.UpdateOrderRequest{Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, 25, updated.Quantity)

	// after approval the owner can no longer modify
	_, err = svc.Approve(ctx, manager, o.ID)
	require.NoError(t, err)

	_, err = svc.Update(ctx, bob, o.ID, model.UpdateOrderRequest{Quantity: &qty})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidState))

	// a privileged actor still can, but not below the arrived count
	require.NoError(t, repo.SetArrivalInTx(ctx, nil, o.ID, 20, model.StatusPartiallyArrived))
	low := 15
	_, err = svc.Update(ctx, manager, o.ID, model.UpdateOrderRequest{Quantity: &low})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidQuantity))
}

func TestCancelOrder(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	o, err := svc.Create(ctx, bob, model.CreateOrderRequest{TextbookID: uuid.New(), Quantity: 10})
	require.NoError(t, err)

	// alice cannot cancel bob's order
	_, err = svc.Cancel(ctx, alice, o.ID, "")
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindPermissionDenied))

	cancelled, err := svc.Cancel(ctx, bob, o.ID, "wrong edition")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)

	// the reason ends up in the remark
	stored, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Remark)
	assert.Contains(t, *stored.Remark, "cancelled by bob: wrong edition")

	// cancelling a terminal order fails even for the admin
	_, err = svc.Cancel(ctx, admin, o.ID, "")
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidState))

	// a partially arrived order can still be cancelled by a privileged actor
	o2, err := svc.Create(ctx, bob, model.CreateOrderRequest{TextbookID: uuid.New(), Quantity: 10})
	require.NoError(t, err)
	require.NoError(t, repo.SetArrivalInTx(ctx, nil, o2.ID, 5, model.StatusPartiallyArrived))

	cancelled2, err := svc.Cancel(ctx, manager, o2.ID, "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled2.Status)

	// a fully arrived order can no longer be cancelled
	o3, err := svc.Create(ctx, bob, model.CreateOrderRequest{TextbookID: uuid.New(), Quantity: 10})
	require.NoError(t, err)
	require.NoError(t, repo.SetArrivalInTx(ctx, nil, o3.ID, 10, model.StatusArrived))

	_, err = svc.Cancel(ctx, admin, o3.ID, "")
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidState))
}

func TestDeliver(t *testing.T) {
	svc, repo, inv := newTestService()
	ctx := context.Background()
	textbookID := uuid.New()

	o, err := svc.Create(ctx, bob, model.CreateOrderRequest{TextbookID: textbookID, Quantity: 30})
	require.NoError(t, err)

	// not arrived yet
	_, err = svc.Deliver(ctx, manager, o.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidState))

	require.NoError(t, repo.SetArrivalInTx(ctx, nil, o.ID, 30, model.StatusArrived))

	// stock is short: another order already consumed the goods
	require.NoError(t, inv.AddInTx(ctx, nil, textbookID, 20))
	_, err = svc.Deliver(ctx, manager, o.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInsufficientStock))

	// order must remain arrived after the failed attempt
	unchanged, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusArrived, unchanged.Status)

	// top up and deliver
	require.NoError(t, inv.AddInTx(ctx, nil, textbookID, 10))
	issued, err := svc.Deliver(ctx, manager, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusIssued, issued.Status)

	stock, err := inv.FindByTextbook(ctx, textbookID)
	require.NoError(t, err)
	assert.Equal(t, 0, stock.Quantity)
	assert.Equal(t, 30, stock.TotalOut, "issue adds to the cumulative out counter")
	assert.Equal(t, stock.TotalIn-stock.TotalOut, stock.Quantity)
	assert.NotNil(t, stock.LastOutDate)

	// the remark records who issued and how much
	final, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	require.NotNil(t, final.Remark)
	assert.Contains(t, *final.Remark, "issued by wh")
	assert.Contains(t, *final.Remark, fmt.Sprintf("quantity: %d", 30))

	// regular users cannot deliver
	_, err = svc.Deliver(ctx, bob, o.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindPermissionDenied))
}

func TestDeliverWithoutArrivedStock(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	o, err := svc.Create(ctx, bob, model.CreateOrderRequest{TextbookID: uuid.New(), Quantity: 30})
	require.NoError(t, err)

	// an arrived status with nothing actually arrived must not issue
	require.NoError(t, repo.SetArrivalInTx(ctx, nil, o.ID, 0, model.StatusArrived))

	_, err = svc.Deliver(ctx, manager, o.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidQuantity))
}

func TestListScoping(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, bob, model.CreateOrderRequest{TextbookID: uuid.New(), Quantity: 1})
	require.NoError(t, err)
	_, err = svc.Create(ctx, alice, model.CreateOrderRequest{TextbookID: uuid.New(), Quantity: 2})
	require.NoError(t, err)

	own, _, err := svc.List(ctx, bob, pagination.Params{Page: 1, Size: 20}, model.ListFilter{})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "bob", own[0].OrderPerson)

	all, _, err := svc.List(ctx, admin, pagination.Params{Page: 1, Size: 20}, model.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
