package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invmodel "textbook-backend/internal/domains/inventory/model"
	ordermodel "textbook-backend/internal/domains/order/model"
	"textbook-backend/internal/domains/stockin/model"
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

// serialTxRunner holds a lock for the whole transaction closure, the
// way the row lock on the order serializes concurrent arrivals in the
// database.
type serialTxRunner struct {
	mu sync.Mutex
}

func (r *serialTxRunner) RunInTx(ctx context.Context, fn database.TxFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(nil)
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*ordermodel.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*ordermodel.Order)}
}

func (r *fakeOrderRepo) put(o *ordermodel.Order) *ordermodel.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	cp := *o
	r.orders[o.ID] = &cp
	return o
}

func (r *fakeOrderRepo) Create(ctx context.Context, o *ordermodel.Order) error {
	o.ID = uuid.New()
	r.put(o)
	return nil
}

func (r *fakeOrderRepo) CreateInTx(ctx context.Context, tx pgx.Tx, o *ordermodel.Order) error {
	return r.Create(ctx, o)
}

func (r *fakeOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*ordermodel.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, apperror.NotFound("order")
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) List(ctx context.Context, params pagination.Params, scope rbac.Scope, filter ordermodel.ListFilter) ([]ordermodel.Order, int, error) {
	return nil, 0, nil
}

func (r *fakeOrderRepo) Update(ctx context.Context, o *ordermodel.Order) error {
	r.put(o)
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
	o.Status = ordermodel.StatusCancelled
	return nil
}

func (r *fakeOrderRepo) FindByIDForUpdateInTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*ordermodel.Order, error) {
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
	o.Status = ordermodel.StatusIssued
	return nil
}

type fakeInventoryRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*invmodel.Inventory
}

func newFakeInventoryRepo() *fakeInventoryRepo {
	return &fakeInventoryRepo{rows: make(map[uuid.UUID]*invmodel.Inventory)}
}

func (r *fakeInventoryRepo) qty(textbookID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.rows[textbookID]
	if !ok {
		return 0
	}
	return inv.Quantity
}

func (r *fakeInventoryRepo) FindByTextbook(ctx context.Context, textbookID uuid.UUID) (*invmodel.Inventory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.rows[textbookID]
	if !ok {
		return nil, apperror.NotFound("inventory")
	}
	cp := *inv
	return &cp, nil
}

func (r *fakeInventoryRepo) List(ctx context.Context, params pagination.Params, filter invmodel.ListFilter) ([]invmodel.Inventory, int, error) {
	return nil, 0, nil
}

func (r *fakeInventoryRepo) UpdateThresholds(ctx context.Context, textbookID uuid.UUID, min, max int) (*invmodel.Inventory, error) {
	return nil, apperror.NotFound("inventory")
}

func (r *fakeInventoryRepo) AddInTx(ctx context.Context, tx pgx.Tx, textbookID uuid.UUID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	inv, ok := r.rows[textbookID]
	if !ok {
		r.rows[textbookID] = &invmodel.Inventory{
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
	inv, ok := r.rows[textbookID]
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
	inv, ok := r.rows[textbookID]
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

type fakeStockInRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*model.StockIn
}

func newFakeStockInRepo() *fakeStockInRepo {
	return &fakeStockInRepo{records: make(map[uuid.UUID]*model.StockIn)}
}

func (r *fakeStockInRepo) CreateInTx(ctx context.Context, tx pgx.Tx, s *model.StockIn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	cp := *s
	r.records[s.ID] = &cp
	return nil
}

func (r *fakeStockInRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.StockIn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.records[id]
	if !ok {
		return nil, apperror.NotFound("stock-in record")
	}
	cp := *s
	return &cp, nil
}

func (r *fakeStockInRepo) List(ctx context.Context, params pagination.Params, filter model.ListFilter) ([]model.StockIn, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.StockIn
	for _, s := range r.records {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (r *fakeStockInRepo) DeleteInTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return apperror.NotFound("stock-in record")
	}
	delete(r.records, id)
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

// =====================================================
// TESTS
// =====================================================

var (
	admin   = rbac.Actor{UserID: uuid.NewString(), Username: "root", Role: rbac.RoleAdmin}
	manager = rbac.Actor{UserID: uuid.NewString(), Username: "wh", Role: rbac.RoleWarehouseManager}
	bob     = rbac.Actor{UserID: uuid.NewString(), Username: "bob", Role: rbac.RoleRegularUser}
)

type fixture struct {
	svc    StockInService
	orders *fakeOrderRepo
	inv    *fakeInventoryRepo
	stock  *fakeStockInRepo
}

func newFixture() *fixture {
	return newFixtureWithRunner(fakeTxRunner{})
}

func newFixtureWithRunner(runner database.TxRunner) *fixture {
	orders := newFakeOrderRepo()
	inv := newFakeInventoryRepo()
	stock := newFakeStockInRepo()
	svc := NewStockInService(runner, stock, orders, inv, &fakeSequence{})
	return &fixture{svc: svc, orders: orders, inv: inv, stock: stock}
}

func (f *fixture) seedOrder(quantity, arrived int, status string) *ordermodel.Order {
	return f.orders.put(&ordermodel.Order{
		OrderNo:     "PO20250901-0001",
		TextbookID:  uuid.New(),
		Quantity:    quantity,
		Arrived:     arrived,
		Status:      status,
		OrderPerson: "bob",
	})
}

// requireLedgerConsistent asserts the cumulative-counter invariant:
// the live balance always equals total in minus total out.
func (f *fixture) requireLedgerConsistent(t *testing.T, textbookID uuid.UUID) {
	t.Helper()
	inv, err := f.inv.FindByTextbook(context.Background(), textbookID)
	require.NoError(t, err)
	assert.Equal(t, inv.TotalIn-inv.TotalOut, inv.Quantity,
		"quantity must equal total_in - total_out")
}

func TestStockInPartialThenFull(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := f.seedOrder(100, 0, ordermodel.StatusOrdered)

	first, err := f.svc.Create(ctx, manager, model.CreateStockInRequest{
		OrderID:         o.ID,
		StockInQuantity: 60,
		QualityStatus:   model.QualityQualified,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.StockInNo, "SI"))
	assert.Equal(t, "wh", first.Operator)
	assert.Equal(t, 60, first.StockInQuantity)
	assert.Equal(t, 60, first.ActualQuantity, "actual defaults to the declared quantity")

	after, err := f.orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, after.Arrived)
	assert.Equal(t, ordermodel.StatusPartiallyArrived, after.Status)
	assert.Equal(t, 60, f.inv.qty(o.TextbookID))

	_, err = f.svc.Create(ctx, manager, model.CreateStockInRequest{
		OrderID:         o.ID,
		StockInQuantity: 40,
		QualityStatus:   model.QualityQualified,
	})
	require.NoError(t, err)

	after, err = f.orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, after.Arrived)
	assert.Equal(t, ordermodel.StatusArrived, after.Status)
	assert.Equal(t, 100, f.inv.qty(o.TextbookID))

	inv, err := f.inv.FindByTextbook(ctx, o.TextbookID)
	require.NoError(t, err)
	assert.Equal(t, 100, inv.TotalIn)
	assert.Zero(t, inv.TotalOut)
	assert.NotNil(t, inv.LastInDate)
	f.requireLedgerConsistent(t, o.TextbookID)
}

func TestStockInActualBelowDeclared(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := f.seedOrder(100, 0, ordermodel.StatusOrdered)

	actual := 50
	record, err := f.svc.Create(ctx, manager, model.CreateStockInRequest{
		OrderID:         o.ID,
		StockInQuantity: 60,
		ActualQuantity:  &actual,
		QualityStatus:   model.QualityPartiallyQualified,
	})
	require.NoError(t, err)
	assert.Equal(t, 60, record.StockInQuantity)
	assert.Equal(t, 50, record.ActualQuantity)

	// only the accepted quantity moves the order and the stock
	after, err := f.orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, after.Arrived)
	assert.Equal(t, ordermodel.StatusPartiallyArrived, after.Status)
	assert.Equal(t, 50, f.inv.qty(o.TextbookID))
	f.requireLedgerConsistent(t, o.TextbookID)
}

func TestStockInFullyRejectedShipment(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := f.seedOrder(100, 0, ordermodel.StatusOrdered)

	actual := 0
	record, err := f.svc.Create(ctx, manager, model.CreateStockInRequest{
		OrderID:         o.ID,
		StockInQuantity: 60,
		ActualQuantity:  &actual,
		QualityStatus:   model.QualityUnqualified,
	})
	require.NoError(t, err)
	assert.Zero(t, record.ActualQuantity)

	// the record exists but nothing moved
	after, err := f.orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Zero(t, after.Arrived)
	assert.Equal(t, ordermodel.StatusOrdered, after.Status)
	assert.Zero(t, f.inv.qty(o.TextbookID))
}

func TestStockInOverDelivery(t *testing.T) {
	f := newFixture()
	o := f.seedOrder(100, 60, ordermodel.StatusPartiallyArrived)

	_, err := f.svc.Create(context.Background(), manager, model.CreateStockInRequest{
		OrderID:         o.ID,
		StockInQuantity: 41,
		QualityStatus:   model.QualityQualified,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidQuantity))

	// nothing moved
	after, err := f.orders.FindByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, after.Arrived)
	assert.Zero(t, f.inv.qty(o.TextbookID))
}

func TestConcurrentStockInsSerializeOnOrderLock(t *testing.T) {
	f := newFixtureWithRunner(&serialTxRunner{})
	ctx := context.Background()
	o := f.seedOrder(100, 0, ordermodel.StatusOrdered)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Create(ctx, manager, model.CreateStockInRequest{
				OrderID:         o.ID,
				StockInQuantity: 60,
				QualityStatus:   model.QualityQualified,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, failed int
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		failed++
		assert.True(t, apperror.IsKind(err, apperror.KindInvalidQuantity),
			"the loser must see the remaining quantity, not double-count")
	}
	assert.Equal(t, 1, succeeded, "exactly one of the two arrivals may land")
	assert.Equal(t, 1, failed)

	after, err := f.orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, after.Arrived)
	assert.Equal(t, 60, f.inv.qty(o.TextbookID))
}

func TestStockInAgainstTerminalOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for _, status := range []string{ordermodel.StatusCancelled, ordermodel.StatusIssued} {
		o := f.seedOrder(100, 0, status)
		_, err := f.svc.Create(ctx, manager, model.CreateStockInRequest{
			OrderID:         o.ID,
			StockInQuantity: 10,
			QualityStatus:   model.QualityQualified,
		})
		require.Error(t, err, "status %s", status)
		assert.True(t, apperror.IsKind(err, apperror.KindInvalidState), "status %s", status)
	}
}

func TestStockInRequiresWarehouseRole(t *testing.T) {
	f := newFixture()
	o := f.seedOrder(100, 0, ordermodel.StatusOrdered)

	_, err := f.svc.Create(context.Background(), bob, model.CreateStockInRequest{
		OrderID:         o.ID,
		StockInQuantity: 10,
		QualityStatus:   model.QualityQualified,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindPermissionDenied))
}

func TestDeleteReversesStockIn(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := f.seedOrder(100, 0, ordermodel.StatusOrdered)

	record, err := f.svc.Create(ctx, manager, model.CreateStockInRequest{
		OrderID:         o.ID,
		StockInQuantity: 100,
		QualityStatus:   model.QualityQualified,
	})
	require.NoError(t, err)

	// only the admin may reverse
	err = f.svc.Delete(ctx, manager, record.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindPermissionDenied))

	require.NoError(t, f.svc.Delete(ctx, admin, record.ID))

	after, err := f.orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, after.Arrived)
	assert.Equal(t, ordermodel.StatusOrdered, after.Status, "fully reversed order reopens")
	assert.Zero(t, f.inv.qty(o.TextbookID))

	// the reversal restores the cumulative in counter, it is not an issue
	inv, err := f.inv.FindByTextbook(ctx, o.TextbookID)
	require.NoError(t, err)
	assert.Zero(t, inv.TotalIn)
	assert.Zero(t, inv.TotalOut)
	f.requireLedgerConsistent(t, o.TextbookID)

	_, err = f.stock.FindByID(ctx, record.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestDeletePartialReversalKeepsPartialStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := f.seedOrder(100, 0, ordermodel.StatusOrdered)

	first, err := f.svc.Create(ctx, manager, model.CreateStockInRequest{
		OrderID: o.ID, StockInQuantity: 60, QualityStatus: model.QualityQualified,
	})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, manager, model.CreateStockInRequest{
		OrderID: o.ID, StockInQuantity: 40, QualityStatus: model.QualityQualified,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, admin, first.ID))

	after, err := f.orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, after.Arrived)
	assert.Equal(t, ordermodel.StatusPartiallyArrived, after.Status)
	assert.Equal(t, 40, f.inv.qty(o.TextbookID))

	inv, err := f.inv.FindByTextbook(ctx, o.TextbookID)
	require.NoError(t, err)
	assert.Equal(t, 40, inv.TotalIn)
	f.requireLedgerConsistent(t, o.TextbookID)
}

func TestDeleteRefusedOnIssuedOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := f.seedOrder(100, 0, ordermodel.StatusOrdered)

	record, err := f.svc.Create(ctx, manager, model.CreateStockInRequest{
		OrderID: o.ID, StockInQuantity: 100, QualityStatus: model.QualityQualified,
	})
	require.NoError(t, err)

	require.NoError(t, f.orders.UpdateStatus(ctx, o.ID, ordermodel.StatusIssued))

	err = f.svc.Delete(ctx, admin, record.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidState))
}

func TestDeleteRefusedWhenStockAlreadyIssued(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := f.seedOrder(100, 0, ordermodel.StatusOrdered)

	record, err := f.svc.Create(ctx, manager, model.CreateStockInRequest{
		OrderID: o.ID, StockInQuantity: 100, QualityStatus: model.QualityQualified,
	})
	require.NoError(t, err)

	// the goods left the warehouse through another order
	require.NoError(t, f.inv.DeductInTx(ctx, nil, o.TextbookID, 80))

	err = f.svc.Delete(ctx, admin, record.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidState),
		"a reversal that would drive stock negative is an invalid state")
}

func TestDirectStockIn(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	textbookID := uuid.New()

	record, err := f.svc.DirectStockIn(ctx, manager, model.DirectStockInRequest{
		TextbookID:    textbookID,
		Quantity:      25,
		QualityStatus: model.QualityQualified,
	})
	require.NoError(t, err)
	assert.Equal(t, 25, record.StockInQuantity)
	assert.Equal(t, 25, record.ActualQuantity)
	assert.Equal(t, 25, f.inv.qty(textbookID))

	// the backing order is created fully arrived
	backing, err := f.orders.FindByID(ctx, record.OrderID)
	require.NoError(t, err)
	assert.Equal(t, ordermodel.StatusArrived, backing.Status)
	assert.Equal(t, 25, backing.Quantity)
	assert.Equal(t, 25, backing.Arrived)
	assert.Equal(t, "wh", backing.OrderPerson)

	// and the record is visible through the service reads
	got, err := f.svc.GetByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.StockInNo, got.StockInNo)

	_, total, err := f.svc.List(ctx, pagination.Params{Page: 1, Size: 20}, model.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestStockInInvalidQuantity(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), manager, model.CreateStockInRequest{
		OrderID:         uuid.New(),
		StockInQuantity: 0,
		QualityStatus:   model.QualityQualified,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidQuantity))

	negative := -3
	_, err = f.svc.Create(context.Background(), manager, model.CreateStockInRequest{
		OrderID:         uuid.New(),
		StockInQuantity: 10,
		ActualQuantity:  &negative,
		QualityStatus:   model.QualityQualified,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidQuantity))

	_, err = f.svc.DirectStockIn(context.Background(), manager, model.DirectStockInRequest{
		TextbookID:    uuid.New(),
		Quantity:      -5,
		QualityStatus: model.QualityQualified,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidQuantity))
}
