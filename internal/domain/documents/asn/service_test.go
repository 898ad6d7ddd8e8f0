package asn

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
	"storeroom/internal/core/numerator"
	"storeroom/internal/core/types"
	"storeroom/internal/domain"
	"storeroom/internal/domain/documents/purchase"
)

// --- Fakes ---

type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memASNRepo is an in-memory Repository.
type memASNRepo struct {
	docs  map[id.ID]*AdvanceShipmentNotice
	lines map[id.ID][]ASNLine
}

func newMemASNRepo() *memASNRepo {
	return &memASNRepo{
		docs:  make(map[id.ID]*AdvanceShipmentNotice),
		lines: make(map[id.ID][]ASNLine),
	}
}

func (r *memASNRepo) Create(ctx context.Context, doc *AdvanceShipmentNotice) error {
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memASNRepo) GetByID(ctx context.Context, docID id.ID) (*AdvanceShipmentNotice, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("shipment notice", docID.String())
	}
	cp := *doc
	return &cp, nil
}

func (r *memASNRepo) GetByNumber(ctx context.Context, number string) (*AdvanceShipmentNotice, error) {
	for _, doc := range r.docs {
		if doc.Number == number {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("shipment notice", number)
}

func (r *memASNRepo) Update(ctx context.Context, doc *AdvanceShipmentNotice) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("shipment notice", doc.ID.String())
	}
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memASNRepo) Delete(ctx context.Context, docID id.ID) error {
	delete(r.docs, docID)
	delete(r.lines, docID)
	return nil
}

func (r *memASNRepo) GetLines(ctx context.Context, docID id.ID) ([]ASNLine, error) {
	return append([]ASNLine(nil), r.lines[docID]...), nil
}

func (r *memASNRepo) SaveLines(ctx context.Context, docID id.ID, lines []ASNLine) error {
	r.lines[docID] = append([]ASNLine(nil), lines...)
	return nil
}

func (r *memASNRepo) UpdateStatus(ctx context.Context, docID id.ID, status Status) error {
	doc, ok := r.docs[docID]
	if !ok {
		return apperror.NewNotFound("shipment notice", docID.String())
	}
	doc.Status = status
	return nil
}

func (r *memASNRepo) SumDelivered(ctx context.Context, poID, productID id.ID, excludeASNID *id.ID) (int64, error) {
	var total int64
	for docID, doc := range r.docs {
		if doc.PurchaseOrderID != poID {
			continue
		}
		if excludeASNID != nil && docID == *excludeASNID {
			continue
		}
		for _, line := range r.lines[docID] {
			if line.ProductID == productID {
				total += line.Quantity
			}
		}
	}
	return total, nil
}

func (r *memASNRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*AdvanceShipmentNotice], error) {
	var items []*AdvanceShipmentNotice
	for _, doc := range r.docs {
		if filter.Status != nil && doc.Status != *filter.Status {
			continue
		}
		cp := *doc
		items = append(items, &cp)
	}
	return domain.ListResult[*AdvanceShipmentNotice]{Items: items, TotalCount: int64(len(items))}, nil
}

func (r *memASNRepo) GetForUpdate(ctx context.Context, docID id.ID) (*AdvanceShipmentNotice, error) {
	return r.GetByID(ctx, docID)
}

// fakeOrders serves purchase orders from a map.
type fakeOrders struct {
	orders map[id.ID]*purchase.PurchaseOrder
}

func (f *fakeOrders) GetByID(ctx context.Context, docID id.ID) (*purchase.PurchaseOrder, error) {
	order, ok := f.orders[docID]
	if !ok {
		return nil, apperror.NewNotFound("purchase order", docID.String())
	}
	cp := *order
	return &cp, nil
}

// fakeReceipts reports linked import documents.
type fakeReceipts struct {
	received map[id.ID]bool
}

func (f *fakeReceipts) ExistsByASN(ctx context.Context, asnID id.ID) (bool, error) {
	return f.received[asnID], nil
}

type testEnv struct {
	svc      *Service
	repo     *memASNRepo
	orders   *fakeOrders
	receipts *fakeReceipts
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo := newMemASNRepo()
	orders := &fakeOrders{orders: make(map[id.ID]*purchase.PurchaseOrder)}
	receipts := &fakeReceipts{received: make(map[id.ID]bool)}
	svc := NewService(repo, orders, receipts, &numerator.MockGenerator{}, noopTxManager{}, nil)
	return &testEnv{svc: svc, repo: repo, orders: orders, receipts: receipts}
}

// seedOrder registers a purchase order with one line of orderedQty.
func (e *testEnv) seedOrder(orderedQty int64) (*purchase.PurchaseOrder, id.ID) {
	order := purchase.NewPurchaseOrder(id.New())
	order.Number = "PO0001"
	productID := id.New()
	order.AddLine(productID, orderedQty, types.MustMoney("4.00"))
	e.orders.orders[order.ID] = order
	return order, productID
}

// --- Tests ---

func TestCreate_WithinOrderedQuantity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order, productID := env.seedOrder(100)

	notice := NewASN(order.ID)
	notice.AddLine(productID, 60, "box", types.MustMoney("4.00"), nil)

	require.NoError(t, env.svc.Create(ctx, notice))
	assert.Equal(t, "ASN0001", notice.Number)
	assert.Equal(t, StatusNotDelivered, notice.Status)
	// Supplier inherited from the order.
	assert.Equal(t, order.SupplierID, notice.SupplierID)
}

func TestCreate_CumulativeBoundAcrossNotices(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order, productID := env.seedOrder(100)

	first := NewASN(order.ID)
	first.AddLine(productID, 60, "box", types.MustMoney("4.00"), nil)
	require.NoError(t, env.svc.Create(ctx, first))

	// 41 more would exceed the 100 ordered.
	second := NewASN(order.ID)
	second.AddLine(productID, 41, "box", types.MustMoney("4.00"), nil)
	err := env.svc.Create(ctx, second)
	require.Error(t, err)
	assert.True(t, apperror.IsQuantityBoundExceeded(err))
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, int64(40), appErr.Details["bound"])
	assert.Equal(t, int64(41), appErr.Details["requested"])

	// Exactly the remainder passes.
	second = NewASN(order.ID)
	second.AddLine(productID, 40, "box", types.MustMoney("4.00"), nil)
	assert.NoError(t, env.svc.Create(ctx, second))
}

func TestCreate_BoundCountsLinesWithinOneNotice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order, productID := env.seedOrder(100)

	notice := NewASN(order.ID)
	notice.AddLine(productID, 60, "box", types.MustMoney("4.00"), nil)
	notice.AddLine(productID, 50, "box", types.MustMoney("4.00"), nil)

	err := env.svc.Create(ctx, notice)
	require.Error(t, err)
	assert.True(t, apperror.IsQuantityBoundExceeded(err))
}

func TestCreate_ProductNotOnOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order, _ := env.seedOrder(100)

	notice := NewASN(order.ID)
	notice.AddLine(id.New(), 10, "box", types.MustMoney("4.00"), nil)

	err := env.svc.Create(ctx, notice)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeReferentialMismatch, appErr.Code)
}

func TestCreate_SupplierMismatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order, productID := env.seedOrder(100)

	notice := NewASN(order.ID)
	notice.SupplierID = id.New()
	notice.AddLine(productID, 10, "box", types.MustMoney("4.00"), nil)

	err := env.svc.Create(ctx, notice)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeReferentialMismatch, appErr.Code)
}

func TestUpdate_ExcludesOwnSavedQuantities(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order, productID := env.seedOrder(100)

	notice := NewASN(order.ID)
	notice.AddLine(productID, 60, "box", types.MustMoney("4.00"), nil)
	require.NoError(t, env.svc.Create(ctx, notice))

	// Raising to the full ordered quantity passes because the notice's
	// own saved 60 are excluded from the cumulative bound.
	notice.Lines[0].Quantity = 100
	assert.NoError(t, env.svc.Update(ctx, notice))

	// One unit more fails.
	notice.Lines[0].Quantity = 101
	err := env.svc.Update(ctx, notice)
	require.Error(t, err)
	assert.True(t, apperror.IsQuantityBoundExceeded(err))
}

func TestUpdate_RejectedOnceDelivered(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order, productID := env.seedOrder(100)

	notice := NewASN(order.ID)
	notice.AddLine(productID, 60, "box", types.MustMoney("4.00"), nil)
	require.NoError(t, env.svc.Create(ctx, notice))
	require.NoError(t, env.svc.MarkDelivered(ctx, notice.ID))

	notice.Lines[0].Quantity = 50
	err := env.svc.Update(ctx, notice)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
}

func TestDelete_BlockedWhenReceived(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order, productID := env.seedOrder(100)

	notice := NewASN(order.ID)
	notice.AddLine(productID, 60, "box", types.MustMoney("4.00"), nil)
	require.NoError(t, env.svc.Create(ctx, notice))

	env.receipts.received[notice.ID] = true

	err := env.svc.Delete(ctx, notice.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)

	// Without a linked receipt deletion goes through.
	env.receipts.received[notice.ID] = false
	assert.NoError(t, env.svc.Delete(ctx, notice.ID))
}

func TestListAvailable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order, productID := env.seedOrder(100)

	first := NewASN(order.ID)
	first.AddLine(productID, 30, "box", types.MustMoney("4.00"), nil)
	require.NoError(t, env.svc.Create(ctx, first))

	second := NewASN(order.ID)
	second.AddLine(productID, 30, "box", types.MustMoney("4.00"), nil)
	require.NoError(t, env.svc.Create(ctx, second))
	require.NoError(t, env.svc.MarkDelivered(ctx, second.ID))

	available, err := env.svc.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, first.ID, available[0].ID)
}
