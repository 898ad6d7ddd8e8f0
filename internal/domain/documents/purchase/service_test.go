package purchase

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
	"storeroom/internal/domain/catalogs/supplier"
)

// --- Fakes ---

type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memPORepo is an in-memory Repository.
type memPORepo struct {
	docs  map[id.ID]*PurchaseOrder
	lines map[id.ID][]POLine
}

func newMemPORepo() *memPORepo {
	return &memPORepo{
		docs:  make(map[id.ID]*PurchaseOrder),
		lines: make(map[id.ID][]POLine),
	}
}

func (r *memPORepo) Create(ctx context.Context, doc *PurchaseOrder) error {
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memPORepo) GetByID(ctx context.Context, docID id.ID) (*PurchaseOrder, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("purchase order", docID.String())
	}
	cp := *doc
	return &cp, nil
}

func (r *memPORepo) GetByNumber(ctx context.Context, number string) (*PurchaseOrder, error) {
	for _, doc := range r.docs {
		if doc.Number == number {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("purchase order", number)
}

func (r *memPORepo) Update(ctx context.Context, doc *PurchaseOrder) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("purchase order", doc.ID.String())
	}
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memPORepo) Delete(ctx context.Context, docID id.ID) error {
	delete(r.docs, docID)
	delete(r.lines, docID)
	return nil
}

func (r *memPORepo) GetLines(ctx context.Context, docID id.ID) ([]POLine, error) {
	return append([]POLine(nil), r.lines[docID]...), nil
}

func (r *memPORepo) SaveLines(ctx context.Context, docID id.ID, lines []POLine) error {
	r.lines[docID] = append([]POLine(nil), lines...)
	return nil
}

func (r *memPORepo) UpdateStatus(ctx context.Context, docID id.ID, status Status) error {
	doc, ok := r.docs[docID]
	if !ok {
		return apperror.NewNotFound("purchase order", docID.String())
	}
	doc.Status = status
	return nil
}

func (r *memPORepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*PurchaseOrder], error) {
	var items []*PurchaseOrder
	for _, doc := range r.docs {
		cp := *doc
		items = append(items, &cp)
	}
	return domain.ListResult[*PurchaseOrder]{Items: items, TotalCount: int64(len(items))}, nil
}

func (r *memPORepo) GetForUpdate(ctx context.Context, docID id.ID) (*PurchaseOrder, error) {
	return r.GetByID(ctx, docID)
}

// fakeProducts checks ownership against a registered product set.
type fakeProducts struct {
	products map[id.ID]supplier.Product
}

func (f *fakeProducts) CheckOwnership(ctx context.Context, supplierID, productID id.ID) (*supplier.Product, error) {
	product, ok := f.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	if product.SupplierID != supplierID {
		return nil, apperror.NewReferentialMismatch("product belongs to a different supplier").
			WithDetail("product_id", productID.String())
	}
	cp := product
	return &cp, nil
}

// fakeDeliveries serves notified sums per (order, product).
type fakeDeliveries struct {
	delivered map[id.ID]map[id.ID]int64
}

func (f *fakeDeliveries) SumDelivered(ctx context.Context, poID, productID id.ID, excludeASNID *id.ID) (int64, error) {
	return f.delivered[poID][productID], nil
}

type testEnv struct {
	svc        *Service
	repo       *memPORepo
	products   *fakeProducts
	deliveries *fakeDeliveries
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo := newMemPORepo()
	products := &fakeProducts{products: make(map[id.ID]supplier.Product)}
	deliveries := &fakeDeliveries{delivered: make(map[id.ID]map[id.ID]int64)}
	svc := NewService(repo, products, deliveries, &numerator.MockGenerator{}, noopTxManager{}, nil)
	return &testEnv{svc: svc, repo: repo, products: products, deliveries: deliveries}
}

func (e *testEnv) registerProduct(supplierID id.ID) id.ID {
	productID := id.New()
	e.products.products[productID] = supplier.Product{
		ID:         productID,
		SupplierID: supplierID,
		Code:       "P-" + productID.String()[:8],
		Name:       "test product",
		Unit:       "box",
		ListPrice:  types.MustMoney("4.00"),
		Active:     true,
	}
	return productID
}

// --- Tests ---

func TestCreate_AssignsNumberAndStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	supplierID := id.New()
	productID := env.registerProduct(supplierID)

	order := NewPurchaseOrder(supplierID)
	order.AddLine(productID, 100, types.MustMoney("4.00"))

	require.NoError(t, env.svc.Create(ctx, order))
	assert.Equal(t, "PO0001", order.Number)
	assert.Equal(t, StatusPending, order.Status)
	assert.Len(t, env.repo.docs, 1)
}

func TestCreate_RejectsForeignProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	supplierID := id.New()
	foreignProduct := env.registerProduct(id.New())

	order := NewPurchaseOrder(supplierID)
	order.AddLine(foreignProduct, 100, types.MustMoney("4.00"))

	err := env.svc.Create(ctx, order)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeReferentialMismatch, appErr.Code)
	assert.Empty(t, env.repo.docs)
}

func TestCreate_RequiresLines(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order := NewPurchaseOrder(id.New())

	err := env.svc.Create(ctx, order)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestUpdateStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	supplierID := id.New()
	productID := env.registerProduct(supplierID)

	order := NewPurchaseOrder(supplierID)
	order.AddLine(productID, 100, types.MustMoney("4.00"))
	require.NoError(t, env.svc.Create(ctx, order))

	require.NoError(t, env.svc.UpdateStatus(ctx, order.ID, StatusApproved))
	stored, err := env.svc.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, stored.Status)

	err = env.svc.UpdateStatus(ctx, order.ID, Status("shipped"))
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestRemaining(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	supplierID := id.New()
	productID := env.registerProduct(supplierID)
	otherProduct := env.registerProduct(supplierID)

	order := NewPurchaseOrder(supplierID)
	order.AddLine(productID, 100, types.MustMoney("4.00"))
	order.AddLine(productID, 20, types.MustMoney("4.00"))
	order.AddLine(otherProduct, 50, types.MustMoney("9.00"))
	require.NoError(t, env.svc.Create(ctx, order))

	env.deliveries.delivered[order.ID] = map[id.ID]int64{productID: 60}

	remaining, err := env.svc.Remaining(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 2)

	// Lines of the same product aggregate before the subtraction.
	assert.Equal(t, productID, remaining[0].ProductID)
	assert.Equal(t, int64(120), remaining[0].Ordered)
	assert.Equal(t, int64(60), remaining[0].Delivered)
	assert.Equal(t, int64(60), remaining[0].Remaining)

	assert.Equal(t, otherProduct, remaining[1].ProductID)
	assert.Equal(t, int64(50), remaining[1].Remaining)
}

func TestOrderedQuantity(t *testing.T) {
	order := NewPurchaseOrder(id.New())
	productID := id.New()
	order.AddLine(productID, 30, types.MustMoney("4.00"))
	order.AddLine(productID, 20, types.MustMoney("4.00"))

	assert.Equal(t, int64(50), order.OrderedQuantity(productID))
	assert.Equal(t, int64(0), order.OrderedQuantity(id.New()))
}
