package importdoc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
	"storeroom/internal/core/numerator"
	"storeroom/internal/core/types"
	"storeroom/internal/domain"
	"storeroom/internal/domain/catalogs/supplier"
	"storeroom/internal/domain/documents/asn"
	"storeroom/internal/domain/ledger"
)

// --- Fakes ---

type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memLotRepo is an in-memory ledger.Repository.
type memLotRepo struct {
	lots map[id.ID]*ledger.StockLot
}

func newMemLotRepo() *memLotRepo {
	return &memLotRepo{lots: make(map[id.ID]*ledger.StockLot)}
}

func (r *memLotRepo) Create(ctx context.Context, lot *ledger.StockLot) error {
	cp := *lot
	r.lots[lot.ID] = &cp
	return nil
}

func (r *memLotRepo) GetByID(ctx context.Context, lotID id.ID) (*ledger.StockLot, error) {
	lot, ok := r.lots[lotID]
	if !ok {
		return nil, apperror.NewNotFound("stock lot", lotID.String())
	}
	cp := *lot
	return &cp, nil
}

func (r *memLotRepo) GetForUpdate(ctx context.Context, lotID id.ID) (*ledger.StockLot, error) {
	return r.GetByID(ctx, lotID)
}

func (r *memLotRepo) FindByIdentity(ctx context.Context, ref ledger.DocumentRef, productID id.ID, expiry *time.Time) (*ledger.StockLot, error) {
	for _, lot := range r.lots {
		if lot.Source != ref.Kind || lot.SourceDocID != ref.DocID || lot.ProductID != productID {
			continue
		}
		if !ledger.SameLine(lot.SourceLineID, ref.LineID) {
			continue
		}
		if (lot.ExpiryDate == nil) != (expiry == nil) {
			continue
		}
		if expiry != nil && !lot.ExpiryDate.Equal(*expiry) {
			continue
		}
		cp := *lot
		return &cp, nil
	}
	return nil, apperror.NewNotFound("stock lot", productID.String())
}

func (r *memLotRepo) Update(ctx context.Context, lot *ledger.StockLot) error {
	if _, ok := r.lots[lot.ID]; !ok {
		return apperror.NewNotFound("stock lot", lot.ID.String())
	}
	cp := *lot
	r.lots[lot.ID] = &cp
	return nil
}

func (r *memLotRepo) Delete(ctx context.Context, lotID id.ID) error {
	if _, ok := r.lots[lotID]; !ok {
		return apperror.NewNotFound("stock lot", lotID.String())
	}
	delete(r.lots, lotID)
	return nil
}

func (r *memLotRepo) DeleteBySource(ctx context.Context, ref ledger.DocumentRef) error {
	for lotID, lot := range r.lots {
		if lot.Source == ref.Kind && lot.SourceDocID == ref.DocID {
			delete(r.lots, lotID)
		}
	}
	return nil
}

func (r *memLotRepo) List(ctx context.Context, filter ledger.ListFilter) (domain.ListResult[*ledger.StockLot], error) {
	var items []*ledger.StockLot
	for _, lot := range r.lots {
		cp := *lot
		items = append(items, &cp)
	}
	return domain.ListResult[*ledger.StockLot]{Items: items, TotalCount: int64(len(items))}, nil
}

func (r *memLotRepo) SaveStatuses(ctx context.Context, lots []*ledger.StockLot) error {
	return nil
}

func (r *memLotRepo) SumQuantityByProduct(ctx context.Context, productID id.ID) (int64, error) {
	var total int64
	for _, lot := range r.lots {
		if lot.ProductID == productID {
			total += lot.Quantity
		}
	}
	return total, nil
}

// memImportRepo is an in-memory Repository.
type memImportRepo struct {
	docs  map[id.ID]*ImportDocument
	lines map[id.ID][]ImportLine
}

func newMemImportRepo() *memImportRepo {
	return &memImportRepo{
		docs:  make(map[id.ID]*ImportDocument),
		lines: make(map[id.ID][]ImportLine),
	}
}

func (r *memImportRepo) Create(ctx context.Context, doc *ImportDocument) error {
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memImportRepo) GetByID(ctx context.Context, docID id.ID) (*ImportDocument, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("import document", docID.String())
	}
	cp := *doc
	return &cp, nil
}

func (r *memImportRepo) GetByNumber(ctx context.Context, number string) (*ImportDocument, error) {
	for _, doc := range r.docs {
		if doc.Number == number {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("import document", number)
}

func (r *memImportRepo) Update(ctx context.Context, doc *ImportDocument) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("import document", doc.ID.String())
	}
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memImportRepo) Delete(ctx context.Context, docID id.ID) error {
	delete(r.docs, docID)
	delete(r.lines, docID)
	return nil
}

func (r *memImportRepo) GetLines(ctx context.Context, docID id.ID) ([]ImportLine, error) {
	return append([]ImportLine(nil), r.lines[docID]...), nil
}

func (r *memImportRepo) SaveLines(ctx context.Context, docID id.ID, lines []ImportLine) error {
	r.lines[docID] = append([]ImportLine(nil), lines...)
	return nil
}

func (r *memImportRepo) ExistsByASN(ctx context.Context, asnID id.ID) (bool, error) {
	for _, doc := range r.docs {
		if doc.ASNID != nil && *doc.ASNID == asnID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memImportRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*ImportDocument], error) {
	var items []*ImportDocument
	for _, doc := range r.docs {
		cp := *doc
		items = append(items, &cp)
	}
	return domain.ListResult[*ImportDocument]{Items: items, TotalCount: int64(len(items))}, nil
}

func (r *memImportRepo) GetForUpdate(ctx context.Context, docID id.ID) (*ImportDocument, error) {
	return r.GetByID(ctx, docID)
}

// fakeASNs serves shipment notices from a map.
type fakeASNs struct {
	notices map[id.ID]*asn.AdvanceShipmentNotice
}

func (f *fakeASNs) GetByID(ctx context.Context, docID id.ID) (*asn.AdvanceShipmentNotice, error) {
	notice, ok := f.notices[docID]
	if !ok {
		return nil, apperror.NewNotFound("shipment notice", docID.String())
	}
	cp := *notice
	return &cp, nil
}

func (f *fakeASNs) MarkDelivered(ctx context.Context, docID id.ID) error {
	f.notices[docID].Status = asn.StatusDelivered
	return nil
}

func (f *fakeASNs) MarkNotDelivered(ctx context.Context, docID id.ID) error {
	f.notices[docID].Status = asn.StatusNotDelivered
	return nil
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

type testEnv struct {
	svc      *Service
	repo     *memImportRepo
	lots     *memLotRepo
	ledger   *ledger.Service
	asns     *fakeASNs
	products *fakeProducts
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	lots := newMemLotRepo()
	ledgerSvc := ledger.NewService(lots, noopTxManager{})
	repo := newMemImportRepo()
	asns := &fakeASNs{notices: make(map[id.ID]*asn.AdvanceShipmentNotice)}
	products := &fakeProducts{products: make(map[id.ID]supplier.Product)}
	svc := NewService(repo, ledgerSvc, asns, products, &numerator.MockGenerator{}, noopTxManager{}, nil)
	return &testEnv{svc: svc, repo: repo, lots: lots, ledger: ledgerSvc, asns: asns, products: products}
}

func (e *testEnv) registerProduct(supplierID id.ID, unit, listPrice string) id.ID {
	productID := id.New()
	e.products.products[productID] = supplier.Product{
		ID:         productID,
		SupplierID: supplierID,
		Code:       "P-" + productID.String()[:8],
		Name:       "test product",
		Unit:       unit,
		ListPrice:  types.MustMoney(listPrice),
		Active:     true,
	}
	return productID
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// --- Tests ---

func TestCreate_PostsLotsAndMergesIdentity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	supplierID := id.New()
	productID := env.registerProduct(supplierID, "box", "4.00")
	expiry := datePtr(2026, 6, 1)

	doc := NewImportDocument(supplierID)
	doc.AddLine(productID, 30, "box", types.MustMoney("4.00"), expiry, "A1")
	doc.AddLine(productID, 20, "box", types.MustMoney("4.00"), expiry, "A1")

	require.NoError(t, env.svc.Create(ctx, doc))
	assert.Equal(t, "PN0001", doc.Number)

	// Same (document, product, expiry) merges into one lot.
	assert.Len(t, env.lots.lots, 1)
	total, err := env.ledger.TotalQuantityByProduct(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), total)
}

func TestCreate_DistinctExpiryMakesDistinctLots(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	supplierID := id.New()
	productID := env.registerProduct(supplierID, "box", "4.00")

	doc := NewImportDocument(supplierID)
	doc.AddLine(productID, 30, "box", types.MustMoney("4.00"), datePtr(2026, 6, 1), "A1")
	doc.AddLine(productID, 20, "box", types.MustMoney("4.00"), datePtr(2026, 9, 1), "A1")

	require.NoError(t, env.svc.Create(ctx, doc))
	assert.Len(t, env.lots.lots, 2)
}

func TestCreate_FillsSupplierDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	supplierID := id.New()
	productID := env.registerProduct(supplierID, "crate", "7.50")

	doc := NewImportDocument(supplierID)
	doc.AddLine(productID, 10, "", types.Zero(), nil, "A1")

	require.NoError(t, env.svc.Create(ctx, doc))
	assert.Equal(t, "crate", doc.Lines[0].Unit)
	assert.True(t, types.MustMoney("7.50").Equal(doc.Lines[0].UnitPrice))
}

func TestCreate_RejectsForeignProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	supplierID := id.New()
	otherSupplierID := id.New()
	productID := env.registerProduct(otherSupplierID, "box", "4.00")

	doc := NewImportDocument(supplierID)
	doc.AddLine(productID, 10, "box", types.MustMoney("4.00"), nil, "A1")

	err := env.svc.Create(ctx, doc)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeReferentialMismatch, appErr.Code)
}

func TestCreate_InheritsFromASN(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	supplierID := id.New()
	productID := env.registerProduct(supplierID, "box", "4.00")
	expiry := datePtr(2026, 6, 1)

	notice := asn.NewASN(id.New())
	notice.SupplierID = supplierID
	notice.Number = "ASN0001"
	notice.AddLine(productID, 40, "box", types.MustMoney("4.00"), expiry)
	env.asns.notices[notice.ID] = notice

	doc := NewImportDocument(id.ID{})
	doc.ASNID = &notice.ID

	require.NoError(t, env.svc.Create(ctx, doc))

	// Supplier and lines come from the notice.
	assert.Equal(t, supplierID, doc.SupplierID)
	require.Len(t, doc.Lines, 1)
	assert.Equal(t, productID, doc.Lines[0].ProductID)
	assert.Equal(t, int64(40), doc.Lines[0].Quantity)

	// The notice is flipped to delivered.
	assert.Equal(t, asn.StatusDelivered, env.asns.notices[notice.ID].Status)
}

func TestCreate_InheritedLinesCarryNoticePrice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	supplierID := id.New()
	productID := env.registerProduct(supplierID, "box", "4.00")

	notice := asn.NewASN(id.New())
	notice.SupplierID = supplierID
	notice.Number = "ASN0002"
	notice.AddLine(productID, 25, "box", types.MustMoney("3.10"), nil)
	env.asns.notices[notice.ID] = notice

	doc := NewImportDocument(id.ID{})
	doc.ASNID = &notice.ID

	require.NoError(t, env.svc.Create(ctx, doc))

	// The notified price wins over the catalog list price, and the line
	// remembers which notice line it came from.
	require.Len(t, doc.Lines, 1)
	assert.True(t, types.MustMoney("3.10").Equal(doc.Lines[0].UnitPrice))
	require.NotNil(t, doc.Lines[0].ASNLineID)
	assert.Equal(t, notice.Lines[0].LineID, *doc.Lines[0].ASNLineID)

	require.Len(t, env.lots.lots, 1)
	for _, lot := range env.lots.lots {
		assert.True(t, types.MustMoney("3.10").Equal(lot.UnitCost))
	}
}

func TestCreate_LineKeyedToNoticeInheritsBlanks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	supplierID := id.New()
	productID := env.registerProduct(supplierID, "box", "4.00")
	expiry := datePtr(2026, 6, 1)

	notice := asn.NewASN(id.New())
	notice.SupplierID = supplierID
	notice.AddLine(productID, 40, "box", types.MustMoney("3.10"), expiry)
	env.asns.notices[notice.ID] = notice

	// A partial receipt: quantity differs from the notice, everything else
	// comes from the referenced notice line.
	doc := NewImportDocument(supplierID)
	doc.ASNID = &notice.ID
	doc.AddLine(id.ID{}, 15, "", types.Zero(), nil, "A1")
	doc.Lines[0].ASNLineID = &notice.Lines[0].LineID

	require.NoError(t, env.svc.Create(ctx, doc))

	line := doc.Lines[0]
	assert.Equal(t, productID, line.ProductID)
	assert.Equal(t, "box", line.Unit)
	assert.True(t, types.MustMoney("3.10").Equal(line.UnitPrice))
	require.NotNil(t, line.ExpiryDate)
	assert.True(t, line.ExpiryDate.Equal(*expiry))
}

func TestCreate_RejectsUnknownNoticeLine(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	supplierID := id.New()
	productID := env.registerProduct(supplierID, "box", "4.00")

	notice := asn.NewASN(id.New())
	notice.SupplierID = supplierID
	notice.AddLine(productID, 40, "box", types.MustMoney("3.10"), nil)
	env.asns.notices[notice.ID] = notice

	doc := NewImportDocument(supplierID)
	doc.ASNID = &notice.ID
	doc.AddLine(productID, 10, "box", types.MustMoney("4.00"), nil, "A1")
	stray := id.New()
	doc.Lines[0].ASNLineID = &stray

	err := env.svc.Create(ctx, doc)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeReferentialMismatch, appErr.Code)
}

func TestCreate_SupplierMismatchWithASN(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	notice := asn.NewASN(id.New())
	notice.SupplierID = id.New()
	notice.AddLine(id.New(), 40, "box", types.MustMoney("4.00"), nil)
	env.asns.notices[notice.ID] = notice

	doc := NewImportDocument(id.New())
	doc.ASNID = &notice.ID

	err := env.svc.Create(ctx, doc)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeReferentialMismatch, appErr.Code)
}

func TestCreate_RejectsAlreadyReceivedASN(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	supplierID := id.New()
	productID := env.registerProduct(supplierID, "box", "4.00")

	notice := asn.NewASN(id.New())
	notice.SupplierID = supplierID
	notice.Status = asn.StatusDelivered
	notice.AddLine(productID, 40, "box", types.MustMoney("4.00"), nil)
	env.asns.notices[notice.ID] = notice

	doc := NewImportDocument(supplierID)
	doc.ASNID = &notice.ID

	err := env.svc.Create(ctx, doc)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
}

func TestUpdate_RepostsLedger(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	supplierID := id.New()
	productID := env.registerProduct(supplierID, "box", "4.00")
	expiry := datePtr(2026, 6, 1)

	doc := NewImportDocument(supplierID)
	doc.AddLine(productID, 30, "box", types.MustMoney("4.00"), expiry, "A1")
	require.NoError(t, env.svc.Create(ctx, doc))

	doc.Lines[0].Quantity = 45
	require.NoError(t, env.svc.Update(ctx, doc))

	total, err := env.ledger.TotalQuantityByProduct(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(45), total)
	assert.Len(t, env.lots.lots, 1)
}

func TestDelete_ReversesLotsAndRevertsASN(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	supplierID := id.New()
	productID := env.registerProduct(supplierID, "box", "4.00")

	notice := asn.NewASN(id.New())
	notice.SupplierID = supplierID
	notice.AddLine(productID, 40, "box", types.MustMoney("4.00"), nil)
	env.asns.notices[notice.ID] = notice

	doc := NewImportDocument(supplierID)
	doc.ASNID = &notice.ID
	require.NoError(t, env.svc.Create(ctx, doc))

	require.NoError(t, env.svc.Delete(ctx, doc.ID))

	assert.Empty(t, env.lots.lots)
	assert.Empty(t, env.repo.docs)
	assert.Equal(t, asn.StatusNotDelivered, env.asns.notices[notice.ID].Status)
}

func TestDelete_IdempotentWhenLotsConsumed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	supplierID := id.New()
	productID := env.registerProduct(supplierID, "box", "4.00")

	doc := NewImportDocument(supplierID)
	doc.AddLine(productID, 30, "box", types.MustMoney("4.00"), nil, "A1")
	require.NoError(t, env.svc.Create(ctx, doc))

	// Consume the whole lot as an export would, then delete the receipt:
	// the missing lot must not fail the reversal.
	for lotID := range env.lots.lots {
		_, err := env.ledger.DecrementLot(ctx, lotID, 30)
		require.NoError(t, err)
		require.NoError(t, env.ledger.DeleteLot(ctx, lotID))
	}

	assert.NoError(t, env.svc.Delete(ctx, doc.ID))
	assert.Empty(t, env.repo.docs)
}
