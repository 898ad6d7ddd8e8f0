package exportdoc

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
	"storeroom/internal/domain/ledger"
)

// --- Fakes ---

// snapshotTxManager runs the function directly but restores the lot store
// on outermost failure, so whole-document atomicity is observable.
type snapshotTxManager struct {
	lots  *memLotRepo
	depth int
}

func (m *snapshotTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	var saved map[id.ID]ledger.StockLot
	if m.depth == 0 {
		saved = m.lots.snapshot()
	}
	m.depth++
	err := fn(ctx)
	m.depth--
	if err != nil && m.depth == 0 {
		m.lots.restore(saved)
	}
	return err
}

// memLotRepo is an in-memory ledger.Repository.
type memLotRepo struct {
	lots map[id.ID]*ledger.StockLot
}

func newMemLotRepo() *memLotRepo {
	return &memLotRepo{lots: make(map[id.ID]*ledger.StockLot)}
}

func (r *memLotRepo) snapshot() map[id.ID]ledger.StockLot {
	out := make(map[id.ID]ledger.StockLot, len(r.lots))
	for lotID, lot := range r.lots {
		out[lotID] = *lot
	}
	return out
}

func (r *memLotRepo) restore(saved map[id.ID]ledger.StockLot) {
	r.lots = make(map[id.ID]*ledger.StockLot, len(saved))
	for lotID, lot := range saved {
		cp := lot
		r.lots[lotID] = &cp
	}
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
	for _, lot := range lots {
		if existing, ok := r.lots[lot.ID]; ok {
			existing.Status = lot.Status
		}
	}
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

// memExportRepo is an in-memory Repository.
type memExportRepo struct {
	docs  map[id.ID]*ExportDocument
	lines map[id.ID][]ExportLine
}

func newMemExportRepo() *memExportRepo {
	return &memExportRepo{
		docs:  make(map[id.ID]*ExportDocument),
		lines: make(map[id.ID][]ExportLine),
	}
}

func (r *memExportRepo) Create(ctx context.Context, doc *ExportDocument) error {
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memExportRepo) GetByID(ctx context.Context, docID id.ID) (*ExportDocument, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("export document", docID.String())
	}
	cp := *doc
	return &cp, nil
}

func (r *memExportRepo) GetByNumber(ctx context.Context, number string) (*ExportDocument, error) {
	for _, doc := range r.docs {
		if doc.Number == number {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("export document", number)
}

func (r *memExportRepo) Update(ctx context.Context, doc *ExportDocument) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("export document", doc.ID.String())
	}
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memExportRepo) Delete(ctx context.Context, docID id.ID) error {
	delete(r.docs, docID)
	delete(r.lines, docID)
	return nil
}

func (r *memExportRepo) GetLines(ctx context.Context, docID id.ID) ([]ExportLine, error) {
	return append([]ExportLine(nil), r.lines[docID]...), nil
}

func (r *memExportRepo) GetLine(ctx context.Context, lineID id.ID) (*ExportLine, error) {
	for _, lines := range r.lines {
		for _, line := range lines {
			if line.LineID == lineID {
				cp := line
				return &cp, nil
			}
		}
	}
	return nil, apperror.NewNotFound("export line", lineID.String())
}

func (r *memExportRepo) SaveLines(ctx context.Context, docID id.ID, lines []ExportLine) error {
	r.lines[docID] = append([]ExportLine(nil), lines...)
	return nil
}

func (r *memExportRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*ExportDocument], error) {
	var items []*ExportDocument
	for _, doc := range r.docs {
		cp := *doc
		items = append(items, &cp)
	}
	return domain.ListResult[*ExportDocument]{Items: items, TotalCount: int64(len(items))}, nil
}

func (r *memExportRepo) GetForUpdate(ctx context.Context, docID id.ID) (*ExportDocument, error) {
	return r.GetByID(ctx, docID)
}

type testEnv struct {
	svc       *Service
	repo      *memExportRepo
	lots      *memLotRepo
	ledger    *ledger.Service
	importRef ledger.DocumentRef
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	lots := newMemLotRepo()
	txm := &snapshotTxManager{lots: lots}
	ledgerSvc := ledger.NewService(lots, txm)
	repo := newMemExportRepo()
	svc := NewService(repo, ledgerSvc, &numerator.MockGenerator{}, txm, nil)
	return &testEnv{
		svc:       svc,
		repo:      repo,
		lots:      lots,
		ledger:    ledgerSvc,
		importRef: ledger.ImportRef(id.New()),
	}
}

func (e *testEnv) seedLot(t *testing.T, quantity int64, unitCost string) *ledger.StockLot {
	t.Helper()
	lot, err := e.ledger.UpsertLot(context.Background(), e.importRef, id.New(), nil,
		quantity, "box", "A1", types.MustMoney(unitCost))
	require.NoError(t, err)
	return lot
}

// --- Tests ---

func TestCreate_DecrementsLotsAndComputesTotals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	lot := env.seedLot(t, 100, "4.00")

	doc := NewExportDocument("walk-in")
	doc.AddLine(lot.ID, 3, types.MustMoney("10.00"), types.MoneyFromInt(10))

	require.NoError(t, env.svc.Create(ctx, doc))
	assert.Equal(t, "PX0001", doc.Number)

	// 3 x 10.00 x 0.9 = 27.00
	assert.True(t, types.MustMoney("27.00").Equal(doc.Lines[0].Total),
		"got %s", doc.Lines[0].Total)
	assert.Equal(t, lot.ProductID, doc.Lines[0].ProductID)

	current, err := env.ledger.GetByID(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(97), current.Quantity)
}

func TestCreate_RoundsOnceAtTheEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	lot := env.seedLot(t, 10, "1.00")

	doc := NewExportDocument("walk-in")
	// 7 x 1.99 x 0.85 = 11.8405, rounded once to 11.84
	doc.AddLine(lot.ID, 7, types.MustMoney("1.99"), types.MoneyFromInt(15))

	require.NoError(t, env.svc.Create(ctx, doc))
	assert.True(t, types.MustMoney("11.84").Equal(doc.Lines[0].Total),
		"got %s", doc.Lines[0].Total)
}

func TestCreate_LotCostUsedWhenLinePriceZero(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	lot := env.seedLot(t, 50, "8.00")

	doc := NewExportDocument("walk-in")
	doc.AddLine(lot.ID, 2, types.Zero(), types.Zero())

	require.NoError(t, env.svc.Create(ctx, doc))
	assert.True(t, types.MustMoney("8.00").Equal(doc.Lines[0].UnitPrice))
	assert.True(t, types.MustMoney("16.00").Equal(doc.Lines[0].Total))
}

func TestCreate_InsufficientStockFailsWholeDocument(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := env.seedLot(t, 100, "4.00")
	second := env.seedLot(t, 5, "4.00")

	doc := NewExportDocument("walk-in")
	doc.AddLine(first.ID, 10, types.MustMoney("5.00"), types.Zero())
	doc.AddLine(second.ID, 6, types.MustMoney("5.00"), types.Zero())

	err := env.svc.Create(ctx, doc)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	// The first line's decrement was rolled back with the document.
	current, err := env.ledger.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), current.Quantity)
	assert.Empty(t, env.repo.docs)
}

func TestUpdate_AdjustsLedgerByDeltas(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	lot := env.seedLot(t, 100, "4.00")

	doc := NewExportDocument("walk-in")
	doc.AddLine(lot.ID, 10, types.MustMoney("5.00"), types.Zero())
	require.NoError(t, env.svc.Create(ctx, doc))

	// Shrink the line: the difference comes back to the lot.
	doc.Lines[0].Quantity = 6
	require.NoError(t, env.svc.Update(ctx, doc))
	current, err := env.ledger.GetByID(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(94), current.Quantity)

	// Grow it again: only the delta is taken.
	doc.Lines[0].Quantity = 12
	require.NoError(t, env.svc.Update(ctx, doc))
	current, err = env.ledger.GetByID(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(88), current.Quantity)

	// Total follows the new quantity.
	assert.True(t, types.MustMoney("60.00").Equal(doc.Lines[0].Total))
}

func TestUpdate_RemovedLineRestoresLot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := env.seedLot(t, 50, "4.00")
	second := env.seedLot(t, 50, "4.00")

	doc := NewExportDocument("walk-in")
	doc.AddLine(first.ID, 10, types.MustMoney("5.00"), types.Zero())
	doc.AddLine(second.ID, 20, types.MustMoney("5.00"), types.Zero())
	require.NoError(t, env.svc.Create(ctx, doc))

	doc.Lines = doc.Lines[:1]
	require.NoError(t, env.svc.Update(ctx, doc))

	restored, err := env.ledger.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), restored.Quantity)
}

func TestDelete_RestoresAllLots(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	lot := env.seedLot(t, 30, "4.00")

	doc := NewExportDocument("walk-in")
	doc.AddLine(lot.ID, 25, types.MustMoney("5.00"), types.Zero())
	require.NoError(t, env.svc.Create(ctx, doc))

	require.NoError(t, env.svc.Delete(ctx, doc.ID))

	current, err := env.ledger.GetByID(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(30), current.Quantity)
	assert.Empty(t, env.repo.docs)
}

func TestCreate_ValidationRejectsBadDiscount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	lot := env.seedLot(t, 30, "4.00")

	doc := NewExportDocument("walk-in")
	doc.AddLine(lot.ID, 1, types.MustMoney("5.00"), types.MoneyFromInt(101))

	err := env.svc.Create(ctx, doc)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}
