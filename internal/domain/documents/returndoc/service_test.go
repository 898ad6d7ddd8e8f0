package returndoc

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
	"storeroom/internal/domain/documents/exportdoc"
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
		if lot.Source != ref.Kind || lot.SourceDocID != ref.DocID {
			continue
		}
		if ref.LineID != nil && !ledger.SameLine(lot.SourceLineID, ref.LineID) {
			continue
		}
		delete(r.lots, lotID)
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

// memReturnRepo is an in-memory Repository.
type memReturnRepo struct {
	docs  map[id.ID]*ReturnDocument
	lines map[id.ID][]ReturnLine
}

func newMemReturnRepo() *memReturnRepo {
	return &memReturnRepo{
		docs:  make(map[id.ID]*ReturnDocument),
		lines: make(map[id.ID][]ReturnLine),
	}
}

func (r *memReturnRepo) Create(ctx context.Context, doc *ReturnDocument) error {
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memReturnRepo) GetByID(ctx context.Context, docID id.ID) (*ReturnDocument, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("return document", docID.String())
	}
	cp := *doc
	return &cp, nil
}

func (r *memReturnRepo) GetByNumber(ctx context.Context, number string) (*ReturnDocument, error) {
	for _, doc := range r.docs {
		if doc.Number == number {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("return document", number)
}

func (r *memReturnRepo) Update(ctx context.Context, doc *ReturnDocument) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("return document", doc.ID.String())
	}
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memReturnRepo) Delete(ctx context.Context, docID id.ID) error {
	delete(r.docs, docID)
	delete(r.lines, docID)
	return nil
}

func (r *memReturnRepo) GetLines(ctx context.Context, docID id.ID) ([]ReturnLine, error) {
	return append([]ReturnLine(nil), r.lines[docID]...), nil
}

func (r *memReturnRepo) SaveLines(ctx context.Context, docID id.ID, lines []ReturnLine) error {
	r.lines[docID] = append([]ReturnLine(nil), lines...)
	return nil
}

func (r *memReturnRepo) SumReturnedByExportLine(ctx context.Context, exportLineID id.ID, excludeDocID *id.ID) (int64, error) {
	var total int64
	for docID, lines := range r.lines {
		if excludeDocID != nil && docID == *excludeDocID {
			continue
		}
		for _, line := range lines {
			if line.ExportLineID != nil && *line.ExportLineID == exportLineID {
				total += line.Quantity
			}
		}
	}
	return total, nil
}

func (r *memReturnRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*ReturnDocument], error) {
	var items []*ReturnDocument
	for _, doc := range r.docs {
		cp := *doc
		items = append(items, &cp)
	}
	return domain.ListResult[*ReturnDocument]{Items: items, TotalCount: int64(len(items))}, nil
}

func (r *memReturnRepo) GetForUpdate(ctx context.Context, docID id.ID) (*ReturnDocument, error) {
	return r.GetByID(ctx, docID)
}

// fakeExports serves issued lines from a map.
type fakeExports struct {
	lines map[id.ID]exportdoc.ExportLine
}

func (f *fakeExports) GetLine(ctx context.Context, lineID id.ID) (*exportdoc.ExportLine, error) {
	line, ok := f.lines[lineID]
	if !ok {
		return nil, apperror.NewNotFound("export line", lineID.String())
	}
	cp := line
	return &cp, nil
}

type testEnv struct {
	svc     *Service
	repo    *memReturnRepo
	lots    *memLotRepo
	ledger  *ledger.Service
	exports *fakeExports
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	lots := newMemLotRepo()
	ledgerSvc := ledger.NewService(lots, noopTxManager{})
	repo := newMemReturnRepo()
	exports := &fakeExports{lines: make(map[id.ID]exportdoc.ExportLine)}
	svc := NewService(repo, ledgerSvc, exports, &numerator.MockGenerator{}, noopTxManager{}, nil)
	return &testEnv{svc: svc, repo: repo, lots: lots, ledger: ledgerSvc, exports: exports}
}

// seedIssue creates an import-sourced lot plus an export line that issued
// from it, and registers the line with the fake export source.
func (e *testEnv) seedIssue(t *testing.T, issuedQty int64) (exportdoc.ExportLine, *ledger.StockLot) {
	t.Helper()
	expiry := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	lot, err := e.ledger.UpsertLot(context.Background(), ledger.ImportRef(id.New()), id.New(), &expiry,
		100, "box", "A1", types.MustMoney("8.00"))
	require.NoError(t, err)

	line := exportdoc.ExportLine{
		LineID:    id.New(),
		LineNo:    1,
		LotID:     lot.ID,
		ProductID: lot.ProductID,
		Quantity:  issuedQty,
		UnitPrice: types.MustMoney("12.00"),
	}
	e.exports.lines[line.LineID] = line
	return line, lot
}

// --- Tests ---

func TestCreate_TiedLineInheritsFromIssuedLot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	exportLine, lot := env.seedIssue(t, 20)

	doc := NewReturnDocument("walk-in")
	doc.AddTiedLine(exportLine.LineID, 5, "")

	require.NoError(t, env.svc.Create(ctx, doc))
	assert.Equal(t, "PH0001", doc.Number)

	line := doc.Lines[0]
	assert.Equal(t, lot.ProductID, line.ProductID)
	assert.Equal(t, "box", line.Unit)
	assert.Equal(t, "A1", line.Location)
	require.NotNil(t, line.ExpiryDate)
	assert.True(t, line.ExpiryDate.Equal(*lot.ExpiryDate))
	// Acquisition cost of the issued lot wins over the sale price.
	assert.True(t, types.MustMoney("8.00").Equal(line.UnitPrice))
	assert.Equal(t, defaultReason, line.Reason)

	// The line owns exactly one return-sourced lot.
	require.NotNil(t, line.LotID)
	owned, err := env.ledger.GetByID(ctx, *line.LotID)
	require.NoError(t, err)
	assert.Equal(t, ledger.SourceReturn, owned.Source)
	assert.Equal(t, int64(5), owned.Quantity)
}

func TestCreate_LinesOfSameProductOwnSeparateLots(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Two export lines issued from the same lot: the return lines resolve
	// to the same product and expiry.
	firstIssue, lot := env.seedIssue(t, 20)
	secondIssue := exportdoc.ExportLine{
		LineID:    id.New(),
		LineNo:    2,
		LotID:     lot.ID,
		ProductID: lot.ProductID,
		Quantity:  10,
		UnitPrice: types.MustMoney("12.00"),
	}
	env.exports.lines[secondIssue.LineID] = secondIssue

	doc := NewReturnDocument("walk-in")
	doc.AddTiedLine(firstIssue.LineID, 5, "damaged")
	doc.AddTiedLine(secondIssue.LineID, 3, "damaged")

	require.NoError(t, env.svc.Create(ctx, doc))

	// Each line owns its own lot; neither write clobbers the other.
	require.NotNil(t, doc.Lines[0].LotID)
	require.NotNil(t, doc.Lines[1].LotID)
	assert.NotEqual(t, *doc.Lines[0].LotID, *doc.Lines[1].LotID)

	first, err := env.ledger.GetByID(ctx, *doc.Lines[0].LotID)
	require.NoError(t, err)
	second, err := env.ledger.GetByID(ctx, *doc.Lines[1].LotID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), first.Quantity)
	assert.Equal(t, int64(3), second.Quantity)

	// 100 imported + 5 + 3 returned.
	total, err := env.ledger.TotalQuantityByProduct(ctx, lot.ProductID)
	require.NoError(t, err)
	assert.Equal(t, int64(108), total)
}

func TestCreate_FreeFormLinesOfSameProductOwnSeparateLots(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	productID := id.New()
	doc := NewReturnDocument("walk-in")
	doc.AddFreeLine(productID, 4, "pcs", types.MustMoney("2.50"), nil, "R1", "no receipt")
	doc.AddFreeLine(productID, 6, "pcs", types.MustMoney("2.50"), nil, "R1", "no receipt")

	require.NoError(t, env.svc.Create(ctx, doc))

	assert.NotEqual(t, *doc.Lines[0].LotID, *doc.Lines[1].LotID)
	total, err := env.ledger.TotalQuantityByProduct(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), total)
}

func TestCreate_CumulativeBoundAcrossDocuments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	exportLine, _ := env.seedIssue(t, 20)

	first := NewReturnDocument("walk-in")
	first.AddTiedLine(exportLine.LineID, 5, "damaged")
	require.NoError(t, env.svc.Create(ctx, first))

	// 16 more would exceed the 20 issued; the bound is what remains.
	second := NewReturnDocument("walk-in")
	second.AddTiedLine(exportLine.LineID, 16, "damaged")
	err := env.svc.Create(ctx, second)
	require.Error(t, err)
	assert.True(t, apperror.IsQuantityBoundExceeded(err))
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, int64(15), appErr.Details["bound"])
	assert.Equal(t, int64(16), appErr.Details["requested"])

	// Exactly the remainder passes.
	second = NewReturnDocument("walk-in")
	second.AddTiedLine(exportLine.LineID, 15, "damaged")
	assert.NoError(t, env.svc.Create(ctx, second))
}

func TestCreate_BoundCountsLinesWithinOneDocument(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	exportLine, _ := env.seedIssue(t, 20)

	doc := NewReturnDocument("walk-in")
	doc.AddTiedLine(exportLine.LineID, 12, "damaged")
	doc.AddTiedLine(exportLine.LineID, 9, "expired on arrival")

	err := env.svc.Create(ctx, doc)
	require.Error(t, err)
	assert.True(t, apperror.IsQuantityBoundExceeded(err))
}

func TestUpdate_SetSemanticsAndSelfExclusion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	exportLine, _ := env.seedIssue(t, 20)

	doc := NewReturnDocument("walk-in")
	doc.AddTiedLine(exportLine.LineID, 5, "damaged")
	require.NoError(t, env.svc.Create(ctx, doc))

	productID := doc.Lines[0].ProductID

	// Lower the quantity: the owned lot is set to 3, not 5+3.
	doc.Lines[0].Quantity = 3
	require.NoError(t, env.svc.Update(ctx, doc))
	total, err := env.ledger.TotalQuantityByProduct(ctx, productID)
	require.NoError(t, err)
	// 100 in the import lot (untouched here) + 3 returned
	assert.Equal(t, int64(103), total)

	// Raising to the full issued quantity passes because the document's
	// own previous 3 are excluded from the bound.
	doc.Lines[0].Quantity = 20
	assert.NoError(t, env.svc.Update(ctx, doc))
}

func TestDelete_RemovesOwnedLots(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	exportLine, _ := env.seedIssue(t, 20)

	doc := NewReturnDocument("walk-in")
	doc.AddTiedLine(exportLine.LineID, 5, "damaged")
	require.NoError(t, env.svc.Create(ctx, doc))
	ownedLotID := *doc.Lines[0].LotID

	require.NoError(t, env.svc.Delete(ctx, doc.ID))

	_, err := env.ledger.GetByID(ctx, ownedLotID)
	assert.True(t, apperror.IsNotFound(err))
	assert.Empty(t, env.repo.docs)
}

func TestCreate_FreeFormLine(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	productID := id.New()
	doc := NewReturnDocument("walk-in")
	doc.AddFreeLine(productID, 4, "pcs", types.MustMoney("2.50"), nil, "R1", "no receipt")

	require.NoError(t, env.svc.Create(ctx, doc))

	total, err := env.ledger.TotalQuantityByProduct(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
}

func TestCreate_FreeFormLineRequiresProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doc := NewReturnDocument("walk-in")
	doc.Lines = append(doc.Lines, ReturnLine{LineID: id.New(), LineNo: 1, Quantity: 4})

	err := env.svc.Create(ctx, doc)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestRemainingReturnable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	exportLine, _ := env.seedIssue(t, 20)

	doc := NewReturnDocument("walk-in")
	doc.AddTiedLine(exportLine.LineID, 5, "damaged")
	require.NoError(t, env.svc.Create(ctx, doc))

	remaining, err := env.svc.RemainingReturnable(ctx, exportLine.LineID)
	require.NoError(t, err)
	assert.Equal(t, int64(15), remaining)
}
