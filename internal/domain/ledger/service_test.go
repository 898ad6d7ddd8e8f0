package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
	"storeroom/internal/core/types"
	"storeroom/internal/domain"
)

// --- Fakes ---

// noopTxManager runs the function directly. The ledger's atomicity is
// exercised against the real TxManager in the storage layer; domain tests
// only need the contract.
type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memRepo is an in-memory Repository for database-free tests.
type memRepo struct {
	lots map[id.ID]*StockLot
}

func newMemRepo() *memRepo {
	return &memRepo{lots: make(map[id.ID]*StockLot)}
}

func (r *memRepo) Create(ctx context.Context, lot *StockLot) error {
	cp := *lot
	r.lots[lot.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, lotID id.ID) (*StockLot, error) {
	lot, ok := r.lots[lotID]
	if !ok {
		return nil, apperror.NewNotFound("stock lot", lotID.String())
	}
	cp := *lot
	return &cp, nil
}

func (r *memRepo) GetForUpdate(ctx context.Context, lotID id.ID) (*StockLot, error) {
	return r.GetByID(ctx, lotID)
}

func (r *memRepo) FindByIdentity(ctx context.Context, ref DocumentRef, productID id.ID, expiry *time.Time) (*StockLot, error) {
	for _, lot := range r.lots {
		if lot.Source != ref.Kind || lot.SourceDocID != ref.DocID || lot.ProductID != productID {
			continue
		}
		if !SameLine(lot.SourceLineID, ref.LineID) {
			continue
		}
		if !sameExpiry(lot.ExpiryDate, expiry) {
			continue
		}
		cp := *lot
		return &cp, nil
	}
	return nil, apperror.NewNotFound("stock lot", productID.String())
}

func (r *memRepo) Update(ctx context.Context, lot *StockLot) error {
	if _, ok := r.lots[lot.ID]; !ok {
		return apperror.NewNotFound("stock lot", lot.ID.String())
	}
	cp := *lot
	r.lots[lot.ID] = &cp
	return nil
}

func (r *memRepo) Delete(ctx context.Context, lotID id.ID) error {
	if _, ok := r.lots[lotID]; !ok {
		return apperror.NewNotFound("stock lot", lotID.String())
	}
	delete(r.lots, lotID)
	return nil
}

func (r *memRepo) DeleteBySource(ctx context.Context, ref DocumentRef) error {
	for lotID, lot := range r.lots {
		if lot.Source == ref.Kind && lot.SourceDocID == ref.DocID {
			delete(r.lots, lotID)
		}
	}
	return nil
}

func (r *memRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*StockLot], error) {
	var items []*StockLot
	for _, lot := range r.lots {
		cp := *lot
		items = append(items, &cp)
	}
	return domain.ListResult[*StockLot]{Items: items, TotalCount: int64(len(items))}, nil
}

func (r *memRepo) SaveStatuses(ctx context.Context, lots []*StockLot) error {
	for _, lot := range lots {
		if existing, ok := r.lots[lot.ID]; ok {
			existing.Status = lot.Status
		}
	}
	return nil
}

func (r *memRepo) SumQuantityByProduct(ctx context.Context, productID id.ID) (int64, error) {
	var total int64
	for _, lot := range r.lots {
		if lot.ProductID == productID {
			total += lot.Quantity
		}
	}
	return total, nil
}

func sameExpiry(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func newTestService() (*Service, *memRepo) {
	repo := newMemRepo()
	return NewService(repo, noopTxManager{}), repo
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// --- Tests ---

func TestStatusOf(t *testing.T) {
	asOf := time.Date(2025, 5, 1, 10, 30, 0, 0, time.UTC)

	t.Run("no expiry is always valid", func(t *testing.T) {
		assert.Equal(t, StatusValid, StatusOf(nil, asOf))
	})

	t.Run("past expiry is expired", func(t *testing.T) {
		assert.Equal(t, StatusExpired, StatusOf(datePtr(2025, 4, 30), asOf))
	})

	t.Run("expiring today is nearly expired", func(t *testing.T) {
		assert.Equal(t, StatusNearlyExpired, StatusOf(datePtr(2025, 5, 1), asOf))
	})

	t.Run("expiry at 30 day boundary is nearly expired", func(t *testing.T) {
		assert.Equal(t, StatusNearlyExpired, StatusOf(datePtr(2025, 5, 31), asOf))
	})

	t.Run("expiry past the window is valid", func(t *testing.T) {
		assert.Equal(t, StatusValid, StatusOf(datePtr(2025, 6, 1), asOf))
	})

	t.Run("idempotent for fixed as-of date", func(t *testing.T) {
		exp := datePtr(2025, 5, 20)
		first := StatusOf(exp, asOf)
		second := StatusOf(exp, asOf)
		assert.Equal(t, first, second)
	})
}

func TestUpsertLot_CreateAndMerge(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	ref := ImportRef(id.New())
	productID := id.New()
	expiry := datePtr(2026, 6, 1)

	lot, err := svc.UpsertLot(ctx, ref, productID, expiry, 50, "box", "A1", types.MustMoney("12.50"))
	require.NoError(t, err)
	assert.Equal(t, int64(50), lot.Quantity)
	assert.Equal(t, StatusValid, lot.Status)

	// Same identity merges into the existing lot and overwrites fields.
	merged, err := svc.UpsertLot(ctx, ref, productID, expiry, 30, "box", "B2", types.MustMoney("13.00"))
	require.NoError(t, err)
	assert.Equal(t, lot.ID, merged.ID)
	assert.Equal(t, int64(80), merged.Quantity)
	assert.Equal(t, "B2", merged.Location)
	assert.True(t, types.MustMoney("13.00").Equal(merged.UnitCost))
	assert.Len(t, repo.lots, 1)

	// Different expiry is a different lot.
	other, err := svc.UpsertLot(ctx, ref, productID, datePtr(2026, 9, 1), 10, "box", "A1", types.MustMoney("12.50"))
	require.NoError(t, err)
	assert.NotEqual(t, lot.ID, other.ID)
	assert.Len(t, repo.lots, 2)
}

func TestUpsertLot_NegativeQuantityRejected(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	ref := ImportRef(id.New())
	productID := id.New()

	_, err := svc.UpsertLot(ctx, ref, productID, nil, -5, "box", "", types.Zero())
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeNegativeQuantity, appErr.Code)

	lot, err := svc.UpsertLot(ctx, ref, productID, nil, 10, "box", "", types.Zero())
	require.NoError(t, err)

	_, err = svc.UpsertLot(ctx, ref, productID, nil, -11, "box", "", types.Zero())
	require.Error(t, err)
	appErr, ok = apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeNegativeQuantity, appErr.Code)

	// Lot unchanged after the failed delta.
	current, err := svc.GetByID(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), current.Quantity)
}

func TestDecrementLot(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	ref := ImportRef(id.New())
	productID := id.New()
	lot, err := svc.UpsertLot(ctx, ref, productID, nil, 30, "box", "A1", types.MustMoney("5.00"))
	require.NoError(t, err)

	got, err := svc.DecrementLot(ctx, lot.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.Quantity)

	// Over-decrement fails with InsufficientStock and leaves lot unchanged.
	_, err = svc.DecrementLot(ctx, lot.ID, 11)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, int64(11), appErr.Details["requested"])
	assert.Equal(t, int64(10), appErr.Details["available"])

	current, err := svc.GetByID(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), current.Quantity)

	// Decrement to exactly zero: the lot remains.
	got, err = svc.DecrementLot(ctx, lot.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Quantity)
	_, err = svc.GetByID(ctx, lot.ID)
	assert.NoError(t, err)
}

func TestRestoreLot(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	lot, err := svc.UpsertLot(ctx, ImportRef(id.New()), id.New(), nil, 30, "box", "", types.Zero())
	require.NoError(t, err)

	_, err = svc.DecrementLot(ctx, lot.ID, 20)
	require.NoError(t, err)

	restored, err := svc.RestoreLot(ctx, lot.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(30), restored.Quantity)
}

func TestDecrementAndPrune(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	ref := ImportRef(id.New())
	productID := id.New()
	expiry := datePtr(2026, 6, 1)

	_, err := svc.UpsertLot(ctx, ref, productID, expiry, 50, "box", "A1", types.Zero())
	require.NoError(t, err)

	// Round-trip: reversing the full import quantity removes the lot.
	err = svc.DecrementAndPrune(ctx, ref, productID, expiry, 50)
	require.NoError(t, err)
	assert.Empty(t, repo.lots)

	// Missing lot is a no-op, not an error.
	err = svc.DecrementAndPrune(ctx, ref, productID, expiry, 50)
	assert.NoError(t, err)
}

func TestDecrementAndPrune_PartialKeepsLot(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	ref := ImportRef(id.New())
	productID := id.New()

	lot, err := svc.UpsertLot(ctx, ref, productID, nil, 50, "box", "", types.Zero())
	require.NoError(t, err)

	err = svc.DecrementAndPrune(ctx, ref, productID, nil, 20)
	require.NoError(t, err)

	current, err := svc.GetByID(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(30), current.Quantity)
	assert.Len(t, repo.lots, 1)
}

func TestSetLot_SetSemantics(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	ref := ReturnRef(id.New())
	productID := id.New()
	expiry := datePtr(2026, 3, 15)

	lot, err := svc.SetLot(ctx, ref, productID, expiry, 5, "box", "R1", types.MustMoney("8.00"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), lot.Quantity)
	assert.Equal(t, SourceReturn, lot.Source)

	// Editing the line sets the quantity, it does not add.
	updated, err := svc.SetLot(ctx, ref, productID, expiry, 3, "box", "R1", types.MustMoney("8.00"))
	require.NoError(t, err)
	assert.Equal(t, lot.ID, updated.ID)
	assert.Equal(t, int64(3), updated.Quantity)
	assert.Len(t, repo.lots, 1)

	// Deleting the owning line removes the lot outright.
	err = svc.DeleteLot(ctx, lot.ID)
	require.NoError(t, err)
	assert.Empty(t, repo.lots)

	// Idempotent delete.
	err = svc.DeleteLot(ctx, lot.ID)
	assert.NoError(t, err)
}

func TestList_SelfHealingStatusRecompute(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	ref := ImportRef(id.New())
	productID := id.New()
	expiry := datePtr(2025, 1, 10)

	lot, err := svc.UpsertLot(ctx, ref, productID, expiry, 5, "box", "", types.Zero())
	require.NoError(t, err)

	// Simulate drift: the lot was stored while still valid, time moved on.
	repo.lots[lot.ID].Status = StatusValid
	svc.now = func() time.Time { return time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC) }

	result, err := svc.List(ctx, DefaultListFilter())
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, StatusExpired, result.Items[0].Status)

	// Drift persisted by the self-healing pass.
	assert.Equal(t, StatusExpired, repo.lots[lot.ID].Status)
}

// TestConservation walks an import/export/return sequence and checks the
// on-hand total equals imports - exports + returns after every step.
func TestConservation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	productID := id.New()
	importRef := ImportRef(id.New())
	expiry := datePtr(2026, 6, 1)
	price := types.MustMoney("4.00")

	var imported, exported, returned int64

	check := func() {
		t.Helper()
		total, err := svc.TotalQuantityByProduct(ctx, productID)
		require.NoError(t, err)
		assert.Equal(t, imported-exported+returned, total)
	}

	// Import 50.
	lot, err := svc.UpsertLot(ctx, importRef, productID, expiry, 50, "box", "A1", price)
	require.NoError(t, err)
	imported += 50
	check()

	// Export 20 from that lot.
	_, err = svc.DecrementLot(ctx, lot.ID, 20)
	require.NoError(t, err)
	exported += 20
	check()

	// Return 5 into a return-owned lot.
	_, err = svc.SetLot(ctx, ReturnRef(id.New()), productID, expiry, 5, "box", "A1", price)
	require.NoError(t, err)
	returned += 5
	check()

	// Export another 10.
	_, err = svc.DecrementLot(ctx, lot.ID, 10)
	require.NoError(t, err)
	exported += 10
	check()
}
