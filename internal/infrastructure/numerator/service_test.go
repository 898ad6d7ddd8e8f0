package numerator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corenumerator "storeroom/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates the sys_sequences UPSERT: every call advances the
// stored value by the increment argument (1 for strict).
type mockQuerier struct {
	mu           sync.Mutex
	currentValue int64
	calls        int
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	var increment int64 = 1
	if len(args) == 2 {
		if val, ok := args[1].(int64); ok {
			increment = val
		}
	}

	m.currentValue += increment
	m.calls++
	return &mockRow{val: m.currentValue}
}

func TestGetNextNumber_StrictFormatsPlainSequence(t *testing.T) {
	querier := &mockQuerier{}
	svc := New(querier)
	cfg := corenumerator.DefaultConfig(corenumerator.PrefixImport)

	num, err := svc.GetNextNumber(context.Background(), cfg, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "PN0001", num)

	num, err = svc.GetNextNumber(context.Background(), cfg, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "PN0002", num)
}

func TestGetNextNumber_StrictHitsDatabaseEveryTime(t *testing.T) {
	querier := &mockQuerier{}
	svc := New(querier)
	cfg := corenumerator.DefaultConfig(corenumerator.PrefixExport)

	for i := 0; i < 5; i++ {
		_, err := svc.GetNextNumber(context.Background(), cfg, nil, time.Now())
		require.NoError(t, err)
	}

	assert.Equal(t, 5, querier.calls)
}

func TestGetNextNumber_CachedAllocatesRanges(t *testing.T) {
	querier := &mockQuerier{}
	svc := New(querier)
	cfg := corenumerator.DefaultConfig(corenumerator.PrefixPurchaseOrder)
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}

	for i := int64(1); i <= 10; i++ {
		num, err := svc.GetNextNumber(context.Background(), cfg, opts, time.Now())
		require.NoError(t, err)
		assert.Equal(t, svc.formatNumber(cfg, time.Now(), i), num)
	}

	// Range of 10 costs exactly one round-trip.
	assert.Equal(t, 1, querier.calls)

	// The 11th number triggers a refill.
	num, err := svc.GetNextNumber(context.Background(), cfg, opts, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "PO0011", num)
	assert.Equal(t, 2, querier.calls)
}

func TestGetNextNumber_IncludeYearFormat(t *testing.T) {
	querier := &mockQuerier{}
	svc := New(querier)
	cfg := corenumerator.Config{
		Prefix:      "INV",
		IncludeYear: true,
		PadWidth:    5,
		ResetPeriod: "year",
	}

	period := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	num, err := svc.GetNextNumber(context.Background(), cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-00001", num)
}

func TestBuildKey_ResetPeriods(t *testing.T) {
	svc := New(&mockQuerier{})
	period := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "PN", svc.buildKey(corenumerator.DefaultConfig("PN"), period))
	assert.Equal(t, "PN_2026", svc.buildKey(corenumerator.Config{Prefix: "PN", ResetPeriod: "year"}, period))
	assert.Equal(t, "PN_2026_03", svc.buildKey(corenumerator.Config{Prefix: "PN", ResetPeriod: "month"}, period))
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, int64(12), ParseNumber("PN0012"))
	assert.Equal(t, int64(7), ParseNumber("ASN0007"))
	assert.Equal(t, int64(1), ParseNumber("INV-2026-00001"))
	assert.Equal(t, int64(-1), ParseNumber("garbage"))
}
