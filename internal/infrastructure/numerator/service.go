// Package numerator provides the PostgreSQL implementation of document
// auto-numbering. It implements the core/numerator.Generator interface.
package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "storeroom/internal/core/numerator"
)

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type cachedRange struct {
	current int64
	max     int64
}

// Service provides document numbering backed by the sys_sequences table.
//
// Numerator calls run outside business transactions (domain services fetch
// the number before opening the tx), so a rolled-back document may burn a
// number under the Cached strategy. Strict sequences advance inside their
// own UPSERT and stay gapless as long as the enclosing save succeeds.
type Service struct {
	querier Querier

	// cacheMu protects ranges
	cacheMu sync.Mutex
	// ranges stores active in-memory ranges per sequence key
	ranges map[string]*cachedRange
}

// Ensure compile-time interface compliance.
var _ corenumerator.Generator = (*Service)(nil)

// New creates a new numerator service.
func New(querier Querier) *Service {
	return &Service{
		querier: querier,
		ranges:  make(map[string]*cachedRange),
	}
}

// GetNextNumber generates the next document number, e.g. PN0001.
//
// Supports Strict (DB-level) and Cached (memory-range) strategies.
func (s *Service) GetNextNumber(ctx context.Context, cfg corenumerator.Config, opts *corenumerator.Options, period time.Time) (string, error) {
	if s == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	if opts == nil {
		opts = corenumerator.DefaultOptions()
	}

	key := s.buildKey(cfg, period)
	var num int64
	var err error

	switch opts.Strategy {
	case corenumerator.StrategyCached:
		num, err = s.getNextCached(ctx, key, opts)
	case corenumerator.StrategyStrict:
		fallthrough
	default:
		num, err = s.getNextStrict(ctx, key)
	}

	if err != nil {
		return "", err
	}

	return s.formatNumber(cfg, period, num), nil
}

// getNextStrict fetches the next number directly from DB using UPSERT + RETURNING.
func (s *Service) getNextStrict(ctx context.Context, key string) (int64, error) {
	var num int64
	err := s.querier.QueryRow(ctx, `
        INSERT INTO sys_sequences (key, current_val)
        VALUES ($1, 1)
        ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1
        RETURNING current_val
	`, key).Scan(&num)
	if err != nil {
		return 0, fmt.Errorf("strict next: %w", err)
	}
	return num, nil
}

// getNextCached fetches the next number from memory, refilling from DB if needed.
func (s *Service) getNextCached(ctx context.Context, key string, opts *corenumerator.Options) (int64, error) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	rng, exists := s.ranges[key]
	if !exists {
		rng = &cachedRange{}
		s.ranges[key] = rng
	}

	// allocate new range if needed
	if rng.current >= rng.max {
		increment := opts.RangeSize
		if increment <= 0 {
			increment = 50 // default
		}

		var newMax int64
		err := s.querier.QueryRow(ctx, `
            INSERT INTO sys_sequences (key, current_val)
            VALUES ($1, $2)
            ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + $2
            RETURNING current_val
		`, key, increment).Scan(&newMax)
		if err != nil {
			return 0, fmt.Errorf("reserve range: %w", err)
		}

		// newMax is the end of our range; the first valid number in it is
		// newMax - increment + 1.
		rng.current = newMax - increment
		rng.max = newMax
	}

	rng.current++
	return rng.current, nil
}

// SetNextNumber sets the sequence value (for migration purposes).
func (s *Service) SetNextNumber(ctx context.Context, cfg corenumerator.Config, period time.Time, value int64) error {
	key := s.buildKey(cfg, period)

	var result int64
	err := s.querier.QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = $2
		RETURNING current_val
	`, key, value).Scan(&result)

	// Invalidate any cached range for this key
	s.cacheMu.Lock()
	delete(s.ranges, key)
	s.cacheMu.Unlock()

	return err
}

// buildKey creates the sequence key based on config and period.
func (s *Service) buildKey(cfg corenumerator.Config, period time.Time) string {
	switch cfg.ResetPeriod {
	case "month":
		return fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("2006_01"))
	case "year":
		return fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("2006"))
	default:
		return cfg.Prefix
	}
}

// formatNumber creates the final number string.
func (s *Service) formatNumber(cfg corenumerator.Config, period time.Time, num int64) string {
	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 4
	}

	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", cfg.Prefix, period.Format("2006"), padWidth, num)
	}
	return fmt.Sprintf("%s%0*d", cfg.Prefix, padWidth, num)
}

// ParseNumber extracts the numeric part from a formatted number.
// Returns -1 if parsing fails.
func ParseNumber(formatted string) int64 {
	var num int64
	patterns := []string{
		"%*[^-]-%*d-%d",
		"%*[A-Z]%d",
	}

	for _, pattern := range patterns {
		if _, err := fmt.Sscanf(formatted, pattern, &num); err == nil {
			return num
		}
	}

	return -1
}
