// Package ledger provides the stock ledger repository contract.
package ledger

import (
	"context"
	"time"

	"storeroom/internal/core/id"
	"storeroom/internal/domain"
)

// Repository defines persistence operations for stock lots.
// Mutating lookups take row locks so concurrent exports against the same
// lot are serialized (see FindByIdentity / GetForUpdate).
type Repository interface {
	// Create inserts a new lot. The unique index on
	// (source, source_doc_id, product_id, expiry_date) makes lot identity
	// an enforced invariant, not a lookup convention.
	Create(ctx context.Context, lot *StockLot) error

	// GetByID retrieves a lot by ID.
	GetByID(ctx context.Context, lotID id.ID) (*StockLot, error)

	// GetForUpdate retrieves a lot with a row lock (SELECT ... FOR UPDATE).
	GetForUpdate(ctx context.Context, lotID id.ID) (*StockLot, error)

	// FindByIdentity retrieves the lot keyed by (source doc, product, expiry)
	// with a row lock. Returns a NotFound error when no such lot exists.
	FindByIdentity(ctx context.Context, ref DocumentRef, productID id.ID, expiry *time.Time) (*StockLot, error)

	// Update persists quantity/field changes with optimistic locking.
	Update(ctx context.Context, lot *StockLot) error

	// Delete removes a lot permanently (zero-quantity pruning, return-line
	// delete).
	Delete(ctx context.Context, lotID id.ID) error

	// DeleteBySource removes every lot owned by a document.
	DeleteBySource(ctx context.Context, ref DocumentRef) error

	// List retrieves lots with filtering and pagination.
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*StockLot], error)

	// SaveStatuses persists recomputed statuses (self-healing listing pass).
	SaveStatuses(ctx context.Context, lots []*StockLot) error

	// SumQuantityByProduct returns the total on-hand quantity of a product
	// across all lots.
	SumQuantityByProduct(ctx context.Context, productID id.ID) (int64, error)
}

// ListFilter for filtering stock lots.
type ListFilter struct {
	domain.ListFilter

	ProductID  *id.ID
	SupplierID *id.ID
	Source     *SourceKind
	Status     *LotStatus
	Location   string

	// AvailableOnly keeps lots with quantity > 0 (FEFO picking lists)
	AvailableOnly bool

	ExpiryFrom *time.Time
	ExpiryTo   *time.Time
}

// DefaultListFilter returns FEFO ordering: earliest expiry first, lots
// without expiry last.
func DefaultListFilter() ListFilter {
	f := ListFilter{ListFilter: domain.DefaultListFilter()}
	f.OrderBy = "expiry_date"
	return f
}
