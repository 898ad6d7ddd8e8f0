// Package ledger provides the stock ledger: the authoritative per-lot
// quantity record mutated by import, export and return documents.
package ledger

import (
	"context"
	"time"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/entity"
	"storeroom/internal/core/id"
	"storeroom/internal/core/types"
)

// SourceKind identifies the document kind a lot originates from.
type SourceKind string

const (
	SourceImport SourceKind = "import"
	SourceReturn SourceKind = "return"
)

// DocumentRef points at the origin of a lot. Exactly one document owns each
// lot. Import lots merge per document, so LineID stays nil; return lots are
// owned by a single document line, so LineID narrows the identity and two
// lines of the same product coexist as separate lots.
type DocumentRef struct {
	Kind   SourceKind
	DocID  id.ID
	LineID *id.ID
}

// ImportRef builds a reference to an import receipt.
func ImportRef(docID id.ID) DocumentRef {
	return DocumentRef{Kind: SourceImport, DocID: docID}
}

// ReturnRef builds a reference to a return receipt as a whole. Matches every
// lot of the document regardless of line.
func ReturnRef(docID id.ID) DocumentRef {
	return DocumentRef{Kind: SourceReturn, DocID: docID}
}

// ReturnLineRef builds a reference to one line of a return receipt.
func ReturnLineRef(docID, lineID id.ID) DocumentRef {
	return DocumentRef{Kind: SourceReturn, DocID: docID, LineID: &lineID}
}

// SameLine reports whether two optional line ids refer to the same line.
func SameLine(a, b *id.ID) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

// LotStatus is derived from the expiry date, never stored authority.
type LotStatus string

const (
	StatusValid         LotStatus = "valid"
	StatusNearlyExpired LotStatus = "nearly_expired"
	StatusExpired       LotStatus = "expired"
)

// NearExpiryDays is the window within which a lot counts as nearly expired.
const NearExpiryDays = 30

// StatusOf computes lot status as a pure function of expiry date and the
// as-of date. Lots without an expiry date are always valid. Comparison is
// at day granularity.
func StatusOf(expiry *time.Time, asOf time.Time) LotStatus {
	if expiry == nil {
		return StatusValid
	}
	expDay := expiry.UTC().Truncate(24 * time.Hour)
	asOfDay := asOf.UTC().Truncate(24 * time.Hour)

	if expDay.Before(asOfDay) {
		return StatusExpired
	}
	if !expDay.After(asOfDay.AddDate(0, 0, NearExpiryDays)) {
		return StatusNearlyExpired
	}
	return StatusValid
}

// StatusRank orders statuses for listing: nearly expired first (needs
// attention), then valid, then expired.
func StatusRank(s LotStatus) int {
	switch s {
	case StatusNearlyExpired:
		return 0
	case StatusValid:
		return 1
	default:
		return 2
	}
}

// StockLot is the unit of inventory: a quantity of one product sharing an
// expiry date and an originating document. Identity for merge purposes is
// the tuple (source kind, source document, source line, product, expiry
// date), enforced by a unique index in storage; import lots carry no source
// line and merge per document.
type StockLot struct {
	entity.BaseEntity

	// Source describes the originating document. SourceLineID is set only
	// for return lots, which are owned line by line.
	Source       SourceKind `db:"source" json:"source"`
	SourceDocID  id.ID      `db:"source_doc_id" json:"sourceDocId"`
	SourceLineID *id.ID     `db:"source_line_id" json:"sourceLineId,omitempty"`

	ProductID id.ID `db:"product_id" json:"productId"`

	// Quantity is a non-negative integer count of units
	Quantity int64 `db:"quantity" json:"quantity"`

	Unit     string `db:"unit" json:"unit"`
	Location string `db:"location" json:"location,omitempty"`

	ExpiryDate *time.Time `db:"expiry_date" json:"expiryDate,omitempty"`

	// Status is derived from ExpiryDate; persisted for filtering but
	// recomputed on every mutation and on listing passes
	Status LotStatus `db:"status" json:"status"`

	// UnitCost is the acquisition price per unit
	UnitCost types.Money `db:"unit_cost" json:"unitCost"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewStockLot creates a lot for the given source document.
func NewStockLot(ref DocumentRef, productID id.ID, quantity int64, unit, location string, expiry *time.Time, unitCost types.Money) *StockLot {
	now := time.Now().UTC()
	lot := &StockLot{
		BaseEntity:   entity.NewBaseEntity(),
		Source:       ref.Kind,
		SourceDocID:  ref.DocID,
		SourceLineID: ref.LineID,
		ProductID:    productID,
		Quantity:     quantity,
		Unit:         unit,
		Location:     location,
		ExpiryDate:   expiry,
		UnitCost:     unitCost,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	lot.RecomputeStatus(now)
	return lot
}

// Ref returns the originating document reference.
func (l *StockLot) Ref() DocumentRef {
	return DocumentRef{Kind: l.Source, DocID: l.SourceDocID, LineID: l.SourceLineID}
}

// RecomputeStatus refreshes the derived status. Returns true if it changed.
// Idempotent for a fixed asOf.
func (l *StockLot) RecomputeStatus(asOf time.Time) bool {
	next := StatusOf(l.ExpiryDate, asOf)
	if next == l.Status {
		return false
	}
	l.Status = next
	return true
}

// IsAvailable reports whether the lot can be picked for export.
func (l *StockLot) IsAvailable() bool {
	return l.Quantity > 0
}

// Validate implements entity.Validatable.
func (l *StockLot) Validate(ctx context.Context) error {
	if l.Source != SourceImport && l.Source != SourceReturn {
		return apperror.NewValidation("invalid lot source").
			WithDetail("field", "source").
			WithDetail("value", string(l.Source))
	}
	if id.IsNil(l.SourceDocID) {
		return apperror.NewValidation("source document is required").
			WithDetail("field", "sourceDocId")
	}
	if id.IsNil(l.ProductID) {
		return apperror.NewValidation("product is required").
			WithDetail("field", "productId")
	}
	if l.Quantity < 0 {
		return apperror.NewNegativeQuantity(l.ID.String(), l.Quantity)
	}
	return nil
}
