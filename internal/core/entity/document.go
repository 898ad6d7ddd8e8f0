package entity

import (
	"context"
	"time"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
)

// Document is the base type for business transactions.
// Examples: ImportReceipt, ExportReceipt, ReturnReceipt, PurchaseOrder, ASN.
type Document struct {
	BaseDocument

	// Number is the human-readable document code, auto-generated and
	// sequential per document type (e.g. PN0001)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// Comment is an optional user comment
	Comment string `db:"comment" json:"comment,omitempty"`
}

// NewDocument creates a new Document with generated ID.
func NewDocument() Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		Date:         time.Now().UTC(),
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	return nil
}

// GetID returns the document ID.
func (d *Document) GetID() id.ID {
	return d.ID
}

// SetNumber assigns the generated document code (used by services after
// consulting the numerator).
func (d *Document) SetNumber(number string) {
	d.Number = number
}

// SetCreatedBy stamps the creating actor.
func (d *Document) SetCreatedBy(username string) {
	d.CreatedBy = username
	if d.UpdatedBy == "" {
		d.UpdatedBy = username
	}
}
