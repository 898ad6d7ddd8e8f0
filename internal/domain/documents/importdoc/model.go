// Package importdoc provides the ImportDocument: a receipt of goods from a
// supplier into the warehouse. Saving it creates or merges stock lots;
// deleting it reverses them.
package importdoc

import (
	"context"
	"time"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/entity"
	"storeroom/internal/core/id"
	"storeroom/internal/core/types"
)

// ImportDocument represents a goods receipt from a supplier.
type ImportDocument struct {
	entity.Document

	SupplierID id.ID `db:"supplier_id" json:"supplierId"`

	// ASNID links the receipt to the shipment notice it fulfils, if any.
	ASNID *id.ID `db:"asn_id" json:"asnId,omitempty"`

	// Table part: received goods
	Lines []ImportLine `db:"-" json:"lines"`
}

// ImportLine represents one received batch of a product.
type ImportLine struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID       `db:"product_id" json:"productId"`
	Quantity  int64       `db:"quantity" json:"quantity"`
	Unit      string      `db:"unit" json:"unit"`
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`

	// ASNLineID links the line to the shipment notice line it fulfils, if
	// any. Lines inherited from a notice carry it; manual lines leave it nil.
	ASNLineID *id.ID `db:"asn_line_id" json:"asnLineId,omitempty"`

	// ExpiryDate of the received batch, nil for non-perishables.
	ExpiryDate *time.Time `db:"expiry_date" json:"expiryDate,omitempty"`

	// Location is the storage bin the batch was put away to.
	Location string `db:"location" json:"location"`
}

// NewImportDocument creates a new goods receipt.
func NewImportDocument(supplierID id.ID) *ImportDocument {
	return &ImportDocument{
		Document:   entity.NewDocument(),
		SupplierID: supplierID,
		Lines:      make([]ImportLine, 0),
	}
}

// AddLine appends a received batch.
func (d *ImportDocument) AddLine(productID id.ID, quantity int64, unit string, unitPrice types.Money, expiry *time.Time, location string) {
	d.Lines = append(d.Lines, ImportLine{
		LineID:     id.New(),
		LineNo:     len(d.Lines) + 1,
		ProductID:  productID,
		Quantity:   quantity,
		Unit:       unit,
		UnitPrice:  unitPrice,
		ExpiryDate: expiry,
		Location:   location,
	})
}

// Validate implements entity.Validatable.
func (d *ImportDocument) Validate(ctx context.Context) error {
	if err := d.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(d.SupplierID) {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierId")
	}

	if len(d.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i, line := range d.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.UnitPrice.IsNegative() {
			return apperror.NewValidation("unit price must not be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}
