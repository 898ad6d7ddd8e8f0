// Package returndoc provides the ReturnDocument: goods coming back from a
// customer into stock. Each saved line owns exactly one return-sourced
// stock lot; deleting the document removes those lots.
package returndoc

import (
	"context"
	"time"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/entity"
	"storeroom/internal/core/id"
	"storeroom/internal/core/types"
)

// ReturnDocument represents a customer return receipt.
type ReturnDocument struct {
	entity.Document

	Customer string `db:"customer" json:"customer"`

	// Table part: returned goods
	Lines []ReturnLine `db:"-" json:"lines"`
}

// ReturnLine represents one returned batch. A line tied to an export line
// inherits its product and pricing from the originally issued lot and is
// bounded by the issued quantity; an untied line is a free-form return.
type ReturnLine struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	// ExportLineID ties the return to the issue it reverses, nil for
	// free-form returns.
	ExportLineID *id.ID `db:"export_line_id" json:"exportLineId,omitempty"`

	ProductID id.ID       `db:"product_id" json:"productId"`
	Quantity  int64       `db:"quantity" json:"quantity"`
	Unit      string      `db:"unit" json:"unit"`
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`

	ExpiryDate *time.Time `db:"expiry_date" json:"expiryDate,omitempty"`
	Location   string     `db:"location" json:"location"`
	Reason     string     `db:"reason" json:"reason"`

	// LotID is the return-sourced stock lot this line owns, set on save.
	LotID *id.ID `db:"lot_id" json:"lotId,omitempty"`
}

// NewReturnDocument creates a new customer return.
func NewReturnDocument(customer string) *ReturnDocument {
	return &ReturnDocument{
		Document: entity.NewDocument(),
		Customer: customer,
		Lines:    make([]ReturnLine, 0),
	}
}

// AddTiedLine appends a return against an issued export line. Product,
// unit, price and expiry are inherited from the issued lot on save.
func (d *ReturnDocument) AddTiedLine(exportLineID id.ID, quantity int64, reason string) {
	d.Lines = append(d.Lines, ReturnLine{
		LineID:       id.New(),
		LineNo:       len(d.Lines) + 1,
		ExportLineID: &exportLineID,
		Quantity:     quantity,
		Reason:       reason,
	})
}

// AddFreeLine appends a free-form return not tied to any issue.
func (d *ReturnDocument) AddFreeLine(productID id.ID, quantity int64, unit string, unitPrice types.Money, expiry *time.Time, location, reason string) {
	d.Lines = append(d.Lines, ReturnLine{
		LineID:     id.New(),
		LineNo:     len(d.Lines) + 1,
		ProductID:  productID,
		Quantity:   quantity,
		Unit:       unit,
		UnitPrice:  unitPrice,
		ExpiryDate: expiry,
		Location:   location,
		Reason:     reason,
	})
}

// Validate implements entity.Validatable.
func (d *ReturnDocument) Validate(ctx context.Context) error {
	if err := d.Document.Validate(ctx); err != nil {
		return err
	}

	if len(d.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i, line := range d.Lines {
		if line.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.ExportLineID == nil && id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required for a free-form return").
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
