// Package exportdoc provides the ExportDocument: an issue of goods from
// stock lots to a customer. Saving it decrements the referenced lots;
// deleting it restores them.
package exportdoc

import (
	"context"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/entity"
	"storeroom/internal/core/id"
	"storeroom/internal/core/types"
)

// ExportDocument represents a goods issue to a customer.
type ExportDocument struct {
	entity.Document

	// Customer is free-form: retail issues have no counterparty catalog.
	Customer string `db:"customer" json:"customer"`

	// Table part: issued goods
	Lines []ExportLine `db:"-" json:"lines"`
}

// ExportLine represents one issue from a specific stock lot.
type ExportLine struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	// LotID identifies the stock lot the goods are taken from.
	LotID id.ID `db:"lot_id" json:"lotId"`

	// ProductID is resolved from the lot on save.
	ProductID id.ID `db:"product_id" json:"productId"`

	Quantity        int64       `db:"quantity" json:"quantity"`
	UnitPrice       types.Money `db:"unit_price" json:"unitPrice"`
	DiscountPercent types.Money `db:"discount_percent" json:"discountPercent"`

	// Total = quantity x price x (1 - discount/100), rounded once at the end.
	Total types.Money `db:"total" json:"total"`
}

// NewExportDocument creates a new goods issue.
func NewExportDocument(customer string) *ExportDocument {
	return &ExportDocument{
		Document: entity.NewDocument(),
		Customer: customer,
		Lines:    make([]ExportLine, 0),
	}
}

// AddLine appends an issue from a lot. A zero price means "use the lot's
// unit cost", resolved on save.
func (d *ExportDocument) AddLine(lotID id.ID, quantity int64, unitPrice, discountPercent types.Money) {
	d.Lines = append(d.Lines, ExportLine{
		LineID:          id.New(),
		LineNo:          len(d.Lines) + 1,
		LotID:           lotID,
		Quantity:        quantity,
		UnitPrice:       unitPrice,
		DiscountPercent: discountPercent,
	})
}

// TotalAmount sums line totals.
func (d *ExportDocument) TotalAmount() types.Money {
	total := types.Zero()
	for _, line := range d.Lines {
		total = total.Add(line.Total)
	}
	return total
}

// Validate implements entity.Validatable.
func (d *ExportDocument) Validate(ctx context.Context) error {
	if err := d.Document.Validate(ctx); err != nil {
		return err
	}

	if len(d.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i, line := range d.Lines {
		if id.IsNil(line.LotID) {
			return apperror.NewValidation("stock lot is required").
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
		if line.DiscountPercent.IsNegative() || line.DiscountPercent.GreaterThan(types.MoneyFromInt(100)) {
			return apperror.NewValidation("discount must be between 0 and 100").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}
