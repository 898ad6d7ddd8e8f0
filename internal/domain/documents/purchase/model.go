// Package purchase provides the PurchaseOrder document: an order placed
// with a supplier for quantities of its products.
package purchase

import (
	"context"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/entity"
	"storeroom/internal/core/id"
	"storeroom/internal/core/types"
)

// Status is informational; it never gates ledger mutation.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusClosed   Status = "closed"
)

// PurchaseOrder represents an order placed with a supplier.
type PurchaseOrder struct {
	entity.Document

	SupplierID id.ID  `db:"supplier_id" json:"supplierId"`
	Status     Status `db:"status" json:"status"`

	// Table part: ordered goods
	Lines []POLine `db:"-" json:"lines"`
}

// POLine represents one ordered product.
type POLine struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID       `db:"product_id" json:"productId"`
	Quantity  int64       `db:"quantity" json:"quantity"`
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`
}

// NewPurchaseOrder creates a new purchase order in pending status.
func NewPurchaseOrder(supplierID id.ID) *PurchaseOrder {
	return &PurchaseOrder{
		Document:   entity.NewDocument(),
		SupplierID: supplierID,
		Status:     StatusPending,
		Lines:      make([]POLine, 0),
	}
}

// AddLine appends an ordered product.
func (p *PurchaseOrder) AddLine(productID id.ID, quantity int64, unitPrice types.Money) {
	p.Lines = append(p.Lines, POLine{
		LineID:    id.New(),
		LineNo:    len(p.Lines) + 1,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	})
}

// OrderedQuantity returns the total ordered quantity for a product across
// the order's lines. Zero means the product is not on the order.
func (p *PurchaseOrder) OrderedQuantity(productID id.ID) int64 {
	var total int64
	for _, line := range p.Lines {
		if line.ProductID == productID {
			total += line.Quantity
		}
	}
	return total
}

// Validate implements entity.Validatable.
func (p *PurchaseOrder) Validate(ctx context.Context) error {
	if err := p.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(p.SupplierID) {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierId")
	}

	switch p.Status {
	case StatusPending, StatusApproved, StatusClosed:
	default:
		return apperror.NewValidation("invalid purchase order status").
			WithDetail("field", "status").
			WithDetail("value", string(p.Status))
	}

	if len(p.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i, line := range p.Lines {
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
