// Package asn provides the AdvanceShipmentNotice document: a supplier's
// notification of an upcoming delivery against a purchase order.
package asn

import (
	"context"
	"time"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/entity"
	"storeroom/internal/core/id"
	"storeroom/internal/core/types"
)

// Status tracks whether the notified goods have been received.
type Status string

const (
	StatusNotDelivered Status = "not_delivered"
	StatusDelivered    Status = "delivered"
)

// AdvanceShipmentNotice represents a supplier's shipment notice.
type AdvanceShipmentNotice struct {
	entity.Document

	PurchaseOrderID id.ID  `db:"purchase_order_id" json:"purchaseOrderId"`
	SupplierID      id.ID  `db:"supplier_id" json:"supplierId"`
	Status          Status `db:"status" json:"status"`

	// ExpectedDate is when the supplier expects the goods to arrive.
	ExpectedDate *time.Time `db:"expected_date" json:"expectedDate,omitempty"`

	// Table part: notified goods
	Lines []ASNLine `db:"-" json:"lines"`
}

// ASNLine represents one notified product.
type ASNLine struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID  `db:"product_id" json:"productId"`
	Quantity  int64  `db:"quantity" json:"quantity"`
	Unit      string `db:"unit" json:"unit"`

	// UnitPrice is the price the supplier announced for this batch. Receipts
	// created from the notice inherit it ahead of the catalog list price.
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`

	// ExpiryDate of the announced batch, nil for non-perishables.
	ExpiryDate *time.Time `db:"expiry_date" json:"expiryDate,omitempty"`
}

// NewASN creates a new shipment notice against a purchase order.
func NewASN(purchaseOrderID id.ID) *AdvanceShipmentNotice {
	return &AdvanceShipmentNotice{
		Document:        entity.NewDocument(),
		PurchaseOrderID: purchaseOrderID,
		Status:          StatusNotDelivered,
		Lines:           make([]ASNLine, 0),
	}
}

// AddLine appends a notified product.
func (a *AdvanceShipmentNotice) AddLine(productID id.ID, quantity int64, unit string, unitPrice types.Money, expiry *time.Time) {
	a.Lines = append(a.Lines, ASNLine{
		LineID:     id.New(),
		LineNo:     len(a.Lines) + 1,
		ProductID:  productID,
		Quantity:   quantity,
		Unit:       unit,
		UnitPrice:  unitPrice,
		ExpiryDate: expiry,
	})
}

// NotifiedQuantity returns the total notified quantity for a product.
func (a *AdvanceShipmentNotice) NotifiedQuantity(productID id.ID) int64 {
	var total int64
	for _, line := range a.Lines {
		if line.ProductID == productID {
			total += line.Quantity
		}
	}
	return total
}

// IsDelivered reports whether the notice was already turned into a receipt.
func (a *AdvanceShipmentNotice) IsDelivered() bool {
	return a.Status == StatusDelivered
}

// Validate implements entity.Validatable.
func (a *AdvanceShipmentNotice) Validate(ctx context.Context) error {
	if err := a.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(a.PurchaseOrderID) {
		return apperror.NewValidation("purchase order is required").
			WithDetail("field", "purchaseOrderId")
	}

	switch a.Status {
	case StatusNotDelivered, StatusDelivered:
	default:
		return apperror.NewValidation("invalid shipment notice status").
			WithDetail("field", "status").
			WithDetail("value", string(a.Status))
	}

	if len(a.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i, line := range a.Lines {
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
