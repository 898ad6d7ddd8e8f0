package dto

import (
	"time"

	"storeroom/internal/core/id"
	"storeroom/internal/core/types"
	"storeroom/internal/domain/documents/purchase"
)

// --- Request DTOs ---

// CreatePurchaseOrderRequest represents a request to create a purchase order.
type CreatePurchaseOrderRequest struct {
	Number     string                     `json:"number,omitempty"`
	Date       time.Time                  `json:"date,omitempty"`
	SupplierID string                     `json:"supplierId" binding:"required"`
	Comment    string                     `json:"comment,omitempty"`
	Lines      []PurchaseOrderLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// PurchaseOrderLineRequest represents a line in create/update requests.
type PurchaseOrderLineRequest struct {
	ProductID string      `json:"productId" binding:"required"`
	Quantity  int64       `json:"quantity" binding:"required,gt=0"`
	UnitPrice types.Money `json:"unitPrice"`
}

// ToEntity converts request to domain entity.
func (r *CreatePurchaseOrderRequest) ToEntity() *purchase.PurchaseOrder {
	supplierID, _ := id.Parse(r.SupplierID)

	doc := purchase.NewPurchaseOrder(supplierID)
	doc.Number = r.Number
	if !r.Date.IsZero() {
		doc.Date = r.Date
	}
	doc.Comment = r.Comment

	for _, line := range r.Lines {
		productID, _ := id.Parse(line.ProductID)
		doc.AddLine(productID, line.Quantity, line.UnitPrice)
	}

	return doc
}

// UpdatePurchaseOrderRequest represents a request to update a purchase order.
type UpdatePurchaseOrderRequest struct {
	Number  *string                    `json:"number,omitempty"`
	Date    *time.Time                 `json:"date,omitempty"`
	Status  *string                    `json:"status,omitempty"`
	Comment *string                    `json:"comment,omitempty"`
	Lines   []PurchaseOrderLineRequest `json:"lines,omitempty"`
	Version int                        `json:"version" binding:"required,min=1"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdatePurchaseOrderRequest) ApplyTo(doc *purchase.PurchaseOrder) {
	if r.Number != nil {
		doc.Number = *r.Number
	}
	if r.Date != nil {
		doc.Date = *r.Date
	}
	if r.Status != nil {
		doc.Status = purchase.Status(*r.Status)
	}
	if r.Comment != nil {
		doc.Comment = *r.Comment
	}

	if r.Lines != nil {
		doc.Lines = make([]purchase.POLine, 0, len(r.Lines))
		for _, line := range r.Lines {
			productID, _ := id.Parse(line.ProductID)
			doc.AddLine(productID, line.Quantity, line.UnitPrice)
		}
	}
	doc.Version = r.Version
}

// UpdateStatusRequest changes a document's informational status.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// --- Response DTOs ---

// PurchaseOrderLineResponse represents a line in API responses.
type PurchaseOrderLineResponse struct {
	LineID    string      `json:"lineId"`
	LineNo    int         `json:"lineNo"`
	ProductID string      `json:"productId"`
	Quantity  int64       `json:"quantity"`
	UnitPrice types.Money `json:"unitPrice"`
}

// PurchaseOrderResponse represents a purchase order in API responses.
type PurchaseOrderResponse struct {
	DocumentResponse
	SupplierID string                      `json:"supplierId"`
	Status     string                      `json:"status"`
	Lines      []PurchaseOrderLineResponse `json:"lines,omitempty"`
}

// FromPurchaseOrder converts domain entity to response DTO.
func FromPurchaseOrder(doc *purchase.PurchaseOrder) *PurchaseOrderResponse {
	resp := &PurchaseOrderResponse{
		DocumentResponse: FromDocument(doc.Document),
		SupplierID:       doc.SupplierID.String(),
		Status:           string(doc.Status),
	}

	resp.Lines = make([]PurchaseOrderLineResponse, len(doc.Lines))
	for i, line := range doc.Lines {
		resp.Lines[i] = PurchaseOrderLineResponse{
			LineID:    line.LineID.String(),
			LineNo:    line.LineNo,
			ProductID: line.ProductID.String(),
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		}
	}

	return resp
}

// RemainingLineResponse is one product's undelivered position on an order.
type RemainingLineResponse struct {
	ProductID string `json:"productId"`
	Ordered   int64  `json:"ordered"`
	Delivered int64  `json:"delivered"`
	Remaining int64  `json:"remaining"`
}

// FromRemainingLines converts remaining-quantity rows to response DTOs.
func FromRemainingLines(lines []purchase.RemainingLine) []RemainingLineResponse {
	out := make([]RemainingLineResponse, len(lines))
	for i, l := range lines {
		out[i] = RemainingLineResponse{
			ProductID: l.ProductID.String(),
			Ordered:   l.Ordered,
			Delivered: l.Delivered,
			Remaining: l.Remaining,
		}
	}
	return out
}
