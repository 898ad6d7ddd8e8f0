package dto

import (
	"time"

	"storeroom/internal/core/id"
	"storeroom/internal/core/types"
	"storeroom/internal/domain/documents/asn"
)

// --- Request DTOs ---

// CreateASNRequest represents a request to create a shipment notice.
type CreateASNRequest struct {
	Number          string           `json:"number,omitempty"`
	Date            time.Time        `json:"date,omitempty"`
	PurchaseOrderID string           `json:"purchaseOrderId" binding:"required"`
	ExpectedDate    *time.Time       `json:"expectedDate,omitempty"`
	Comment         string           `json:"comment,omitempty"`
	Lines           []ASNLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ASNLineRequest represents a line in create/update requests.
type ASNLineRequest struct {
	ProductID  string      `json:"productId" binding:"required"`
	Quantity   int64       `json:"quantity" binding:"required,gt=0"`
	Unit       string      `json:"unit,omitempty"`
	UnitPrice  types.Money `json:"unitPrice"`
	ExpiryDate *time.Time  `json:"expiryDate,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreateASNRequest) ToEntity() *asn.AdvanceShipmentNotice {
	purchaseOrderID, _ := id.Parse(r.PurchaseOrderID)

	doc := asn.NewASN(purchaseOrderID)
	doc.Number = r.Number
	if !r.Date.IsZero() {
		doc.Date = r.Date
	}
	doc.ExpectedDate = r.ExpectedDate
	doc.Comment = r.Comment

	for _, line := range r.Lines {
		productID, _ := id.Parse(line.ProductID)
		doc.AddLine(productID, line.Quantity, line.Unit, line.UnitPrice, line.ExpiryDate)
	}

	return doc
}

// UpdateASNRequest represents a request to update a shipment notice.
type UpdateASNRequest struct {
	Number       *string          `json:"number,omitempty"`
	Date         *time.Time       `json:"date,omitempty"`
	ExpectedDate *time.Time       `json:"expectedDate,omitempty"`
	Comment      *string          `json:"comment,omitempty"`
	Lines        []ASNLineRequest `json:"lines,omitempty"`
	Version      int              `json:"version" binding:"required,min=1"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateASNRequest) ApplyTo(doc *asn.AdvanceShipmentNotice) {
	if r.Number != nil {
		doc.Number = *r.Number
	}
	if r.Date != nil {
		doc.Date = *r.Date
	}
	if r.ExpectedDate != nil {
		doc.ExpectedDate = r.ExpectedDate
	}
	if r.Comment != nil {
		doc.Comment = *r.Comment
	}

	if r.Lines != nil {
		doc.Lines = make([]asn.ASNLine, 0, len(r.Lines))
		for _, line := range r.Lines {
			productID, _ := id.Parse(line.ProductID)
			doc.AddLine(productID, line.Quantity, line.Unit, line.UnitPrice, line.ExpiryDate)
		}
	}
	doc.Version = r.Version
}

// --- Response DTOs ---

// ASNLineResponse represents a line in API responses.
type ASNLineResponse struct {
	LineID     string      `json:"lineId"`
	LineNo     int         `json:"lineNo"`
	ProductID  string      `json:"productId"`
	Quantity   int64       `json:"quantity"`
	Unit       string      `json:"unit"`
	UnitPrice  types.Money `json:"unitPrice"`
	ExpiryDate *time.Time  `json:"expiryDate,omitempty"`
}

// ASNResponse represents a shipment notice in API responses.
type ASNResponse struct {
	DocumentResponse
	PurchaseOrderID string            `json:"purchaseOrderId"`
	SupplierID      string            `json:"supplierId"`
	Status          string            `json:"status"`
	ExpectedDate    *time.Time        `json:"expectedDate,omitempty"`
	Lines           []ASNLineResponse `json:"lines,omitempty"`
}

// FromASN converts domain entity to response DTO.
func FromASN(doc *asn.AdvanceShipmentNotice) *ASNResponse {
	resp := &ASNResponse{
		DocumentResponse: FromDocument(doc.Document),
		PurchaseOrderID:  doc.PurchaseOrderID.String(),
		SupplierID:       doc.SupplierID.String(),
		Status:           string(doc.Status),
		ExpectedDate:     doc.ExpectedDate,
	}

	resp.Lines = make([]ASNLineResponse, len(doc.Lines))
	for i, line := range doc.Lines {
		resp.Lines[i] = ASNLineResponse{
			LineID:     line.LineID.String(),
			LineNo:     line.LineNo,
			ProductID:  line.ProductID.String(),
			Quantity:   line.Quantity,
			Unit:       line.Unit,
			UnitPrice:  line.UnitPrice,
			ExpiryDate: line.ExpiryDate,
		}
	}

	return resp
}
