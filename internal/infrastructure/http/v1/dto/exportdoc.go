package dto

import (
	"time"

	"storeroom/internal/core/id"
	"storeroom/internal/core/types"
	"storeroom/internal/domain/documents/exportdoc"
)

// --- Request DTOs ---

// CreateExportRequest represents a request to create a goods issue.
type CreateExportRequest struct {
	Number   string              `json:"number,omitempty"`
	Date     time.Time           `json:"date,omitempty"`
	Customer string              `json:"customer" binding:"required"`
	Comment  string              `json:"comment,omitempty"`
	Lines    []ExportLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ExportLineRequest represents a line in create/update requests.
// A zero unit price means "use the lot's unit cost".
type ExportLineRequest struct {
	LotID           string      `json:"lotId" binding:"required"`
	Quantity        int64       `json:"quantity" binding:"required,gt=0"`
	UnitPrice       types.Money `json:"unitPrice"`
	DiscountPercent types.Money `json:"discountPercent"`
}

// ToEntity converts request to domain entity.
func (r *CreateExportRequest) ToEntity() *exportdoc.ExportDocument {
	doc := exportdoc.NewExportDocument(r.Customer)
	doc.Number = r.Number
	if !r.Date.IsZero() {
		doc.Date = r.Date
	}
	doc.Comment = r.Comment

	for _, line := range r.Lines {
		lotID, _ := id.Parse(line.LotID)
		doc.AddLine(lotID, line.Quantity, line.UnitPrice, line.DiscountPercent)
	}

	return doc
}

// UpdateExportRequest represents a request to update a goods issue.
type UpdateExportRequest struct {
	Number   *string             `json:"number,omitempty"`
	Date     *time.Time          `json:"date,omitempty"`
	Customer *string             `json:"customer,omitempty"`
	Comment  *string             `json:"comment,omitempty"`
	Lines    []ExportLineRequest `json:"lines,omitempty"`
	Version  int                 `json:"version" binding:"required,min=1"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateExportRequest) ApplyTo(doc *exportdoc.ExportDocument) {
	if r.Number != nil {
		doc.Number = *r.Number
	}
	if r.Date != nil {
		doc.Date = *r.Date
	}
	if r.Customer != nil {
		doc.Customer = *r.Customer
	}
	if r.Comment != nil {
		doc.Comment = *r.Comment
	}

	if r.Lines != nil {
		doc.Lines = make([]exportdoc.ExportLine, 0, len(r.Lines))
		for _, line := range r.Lines {
			lotID, _ := id.Parse(line.LotID)
			doc.AddLine(lotID, line.Quantity, line.UnitPrice, line.DiscountPercent)
		}
	}
	doc.Version = r.Version
}

// --- Response DTOs ---

// ExportLineResponse represents a line in API responses.
type ExportLineResponse struct {
	LineID          string      `json:"lineId"`
	LineNo          int         `json:"lineNo"`
	LotID           string      `json:"lotId"`
	ProductID       string      `json:"productId"`
	Quantity        int64       `json:"quantity"`
	UnitPrice       types.Money `json:"unitPrice"`
	DiscountPercent types.Money `json:"discountPercent"`
	Total           types.Money `json:"total"`
}

// ExportResponse represents a goods issue in API responses.
type ExportResponse struct {
	DocumentResponse
	Customer    string               `json:"customer"`
	TotalAmount types.Money          `json:"totalAmount"`
	Lines       []ExportLineResponse `json:"lines,omitempty"`
}

// FromExport converts domain entity to response DTO.
func FromExport(doc *exportdoc.ExportDocument) *ExportResponse {
	resp := &ExportResponse{
		DocumentResponse: FromDocument(doc.Document),
		Customer:         doc.Customer,
		TotalAmount:      doc.TotalAmount(),
	}

	resp.Lines = make([]ExportLineResponse, len(doc.Lines))
	for i, line := range doc.Lines {
		resp.Lines[i] = ExportLineResponse{
			LineID:          line.LineID.String(),
			LineNo:          line.LineNo,
			LotID:           line.LotID.String(),
			ProductID:       line.ProductID.String(),
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice,
			DiscountPercent: line.DiscountPercent,
			Total:           line.Total,
		}
	}

	return resp
}
