package dto

import (
	"time"

	"storeroom/internal/core/id"
	"storeroom/internal/core/types"
	"storeroom/internal/domain/documents/returndoc"
)

// --- Request DTOs ---

// CreateReturnRequest represents a request to create a customer return.
type CreateReturnRequest struct {
	Number   string              `json:"number,omitempty"`
	Date     time.Time           `json:"date,omitempty"`
	Customer string              `json:"customer" binding:"required"`
	Comment  string              `json:"comment,omitempty"`
	Lines    []ReturnLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ReturnLineRequest represents a line in create/update requests. A line
// tied to an export line inherits product and pricing from the issued lot;
// a free-form line must name the product itself.
type ReturnLineRequest struct {
	ExportLineID *string     `json:"exportLineId,omitempty"`
	ProductID    string      `json:"productId,omitempty"`
	Quantity     int64       `json:"quantity" binding:"required,gt=0"`
	Unit         string      `json:"unit,omitempty"`
	UnitPrice    types.Money `json:"unitPrice"`
	ExpiryDate   *time.Time  `json:"expiryDate,omitempty"`
	Location     string      `json:"location,omitempty"`
	Reason       string      `json:"reason,omitempty"`
}

func (r *ReturnLineRequest) appendTo(doc *returndoc.ReturnDocument) {
	if r.ExportLineID != nil {
		if exportLineID, err := id.Parse(*r.ExportLineID); err == nil {
			doc.AddTiedLine(exportLineID, r.Quantity, r.Reason)
			return
		}
	}

	productID, _ := id.Parse(r.ProductID)
	doc.AddFreeLine(productID, r.Quantity, r.Unit, r.UnitPrice, r.ExpiryDate, r.Location, r.Reason)
}

// ToEntity converts request to domain entity.
func (r *CreateReturnRequest) ToEntity() *returndoc.ReturnDocument {
	doc := returndoc.NewReturnDocument(r.Customer)
	doc.Number = r.Number
	if !r.Date.IsZero() {
		doc.Date = r.Date
	}
	doc.Comment = r.Comment

	for i := range r.Lines {
		r.Lines[i].appendTo(doc)
	}

	return doc
}

// UpdateReturnRequest represents a request to update a customer return.
type UpdateReturnRequest struct {
	Number   *string             `json:"number,omitempty"`
	Date     *time.Time          `json:"date,omitempty"`
	Customer *string             `json:"customer,omitempty"`
	Comment  *string             `json:"comment,omitempty"`
	Lines    []ReturnLineRequest `json:"lines,omitempty"`
	Version  int                 `json:"version" binding:"required,min=1"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateReturnRequest) ApplyTo(doc *returndoc.ReturnDocument) {
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
		doc.Lines = make([]returndoc.ReturnLine, 0, len(r.Lines))
		for i := range r.Lines {
			r.Lines[i].appendTo(doc)
		}
	}
	doc.Version = r.Version
}

// --- Response DTOs ---

// ReturnLineResponse represents a line in API responses.
type ReturnLineResponse struct {
	LineID       string      `json:"lineId"`
	LineNo       int         `json:"lineNo"`
	ExportLineID *string     `json:"exportLineId,omitempty"`
	ProductID    string      `json:"productId"`
	Quantity     int64       `json:"quantity"`
	Unit         string      `json:"unit"`
	UnitPrice    types.Money `json:"unitPrice"`
	ExpiryDate   *time.Time  `json:"expiryDate,omitempty"`
	Location     string      `json:"location,omitempty"`
	Reason       string      `json:"reason,omitempty"`
	LotID        *string     `json:"lotId,omitempty"`
}

// ReturnResponse represents a customer return in API responses.
type ReturnResponse struct {
	DocumentResponse
	Customer string               `json:"customer"`
	Lines    []ReturnLineResponse `json:"lines,omitempty"`
}

// FromReturn converts domain entity to response DTO.
func FromReturn(doc *returndoc.ReturnDocument) *ReturnResponse {
	resp := &ReturnResponse{
		DocumentResponse: FromDocument(doc.Document),
		Customer:         doc.Customer,
	}

	resp.Lines = make([]ReturnLineResponse, len(doc.Lines))
	for i, line := range doc.Lines {
		lr := ReturnLineResponse{
			LineID:     line.LineID.String(),
			LineNo:     line.LineNo,
			ProductID:  line.ProductID.String(),
			Quantity:   line.Quantity,
			Unit:       line.Unit,
			UnitPrice:  line.UnitPrice,
			ExpiryDate: line.ExpiryDate,
			Location:   line.Location,
			Reason:     line.Reason,
		}
		if line.ExportLineID != nil {
			v := line.ExportLineID.String()
			lr.ExportLineID = &v
		}
		if line.LotID != nil {
			v := line.LotID.String()
			lr.LotID = &v
		}
		resp.Lines[i] = lr
	}

	return resp
}

// RemainingReturnableResponse reports how much of an issued line can still
// be returned.
type RemainingReturnableResponse struct {
	ExportLineID string `json:"exportLineId"`
	Remaining    int64  `json:"remaining"`
}
