package dto

import (
	"time"

	"storeroom/internal/core/id"
	"storeroom/internal/core/types"
	"storeroom/internal/domain/documents/importdoc"
)

// --- Request DTOs ---

// CreateImportRequest represents a request to create a goods receipt.
type CreateImportRequest struct {
	Number     string              `json:"number,omitempty"`
	Date       time.Time           `json:"date,omitempty"`
	SupplierID string              `json:"supplierId" binding:"required"`
	ASNID      *string             `json:"asnId,omitempty"`
	Comment    string              `json:"comment,omitempty"`
	Lines      []ImportLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ImportLineRequest represents a line in create/update requests.
// Blank product/price/unit/expiry are inherited from the linked shipment
// notice line on save.
type ImportLineRequest struct {
	ProductID  string      `json:"productId,omitempty"`
	ASNLineID  *string     `json:"asnLineId,omitempty"`
	Quantity   int64       `json:"quantity" binding:"required,gt=0"`
	Unit       string      `json:"unit,omitempty"`
	UnitPrice  types.Money `json:"unitPrice"`
	ExpiryDate *time.Time  `json:"expiryDate,omitempty"`
	Location   string      `json:"location,omitempty"`
}

func (l ImportLineRequest) asnLineID() *id.ID {
	if l.ASNLineID == nil {
		return nil
	}
	parsed, err := id.Parse(*l.ASNLineID)
	if err != nil {
		return nil
	}
	return &parsed
}

// ToEntity converts request to domain entity.
func (r *CreateImportRequest) ToEntity() *importdoc.ImportDocument {
	supplierID, _ := id.Parse(r.SupplierID)

	doc := importdoc.NewImportDocument(supplierID)
	doc.Number = r.Number
	if !r.Date.IsZero() {
		doc.Date = r.Date
	}
	doc.Comment = r.Comment

	if r.ASNID != nil {
		if parsed, err := id.Parse(*r.ASNID); err == nil {
			doc.ASNID = &parsed
		}
	}

	for _, line := range r.Lines {
		productID, _ := id.Parse(line.ProductID)
		doc.AddLine(productID, line.Quantity, line.Unit, line.UnitPrice, line.ExpiryDate, line.Location)
		doc.Lines[len(doc.Lines)-1].ASNLineID = line.asnLineID()
	}

	return doc
}

// UpdateImportRequest represents a request to update a goods receipt.
type UpdateImportRequest struct {
	Number  *string             `json:"number,omitempty"`
	Date    *time.Time          `json:"date,omitempty"`
	Comment *string             `json:"comment,omitempty"`
	Lines   []ImportLineRequest `json:"lines,omitempty"`
	Version int                 `json:"version" binding:"required,min=1"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateImportRequest) ApplyTo(doc *importdoc.ImportDocument) {
	if r.Number != nil {
		doc.Number = *r.Number
	}
	if r.Date != nil {
		doc.Date = *r.Date
	}
	if r.Comment != nil {
		doc.Comment = *r.Comment
	}

	if r.Lines != nil {
		doc.Lines = make([]importdoc.ImportLine, 0, len(r.Lines))
		for _, line := range r.Lines {
			productID, _ := id.Parse(line.ProductID)
			doc.AddLine(productID, line.Quantity, line.Unit, line.UnitPrice, line.ExpiryDate, line.Location)
			doc.Lines[len(doc.Lines)-1].ASNLineID = line.asnLineID()
		}
	}
	doc.Version = r.Version
}

// --- Response DTOs ---

// ImportLineResponse represents a line in API responses.
type ImportLineResponse struct {
	LineID     string      `json:"lineId"`
	LineNo     int         `json:"lineNo"`
	ProductID  string      `json:"productId"`
	ASNLineID  *string     `json:"asnLineId,omitempty"`
	Quantity   int64       `json:"quantity"`
	Unit       string      `json:"unit"`
	UnitPrice  types.Money `json:"unitPrice"`
	ExpiryDate *time.Time  `json:"expiryDate,omitempty"`
	Location   string      `json:"location,omitempty"`
}

// ImportResponse represents a goods receipt in API responses.
type ImportResponse struct {
	DocumentResponse
	SupplierID string               `json:"supplierId"`
	ASNID      *string              `json:"asnId,omitempty"`
	Lines      []ImportLineResponse `json:"lines,omitempty"`
}

// FromImport converts domain entity to response DTO.
func FromImport(doc *importdoc.ImportDocument) *ImportResponse {
	resp := &ImportResponse{
		DocumentResponse: FromDocument(doc.Document),
		SupplierID:       doc.SupplierID.String(),
	}

	if doc.ASNID != nil {
		asnID := doc.ASNID.String()
		resp.ASNID = &asnID
	}

	resp.Lines = make([]ImportLineResponse, len(doc.Lines))
	for i, line := range doc.Lines {
		var asnLineID *string
		if line.ASNLineID != nil {
			s := line.ASNLineID.String()
			asnLineID = &s
		}
		resp.Lines[i] = ImportLineResponse{
			LineID:     line.LineID.String(),
			LineNo:     line.LineNo,
			ProductID:  line.ProductID.String(),
			ASNLineID:  asnLineID,
			Quantity:   line.Quantity,
			Unit:       line.Unit,
			UnitPrice:  line.UnitPrice,
			ExpiryDate: line.ExpiryDate,
			Location:   line.Location,
		}
	}

	return resp
}
