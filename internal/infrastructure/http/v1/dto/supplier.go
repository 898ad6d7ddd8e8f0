package dto

import (
	"storeroom/internal/core/entity"
	"storeroom/internal/core/id"
	"storeroom/internal/core/types"
	"storeroom/internal/domain/catalogs/supplier"
)

// --- Request DTOs ---

// SupplierProductRequest represents a product line in create/update requests.
type SupplierProductRequest struct {
	ID         string      `json:"id,omitempty"`
	Code       string      `json:"code" binding:"required"`
	Name       string      `json:"name" binding:"required"`
	CategoryID string      `json:"categoryId" binding:"required"`
	Unit       string      `json:"unit,omitempty"`
	ListPrice  types.Money `json:"listPrice"`
	Active     *bool       `json:"active,omitempty"`
}

func (r *SupplierProductRequest) toProduct(supplierID id.ID) supplier.Product {
	productID := id.New()
	if r.ID != "" {
		if parsed, err := id.Parse(r.ID); err == nil {
			productID = parsed
		}
	}
	categoryID, _ := id.Parse(r.CategoryID)

	active := true
	if r.Active != nil {
		active = *r.Active
	}

	return supplier.Product{
		ID:         productID,
		SupplierID: supplierID,
		Code:       r.Code,
		Name:       r.Name,
		CategoryID: categoryID,
		Unit:       r.Unit,
		ListPrice:  r.ListPrice,
		Active:     active,
	}
}

// CreateSupplierRequest represents a request to create a supplier.
type CreateSupplierRequest struct {
	Code          string                   `json:"code"`
	Name          string                   `json:"name" binding:"required"`
	Phone         *string                  `json:"phone,omitempty"`
	Email         *string                  `json:"email,omitempty"`
	Address       *string                  `json:"address,omitempty"`
	ContactPerson *string                  `json:"contactPerson,omitempty"`
	Products      []SupplierProductRequest `json:"products,omitempty"`
	Attributes    entity.Attributes        `json:"attributes,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreateSupplierRequest) ToEntity() *supplier.Supplier {
	sup := supplier.NewSupplier(r.Code, r.Name)
	sup.Phone = r.Phone
	sup.Email = r.Email
	sup.Address = r.Address
	sup.ContactPerson = r.ContactPerson
	if r.Attributes != nil {
		sup.Attributes = r.Attributes
	}

	for _, p := range r.Products {
		sup.Products = append(sup.Products, p.toProduct(sup.ID))
	}

	return sup
}

// UpdateSupplierRequest represents a request to update a supplier.
// Products, when present, replace the supplier's product list.
type UpdateSupplierRequest struct {
	Code          *string                  `json:"code,omitempty"`
	Name          *string                  `json:"name,omitempty"`
	Phone         *string                  `json:"phone,omitempty"`
	Email         *string                  `json:"email,omitempty"`
	Address       *string                  `json:"address,omitempty"`
	ContactPerson *string                  `json:"contactPerson,omitempty"`
	Products      []SupplierProductRequest `json:"products,omitempty"`
	Attributes    entity.Attributes        `json:"attributes,omitempty"`
	Version       int                      `json:"version" binding:"required,min=1"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateSupplierRequest) ApplyTo(sup *supplier.Supplier) {
	if r.Code != nil {
		sup.Code = *r.Code
	}
	if r.Name != nil {
		sup.Name = *r.Name
	}
	if r.Phone != nil {
		sup.Phone = r.Phone
	}
	if r.Email != nil {
		sup.Email = r.Email
	}
	if r.Address != nil {
		sup.Address = r.Address
	}
	if r.ContactPerson != nil {
		sup.ContactPerson = r.ContactPerson
	}
	if r.Attributes != nil {
		sup.Attributes = r.Attributes
	}
	if r.Products != nil {
		sup.Products = make([]supplier.Product, 0, len(r.Products))
		for _, p := range r.Products {
			sup.Products = append(sup.Products, p.toProduct(sup.ID))
		}
	}
	sup.Version = r.Version
}

// --- Response DTOs ---

// SupplierProductResponse represents a product line in API responses.
type SupplierProductResponse struct {
	ID         string      `json:"id"`
	SupplierID string      `json:"supplierId"`
	Code       string      `json:"code"`
	Name       string      `json:"name"`
	CategoryID string      `json:"categoryId"`
	Unit       string      `json:"unit"`
	ListPrice  types.Money `json:"listPrice"`
	Active     bool        `json:"active"`
}

// FromSupplierProduct converts a product line to response DTO.
func FromSupplierProduct(p supplier.Product) SupplierProductResponse {
	return SupplierProductResponse{
		ID:         p.ID.String(),
		SupplierID: p.SupplierID.String(),
		Code:       p.Code,
		Name:       p.Name,
		CategoryID: p.CategoryID.String(),
		Unit:       p.Unit,
		ListPrice:  p.ListPrice,
		Active:     p.Active,
	}
}

// SupplierResponse represents a supplier in API responses.
type SupplierResponse struct {
	CatalogResponse
	Phone         *string                   `json:"phone,omitempty"`
	Email         *string                   `json:"email,omitempty"`
	Address       *string                   `json:"address,omitempty"`
	ContactPerson *string                   `json:"contactPerson,omitempty"`
	Products      []SupplierProductResponse `json:"products,omitempty"`
}

// FromSupplier converts domain entity to response DTO.
func FromSupplier(sup *supplier.Supplier) *SupplierResponse {
	resp := &SupplierResponse{
		CatalogResponse: FromCatalog(sup.Catalog),
		Phone:           sup.Phone,
		Email:           sup.Email,
		Address:         sup.Address,
		ContactPerson:   sup.ContactPerson,
	}

	if len(sup.Products) > 0 {
		resp.Products = make([]SupplierProductResponse, len(sup.Products))
		for i, p := range sup.Products {
			resp.Products[i] = FromSupplierProduct(p)
		}
	}

	return resp
}
