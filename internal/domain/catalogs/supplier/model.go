// Package supplier provides the Supplier catalog and its product list.
// A supplier owns the products it sells; deleting a supplier cascades to
// its products.
package supplier

import (
	"context"
	"regexp"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/entity"
	"storeroom/internal/core/id"
	"storeroom/internal/core/types"
)

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Supplier represents a goods supplier.
type Supplier struct {
	entity.Catalog

	Phone   *string `db:"phone" json:"phone,omitempty"`
	Email   *string `db:"email" json:"email,omitempty"`
	Address *string `db:"address" json:"address,omitempty"`

	// ContactPerson is the primary contact name
	ContactPerson *string `db:"contact_person" json:"contactPerson,omitempty"`

	// Products sold by this supplier (table part, cascade-deleted)
	Products []Product `db:"-" json:"products,omitempty"`
}

// Product identifies a good sold by one supplier.
type Product struct {
	ID         id.ID `db:"id" json:"id"`
	SupplierID id.ID `db:"supplier_id" json:"supplierId"`

	// Code is unique per supplier
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`

	CategoryID id.ID  `db:"category_id" json:"categoryId"`
	Unit       string `db:"unit" json:"unit"`

	// ListPrice is the supplier's list price per unit
	ListPrice types.Money `db:"list_price" json:"listPrice"`

	Active bool `db:"active" json:"active"`
}

// NewSupplier creates a new Supplier.
func NewSupplier(code, name string) *Supplier {
	return &Supplier{
		Catalog:  entity.NewCatalog(code, name),
		Products: make([]Product, 0),
	}
}

// AddProduct appends a product to the supplier's table part.
func (s *Supplier) AddProduct(code, name string, categoryID id.ID, unit string, listPrice types.Money) {
	s.Products = append(s.Products, Product{
		ID:         id.New(),
		SupplierID: s.ID,
		Code:       code,
		Name:       name,
		CategoryID: categoryID,
		Unit:       unit,
		ListPrice:  listPrice,
		Active:     true,
	})
}

// Validate implements entity.Validatable.
func (s *Supplier) Validate(ctx context.Context) error {
	if err := s.Catalog.Validate(ctx); err != nil {
		return err
	}

	if s.Email != nil && *s.Email != "" && !emailRE.MatchString(*s.Email) {
		return apperror.NewValidation("invalid email format").
			WithDetail("field", "email")
	}

	seen := make(map[string]struct{}, len(s.Products))
	for i, p := range s.Products {
		if p.Code == "" {
			return apperror.NewValidation("product code is required").
				WithDetail("field", "products").
				WithDetail("lineNo", i+1)
		}
		if p.Name == "" {
			return apperror.NewValidation("product name is required").
				WithDetail("field", "products").
				WithDetail("lineNo", i+1)
		}
		if p.ListPrice.IsNegative() {
			return apperror.NewValidation("product list price must not be negative").
				WithDetail("field", "products").
				WithDetail("lineNo", i+1)
		}
		if _, dup := seen[p.Code]; dup {
			return apperror.NewValidation("product code must be unique per supplier").
				WithDetail("field", "products").
				WithDetail("code", p.Code)
		}
		seen[p.Code] = struct{}{}
	}

	return nil
}
