// Package category provides the product category catalog.
package category

import (
	"context"

	"storeroom/internal/core/entity"
)

// Category groups supplier products for browsing and reporting.
type Category struct {
	entity.Catalog

	// Description is an optional free-form note
	Description *string `db:"description" json:"description,omitempty"`
}

// NewCategory creates a new Category.
func NewCategory(code, name string) *Category {
	return &Category{
		Catalog: entity.NewCatalog(code, name),
	}
}

// Validate implements entity.Validatable.
func (c *Category) Validate(ctx context.Context) error {
	return c.Catalog.Validate(ctx)
}
