package supplier

import (
	"context"

	"storeroom/internal/core/id"
	"storeroom/internal/domain"
)

// Repository defines the interface for Supplier persistence.
type Repository interface {
	domain.CatalogRepository[*Supplier]

	// GetProducts retrieves the supplier's product list.
	GetProducts(ctx context.Context, supplierID id.ID) ([]Product, error)

	// SaveProducts replaces the supplier's product list (delete-all + insert).
	SaveProducts(ctx context.Context, supplierID id.ID, products []Product) error

	// GetProduct retrieves a single product by ID.
	GetProduct(ctx context.Context, productID id.ID) (*Product, error)

	// ListProducts retrieves products with filtering.
	ListProducts(ctx context.Context, filter ProductFilter) (domain.ListResult[*Product], error)
}

// ProductFilter for filtering supplier products.
type ProductFilter struct {
	domain.ListFilter

	SupplierID *id.ID
	CategoryID *id.ID
	ActiveOnly bool
}
