package catalog_repo

import (
	"storeroom/internal/domain/catalogs/category"
	"storeroom/internal/infrastructure/storage/postgres"
)

const categoryTable = "cat_categories"

// CategoryRepo implements category.Repository.
type CategoryRepo struct {
	*BaseCatalogRepo[*category.Category]
}

// NewCategoryRepo creates a new category repository.
func NewCategoryRepo(txManager *postgres.TxManager) *CategoryRepo {
	return &CategoryRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*category.Category](
			txManager,
			categoryTable,
			postgres.ExtractDBColumns[category.Category](),
			func() *category.Category { return &category.Category{} },
		),
	}
}
