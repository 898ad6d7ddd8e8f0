package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
	"storeroom/internal/domain"
	"storeroom/internal/domain/catalogs/supplier"
	"storeroom/internal/infrastructure/storage/postgres"
)

const (
	supplierTable        = "cat_suppliers"
	supplierProductTable = "cat_supplier_products"
)

var supplierProductCols = []string{
	"id", "supplier_id", "code", "name", "category_id", "unit", "list_price", "active",
}

// SupplierRepo implements supplier.Repository.
type SupplierRepo struct {
	*BaseCatalogRepo[*supplier.Supplier]
	txManager *postgres.TxManager
}

// NewSupplierRepo creates a new supplier repository.
func NewSupplierRepo(txManager *postgres.TxManager) *SupplierRepo {
	return &SupplierRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*supplier.Supplier](
			txManager,
			supplierTable,
			postgres.ExtractDBColumns[supplier.Supplier](),
			func() *supplier.Supplier { return &supplier.Supplier{} },
		),
		txManager: txManager,
	}
}

// GetProducts retrieves the supplier's product list.
func (r *SupplierRepo) GetProducts(ctx context.Context, supplierID id.ID) ([]supplier.Product, error) {
	q := r.Builder().
		Select(supplierProductCols...).
		From(supplierProductTable).
		Where(squirrel.Eq{"supplier_id": supplierID}).
		OrderBy("code")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var products []supplier.Product
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &products, sql, args...); err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}

	return products, nil
}

// SaveProducts replaces the supplier's product list (delete existing + insert new).
func (r *SupplierRepo) SaveProducts(ctx context.Context, supplierID id.ID, products []supplier.Product) error {
	querier := r.txManager.GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + supplierProductTable + " WHERE supplier_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, supplierID); err != nil {
		return fmt.Errorf("delete existing products: %w", err)
	}

	if len(products) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(supplierProductTable).
		Columns(supplierProductCols...)

	for _, p := range products {
		q = q.Values(
			p.ID, supplierID, p.Code, p.Name,
			p.CategoryID, p.Unit, p.ListPrice, p.Active,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert products: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert products: %w", err)
	}

	return nil
}

// GetProduct retrieves a single product by ID.
func (r *SupplierRepo) GetProduct(ctx context.Context, productID id.ID) (*supplier.Product, error) {
	q := r.Builder().
		Select(supplierProductCols...).
		From(supplierProductTable).
		Where(squirrel.Eq{"id": productID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var product supplier.Product
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &product, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("supplier product", productID.String())
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return &product, nil
}

// ListProducts retrieves products with filtering and pagination.
func (r *SupplierRepo) ListProducts(ctx context.Context, filter supplier.ProductFilter) (domain.ListResult[*supplier.Product], error) {
	result := domain.ListResult[*supplier.Product]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.Builder().
		Select(supplierProductCols...).
		From(supplierProductTable)

	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
	}

	if filter.CategoryID != nil {
		q = q.Where(squirrel.Eq{"category_id": *filter.CategoryID})
	}

	if filter.ActiveOnly {
		q = q.Where(squirrel.Eq{"active": true})
	}

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"code": pattern},
		})
	}

	countQ := r.Builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	q = q.OrderBy("code")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list products: %w", err)
	}

	return result, nil
}
