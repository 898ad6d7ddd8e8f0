package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
	"storeroom/internal/domain"
	"storeroom/internal/domain/documents/purchase"
	"storeroom/internal/infrastructure/storage/postgres"
)

const (
	purchaseOrdersTable     = "doc_purchase_orders"
	purchaseOrderLinesTable = "doc_purchase_order_lines"
)

// PurchaseOrderRepo implements purchase.Repository.
type PurchaseOrderRepo struct {
	*BaseDocumentRepo[*purchase.PurchaseOrder]
	txManager *postgres.TxManager
}

// NewPurchaseOrderRepo creates a new purchase order repository.
func NewPurchaseOrderRepo(txManager *postgres.TxManager) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*purchase.PurchaseOrder](
			txManager,
			purchaseOrdersTable,
			postgres.ExtractDBColumns[purchase.PurchaseOrder](),
			func() *purchase.PurchaseOrder { return &purchase.PurchaseOrder{} },
		),
		txManager: txManager,
	}
}

// GetLines retrieves lines for a purchase order.
func (r *PurchaseOrderRepo) GetLines(ctx context.Context, docID id.ID) ([]purchase.POLine, error) {
	q := r.Builder().
		Select("line_id", "line_no", "product_id", "quantity", "unit_price").
		From(purchaseOrderLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []purchase.POLine
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	return lines, nil
}

// SaveLines saves lines for a purchase order (delete existing + insert new).
func (r *PurchaseOrderRepo) SaveLines(ctx context.Context, docID id.ID, lines []purchase.POLine) error {
	querier := r.txManager.GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + purchaseOrderLinesTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(purchaseOrderLinesTable).
		Columns("line_id", "document_id", "line_no", "product_id", "quantity", "unit_price")

	for _, line := range lines {
		q = q.Values(
			line.LineID, docID, line.LineNo, line.ProductID,
			line.Quantity, line.UnitPrice,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}

	return nil
}

// UpdateStatus sets the informational status.
func (r *PurchaseOrderRepo) UpdateStatus(ctx context.Context, docID id.ID, status purchase.Status) error {
	q := r.Builder().
		Update(purchaseOrdersTable).
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": docID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update status: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(purchaseOrdersTable, docID.String())
	}

	return nil
}

// List retrieves purchase orders with filtering.
func (r *PurchaseOrderRepo) List(ctx context.Context, filter purchase.ListFilter) (domain.ListResult[*purchase.PurchaseOrder], error) {
	q := r.baseSelect(ctx)

	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
	}

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}

	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}

	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
	}

	return r.list(ctx, q, filter.ListFilter)
}
