package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
	"storeroom/internal/domain"
	"storeroom/internal/domain/documents/asn"
	"storeroom/internal/infrastructure/storage/postgres"
)

const (
	asnTable      = "doc_shipment_notices"
	asnLinesTable = "doc_shipment_notice_lines"
)

// ASNRepo implements asn.Repository.
type ASNRepo struct {
	*BaseDocumentRepo[*asn.AdvanceShipmentNotice]
	txManager *postgres.TxManager
}

// NewASNRepo creates a new shipment notice repository.
func NewASNRepo(txManager *postgres.TxManager) *ASNRepo {
	return &ASNRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*asn.AdvanceShipmentNotice](
			txManager,
			asnTable,
			postgres.ExtractDBColumns[asn.AdvanceShipmentNotice](),
			func() *asn.AdvanceShipmentNotice { return &asn.AdvanceShipmentNotice{} },
		),
		txManager: txManager,
	}
}

// GetLines retrieves lines for a shipment notice.
func (r *ASNRepo) GetLines(ctx context.Context, docID id.ID) ([]asn.ASNLine, error) {
	q := r.Builder().
		Select("line_id", "line_no", "product_id", "quantity", "unit", "unit_price", "expiry_date").
		From(asnLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []asn.ASNLine
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	return lines, nil
}

// SaveLines saves lines for a shipment notice (delete existing + insert new).
func (r *ASNRepo) SaveLines(ctx context.Context, docID id.ID, lines []asn.ASNLine) error {
	querier := r.txManager.GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + asnLinesTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(asnLinesTable).
		Columns("line_id", "document_id", "line_no", "product_id", "quantity", "unit", "unit_price", "expiry_date")

	for _, line := range lines {
		q = q.Values(
			line.LineID, docID, line.LineNo, line.ProductID,
			line.Quantity, line.Unit, line.UnitPrice, line.ExpiryDate,
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

// UpdateStatus sets the delivery status.
func (r *ASNRepo) UpdateStatus(ctx context.Context, docID id.ID, status asn.Status) error {
	q := r.Builder().
		Update(asnTable).
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
		return apperror.NewNotFound(asnTable, docID.String())
	}

	return nil
}

// SumDelivered sums quantities of a product notified against a purchase order
// across all notices, optionally excluding one notice.
func (r *ASNRepo) SumDelivered(ctx context.Context, poID, productID id.ID, excludeASNID *id.ID) (int64, error) {
	q := r.Builder().
		Select("COALESCE(SUM(l.quantity), 0)").
		From(asnLinesTable + " l").
		Join(asnTable + " d ON d.id = l.document_id").
		Where(squirrel.Eq{"d.purchase_order_id": poID}).
		Where(squirrel.Eq{"l.product_id": productID})

	if excludeASNID != nil {
		q = q.Where(squirrel.NotEq{"d.id": *excludeASNID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var total int64
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum delivered: %w", err)
	}

	return total, nil
}

// List retrieves shipment notices with filtering.
func (r *ASNRepo) List(ctx context.Context, filter asn.ListFilter) (domain.ListResult[*asn.AdvanceShipmentNotice], error) {
	q := r.baseSelect(ctx)

	if filter.PurchaseOrderID != nil {
		q = q.Where(squirrel.Eq{"purchase_order_id": *filter.PurchaseOrderID})
	}

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
