package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"storeroom/internal/core/id"
	"storeroom/internal/domain"
	"storeroom/internal/domain/documents/returndoc"
	"storeroom/internal/infrastructure/storage/postgres"
)

const (
	returnsTable     = "doc_returns"
	returnLinesTable = "doc_return_lines"
)

// ReturnRepo implements returndoc.Repository.
type ReturnRepo struct {
	*BaseDocumentRepo[*returndoc.ReturnDocument]
	txManager *postgres.TxManager
}

// NewReturnRepo creates a new return document repository.
func NewReturnRepo(txManager *postgres.TxManager) *ReturnRepo {
	return &ReturnRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*returndoc.ReturnDocument](
			txManager,
			returnsTable,
			postgres.ExtractDBColumns[returndoc.ReturnDocument](),
			func() *returndoc.ReturnDocument { return &returndoc.ReturnDocument{} },
		),
		txManager: txManager,
	}
}

// GetLines retrieves lines for a return document.
func (r *ReturnRepo) GetLines(ctx context.Context, docID id.ID) ([]returndoc.ReturnLine, error) {
	q := r.Builder().
		Select(
			"line_id", "line_no", "export_line_id", "product_id",
			"quantity", "unit", "unit_price", "expiry_date", "location", "reason", "lot_id",
		).
		From(returnLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []returndoc.ReturnLine
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	return lines, nil
}

// SaveLines saves lines for a return document (delete existing + insert new).
func (r *ReturnRepo) SaveLines(ctx context.Context, docID id.ID, lines []returndoc.ReturnLine) error {
	querier := r.txManager.GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + returnLinesTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(returnLinesTable).
		Columns(
			"line_id", "document_id", "line_no", "export_line_id", "product_id",
			"quantity", "unit", "unit_price", "expiry_date", "location", "reason", "lot_id",
		)

	for _, line := range lines {
		q = q.Values(
			line.LineID, docID, line.LineNo, line.ExportLineID, line.ProductID,
			line.Quantity, line.Unit, line.UnitPrice,
			line.ExpiryDate, line.Location, line.Reason, line.LotID,
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

// SumReturnedByExportLine sums quantities already returned against an export
// line across all return documents, optionally excluding one document.
func (r *ReturnRepo) SumReturnedByExportLine(ctx context.Context, exportLineID id.ID, excludeDocID *id.ID) (int64, error) {
	q := r.Builder().
		Select("COALESCE(SUM(quantity), 0)").
		From(returnLinesTable).
		Where(squirrel.Eq{"export_line_id": exportLineID})

	if excludeDocID != nil {
		q = q.Where(squirrel.NotEq{"document_id": *excludeDocID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var total int64
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum returned: %w", err)
	}

	return total, nil
}

// List retrieves return documents with filtering.
func (r *ReturnRepo) List(ctx context.Context, filter returndoc.ListFilter) (domain.ListResult[*returndoc.ReturnDocument], error) {
	q := r.baseSelect(ctx)

	if filter.Customer != "" {
		q = q.Where(squirrel.ILike{"customer": "%" + filter.Customer + "%"})
	}

	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}

	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
	}

	return r.list(ctx, q, filter.ListFilter)
}
