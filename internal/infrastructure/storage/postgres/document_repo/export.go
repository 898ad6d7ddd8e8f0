package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
	"storeroom/internal/domain"
	"storeroom/internal/domain/documents/exportdoc"
	"storeroom/internal/infrastructure/storage/postgres"
)

const (
	exportsTable     = "doc_exports"
	exportLinesTable = "doc_export_lines"
)

// ExportRepo implements exportdoc.Repository.
type ExportRepo struct {
	*BaseDocumentRepo[*exportdoc.ExportDocument]
	txManager *postgres.TxManager
}

// NewExportRepo creates a new export document repository.
func NewExportRepo(txManager *postgres.TxManager) *ExportRepo {
	return &ExportRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*exportdoc.ExportDocument](
			txManager,
			exportsTable,
			postgres.ExtractDBColumns[exportdoc.ExportDocument](),
			func() *exportdoc.ExportDocument { return &exportdoc.ExportDocument{} },
		),
		txManager: txManager,
	}
}

// GetLines retrieves lines for an export document.
func (r *ExportRepo) GetLines(ctx context.Context, docID id.ID) ([]exportdoc.ExportLine, error) {
	q := r.Builder().
		Select(
			"line_id", "line_no", "lot_id", "product_id",
			"quantity", "unit_price", "discount_percent", "total",
		).
		From(exportLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []exportdoc.ExportLine
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	return lines, nil
}

// GetLine retrieves a single export line by its line ID.
// Return documents use it to bound cumulative returned quantities.
func (r *ExportRepo) GetLine(ctx context.Context, lineID id.ID) (*exportdoc.ExportLine, error) {
	q := r.Builder().
		Select(
			"line_id", "line_no", "lot_id", "product_id",
			"quantity", "unit_price", "discount_percent", "total",
		).
		From(exportLinesTable).
		Where(squirrel.Eq{"line_id": lineID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var line exportdoc.ExportLine
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &line, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("export line", lineID.String())
		}
		return nil, fmt.Errorf("get line: %w", err)
	}

	return &line, nil
}

// SaveLines saves lines for an export document (delete existing + insert new).
func (r *ExportRepo) SaveLines(ctx context.Context, docID id.ID, lines []exportdoc.ExportLine) error {
	querier := r.txManager.GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + exportLinesTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(exportLinesTable).
		Columns(
			"line_id", "document_id", "line_no", "lot_id", "product_id",
			"quantity", "unit_price", "discount_percent", "total",
		)

	for _, line := range lines {
		q = q.Values(
			line.LineID, docID, line.LineNo, line.LotID, line.ProductID,
			line.Quantity, line.UnitPrice, line.DiscountPercent, line.Total,
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

// List retrieves export documents with filtering.
func (r *ExportRepo) List(ctx context.Context, filter exportdoc.ListFilter) (domain.ListResult[*exportdoc.ExportDocument], error) {
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
