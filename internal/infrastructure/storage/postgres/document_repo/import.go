package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"storeroom/internal/core/id"
	"storeroom/internal/domain"
	"storeroom/internal/domain/documents/importdoc"
	"storeroom/internal/infrastructure/storage/postgres"
)

const (
	importsTable     = "doc_imports"
	importLinesTable = "doc_import_lines"
)

// ImportRepo implements importdoc.Repository.
type ImportRepo struct {
	*BaseDocumentRepo[*importdoc.ImportDocument]
	txManager *postgres.TxManager
}

// NewImportRepo creates a new import document repository.
func NewImportRepo(txManager *postgres.TxManager) *ImportRepo {
	return &ImportRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*importdoc.ImportDocument](
			txManager,
			importsTable,
			postgres.ExtractDBColumns[importdoc.ImportDocument](),
			func() *importdoc.ImportDocument { return &importdoc.ImportDocument{} },
		),
		txManager: txManager,
	}
}

// GetLines retrieves lines for an import document.
func (r *ImportRepo) GetLines(ctx context.Context, docID id.ID) ([]importdoc.ImportLine, error) {
	q := r.Builder().
		Select(
			"line_id", "line_no", "product_id",
			"quantity", "unit", "unit_price", "asn_line_id", "expiry_date", "location",
		).
		From(importLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []importdoc.ImportLine
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	return lines, nil
}

// SaveLines saves lines for an import document (delete existing + insert new).
func (r *ImportRepo) SaveLines(ctx context.Context, docID id.ID, lines []importdoc.ImportLine) error {
	querier := r.txManager.GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + importLinesTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(importLinesTable).
		Columns(
			"line_id", "document_id", "line_no", "product_id",
			"quantity", "unit", "unit_price", "asn_line_id", "expiry_date", "location",
		)

	for _, line := range lines {
		q = q.Values(
			line.LineID, docID, line.LineNo, line.ProductID,
			line.Quantity, line.Unit, line.UnitPrice, line.ASNLineID, line.ExpiryDate, line.Location,
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

// ExistsByASN reports whether any receipt references the shipment notice.
func (r *ImportRepo) ExistsByASN(ctx context.Context, asnID id.ID) (bool, error) {
	q := r.Builder().
		Select("1").
		From(importsTable).
		Where(squirrel.Eq{"asn_id": asnID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	var exists int
	err = querier.QueryRow(ctx, sql, args...).Scan(&exists)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists by asn: %w", err)
	}

	return true, nil
}

// List retrieves import documents with filtering.
func (r *ImportRepo) List(ctx context.Context, filter importdoc.ListFilter) (domain.ListResult[*importdoc.ImportDocument], error) {
	q := r.baseSelect(ctx)

	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
	}

	if filter.ASNID != nil {
		q = q.Where(squirrel.Eq{"asn_id": *filter.ASNID})
	}

	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}

	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
	}

	return r.list(ctx, q, filter.ListFilter)
}
