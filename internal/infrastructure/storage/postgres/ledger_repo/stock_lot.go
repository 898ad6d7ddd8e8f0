// Package ledger_repo provides the PostgreSQL implementation of the stock
// lot repository.
package ledger_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
	"storeroom/internal/domain"
	"storeroom/internal/domain/ledger"
	"storeroom/internal/infrastructure/storage/postgres"
)

const stockLotsTable = "stock_lots"

// StockLotRepo implements ledger.Repository.
//
// Lot identity (source, source_doc_id, source_line_id, product_id,
// expiry_date) is enforced by a unique index (NULLS NOT DISTINCT, so import
// lots with no source line still merge); FindByIdentity and GetForUpdate
// take row locks so concurrent decrements against the same lot serialize.
type StockLotRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
	cols      []string
}

// NewStockLotRepo creates a new stock lot repository.
func NewStockLotRepo(txManager *postgres.TxManager) *StockLotRepo {
	return &StockLotRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		cols:      postgres.ExtractDBColumns[ledger.StockLot](),
	}
}

var _ ledger.Repository = (*StockLotRepo)(nil)

func (r *StockLotRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder.Select(r.cols...).From(stockLotsTable)
}

// Create inserts a new lot.
func (r *StockLotRepo) Create(ctx context.Context, lot *ledger.StockLot) error {
	data := postgres.StructToMap(lot)

	filteredData := make(map[string]any, len(r.cols))
	for _, col := range r.cols {
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.builder.Insert(stockLotsTable).SetMap(filteredData)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewConflict("lot with the same identity already exists").
				WithDetail("product_id", lot.ProductID.String()).
				WithDetail("source_doc_id", lot.SourceDocID.String()).
				WithCause(err)
		}
		return fmt.Errorf("insert lot: %w", err)
	}

	return nil
}

// GetByID retrieves a lot by ID.
func (r *StockLotRepo) GetByID(ctx context.Context, lotID id.ID) (*ledger.StockLot, error) {
	return r.getOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": lotID}), lotID.String())
}

// GetForUpdate retrieves a lot with a row lock.
func (r *StockLotRepo) GetForUpdate(ctx context.Context, lotID id.ID) (*ledger.StockLot, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": lotID}).
		Suffix("FOR UPDATE")
	return r.getOne(ctx, q, lotID.String())
}

// FindByIdentity retrieves the lot keyed by (source doc, source line,
// product, expiry) with a row lock.
func (r *StockLotRepo) FindByIdentity(ctx context.Context, ref ledger.DocumentRef, productID id.ID, expiry *time.Time) (*ledger.StockLot, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{
			"source":        ref.Kind,
			"source_doc_id": ref.DocID,
			"product_id":    productID,
		})

	if ref.LineID == nil {
		q = q.Where(squirrel.Eq{"source_line_id": nil})
	} else {
		q = q.Where(squirrel.Eq{"source_line_id": *ref.LineID})
	}

	if expiry == nil {
		q = q.Where(squirrel.Eq{"expiry_date": nil})
	} else {
		q = q.Where(squirrel.Eq{"expiry_date": *expiry})
	}

	q = q.Suffix("FOR UPDATE")

	return r.getOne(ctx, q, productID.String())
}

func (r *StockLotRepo) getOne(ctx context.Context, q squirrel.SelectBuilder, key string) (*ledger.StockLot, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lot ledger.StockLot
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &lot, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("stock lot", key)
		}
		return nil, fmt.Errorf("get lot: %w", err)
	}

	return &lot, nil
}

// Update persists quantity/field changes with optimistic locking.
func (r *StockLotRepo) Update(ctx context.Context, lot *ledger.StockLot) error {
	data := postgres.StructToMap(lot)

	filteredData := make(map[string]any, len(r.cols))
	for _, col := range r.cols {
		switch col {
		case "id", "version", "created_at", "updated_at":
			continue
		}
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.builder.
		Update(stockLotsTable).
		SetMap(filteredData).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": lot.ID}).
		Where(squirrel.Eq{"version": lot.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update lot: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("stock lot", lot.ID)
	}

	return nil
}

// Delete removes a lot permanently.
func (r *StockLotRepo) Delete(ctx context.Context, lotID id.ID) error {
	q := r.builder.Delete(stockLotsTable).Where(squirrel.Eq{"id": lotID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete lot: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("stock lot", lotID.String())
	}

	return nil
}

// DeleteBySource removes every lot owned by a document, or by one of its
// lines when the reference carries a line id.
func (r *StockLotRepo) DeleteBySource(ctx context.Context, ref ledger.DocumentRef) error {
	q := r.builder.Delete(stockLotsTable).
		Where(squirrel.Eq{
			"source":        ref.Kind,
			"source_doc_id": ref.DocID,
		})

	if ref.LineID != nil {
		q = q.Where(squirrel.Eq{"source_line_id": *ref.LineID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete lots by source: %w", err)
	}

	return nil
}

// List retrieves lots with filtering and pagination. The default ordering is
// FEFO: earliest expiry first, lots without expiry last.
func (r *StockLotRepo) List(ctx context.Context, filter ledger.ListFilter) (domain.ListResult[*ledger.StockLot], error) {
	result := domain.ListResult[*ledger.StockLot]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect()

	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}

	if filter.SupplierID != nil {
		q = q.Where(squirrel.Expr(
			"product_id IN (SELECT id FROM cat_supplier_products WHERE supplier_id = ?)",
			*filter.SupplierID,
		))
	}

	if filter.Source != nil {
		q = q.Where(squirrel.Eq{"source": *filter.Source})
	}

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}

	if filter.Location != "" {
		q = q.Where(squirrel.Eq{"location": filter.Location})
	}

	if filter.AvailableOnly {
		q = q.Where(squirrel.Gt{"quantity": int64(0)})
	}

	if filter.ExpiryFrom != nil {
		q = q.Where(squirrel.GtOrEq{"expiry_date": *filter.ExpiryFrom})
	}

	if filter.ExpiryTo != nil {
		q = q.Where(squirrel.LtOrEq{"expiry_date": *filter.ExpiryTo})
	}

	// Count
	countQ := r.builder.Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy...)

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
		return result, fmt.Errorf("list lots: %w", err)
	}

	return result, nil
}

// SaveStatuses persists recomputed statuses in one batch.
func (r *StockLotRepo) SaveStatuses(ctx context.Context, lots []*ledger.StockLot) error {
	if len(lots) == 0 {
		return nil
	}

	executor := postgres.NewBatchExecutor(r.txManager)
	queries := make([]postgres.BatchQuery, 0, len(lots))
	for _, lot := range lots {
		queries = append(queries, postgres.BatchQuery{
			SQL:  "UPDATE " + stockLotsTable + " SET status = $1, updated_at = NOW() WHERE id = $2",
			Args: []any{lot.Status, lot.ID},
		})
	}

	if err := executor.ExecuteBatch(ctx, queries); err != nil {
		return fmt.Errorf("save statuses: %w", err)
	}

	return nil
}

// SumQuantityByProduct returns total on-hand quantity of a product.
func (r *StockLotRepo) SumQuantityByProduct(ctx context.Context, productID id.ID) (int64, error) {
	q := r.builder.
		Select("COALESCE(SUM(quantity), 0)").
		From(stockLotsTable).
		Where(squirrel.Eq{"product_id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var total int64
	querier := r.txManager.GetQuerier(ctx)
	err = querier.QueryRow(ctx, sql, args...).Scan(&total)
	if err != nil && err != pgx.ErrNoRows {
		return 0, fmt.Errorf("sum quantity: %w", err)
	}

	return total, nil
}

// parseOrderBy whitelists sortable columns. Expiry ordering always puts
// lots without an expiry date last.
func (r *StockLotRepo) parseOrderBy(orderBy string) ([]string, error) {
	if strings.TrimSpace(orderBy) == "" || orderBy == "expiry_date" {
		return []string{"expiry_date ASC NULLS LAST", "created_at ASC"}, nil
	}

	allowed := make(map[string]struct{}, len(r.cols))
	for _, col := range r.cols {
		allowed[col] = struct{}{}
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	if _, ok := allowed[field]; !ok {
		return nil, apperror.NewValidation("invalid orderBy").
			WithDetail("orderBy", orderBy).
			WithDetail("field", field)
	}

	if field == "expiry_date" {
		return []string{"expiry_date " + direction + " NULLS LAST", "created_at ASC"}, nil
	}

	return []string{field + " " + direction}, nil
}
