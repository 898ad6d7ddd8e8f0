// Package report_repo provides PostgreSQL implementations for report repositories.
package report_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/types"
	"storeroom/internal/domain/ledger"
	"storeroom/internal/domain/reports"
	"storeroom/internal/infrastructure/storage/postgres"
)

// ReportRepo implements reports.Repository with read-only aggregate queries
// over the lot ledger and document tables.
type ReportRepo struct {
	txManager *postgres.TxManager
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txManager *postgres.TxManager) *ReportRepo {
	return &ReportRepo{txManager: txManager}
}

// Ensure interface compliance
var _ reports.Repository = (*ReportRepo)(nil)

// GetStockSummary aggregates on-hand quantity and value per product across lots.
func (r *ReportRepo) GetStockSummary(ctx context.Context, filter reports.StockSummaryFilter) (*reports.StockSummaryReport, error) {
	query := `
		SELECT
			l.product_id,
			p.name as product_name,
			p.code as product_code,
			p.unit,
			SUM(l.quantity) as quantity,
			COUNT(*) as lot_count,
			COALESCE(SUM(l.quantity * l.unit_cost), 0) as stock_value
		FROM stock_lots l
		JOIN cat_supplier_products p ON p.id = l.product_id
		WHERE 1=1
	`
	var args []any
	argIndex := 1

	if len(filter.SupplierIDs) > 0 {
		query += fmt.Sprintf(" AND p.supplier_id = ANY($%d)", argIndex)
		args = append(args, filter.SupplierIDs)
		argIndex++
	}

	if len(filter.ProductIDs) > 0 {
		query += fmt.Sprintf(" AND l.product_id = ANY($%d)", argIndex)
		args = append(args, filter.ProductIDs)
		argIndex++
	}

	if filter.Location != "" {
		query += fmt.Sprintf(" AND l.location = $%d", argIndex)
		args = append(args, filter.Location)
		argIndex++
	}

	query += " GROUP BY l.product_id, p.name, p.code, p.unit"

	if filter.ExcludeZero {
		query += " HAVING SUM(l.quantity) > 0"
	}

	query += " ORDER BY p.name"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	var items []reports.StockSummaryItem
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, query, args...); err != nil {
		return nil, fmt.Errorf("stock summary report: %w", err)
	}

	// Calculate totals
	var totalQuantity int64
	totalValue := types.Zero()
	for _, item := range items {
		totalQuantity += item.Quantity
		totalValue = totalValue.Add(item.StockValue)
	}

	return &reports.StockSummaryReport{
		Items:         items,
		TotalItems:    len(items),
		TotalQuantity: totalQuantity,
		TotalValue:    totalValue,
	}, nil
}

// GetExpiryReport lists lots past or approaching expiry, FEFO-ordered.
// Status is computed against the report date, not read from the stored
// column, so a stale stored status cannot skew the report.
func (r *ReportRepo) GetExpiryReport(ctx context.Context, filter reports.ExpiryReportFilter) (*reports.ExpiryReport, error) {
	asOfDate := time.Now().UTC()
	if filter.AsOfDate != nil {
		asOfDate = *filter.AsOfDate
	}

	statuses := filter.Statuses
	if len(statuses) == 0 {
		statuses = []ledger.LotStatus{ledger.StatusExpired, ledger.StatusNearlyExpired}
	}
	statusStrs := make([]string, len(statuses))
	for i, s := range statuses {
		statusStrs[i] = string(s)
	}

	query := fmt.Sprintf(`
		WITH graded AS (
			SELECT
				l.id as lot_id,
				l.product_id,
				p.name as product_name,
				l.quantity,
				l.unit,
				l.location,
				l.expiry_date,
				COALESCE(l.expiry_date::date - $1::date, 0) as days_left,
				CASE
					WHEN l.expiry_date IS NULL THEN 'valid'
					WHEN l.expiry_date::date < $1::date THEN 'expired'
					WHEN l.expiry_date::date <= $1::date + %d THEN 'nearly_expired'
					ELSE 'valid'
				END as status
			FROM stock_lots l
			JOIN cat_supplier_products p ON p.id = l.product_id
			WHERE l.quantity > 0
	`, ledger.NearExpiryDays)

	args := []any{asOfDate}
	argIndex := 2

	if len(filter.ProductIDs) > 0 {
		query += fmt.Sprintf(" AND l.product_id = ANY($%d)", argIndex)
		args = append(args, filter.ProductIDs)
		argIndex++
	}

	if filter.Location != "" {
		query += fmt.Sprintf(" AND l.location = $%d", argIndex)
		args = append(args, filter.Location)
		argIndex++
	}

	query += fmt.Sprintf(`
		)
		SELECT * FROM graded
		WHERE status = ANY($%d)
		ORDER BY expiry_date ASC NULLS LAST
	`, argIndex)
	args = append(args, statusStrs)

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	var items []reports.ExpiryReportItem
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, query, args...); err != nil {
		return nil, fmt.Errorf("expiry report: %w", err)
	}

	var expired, nearly int
	for _, item := range items {
		switch item.Status {
		case ledger.StatusExpired:
			expired++
		case ledger.StatusNearlyExpired:
			nearly++
		}
	}

	return &reports.ExpiryReport{
		AsOfDate:           asOfDate,
		Items:              items,
		TotalItems:         len(items),
		ExpiredCount:       expired,
		NearlyExpiredCount: nearly,
	}, nil
}

type revenueBucket struct {
	Date  time.Time   `db:"day"`
	Total types.Money `db:"total"`
	Count int         `db:"count"`
}

// GetRevenueReport computes revenue = export totals - return totals over a period.
func (r *ReportRepo) GetRevenueReport(ctx context.Context, filter reports.RevenueReportFilter) (*reports.RevenueReport, error) {
	if filter.FromDate.IsZero() || filter.ToDate.IsZero() {
		return nil, apperror.NewValidation("fromDate and toDate are required")
	}

	querier := r.txManager.GetQuerier(ctx)

	exportSQL := `
		SELECT
			date_trunc('day', d.date) as day,
			COALESCE(SUM(l.total), 0) as total,
			COUNT(DISTINCT d.id) as count
		FROM doc_exports d
		JOIN doc_export_lines l ON l.document_id = d.id
		WHERE d.date >= $1 AND d.date <= $2
		GROUP BY 1
	`

	var exportBuckets []revenueBucket
	if err := pgxscan.Select(ctx, querier, &exportBuckets, exportSQL, filter.FromDate, filter.ToDate); err != nil {
		return nil, fmt.Errorf("revenue report exports: %w", err)
	}

	returnSQL := `
		SELECT
			date_trunc('day', d.date) as day,
			COALESCE(SUM(l.quantity * l.unit_price), 0) as total,
			COUNT(DISTINCT d.id) as count
		FROM doc_returns d
		JOIN doc_return_lines l ON l.document_id = d.id
		WHERE d.date >= $1 AND d.date <= $2
		GROUP BY 1
	`

	var returnBuckets []revenueBucket
	if err := pgxscan.Select(ctx, querier, &returnBuckets, returnSQL, filter.FromDate, filter.ToDate); err != nil {
		return nil, fmt.Errorf("revenue report returns: %w", err)
	}

	report := &reports.RevenueReport{
		FromDate:     filter.FromDate,
		ToDate:       filter.ToDate,
		TotalExports: types.Zero(),
		TotalReturns: types.Zero(),
	}

	byDay := make(map[time.Time]*reports.RevenuePeriodItem)
	dayOf := func(t time.Time) time.Time {
		if !filter.GroupByDay {
			return filter.FromDate
		}
		return t
	}
	bucket := func(day time.Time) *reports.RevenuePeriodItem {
		if item, ok := byDay[day]; ok {
			return item
		}
		item := &reports.RevenuePeriodItem{
			Date:        day,
			ExportTotal: types.Zero(),
			ReturnTotal: types.Zero(),
		}
		byDay[day] = item
		return item
	}

	for _, b := range exportBuckets {
		item := bucket(dayOf(b.Date))
		item.ExportTotal = item.ExportTotal.Add(b.Total)
		item.ExportCount += b.Count
		report.TotalExports = report.TotalExports.Add(b.Total)
	}
	for _, b := range returnBuckets {
		item := bucket(dayOf(b.Date))
		item.ReturnTotal = item.ReturnTotal.Add(types.RoundMoney(b.Total))
		item.ReturnCount += b.Count
		report.TotalReturns = report.TotalReturns.Add(types.RoundMoney(b.Total))
	}

	days := make([]time.Time, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sortTimes(days)

	for _, day := range days {
		item := byDay[day]
		item.Revenue = item.ExportTotal.Sub(item.ReturnTotal)
		report.Items = append(report.Items, *item)
	}

	report.TotalRevenue = report.TotalExports.Sub(report.TotalReturns)

	return report, nil
}

func sortTimes(ts []time.Time) {
	for i := 1; i < len(ts); i++ {
		for j := i; j > 0 && ts[j].Before(ts[j-1]); j-- {
			ts[j], ts[j-1] = ts[j-1], ts[j]
		}
	}
}

// GetTopProducts ranks products by exported quantity over a period.
func (r *ReportRepo) GetTopProducts(ctx context.Context, filter reports.TopProductsFilter) ([]reports.TopProductItem, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}

	query := fmt.Sprintf(`
		SELECT
			l.product_id,
			p.name as product_name,
			p.code as product_code,
			SUM(l.quantity) as exported_quantity,
			COALESCE(SUM(l.total), 0) as exported_value,
			COALESCE((
				SELECT SUM(rl.quantity)
				FROM doc_return_lines rl
				JOIN doc_returns rd ON rd.id = rl.document_id
				WHERE rl.product_id = l.product_id
				  AND rd.date >= $1 AND rd.date <= $2
			), 0) as returned_quantity
		FROM doc_export_lines l
		JOIN doc_exports d ON d.id = l.document_id
		JOIN cat_supplier_products p ON p.id = l.product_id
		WHERE d.date >= $1 AND d.date <= $2
		GROUP BY l.product_id, p.name, p.code
		ORDER BY exported_quantity DESC, p.name
		LIMIT %d
	`, limit)

	var items []reports.TopProductItem
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, query, filter.FromDate, filter.ToDate); err != nil {
		return nil, fmt.Errorf("top products report: %w", err)
	}

	return items, nil
}

// GetSupplierHistory lists a supplier's orders, shipment notices and receipts.
func (r *ReportRepo) GetSupplierHistory(ctx context.Context, filter reports.SupplierHistoryFilter) (*reports.SupplierHistory, error) {
	querier := r.txManager.GetQuerier(ctx)

	history := &reports.SupplierHistory{
		SupplierID: filter.SupplierID,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}

	nameSQL := "SELECT name FROM cat_suppliers WHERE id = $1"
	if err := querier.QueryRow(ctx, nameSQL, filter.SupplierID).Scan(&history.SupplierName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("supplier", filter.SupplierID.String())
		}
		return nil, fmt.Errorf("supplier name: %w", err)
	}

	docTypes := filter.DocumentTypes
	if len(docTypes) == 0 {
		docTypes = []string{"purchase_order", "asn", "import"}
	}

	args := []any{filter.SupplierID}
	argIndex := 2

	dateCond := ""
	if filter.FromDate != nil {
		dateCond += fmt.Sprintf(" AND d.date >= $%d", argIndex)
		args = append(args, *filter.FromDate)
		argIndex++
	}
	if filter.ToDate != nil {
		dateCond += fmt.Sprintf(" AND d.date <= $%d", argIndex)
		args = append(args, *filter.ToDate)
		argIndex++
	}

	var unions []string
	for _, docType := range docTypes {
		switch docType {
		case "purchase_order":
			unions = append(unions, `
				SELECT
					d.id as document_id, 'purchase_order' as document_type,
					d.number, d.date, d.status::text as status,
					COALESCE((SELECT SUM(quantity) FROM doc_purchase_order_lines WHERE document_id = d.id), 0) as total_quantity,
					COALESCE((SELECT SUM(quantity * unit_price) FROM doc_purchase_order_lines WHERE document_id = d.id), 0) as total_amount
				FROM doc_purchase_orders d
				WHERE d.supplier_id = $1`+dateCond)
		case "asn":
			unions = append(unions, `
				SELECT
					d.id as document_id, 'asn' as document_type,
					d.number, d.date, d.status::text as status,
					COALESCE((SELECT SUM(quantity) FROM doc_shipment_notice_lines WHERE document_id = d.id), 0) as total_quantity,
					0 as total_amount
				FROM doc_shipment_notices d
				WHERE d.supplier_id = $1`+dateCond)
		case "import":
			unions = append(unions, `
				SELECT
					d.id as document_id, 'import' as document_type,
					d.number, d.date, '' as status,
					COALESCE((SELECT SUM(quantity) FROM doc_import_lines WHERE document_id = d.id), 0) as total_quantity,
					COALESCE((SELECT SUM(quantity * unit_price) FROM doc_import_lines WHERE document_id = d.id), 0) as total_amount
				FROM doc_imports d
				WHERE d.supplier_id = $1`+dateCond)
		default:
			return nil, apperror.NewValidation("unknown document type").
				WithDetail("documentType", docType)
		}
	}

	query := strings.Join(unions, " UNION ALL ")

	countSQL := "SELECT COUNT(*) FROM (" + query + ") sub"
	if err := querier.QueryRow(ctx, countSQL, args...).Scan(&history.TotalCount); err != nil {
		return nil, fmt.Errorf("supplier history count: %w", err)
	}

	query += " ORDER BY date DESC, number"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	if err := pgxscan.Select(ctx, querier, &history.Items, query, args...); err != nil {
		return nil, fmt.Errorf("supplier history: %w", err)
	}

	return history, nil
}
