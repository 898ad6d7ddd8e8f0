package reports

import (
	"context"
)

// Repository defines report data access interface.
type Repository interface {
	// Stock reports
	GetStockSummary(ctx context.Context, filter StockSummaryFilter) (*StockSummaryReport, error)
	GetExpiryReport(ctx context.Context, filter ExpiryReportFilter) (*ExpiryReport, error)

	// Sales reports
	GetRevenueReport(ctx context.Context, filter RevenueReportFilter) (*RevenueReport, error)
	GetTopProducts(ctx context.Context, filter TopProductsFilter) ([]TopProductItem, error)

	// Supplier history
	GetSupplierHistory(ctx context.Context, filter SupplierHistoryFilter) (*SupplierHistory, error)
}
