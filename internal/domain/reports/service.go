package reports

import (
	"context"
	"time"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
	"storeroom/internal/domain/ledger"
)

// Service provides report generation operations.
type Service struct {
	repo Repository
}

// NewService creates a new reports service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// GetStockSummary generates the on-hand stock report.
func (s *Service) GetStockSummary(ctx context.Context, filter StockSummaryFilter) (*StockSummaryReport, error) {
	filter.Limit = clampLimit(filter.Limit, 100, 1000)
	return s.repo.GetStockSummary(ctx, filter)
}

// GetExpiryReport generates the expiry report. Without an explicit status
// filter it covers expired and nearly expired lots.
func (s *Service) GetExpiryReport(ctx context.Context, filter ExpiryReportFilter) (*ExpiryReport, error) {
	if filter.AsOfDate == nil {
		now := time.Now().UTC()
		filter.AsOfDate = &now
	}
	if len(filter.Statuses) == 0 {
		filter.Statuses = []ledger.LotStatus{ledger.StatusExpired, ledger.StatusNearlyExpired}
	}
	filter.Limit = clampLimit(filter.Limit, 100, 1000)
	return s.repo.GetExpiryReport(ctx, filter)
}

// GetRevenueReport generates the revenue report over a period:
// revenue = export totals - return totals.
func (s *Service) GetRevenueReport(ctx context.Context, filter RevenueReportFilter) (*RevenueReport, error) {
	if filter.FromDate.IsZero() || filter.ToDate.IsZero() {
		return nil, apperror.NewValidation("fromDate and toDate are required")
	}
	if filter.FromDate.After(filter.ToDate) {
		return nil, apperror.NewValidation("fromDate must be before toDate")
	}
	return s.repo.GetRevenueReport(ctx, filter)
}

// GetTopProducts ranks products by exported quantity over a period.
func (s *Service) GetTopProducts(ctx context.Context, filter TopProductsFilter) ([]TopProductItem, error) {
	if filter.FromDate.IsZero() || filter.ToDate.IsZero() {
		return nil, apperror.NewValidation("fromDate and toDate are required")
	}
	if filter.FromDate.After(filter.ToDate) {
		return nil, apperror.NewValidation("fromDate must be before toDate")
	}
	filter.Limit = clampLimit(filter.Limit, 10, 100)
	return s.repo.GetTopProducts(ctx, filter)
}

// GetSupplierHistory lists a supplier's orders, notices and receipts.
func (s *Service) GetSupplierHistory(ctx context.Context, filter SupplierHistoryFilter) (*SupplierHistory, error) {
	if id.IsNil(filter.SupplierID) {
		return nil, apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierId")
	}
	filter.Limit = clampLimit(filter.Limit, 50, 500)
	return s.repo.GetSupplierHistory(ctx, filter)
}
