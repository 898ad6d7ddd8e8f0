// Package reports provides report generation services.
package reports

import (
	"time"

	"storeroom/internal/core/id"
	"storeroom/internal/core/types"
	"storeroom/internal/domain/ledger"
)

// --- Stock Summary Report ---

// StockSummaryFilter defines the filter for the on-hand stock report.
type StockSummaryFilter struct {
	// Filters
	SupplierIDs []id.ID
	ProductIDs  []id.ID
	Location    string

	// ExcludeZero drops products with no stock on hand
	ExcludeZero bool

	// Pagination
	Limit  int
	Offset int
}

// StockSummaryItem is one product's on-hand position across lots.
type StockSummaryItem struct {
	ProductID   id.ID  `json:"productId"`
	ProductName string `json:"productName"`
	ProductCode string `json:"productCode"`
	Unit        string `json:"unit"`

	Quantity int64 `json:"quantity"`
	LotCount int   `json:"lotCount"`

	// StockValue = sum over lots of quantity x unit cost
	StockValue types.Money `json:"stockValue"`
}

// StockSummaryReport is the full on-hand stock report.
type StockSummaryReport struct {
	Items      []StockSummaryItem `json:"items"`
	TotalItems int                `json:"totalItems"`

	TotalQuantity int64       `json:"totalQuantity"`
	TotalValue    types.Money `json:"totalValue"`
}

// --- Expiry Report ---

// ExpiryReportFilter defines the filter for the expiry report.
type ExpiryReportFilter struct {
	// AsOfDate - report date (defaults to now)
	AsOfDate *time.Time

	ProductIDs []id.ID
	Location   string

	// Statuses narrows the report (defaults to expired + nearly expired)
	Statuses []ledger.LotStatus

	// Pagination
	Limit  int
	Offset int
}

// ExpiryReportItem is one lot approaching or past its expiry date.
type ExpiryReportItem struct {
	LotID       id.ID  `json:"lotId"`
	ProductID   id.ID  `json:"productId"`
	ProductName string `json:"productName"`

	Quantity   int64            `json:"quantity"`
	Unit       string           `json:"unit"`
	Location   string           `json:"location,omitempty"`
	ExpiryDate *time.Time       `json:"expiryDate,omitempty"`
	Status     ledger.LotStatus `json:"status"`

	// DaysLeft is negative for already expired lots
	DaysLeft int `json:"daysLeft"`
}

// ExpiryReport is the full expiry report, FEFO-ordered.
type ExpiryReport struct {
	AsOfDate   time.Time          `json:"asOfDate"`
	Items      []ExpiryReportItem `json:"items"`
	TotalItems int                `json:"totalItems"`

	ExpiredCount       int `json:"expiredCount"`
	NearlyExpiredCount int `json:"nearlyExpiredCount"`
}

// --- Revenue Report ---

// RevenueReportFilter defines the period for the revenue report.
type RevenueReportFilter struct {
	// Period (required)
	FromDate time.Time
	ToDate   time.Time

	// GroupByDay produces one row per day instead of a single total
	GroupByDay bool
}

// RevenuePeriodItem is one period bucket of the revenue report.
type RevenuePeriodItem struct {
	Date time.Time `json:"date"`

	ExportTotal types.Money `json:"exportTotal"`
	ReturnTotal types.Money `json:"returnTotal"`

	// Revenue = exports - returns
	Revenue types.Money `json:"revenue"`

	ExportCount int `json:"exportCount"`
	ReturnCount int `json:"returnCount"`
}

// RevenueReport is the full revenue report.
type RevenueReport struct {
	FromDate time.Time           `json:"fromDate"`
	ToDate   time.Time           `json:"toDate"`
	Items    []RevenuePeriodItem `json:"items"`

	TotalExports types.Money `json:"totalExports"`
	TotalReturns types.Money `json:"totalReturns"`
	TotalRevenue types.Money `json:"totalRevenue"`
}

// --- Top Products Report ---

// TopProductsFilter defines the filter for the top-sellers report.
type TopProductsFilter struct {
	// Period (required)
	FromDate time.Time
	ToDate   time.Time

	// Limit caps the number of products returned (default 10)
	Limit int
}

// TopProductItem is one product ranked by exported quantity.
type TopProductItem struct {
	ProductID   id.ID  `json:"productId"`
	ProductName string `json:"productName"`
	ProductCode string `json:"productCode"`

	ExportedQuantity int64       `json:"exportedQuantity"`
	ExportedValue    types.Money `json:"exportedValue"`
	ReturnedQuantity int64       `json:"returnedQuantity"`
}

// --- Supplier History Report ---

// SupplierHistoryFilter defines the filter for per-supplier document history.
type SupplierHistoryFilter struct {
	SupplierID id.ID

	// Period
	FromDate *time.Time
	ToDate   *time.Time

	// DocumentTypes narrows the history ("purchase_order", "asn", "import")
	DocumentTypes []string

	// Pagination
	Limit  int
	Offset int
}

// SupplierHistoryItem is one document in a supplier's history.
type SupplierHistoryItem struct {
	DocumentID   id.ID     `json:"documentId"`
	DocumentType string    `json:"documentType"`
	Number       string    `json:"number"`
	Date         time.Time `json:"date"`
	Status       string    `json:"status,omitempty"`

	TotalQuantity int64       `json:"totalQuantity"`
	TotalAmount   types.Money `json:"totalAmount"`
}

// SupplierHistory is the full per-supplier history.
type SupplierHistory struct {
	SupplierID   id.ID  `json:"supplierId"`
	SupplierName string `json:"supplierName"`

	Items      []SupplierHistoryItem `json:"items"`
	TotalCount int                   `json:"totalCount"`
	Limit      int                   `json:"limit"`
	Offset     int                   `json:"offset"`
}
