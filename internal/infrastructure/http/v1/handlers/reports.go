package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
	"storeroom/internal/domain/ledger"
	"storeroom/internal/domain/reports"
)

// ReportsHandler handles HTTP requests for reports.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// GetStockSummary handles GET /reports/stock-summary.
func (h *ReportsHandler) GetStockSummary(c *gin.Context) {
	ctx := c.Request.Context()

	filter := reports.StockSummaryFilter{
		Location:    c.Query("location"),
		ExcludeZero: c.Query("excludeZero") != "false",
		Limit:       h.ParseIntQuery(c, "limit", 100),
		Offset:      h.ParseIntQuery(c, "offset", 0),
	}

	if supplierID := h.ParseIDQuery(c, "supplierId"); supplierID != nil {
		filter.SupplierIDs = []id.ID{*supplierID}
	}

	if productID := h.ParseIDQuery(c, "productId"); productID != nil {
		filter.ProductIDs = []id.ID{*productID}
	}

	report, err := h.service.GetStockSummary(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetExpiryReport handles GET /reports/expiry.
func (h *ReportsHandler) GetExpiryReport(c *gin.Context) {
	ctx := c.Request.Context()

	filter := reports.ExpiryReportFilter{
		AsOfDate: h.ParseTimeQuery(c, "asOfDate"),
		Location: c.Query("location"),
		Limit:    h.ParseIntQuery(c, "limit", 100),
		Offset:   h.ParseIntQuery(c, "offset", 0),
	}

	if productID := h.ParseIDQuery(c, "productId"); productID != nil {
		filter.ProductIDs = []id.ID{*productID}
	}

	if statuses := c.QueryArray("status"); len(statuses) > 0 {
		filter.Statuses = make([]ledger.LotStatus, len(statuses))
		for i, s := range statuses {
			filter.Statuses[i] = ledger.LotStatus(s)
		}
	}

	report, err := h.service.GetExpiryReport(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetRevenueReport handles GET /reports/revenue.
func (h *ReportsHandler) GetRevenueReport(c *gin.Context) {
	ctx := c.Request.Context()

	fromDate, toDate, ok := h.parsePeriod(c)
	if !ok {
		return
	}

	filter := reports.RevenueReportFilter{
		FromDate:   fromDate,
		ToDate:     toDate,
		GroupByDay: c.Query("groupByDay") == "true",
	}

	report, err := h.service.GetRevenueReport(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetTopProducts handles GET /reports/top-products.
func (h *ReportsHandler) GetTopProducts(c *gin.Context) {
	ctx := c.Request.Context()

	fromDate, toDate, ok := h.parsePeriod(c)
	if !ok {
		return
	}

	filter := reports.TopProductsFilter{
		FromDate: fromDate,
		ToDate:   toDate,
		Limit:    h.ParseIntQuery(c, "limit", 10),
	}

	items, err := h.service.GetTopProducts(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetSupplierHistory handles GET /reports/supplier-history/:supplierId.
func (h *ReportsHandler) GetSupplierHistory(c *gin.Context) {
	ctx := c.Request.Context()

	supplierID, ok := h.ParseIDParam(c, "supplierId")
	if !ok {
		return
	}

	filter := reports.SupplierHistoryFilter{
		SupplierID:    supplierID,
		FromDate:      h.ParseTimeQuery(c, "fromDate"),
		ToDate:        h.ParseTimeQuery(c, "toDate"),
		DocumentTypes: c.QueryArray("type"),
		Limit:         h.ParseIntQuery(c, "limit", 50),
		Offset:        h.ParseIntQuery(c, "offset", 0),
	}

	report, err := h.service.GetSupplierHistory(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// parsePeriod parses the required fromDate/toDate query parameters.
func (h *ReportsHandler) parsePeriod(c *gin.Context) (time.Time, time.Time, bool) {
	fromStr := c.Query("fromDate")
	toStr := c.Query("toDate")

	if fromStr == "" || toStr == "" {
		h.Error(c, apperror.NewValidation("fromDate and toDate are required"))
		return time.Time{}, time.Time{}, false
	}

	fromDate, err := time.Parse(time.RFC3339, fromStr)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid fromDate format, expected RFC3339"))
		return time.Time{}, time.Time{}, false
	}

	toDate, err := time.Parse(time.RFC3339, toStr)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid toDate format, expected RFC3339"))
		return time.Time{}, time.Time{}, false
	}

	return fromDate, toDate, true
}
