package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storeroom/internal/domain"
	"storeroom/internal/domain/ledger"
	"storeroom/internal/infrastructure/http/v1/dto"
)

// StockHandler handles HTTP requests for the stock ledger.
type StockHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewStockHandler creates a new stock ledger handler.
func NewStockHandler(base *BaseHandler, service *ledger.Service) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		service:     service,
	}
}

// List handles GET /stock/lots - FEFO-ordered lot listing.
func (h *StockHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := ledger.ListFilter{
		ListFilter:    domain.DefaultListFilter(),
		ProductID:     h.ParseIDQuery(c, "productId"),
		SupplierID:    h.ParseIDQuery(c, "supplierId"),
		Location:      c.Query("location"),
		AvailableOnly: c.Query("availableOnly") == "true",
		ExpiryFrom:    h.ParseTimeQuery(c, "expiryFrom"),
		ExpiryTo:      h.ParseTimeQuery(c, "expiryTo"),
	}
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.Query("orderBy")

	if source := c.Query("source"); source != "" {
		s := ledger.SourceKind(source)
		filter.Source = &s
	}

	if status := c.Query("status"); status != "" {
		s := ledger.LotStatus(status)
		filter.Status = &s
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.StockLotResponse, len(result.Items))
	for i, lot := range result.Items {
		items[i] = dto.FromStockLot(lot)
	}

	c.JSON(http.StatusOK, dto.StockLotListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /stock/lots/:id - single lot.
func (h *StockHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	lotID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	lot, err := h.service.GetByID(ctx, lotID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromStockLot(lot))
}

// GetProductAvailability handles GET /stock/availability/:productId.
// Returns the total on-hand quantity across all lots of a product.
func (h *StockHandler) GetProductAvailability(c *gin.Context) {
	ctx := c.Request.Context()

	productID, ok := h.ParseIDParam(c, "productId")
	if !ok {
		return
	}

	quantity, err := h.service.TotalQuantityByProduct(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ProductAvailabilityResponse{
		ProductID: productID.String(),
		Quantity:  quantity,
	})
}
