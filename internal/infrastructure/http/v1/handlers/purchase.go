package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storeroom/internal/domain"
	"storeroom/internal/domain/documents/purchase"
	"storeroom/internal/infrastructure/http/v1/dto"
)

// PurchaseOrderHandler handles HTTP requests for purchase orders.
type PurchaseOrderHandler struct {
	*BaseDocumentHandler[*purchase.PurchaseOrder, dto.CreatePurchaseOrderRequest, dto.UpdatePurchaseOrderRequest]
	service *purchase.Service
}

// NewPurchaseOrderHandler creates a new purchase order handler.
func NewPurchaseOrderHandler(base *BaseHandler, service *purchase.Service) *PurchaseOrderHandler {
	cfg := BaseDocumentHandlerConfig[*purchase.PurchaseOrder, dto.CreatePurchaseOrderRequest, dto.UpdatePurchaseOrderRequest]{
		Service:    service,
		EntityName: "purchase-order",
		MapCreateDTO: func(req dto.CreatePurchaseOrderRequest) *purchase.PurchaseOrder {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdatePurchaseOrderRequest, existing *purchase.PurchaseOrder) *purchase.PurchaseOrder {
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO: func(doc *purchase.PurchaseOrder) any {
			return dto.FromPurchaseOrder(doc)
		},
	}

	return &PurchaseOrderHandler{
		BaseDocumentHandler: NewBaseDocumentHandler(base, cfg),
		service:             service,
	}
}

// List handles GET /document/purchase-orders - list with filtering.
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := purchase.ListFilter{
		ListFilter: domain.DefaultListFilter(),
		SupplierID: h.ParseIDQuery(c, "supplierId"),
		DateFrom:   h.ParseTimeQuery(c, "dateFrom"),
		DateTo:     h.ParseTimeQuery(c, "dateTo"),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "date DESC")

	if status := c.Query("status"); status != "" {
		s := purchase.Status(status)
		filter.Status = &s
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.PurchaseOrderResponse, len(result.Items))
	for i, doc := range result.Items {
		items[i] = dto.FromPurchaseOrder(doc)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// UpdateStatus handles POST /document/purchase-orders/:id/status.
func (h *PurchaseOrderHandler) UpdateStatus(c *gin.Context) {
	ctx := c.Request.Context()

	docID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.UpdateStatus(ctx, docID, purchase.Status(req.Status)); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "status updated")
}

// Remaining handles GET /document/purchase-orders/:id/remaining.
// Returns per-product undelivered quantities, used to pre-fill shipment
// notice forms.
func (h *PurchaseOrderHandler) Remaining(c *gin.Context) {
	ctx := c.Request.Context()

	docID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	lines, err := h.service.Remaining(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": dto.FromRemainingLines(lines)})
}
