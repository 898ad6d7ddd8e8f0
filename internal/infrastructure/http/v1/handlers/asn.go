package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"storeroom/internal/core/id"
	"storeroom/internal/domain"
	"storeroom/internal/domain/documents/asn"
	"storeroom/internal/infrastructure/http/v1/dto"
)

// ASNHandler handles HTTP requests for advance shipment notices.
type ASNHandler struct {
	*BaseDocumentHandler[*asn.AdvanceShipmentNotice, dto.CreateASNRequest, dto.UpdateASNRequest]
	service *asn.Service
}

// NewASNHandler creates a new shipment notice handler.
func NewASNHandler(base *BaseHandler, service *asn.Service) *ASNHandler {
	cfg := BaseDocumentHandlerConfig[*asn.AdvanceShipmentNotice, dto.CreateASNRequest, dto.UpdateASNRequest]{
		Service:    service,
		EntityName: "asn",
		MapCreateDTO: func(req dto.CreateASNRequest) *asn.AdvanceShipmentNotice {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateASNRequest, existing *asn.AdvanceShipmentNotice) *asn.AdvanceShipmentNotice {
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO: func(doc *asn.AdvanceShipmentNotice) any {
			return dto.FromASN(doc)
		},
	}

	return &ASNHandler{
		BaseDocumentHandler: NewBaseDocumentHandler(base, cfg),
		service:             service,
	}
}

// List handles GET /document/shipment-notices - list with filtering.
func (h *ASNHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := asn.ListFilter{
		ListFilter:      domain.DefaultListFilter(),
		PurchaseOrderID: h.ParseIDQuery(c, "purchaseOrderId"),
		SupplierID:      h.ParseIDQuery(c, "supplierId"),
		DateFrom:        h.ParseTimeQuery(c, "dateFrom"),
		DateTo:          h.ParseTimeQuery(c, "dateTo"),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "date DESC")

	if status := c.Query("status"); status != "" {
		s := asn.Status(status)
		filter.Status = &s
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.ASNResponse, len(result.Items))
	for i, doc := range result.Items {
		items[i] = dto.FromASN(doc)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// ListAvailable handles GET /document/shipment-notices/available.
// Returns notices not yet consumed by a goods receipt, for import forms.
func (h *ASNHandler) ListAvailable(c *gin.Context) {
	ctx := c.Request.Context()

	docs, err := h.service.ListAvailable(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.ASNResponse, len(docs))
	for i, doc := range docs {
		items[i] = dto.FromASN(doc)
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// MarkDelivered handles POST /document/shipment-notices/:id/delivered.
func (h *ASNHandler) MarkDelivered(c *gin.Context) {
	h.updateStatus(c, h.service.MarkDelivered)
}

// MarkNotDelivered handles POST /document/shipment-notices/:id/not-delivered.
func (h *ASNHandler) MarkNotDelivered(c *gin.Context) {
	h.updateStatus(c, h.service.MarkNotDelivered)
}

func (h *ASNHandler) updateStatus(c *gin.Context, fn func(ctx context.Context, docID id.ID) error) {
	ctx := c.Request.Context()

	docID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := fn(ctx, docID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "status updated")
}
