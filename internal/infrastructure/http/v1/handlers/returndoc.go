package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storeroom/internal/domain"
	"storeroom/internal/domain/documents/returndoc"
	"storeroom/internal/infrastructure/http/v1/dto"
)

// ReturnHandler handles HTTP requests for customer returns.
type ReturnHandler struct {
	*BaseDocumentHandler[*returndoc.ReturnDocument, dto.CreateReturnRequest, dto.UpdateReturnRequest]
	service *returndoc.Service
}

// NewReturnHandler creates a new customer return handler.
func NewReturnHandler(base *BaseHandler, service *returndoc.Service) *ReturnHandler {
	cfg := BaseDocumentHandlerConfig[*returndoc.ReturnDocument, dto.CreateReturnRequest, dto.UpdateReturnRequest]{
		Service:    service,
		EntityName: "return",
		MapCreateDTO: func(req dto.CreateReturnRequest) *returndoc.ReturnDocument {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateReturnRequest, existing *returndoc.ReturnDocument) *returndoc.ReturnDocument {
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO: func(doc *returndoc.ReturnDocument) any {
			return dto.FromReturn(doc)
		},
	}

	return &ReturnHandler{
		BaseDocumentHandler: NewBaseDocumentHandler(base, cfg),
		service:             service,
	}
}

// List handles GET /document/returns - list with filtering.
func (h *ReturnHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := returndoc.ListFilter{
		ListFilter: domain.DefaultListFilter(),
		Customer:   c.Query("customer"),
		DateFrom:   h.ParseTimeQuery(c, "dateFrom"),
		DateTo:     h.ParseTimeQuery(c, "dateTo"),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "date DESC")

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.ReturnResponse, len(result.Items))
	for i, doc := range result.Items {
		items[i] = dto.FromReturn(doc)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// RemainingReturnable handles GET /document/returns/remaining/:lineId.
// Reports how much of an issued export line can still be returned.
func (h *ReturnHandler) RemainingReturnable(c *gin.Context) {
	ctx := c.Request.Context()

	lineID, ok := h.ParseIDParam(c, "lineId")
	if !ok {
		return
	}

	remaining, err := h.service.RemainingReturnable(ctx, lineID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.RemainingReturnableResponse{
		ExportLineID: lineID.String(),
		Remaining:    remaining,
	})
}
