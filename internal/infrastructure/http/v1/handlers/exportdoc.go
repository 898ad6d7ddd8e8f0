package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storeroom/internal/domain"
	"storeroom/internal/domain/documents/exportdoc"
	"storeroom/internal/infrastructure/http/v1/dto"
)

// ExportHandler handles HTTP requests for goods issues.
type ExportHandler struct {
	*BaseDocumentHandler[*exportdoc.ExportDocument, dto.CreateExportRequest, dto.UpdateExportRequest]
	service *exportdoc.Service
}

// NewExportHandler creates a new goods issue handler.
func NewExportHandler(base *BaseHandler, service *exportdoc.Service) *ExportHandler {
	cfg := BaseDocumentHandlerConfig[*exportdoc.ExportDocument, dto.CreateExportRequest, dto.UpdateExportRequest]{
		Service:    service,
		EntityName: "export",
		MapCreateDTO: func(req dto.CreateExportRequest) *exportdoc.ExportDocument {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateExportRequest, existing *exportdoc.ExportDocument) *exportdoc.ExportDocument {
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO: func(doc *exportdoc.ExportDocument) any {
			return dto.FromExport(doc)
		},
	}

	return &ExportHandler{
		BaseDocumentHandler: NewBaseDocumentHandler(base, cfg),
		service:             service,
	}
}

// List handles GET /document/exports - list with filtering.
func (h *ExportHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := exportdoc.ListFilter{
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

	items := make([]*dto.ExportResponse, len(result.Items))
	for i, doc := range result.Items {
		items[i] = dto.FromExport(doc)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}
