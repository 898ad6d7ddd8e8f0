package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storeroom/internal/domain"
	"storeroom/internal/domain/documents/importdoc"
	"storeroom/internal/infrastructure/http/v1/dto"
)

// ImportHandler handles HTTP requests for goods receipts.
type ImportHandler struct {
	*BaseDocumentHandler[*importdoc.ImportDocument, dto.CreateImportRequest, dto.UpdateImportRequest]
	service *importdoc.Service
}

// NewImportHandler creates a new goods receipt handler.
func NewImportHandler(base *BaseHandler, service *importdoc.Service) *ImportHandler {
	cfg := BaseDocumentHandlerConfig[*importdoc.ImportDocument, dto.CreateImportRequest, dto.UpdateImportRequest]{
		Service:    service,
		EntityName: "import",
		MapCreateDTO: func(req dto.CreateImportRequest) *importdoc.ImportDocument {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateImportRequest, existing *importdoc.ImportDocument) *importdoc.ImportDocument {
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO: func(doc *importdoc.ImportDocument) any {
			return dto.FromImport(doc)
		},
	}

	return &ImportHandler{
		BaseDocumentHandler: NewBaseDocumentHandler(base, cfg),
		service:             service,
	}
}

// List handles GET /document/imports - list with filtering.
func (h *ImportHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := importdoc.ListFilter{
		ListFilter: domain.DefaultListFilter(),
		SupplierID: h.ParseIDQuery(c, "supplierId"),
		ASNID:      h.ParseIDQuery(c, "asnId"),
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

	items := make([]*dto.ImportResponse, len(result.Items))
	for i, doc := range result.Items {
		items[i] = dto.FromImport(doc)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}
