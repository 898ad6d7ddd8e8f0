package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storeroom/internal/domain"
	"storeroom/internal/domain/catalogs/supplier"
	"storeroom/internal/infrastructure/http/v1/dto"
)

// SupplierHandler handles HTTP requests for the Supplier catalog and its
// product list.
type SupplierHandler struct {
	*CatalogHandler[*supplier.Supplier, dto.CreateSupplierRequest, dto.UpdateSupplierRequest]
	service *supplier.Service
}

// NewSupplierHandler creates a new supplier handler.
func NewSupplierHandler(base *BaseHandler, service *supplier.Service) *SupplierHandler {
	cfg := CatalogHandlerConfig[*supplier.Supplier, dto.CreateSupplierRequest, dto.UpdateSupplierRequest]{
		Service:    service,
		EntityName: "supplier",
		MapCreateDTO: func(req dto.CreateSupplierRequest) *supplier.Supplier {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateSupplierRequest, existing *supplier.Supplier) *supplier.Supplier {
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO: func(sup *supplier.Supplier) any {
			return dto.FromSupplier(sup)
		},
	}

	return &SupplierHandler{
		CatalogHandler: NewCatalogHandler(base, cfg),
		service:        service,
	}
}

// ListProducts handles GET /catalog/suppliers/:id/products
func (h *SupplierHandler) ListProducts(c *gin.Context) {
	ctx := c.Request.Context()

	supplierID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	filter := supplier.ProductFilter{
		ListFilter: domain.DefaultListFilter(),
		SupplierID: &supplierID,
		CategoryID: h.ParseIDQuery(c, "categoryId"),
		ActiveOnly: c.Query("activeOnly") == "true",
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)

	result, err := h.service.ListProducts(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.SupplierProductResponse, len(result.Items))
	for i, p := range result.Items {
		items[i] = dto.FromSupplierProduct(*p)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// GetProduct handles GET /catalog/supplier-products/:id
func (h *SupplierHandler) GetProduct(c *gin.Context) {
	ctx := c.Request.Context()

	productID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	p, err := h.service.GetProduct(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromSupplierProduct(*p))
}
