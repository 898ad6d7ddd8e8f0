package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
	"storeroom/internal/domain"
	domainFilter "storeroom/internal/domain/filter"
	"storeroom/internal/infrastructure/http/v1/dto"
)

// CatalogService defines what a catalog handler needs from its service.
// Concrete services (category, supplier) satisfy it through the embedded
// base service, overriding the methods that need table-part handling.
type CatalogService[T any] interface {
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error)
	GetByID(ctx context.Context, entityID id.ID) (T, error)
	Create(ctx context.Context, entity T) error
	Update(ctx context.Context, entity T) error
	Delete(ctx context.Context, entityID id.ID) error
	SetDeletionMark(ctx context.Context, entityID id.ID, marked bool) error
	GetTree(ctx context.Context, rootID *id.ID) ([]T, error)
}

// CatalogHandler provides generic HTTP handlers for catalog entities.
type CatalogHandler[T any, CreateDTO any, UpdateDTO any] struct {
	*BaseHandler
	service    CatalogService[T]
	entityName string

	// Mapper functions
	mapCreateDTO func(dto CreateDTO) T
	mapUpdateDTO func(dto UpdateDTO, existing T) T
	mapToDTO     func(entity T) any
}

// CatalogHandlerConfig configures the catalog handler.
type CatalogHandlerConfig[T any, CreateDTO any, UpdateDTO any] struct {
	Service      CatalogService[T]
	EntityName   string
	MapCreateDTO func(dto CreateDTO) T
	MapUpdateDTO func(dto UpdateDTO, existing T) T
	MapToDTO     func(entity T) any
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler[T any, CreateDTO any, UpdateDTO any](
	base *BaseHandler,
	cfg CatalogHandlerConfig[T, CreateDTO, UpdateDTO],
) *CatalogHandler[T, CreateDTO, UpdateDTO] {
	return &CatalogHandler[T, CreateDTO, UpdateDTO]{
		BaseHandler:  base,
		service:      cfg.Service,
		entityName:   cfg.EntityName,
		mapCreateDTO: cfg.MapCreateDTO,
		mapUpdateDTO: cfg.MapUpdateDTO,
		mapToDTO:     cfg.MapToDTO,
	}
}

// List handles GET /{entity} - list with filtering and pagination.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) List(c *gin.Context) {
	ctx := c.Request.Context()

	// Parse filter from query params
	filter := domain.DefaultListFilter()
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "name")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	if parentID := c.Query("parentId"); parentID != "" {
		filter.ParentID = &parentID
	}

	if isFolder := c.Query("isFolder"); isFolder != "" {
		val := isFolder == "true"
		filter.IsFolder = &val
	}

	// JSON-encoded advanced filter
	filterJSON := c.Query("filter")
	if filterJSON != "" {
		var advFilters []domainFilter.Item
		if err := json.Unmarshal([]byte(filterJSON), &advFilters); err != nil {
			h.Error(c, apperror.NewValidation("invalid filter format (json expected)"))
			return
		}
		filter.AdvancedFilters = advFilters
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	// Map entities to DTOs
	items := make([]any, len(result.Items))
	for i, item := range result.Items {
		items[i] = h.mapToDTO(item)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /{entity}/:id - get single entity.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) Get(c *gin.Context) {
	ctx := c.Request.Context()

	entityID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	entity, err := h.service.GetByID(ctx, entityID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, h.mapToDTO(entity))
}

// Create handles POST /{entity} - create new entity.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req CreateDTO
	if !h.BindJSON(c, &req) {
		return
	}

	entity := h.mapCreateDTO(req)

	if err := h.service.Create(ctx, entity); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.mapToDTO(entity))
}

// Update handles PUT /{entity}/:id - update existing entity.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) Update(c *gin.Context) {
	ctx := c.Request.Context()

	entityID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateDTO
	if !h.BindJSON(c, &req) {
		return
	}

	// Get existing entity
	existing, err := h.service.GetByID(ctx, entityID)
	if err != nil {
		h.Error(c, err)
		return
	}

	// Map update DTO onto existing entity
	updated := h.mapUpdateDTO(req, existing)

	if err := h.service.Update(ctx, updated); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, h.mapToDTO(updated))
}

// Delete handles DELETE /{entity}/:id - soft delete entity.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	entityID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, entityID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// SetDeletionMark handles POST /{entity}/:id/deletion-mark
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) SetDeletionMark(c *gin.Context) {
	ctx := c.Request.Context()

	entityID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.SetDeletionMarkRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetDeletionMark(ctx, entityID, req.Marked); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "deletion mark updated")
}

// GetTree handles GET /{entity}/tree - get hierarchical structure.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) GetTree(c *gin.Context) {
	ctx := c.Request.Context()

	var rootID *id.ID
	if rootStr := c.Query("rootId"); rootStr != "" {
		parsed, err := id.Parse(rootStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid rootId format"))
			return
		}
		rootID = &parsed
	}

	items, err := h.service.GetTree(ctx, rootID)
	if err != nil {
		h.Error(c, err)
		return
	}

	// Map to DTOs
	dtos := make([]any, len(items))
	for i, item := range items {
		dtos[i] = h.mapToDTO(item)
	}

	c.JSON(http.StatusOK, gin.H{"items": dtos})
}
