package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"storeroom/internal/core/id"
)

// DocumentService defines the interface that services must implement for
// BaseDocumentHandler.
type DocumentService[T any] interface {
	GetByID(ctx context.Context, docID id.ID) (T, error)
	GetByNumber(ctx context.Context, number string) (T, error)
	Create(ctx context.Context, doc T) error
	Update(ctx context.Context, doc T) error
	Delete(ctx context.Context, docID id.ID) error
}

// BaseDocumentHandler provides generic HTTP handlers for document entities.
// Listing stays with the concrete handlers: every document type has its own
// filter set.
type BaseDocumentHandler[T any, CreateDTO any, UpdateDTO any] struct {
	*BaseHandler
	service    DocumentService[T]
	entityName string

	// Mapper functions
	mapCreateDTO func(dto CreateDTO) T
	mapUpdateDTO func(dto UpdateDTO, existing T) T
	mapToDTO     func(doc T) any
}

// BaseDocumentHandlerConfig configures the document handler.
type BaseDocumentHandlerConfig[T any, CreateDTO any, UpdateDTO any] struct {
	Service      DocumentService[T]
	EntityName   string
	MapCreateDTO func(dto CreateDTO) T
	MapUpdateDTO func(dto UpdateDTO, existing T) T
	MapToDTO     func(doc T) any
}

// NewBaseDocumentHandler creates a new base document handler.
func NewBaseDocumentHandler[T any, CreateDTO any, UpdateDTO any](
	base *BaseHandler,
	cfg BaseDocumentHandlerConfig[T, CreateDTO, UpdateDTO],
) *BaseDocumentHandler[T, CreateDTO, UpdateDTO] {
	return &BaseDocumentHandler[T, CreateDTO, UpdateDTO]{
		BaseHandler:  base,
		service:      cfg.Service,
		entityName:   cfg.EntityName,
		mapCreateDTO: cfg.MapCreateDTO,
		mapUpdateDTO: cfg.MapUpdateDTO,
		mapToDTO:     cfg.MapToDTO,
	}
}

// Get handles GET /{entity}/:id
func (h *BaseDocumentHandler[T, CreateDTO, UpdateDTO]) Get(c *gin.Context) {
	ctx := c.Request.Context()

	docID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.GetByID(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, h.mapToDTO(doc))
}

// GetByNumber handles GET /{entity}/by-number/:number
func (h *BaseDocumentHandler[T, CreateDTO, UpdateDTO]) GetByNumber(c *gin.Context) {
	ctx := c.Request.Context()

	doc, err := h.service.GetByNumber(ctx, c.Param("number"))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, h.mapToDTO(doc))
}

// Create handles POST /{entity}
func (h *BaseDocumentHandler[T, CreateDTO, UpdateDTO]) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req CreateDTO
	if !h.BindJSON(c, &req) {
		return
	}

	doc := h.mapCreateDTO(req)

	if err := h.service.Create(ctx, doc); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.mapToDTO(doc))
}

// Update handles PUT /{entity}/:id
func (h *BaseDocumentHandler[T, CreateDTO, UpdateDTO]) Update(c *gin.Context) {
	ctx := c.Request.Context()

	docID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateDTO
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.GetByID(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	doc = h.mapUpdateDTO(req, doc)

	if err := h.service.Update(ctx, doc); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, h.mapToDTO(doc))
}

// Delete handles DELETE /{entity}/:id
func (h *BaseDocumentHandler[T, CreateDTO, UpdateDTO]) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	docID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, docID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}
