package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"storeroom/internal/core/actor"
	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
	"storeroom/internal/infrastructure/http/v1/dto"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers error on Gin context and aborts request.
// Actual JSON response is produced by middleware.ErrorHandler (single source of truth).
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseIntQuery parses integer query parameter with default value.
func (h *BaseHandler) ParseIntQuery(c *gin.Context, key string, defaultVal int) int {
	val := c.Query(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// ParseIDParam parses the :id path parameter. Registers a validation error
// and returns false when the value is not a valid id.
func (h *BaseHandler) ParseIDParam(c *gin.Context, name string) (id.ID, bool) {
	parsed, err := id.Parse(c.Param(name))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid "+name+" format"))
		return id.Nil(), false
	}
	return parsed, true
}

// ParseIDQuery parses an optional id query parameter, nil when absent.
func (h *BaseHandler) ParseIDQuery(c *gin.Context, key string) *id.ID {
	val := c.Query(key)
	if val == "" {
		return nil
	}
	parsed, err := id.Parse(val)
	if err != nil {
		return nil
	}
	return &parsed
}

// ParseTimeQuery parses an optional RFC3339 query parameter, nil when absent.
func (h *BaseHandler) ParseTimeQuery(c *gin.Context, key string) *time.Time {
	val := c.Query(key)
	if val == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &parsed
}

// GetActor extracts the authenticated actor from request context.
func (h *BaseHandler) GetActor(c *gin.Context) *actor.Context {
	return actor.From(c.Request.Context())
}

// Created sends 201 response with ID.
func (h *BaseHandler) Created(c *gin.Context, id string) {
	c.JSON(http.StatusCreated, dto.IDResponse{ID: id})
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Success sends success response.
func (h *BaseHandler) Success(c *gin.Context, message string) {
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: message})
}
