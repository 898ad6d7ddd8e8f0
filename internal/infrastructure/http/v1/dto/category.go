package dto

import (
	"storeroom/internal/core/entity"
	"storeroom/internal/domain/catalogs/category"
)

// --- Request DTOs ---

// CreateCategoryRequest represents a request to create a category.
type CreateCategoryRequest struct {
	Code        string            `json:"code"`
	Name        string            `json:"name" binding:"required"`
	Description string            `json:"description,omitempty"`
	ParentID    *string           `json:"parentId,omitempty"`
	IsFolder    bool              `json:"isFolder,omitempty"`
	Attributes  entity.Attributes `json:"attributes,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreateCategoryRequest) ToEntity() *category.Category {
	c := category.NewCategory(r.Code, r.Name)
	if r.Description != "" {
		c.Description = &r.Description
	}
	c.ParentID = r.ParentID
	c.IsFolder = r.IsFolder
	if r.Attributes != nil {
		c.Attributes = r.Attributes
	}
	return c
}

// UpdateCategoryRequest represents a request to update a category.
type UpdateCategoryRequest struct {
	Code        *string           `json:"code,omitempty"`
	Name        *string           `json:"name,omitempty"`
	Description *string           `json:"description,omitempty"`
	ParentID    *string           `json:"parentId,omitempty"`
	IsFolder    *bool             `json:"isFolder,omitempty"`
	Attributes  entity.Attributes `json:"attributes,omitempty"`
	Version     int               `json:"version" binding:"required,min=1"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateCategoryRequest) ApplyTo(c *category.Category) {
	if r.Code != nil {
		c.Code = *r.Code
	}
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.Description != nil {
		c.Description = r.Description
	}
	if r.ParentID != nil {
		c.ParentID = r.ParentID
	}
	if r.IsFolder != nil {
		c.IsFolder = *r.IsFolder
	}
	if r.Attributes != nil {
		c.Attributes = r.Attributes
	}
	c.Version = r.Version
}

// --- Response DTOs ---

// CategoryResponse represents a category in API responses.
type CategoryResponse struct {
	CatalogResponse
	Description *string `json:"description,omitempty"`
}

// FromCategory converts domain entity to response DTO.
func FromCategory(c *category.Category) *CategoryResponse {
	return &CategoryResponse{
		CatalogResponse: FromCatalog(c.Catalog),
		Description:     c.Description,
	}
}
