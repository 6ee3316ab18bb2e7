package handlers

import (
	"net/http"

	"storefront/internal/common"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CategoryHandlers handles category-related HTTP requests
type CategoryHandlers struct {
	categorySvc services.CategoryService
	logger      *zap.Logger
}

func NewCategoryHandlers(categorySvc services.CategoryService, logger *zap.Logger) *CategoryHandlers {
	return &CategoryHandlers{categorySvc: categorySvc, logger: logger}
}

// CategoryRequest is the create/update payload; an empty slug is derived from the name
type CategoryRequest struct {
	Name        string     `json:"name" validate:"required,max=100"`
	Slug        string     `json:"slug" validate:"max=120"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	ParentID    *uuid.UUID `json:"parent_id"`
}

func (r *CategoryRequest) toModel() *models.Category {
	return &models.Category{
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		ParentID:    r.ParentID,
	}
}

// ListCategories handles GET /categories
func (h *CategoryHandlers) ListCategories(c echo.Context) error {
	limit, offset, err := common.ParseLimitOffset(c)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	ordering, err := common.ParseOrdering(c, "", "name", "-name")
	if err != nil {
		return common.SendValidationError(c, "ordering", err.Error())
	}
	filter := &models.CategoryFilter{
		Search:     c.QueryParam("search"),
		ParentSlug: c.QueryParam("parent"),
		Ordering:   ordering,
		Limit:      limit,
		Offset:     offset,
	}

	categories, err := h.categorySvc.List(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, h.logger, "list categories", "Category", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"categories": categories,
		"limit":      limit,
		"offset":     offset,
	})
}

// GetCategory handles GET /categories/:id
func (h *CategoryHandlers) GetCategory(c echo.Context) error {
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	category, err := h.categorySvc.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.logger, "get category", "Category", err)
	}
	return c.JSON(http.StatusOK, category)
}

// CreateCategory handles POST /categories (staff)
func (h *CategoryHandlers) CreateCategory(c echo.Context) error {
	var req CategoryRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	category := req.toModel()
	if err := h.categorySvc.Create(c.Request().Context(), category); err != nil {
		return respondError(c, h.logger, "create category", "Category", err)
	}
	return c.JSON(http.StatusCreated, category)
}

// UpdateCategory handles PUT /categories/:id (staff)
func (h *CategoryHandlers) UpdateCategory(c echo.Context) error {
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	var req CategoryRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	category := req.toModel()
	category.ID = id
	if err := h.categorySvc.Update(c.Request().Context(), category); err != nil {
		return respondError(c, h.logger, "update category", "Category", err)
	}
	return c.JSON(http.StatusOK, category)
}

// DeleteCategory handles DELETE /categories/:id (staff)
func (h *CategoryHandlers) DeleteCategory(c echo.Context) error {
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	if err := h.categorySvc.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, h.logger, "delete category", "Category", err)
	}
	return c.NoContent(http.StatusNoContent)
}
