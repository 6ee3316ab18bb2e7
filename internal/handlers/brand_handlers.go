package handlers

import (
	"net/http"

	"storefront/internal/common"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const maxUploadBytes = 10 << 20

type BrandHandlers struct {
	brandSvc services.BrandService
	logger   *zap.Logger
}

func NewBrandHandlers(brandSvc services.BrandService, logger *zap.Logger) *BrandHandlers {
	return &BrandHandlers{brandSvc: brandSvc, logger: logger}
}

type BrandRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Slug string `json:"slug" validate:"max=120"`
}

// ListBrands handles GET /brands
func (h *BrandHandlers) ListBrands(c echo.Context) error {
	limit, offset, err := common.ParseLimitOffset(c)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	brands, err := h.brandSvc.List(c.Request().Context(), c.QueryParam("search"), limit, offset)
	if err != nil {
		return respondError(c, h.logger, "list brands", "Brand", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"brands": brands,
		"limit":  limit,
		"offset": offset,
	})
}

// CreateBrand handles POST /brands (staff)
func (h *BrandHandlers) CreateBrand(c echo.Context) error {
	var req BrandRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	brand := &models.Brand{Name: req.Name, Slug: req.Slug}
	if err := h.brandSvc.Create(c.Request().Context(), brand); err != nil {
		return respondError(c, h.logger, "create brand", "Brand", err)
	}
	return c.JSON(http.StatusCreated, brand)
}

// UpdateBrand handles PUT /brands/:id (staff)
func (h *BrandHandlers) UpdateBrand(c echo.Context) error {
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	var req BrandRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	brand := &models.Brand{ID: id, Name: req.Name, Slug: req.Slug}
	if err := h.brandSvc.Update(c.Request().Context(), brand); err != nil {
		return respondError(c, h.logger, "update brand", "Brand", err)
	}
	return c.JSON(http.StatusOK, brand)
}

// DeleteBrand handles DELETE /brands/:id (staff)
func (h *BrandHandlers) DeleteBrand(c echo.Context) error {
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	if err := h.brandSvc.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, h.logger, "delete brand", "Brand", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadLogo handles POST /brands/:id/logo (staff, multipart field "file")
func (h *BrandHandlers) UploadLogo(c echo.Context) error {
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return common.SendValidationError(c, "file", "An image file is required")
	}
	if fileHeader.Size > maxUploadBytes {
		return common.SendValidationError(c, "file", "File exceeds the 10MB limit")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return common.SendClientError(c, "Could not read uploaded file")
	}
	defer file.Close()

	brand, err := h.brandSvc.UploadLogo(c.Request().Context(), id, fileHeader.Filename, fileHeader.Header.Get(echo.HeaderContentType), file, fileHeader.Size)
	if err != nil {
		return respondError(c, h.logger, "upload brand logo", "Brand", err)
	}
	return c.JSON(http.StatusOK, brand)
}
