package handlers

import (
	"net/http"
	"strconv"

	"storefront/internal/common"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultProductPageSize = 12
	maxProductPageSize     = 100
)

// ProductHandlers handles products, their variants and images
type ProductHandlers struct {
	productSvc services.ProductService
	logger     *zap.Logger
}

func NewProductHandlers(productSvc services.ProductService, logger *zap.Logger) *ProductHandlers {
	return &ProductHandlers{productSvc: productSvc, logger: logger}
}

type ProductRequest struct {
	Name        string      `json:"name" validate:"required,max=200"`
	Slug        string      `json:"slug" validate:"max=220"`
	BrandID     *uuid.UUID  `json:"brand_id"`
	Description *string     `json:"description" validate:"omitempty,max=10000"`
	IsActive    *bool       `json:"is_active"`
	CategoryIDs []uuid.UUID `json:"category_ids"`
}

func (r *ProductRequest) toModel() *models.Product {
	product := &models.Product{
		Name:        r.Name,
		Slug:        r.Slug,
		BrandID:     r.BrandID,
		Description: r.Description,
		IsActive:    true,
		CategoryIDs: r.CategoryIDs,
	}
	if r.IsActive != nil {
		product.IsActive = *r.IsActive
	}
	return product
}

// ListProducts handles GET /products
func (h *ProductHandlers) ListProducts(c echo.Context) error {
	ordering, err := common.ParseOrdering(c, models.ProductOrderNewest,
		models.ProductOrderNewest, models.ProductOrderOldest,
		models.ProductOrderPriceAsc, models.ProductOrderPriceDesc, models.ProductOrderName)
	if err != nil {
		return common.SendValidationError(c, "ordering", err.Error())
	}
	filter := &models.ProductFilter{
		Search:       c.QueryParam("search"),
		CategorySlug: c.QueryParam("category"),
		Ordering:     ordering,
	}

	for _, p := range []struct {
		name string
		dst  **decimal.Decimal
	}{{"min_price", &filter.MinPrice}, {"max_price", &filter.MaxPrice}} {
		raw := c.QueryParam(p.name)
		if raw == "" {
			continue
		}
		price, err := decimal.NewFromString(raw)
		if err != nil || price.IsNegative() {
			return common.SendValidationError(c, p.name, "must be a non-negative number")
		}
		*p.dst = &price
	}

	if brand := c.QueryParam("brand"); brand != "" {
		if id, err := uuid.Parse(brand); err == nil {
			filter.BrandID = &id
		} else {
			filter.BrandSlug = brand
		}
	}

	page, pageSize := common.ParsePage(c, defaultProductPageSize, maxProductPageSize)
	result, err := h.productSvc.List(c.Request().Context(), filter, page, pageSize)
	if err != nil {
		return respondError(c, h.logger, "list products", "Product", err)
	}
	return c.JSON(http.StatusOK, result)
}

// LatestProducts handles GET /products/latest
func (h *ProductHandlers) LatestProducts(c echo.Context) error {
	products, err := h.productSvc.Latest(c.Request().Context())
	if err != nil {
		return respondError(c, h.logger, "list latest products", "Product", err)
	}
	return c.JSON(http.StatusOK, products)
}

// GetProduct handles GET /products/:slug; staff also see inactive products
func (h *ProductHandlers) GetProduct(c echo.Context) error {
	isStaff := common.IsStaffFromContext(c.Request().Context())
	product, err := h.productSvc.GetBySlug(c.Request().Context(), c.Param("slug"), isStaff)
	if err != nil {
		return respondError(c, h.logger, "get product", "Product", err)
	}
	return c.JSON(http.StatusOK, product)
}

// CreateProduct handles POST /products (staff)
func (h *ProductHandlers) CreateProduct(c echo.Context) error {
	var req ProductRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	product := req.toModel()
	if err := h.productSvc.Create(c.Request().Context(), product); err != nil {
		return respondError(c, h.logger, "create product", "Product", err)
	}
	h.logger.Info("product created", zap.String("product_id", product.ID.String()), zap.String("slug", product.Slug))
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles PUT /products/:id (staff); category_ids replaces the category set when present
func (h *ProductHandlers) UpdateProduct(c echo.Context) error {
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	var req ProductRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	product := req.toModel()
	product.ID = id
	if err := h.productSvc.Update(c.Request().Context(), product); err != nil {
		return respondError(c, h.logger, "update product", "Product", err)
	}
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct handles DELETE /products/:id (staff)
func (h *ProductHandlers) DeleteProduct(c echo.Context) error {
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	if err := h.productSvc.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, h.logger, "delete product", "Product", err)
	}
	return c.NoContent(http.StatusNoContent)
}

type VariantRequest struct {
	SKU          string                 `json:"sku" validate:"required,max=64"`
	Name         string                 `json:"name" validate:"required,max=100"`
	Price        decimal.Decimal        `json:"price"`
	ComparePrice *decimal.Decimal       `json:"compare_price"`
	Stock        int                    `json:"stock" validate:"gte=0"`
	Weight       *decimal.Decimal       `json:"weight"`
	Dimensions   map[string]interface{} `json:"dimensions"`
	Attributes   map[string]interface{} `json:"attributes"`
}

func (r *VariantRequest) toModel() *models.ProductVariant {
	return &models.ProductVariant{
		SKU:          r.SKU,
		Name:         r.Name,
		Price:        r.Price,
		ComparePrice: r.ComparePrice,
		Stock:        r.Stock,
		Weight:       r.Weight,
		Dimensions:   r.Dimensions,
		Attributes:   r.Attributes,
	}
}

// CreateVariant handles POST /products/:id/variants (staff)
func (h *ProductHandlers) CreateVariant(c echo.Context) error {
	productID, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	var req VariantRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	variant := req.toModel()
	variant.ProductID = productID
	if err := h.productSvc.CreateVariant(c.Request().Context(), variant); err != nil {
		return respondError(c, h.logger, "create variant", "Product", err)
	}
	return c.JSON(http.StatusCreated, variant)
}

// UpdateVariant handles PUT /variants/:id (staff)
func (h *ProductHandlers) UpdateVariant(c echo.Context) error {
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	var req VariantRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	variant := req.toModel()
	variant.ID = id
	if err := h.productSvc.UpdateVariant(c.Request().Context(), variant); err != nil {
		return respondError(c, h.logger, "update variant", "Variant", err)
	}
	return c.JSON(http.StatusOK, variant)
}

// DeleteVariant handles DELETE /variants/:id (staff)
func (h *ProductHandlers) DeleteVariant(c echo.Context) error {
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	if err := h.productSvc.DeleteVariant(c.Request().Context(), id); err != nil {
		return respondError(c, h.logger, "delete variant", "Variant", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadImage handles POST /products/:id/images (staff, multipart: file, alt_text, is_primary, order)
func (h *ProductHandlers) UploadImage(c echo.Context) error {
	productID, ok, err := pathUUID(c, "id")
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

	upload := &services.ImageUpload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get(echo.HeaderContentType),
		Size:        fileHeader.Size,
	}
	if alt := c.FormValue("alt_text"); alt != "" {
		upload.AltText = &alt
	}
	if raw := c.FormValue("is_primary"); raw != "" {
		if upload.IsPrimary, err = strconv.ParseBool(raw); err != nil {
			return common.SendValidationError(c, "is_primary", "must be a boolean")
		}
	}
	if raw := c.FormValue("order"); raw != "" {
		if upload.SortOrder, err = strconv.Atoi(raw); err != nil || upload.SortOrder < 0 {
			return common.SendValidationError(c, "order", "must be a non-negative integer")
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		return common.SendClientError(c, "Could not read uploaded file")
	}
	defer file.Close()
	upload.Reader = file

	image, err := h.productSvc.UploadImage(c.Request().Context(), productID, upload)
	if err != nil {
		return respondError(c, h.logger, "upload product image", "Product", err)
	}
	return c.JSON(http.StatusCreated, image)
}

// DeleteImage handles DELETE /products/:id/images/:image_id (staff)
func (h *ProductHandlers) DeleteImage(c echo.Context) error {
	productID, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	imageID, ok, err := pathUUID(c, "image_id")
	if !ok {
		return err
	}
	if err := h.productSvc.DeleteImage(c.Request().Context(), productID, imageID); err != nil {
		return respondError(c, h.logger, "delete product image", "Image", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SetPrimaryImage handles POST /products/:id/images/:image_id/primary (staff)
func (h *ProductHandlers) SetPrimaryImage(c echo.Context) error {
	productID, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	imageID, ok, err := pathUUID(c, "image_id")
	if !ok {
		return err
	}
	image, err := h.productSvc.SetPrimaryImage(c.Request().Context(), productID, imageID)
	if err != nil {
		return respondError(c, h.logger, "set primary image", "Image", err)
	}
	return c.JSON(http.StatusOK, image)
}
