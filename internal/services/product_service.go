package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"storefront/internal/caching"
	"storefront/internal/common"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	productCacheTTL   = 10 * time.Minute
	latestProductsLen = 8
)

// ImageUpload describes one multipart image
type ImageUpload struct {
	Filename    string
	ContentType string
	Reader      io.Reader
	Size        int64
	AltText     *string
	IsPrimary   bool
	SortOrder   int
}

type ProductService interface {
	List(ctx context.Context, filter *models.ProductFilter, page, pageSize int) (*models.ProductPage, error)
	Latest(ctx context.Context) ([]*models.Product, error)
	GetBySlug(ctx context.Context, slug string, includeInactive bool) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error

	CreateVariant(ctx context.Context, variant *models.ProductVariant) error
	UpdateVariant(ctx context.Context, variant *models.ProductVariant) error
	DeleteVariant(ctx context.Context, id uuid.UUID) error

	UploadImage(ctx context.Context, productID uuid.UUID, upload *ImageUpload) (*models.ProductImage, error)
	DeleteImage(ctx context.Context, productID, imageID uuid.UUID) error
	SetPrimaryImage(ctx context.Context, productID, imageID uuid.UUID) (*models.ProductImage, error)
}

type productService struct {
	productRepo  repositories.ProductRepository
	variantRepo  repositories.VariantRepository
	imageRepo    repositories.ProductImageRepository
	categoryRepo repositories.CategoryRepository
	brandRepo    repositories.BrandRepository
	storage      StorageService
	cacheService caching.CacheService
	logger       *zap.Logger
}

func NewProductService(
	productRepo repositories.ProductRepository,
	variantRepo repositories.VariantRepository,
	imageRepo repositories.ProductImageRepository,
	categoryRepo repositories.CategoryRepository,
	brandRepo repositories.BrandRepository,
	storage StorageService,
	cacheService caching.CacheService,
	logger *zap.Logger,
) ProductService {
	return &productService{
		productRepo:  productRepo,
		variantRepo:  variantRepo,
		imageRepo:    imageRepo,
		categoryRepo: categoryRepo,
		brandRepo:    brandRepo,
		storage:      storage,
		cacheService: cacheService,
		logger:       logger,
	}
}

// List returns one page of active products with variants and images attached
func (s *productService) List(ctx context.Context, filter *models.ProductFilter, page, pageSize int) (*models.ProductPage, error) {
	filter.ActiveOnly = true
	filter.Search = common.SanitizeSearchQuery(filter.Search)
	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize

	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := s.attachMedia(ctx, products); err != nil {
		return nil, err
	}
	return &models.ProductPage{Count: total, Page: page, PageSize: pageSize, Results: products}, nil
}

func (s *productService) Latest(ctx context.Context) ([]*models.Product, error) {
	products, _, err := s.productRepo.List(ctx, &models.ProductFilter{
		ActiveOnly: true,
		Ordering:   models.ProductOrderNewest,
		Limit:      latestProductsLen,
	})
	if err != nil {
		return nil, err
	}
	if err := s.attachMedia(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetBySlug serves from cache when possible; inactive products are hidden unless includeInactive
func (s *productService) GetBySlug(ctx context.Context, slug string, includeInactive bool) (*models.Product, error) {
	product, err := s.cacheService.GetProduct(ctx, slug)
	if err != nil {
		s.logger.Warn("product cache read failed", zap.String("slug", slug), zap.Error(err))
	}

	if product == nil {
		product, err = s.productRepo.GetBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		if err := s.attachMedia(ctx, []*models.Product{product}); err != nil {
			return nil, err
		}
		product.Categories, err = s.categoryRepo.ListByProduct(ctx, product.ID)
		if err != nil {
			return nil, err
		}
		if err := s.cacheService.SetProduct(ctx, product, productCacheTTL); err != nil {
			s.logger.Warn("product cache write failed", zap.String("slug", slug), zap.Error(err))
		}
	}

	if !product.IsActive && !includeInactive {
		return nil, common.ErrNotFound
	}
	return product, nil
}

func (s *productService) Create(ctx context.Context, product *models.Product) error {
	if err := s.checkReferences(ctx, product); err != nil {
		return err
	}
	slug, err := resolveSlug(ctx, product.Slug, product.Name, s.productRepo.SlugExists)
	if err != nil {
		return err
	}
	product.ID = uuid.New()
	product.Slug = slug
	if product.CategoryIDs == nil {
		product.CategoryIDs = []uuid.UUID{}
	}
	return s.productRepo.Create(ctx, product)
}

// Update replaces the category set when CategoryIDs is non-nil
func (s *productService) Update(ctx context.Context, product *models.Product) error {
	existing, err := s.productRepo.GetByID(ctx, product.ID)
	if err != nil {
		return err
	}
	if err := s.checkReferences(ctx, product); err != nil {
		return err
	}

	switch {
	case product.Slug == "" && product.Name == existing.Name:
		product.Slug = existing.Slug
	case product.Slug == "" || product.Slug != existing.Slug:
		slug, err := resolveSlug(ctx, product.Slug, product.Name, s.productRepo.SlugExists)
		if err != nil {
			return err
		}
		product.Slug = slug
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return err
	}
	s.invalidate(ctx, existing.Slug)
	if product.Slug != existing.Slug {
		s.invalidate(ctx, product.Slug)
	}
	return nil
}

// Delete removes the product and then its stored images
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	existing, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	images, err := s.imageRepo.ListByProductIDs(ctx, []uuid.UUID{id})
	if err != nil {
		return err
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, existing.Slug)
	for _, img := range images[id] {
		s.removeObject(ctx, img.ObjectKey)
	}
	return nil
}

func (s *productService) CreateVariant(ctx context.Context, variant *models.ProductVariant) error {
	if err := validateVariant(variant); err != nil {
		return err
	}
	product, err := s.productRepo.GetByID(ctx, variant.ProductID)
	if err != nil {
		return err
	}
	variant.ID = uuid.New()
	variant.SKU = strings.TrimSpace(variant.SKU)
	if err := s.variantRepo.Create(ctx, variant); err != nil {
		return err
	}
	variant.ProductName = product.Name
	s.invalidate(ctx, product.Slug)
	return nil
}

func (s *productService) UpdateVariant(ctx context.Context, variant *models.ProductVariant) error {
	if err := validateVariant(variant); err != nil {
		return err
	}
	existing, err := s.variantRepo.GetByID(ctx, variant.ID)
	if err != nil {
		return err
	}
	variant.ProductID = existing.ProductID
	variant.ProductName = existing.ProductName
	variant.SKU = strings.TrimSpace(variant.SKU)
	if err := s.variantRepo.Update(ctx, variant); err != nil {
		return err
	}
	s.invalidateByID(ctx, existing.ProductID)
	return nil
}

func (s *productService) DeleteVariant(ctx context.Context, id uuid.UUID) error {
	existing, err := s.variantRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.variantRepo.Delete(ctx, existing.ProductID, id); err != nil {
		return err
	}
	s.invalidateByID(ctx, existing.ProductID)
	return nil
}

// UploadImage stores the object first so a failed insert can clean it up
func (s *productService) UploadImage(ctx context.Context, productID uuid.UUID, upload *ImageUpload) (*models.ProductImage, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	key := ProductImageKey(productID, upload.Filename)
	if err := s.storage.Upload(ctx, key, upload.Reader, upload.Size, upload.ContentType); err != nil {
		return nil, fmt.Errorf("failed to upload image to storage: %w", err)
	}

	image := &models.ProductImage{
		ID:        uuid.New(),
		ProductID: productID,
		ObjectKey: key,
		AltText:   upload.AltText,
		IsPrimary: upload.IsPrimary,
		SortOrder: upload.SortOrder,
	}
	if err := s.imageRepo.Create(ctx, image); err != nil {
		s.removeObject(ctx, key)
		return nil, err
	}

	s.presignImage(ctx, image)
	s.invalidate(ctx, product.Slug)
	return image, nil
}

func (s *productService) DeleteImage(ctx context.Context, productID, imageID uuid.UUID) error {
	image, err := s.imageRepo.GetByID(ctx, productID, imageID)
	if err != nil {
		return err
	}
	if err := s.imageRepo.Delete(ctx, productID, imageID); err != nil {
		return err
	}
	s.removeObject(ctx, image.ObjectKey)
	s.invalidateByID(ctx, productID)
	return nil
}

func (s *productService) SetPrimaryImage(ctx context.Context, productID, imageID uuid.UUID) (*models.ProductImage, error) {
	if err := s.imageRepo.SetPrimary(ctx, productID, imageID); err != nil {
		return nil, err
	}
	image, err := s.imageRepo.GetByID(ctx, productID, imageID)
	if err != nil {
		return nil, err
	}
	s.presignImage(ctx, image)
	s.invalidateByID(ctx, productID)
	return image, nil
}

// attachMedia loads variants and images for all products in two queries
func (s *productService) attachMedia(ctx context.Context, products []*models.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}

	variants, err := s.variantRepo.ListByProductIDs(ctx, ids)
	if err != nil {
		return err
	}
	images, err := s.imageRepo.ListByProductIDs(ctx, ids)
	if err != nil {
		return err
	}

	for _, p := range products {
		p.Variants = variants[p.ID]
		if p.Variants == nil {
			p.Variants = []*models.ProductVariant{}
		}
		p.Images = images[p.ID]
		if p.Images == nil {
			p.Images = []*models.ProductImage{}
		}
		for _, img := range p.Images {
			s.presignImage(ctx, img)
		}
	}
	return nil
}

func (s *productService) checkReferences(ctx context.Context, product *models.Product) error {
	if product.BrandID != nil {
		if _, err := s.brandRepo.GetByID(ctx, *product.BrandID); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return fmt.Errorf("brand %s does not exist: %w", *product.BrandID, common.ErrInvalidInput)
			}
			return err
		}
	}
	for _, id := range product.CategoryIDs {
		if _, err := s.categoryRepo.GetByID(ctx, id); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return fmt.Errorf("category %s does not exist: %w", id, common.ErrInvalidInput)
			}
			return err
		}
	}
	return nil
}

func validateVariant(v *models.ProductVariant) error {
	if !v.Price.IsPositive() {
		return fmt.Errorf("price must be greater than zero: %w", common.ErrInvalidInput)
	}
	if v.ComparePrice != nil && v.ComparePrice.LessThan(v.Price) {
		return fmt.Errorf("compare_price cannot be below price: %w", common.ErrInvalidInput)
	}
	if v.Stock < 0 {
		return fmt.Errorf("stock cannot be negative: %w", common.ErrInvalidInput)
	}
	return nil
}

func (s *productService) presignImage(ctx context.Context, image *models.ProductImage) {
	url, err := s.storage.PresignedURL(ctx, image.ObjectKey, presignExpiry)
	if err != nil {
		s.logger.Warn("failed to presign product image", zap.String("image_id", image.ID.String()), zap.Error(err))
		return
	}
	image.ImageURL = url
}

func (s *productService) invalidate(ctx context.Context, slug string) {
	if err := s.cacheService.DeleteProduct(ctx, slug); err != nil {
		s.logger.Warn("product cache invalidation failed", zap.String("slug", slug), zap.Error(err))
	}
}

func (s *productService) invalidateByID(ctx context.Context, productID uuid.UUID) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		s.logger.Warn("product cache invalidation skipped", zap.String("product_id", productID.String()), zap.Error(err))
		return
	}
	s.invalidate(ctx, product.Slug)
}

func (s *productService) removeObject(ctx context.Context, key string) {
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to delete object", zap.String("key", key), zap.Error(err))
	}
}
