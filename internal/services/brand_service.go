package services

import (
	"context"
	"io"
	"time"

	"storefront/internal/common"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const presignExpiry = time.Hour

type BrandService interface {
	Create(ctx context.Context, brand *models.Brand) error
	Get(ctx context.Context, id uuid.UUID) (*models.Brand, error)
	Update(ctx context.Context, brand *models.Brand) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, search string, limit, offset int) ([]*models.Brand, error)
	UploadLogo(ctx context.Context, id uuid.UUID, filename, contentType string, reader io.Reader, size int64) (*models.Brand, error)
}

type brandService struct {
	brandRepo repositories.BrandRepository
	storage   StorageService
	logger    *zap.Logger
}

func NewBrandService(brandRepo repositories.BrandRepository, storage StorageService, logger *zap.Logger) BrandService {
	return &brandService{brandRepo: brandRepo, storage: storage, logger: logger}
}

func (s *brandService) Create(ctx context.Context, brand *models.Brand) error {
	slug, err := resolveSlug(ctx, brand.Slug, brand.Name, s.brandRepo.SlugExists)
	if err != nil {
		return err
	}
	brand.ID = uuid.New()
	brand.Slug = slug
	return s.brandRepo.Create(ctx, brand)
}

func (s *brandService) Get(ctx context.Context, id uuid.UUID) (*models.Brand, error) {
	brand, err := s.brandRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.presignLogo(ctx, brand)
	return brand, nil
}

func (s *brandService) Update(ctx context.Context, brand *models.Brand) error {
	existing, err := s.brandRepo.GetByID(ctx, brand.ID)
	if err != nil {
		return err
	}
	switch {
	case brand.Slug == "" && brand.Name == existing.Name:
		brand.Slug = existing.Slug
	case brand.Slug == "" || brand.Slug != existing.Slug:
		slug, err := resolveSlug(ctx, brand.Slug, brand.Name, s.brandRepo.SlugExists)
		if err != nil {
			return err
		}
		brand.Slug = slug
	}
	brand.LogoKey = existing.LogoKey
	if err := s.brandRepo.Update(ctx, brand); err != nil {
		return err
	}
	s.presignLogo(ctx, brand)
	return nil
}

func (s *brandService) Delete(ctx context.Context, id uuid.UUID) error {
	brand, err := s.brandRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.brandRepo.Delete(ctx, id); err != nil {
		return err
	}
	if brand.LogoKey != nil {
		s.removeObject(ctx, *brand.LogoKey)
	}
	return nil
}

func (s *brandService) List(ctx context.Context, search string, limit, offset int) ([]*models.Brand, error) {
	brands, err := s.brandRepo.List(ctx, common.SanitizeSearchQuery(search), limit, offset)
	if err != nil {
		return nil, err
	}
	for _, b := range brands {
		s.presignLogo(ctx, b)
	}
	return brands, nil
}

// UploadLogo stores the new logo before swapping the key, then drops the old object
func (s *brandService) UploadLogo(ctx context.Context, id uuid.UUID, filename, contentType string, reader io.Reader, size int64) (*models.Brand, error) {
	brand, err := s.brandRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key := BrandLogoKey(id, filename)
	if err := s.storage.Upload(ctx, key, reader, size, contentType); err != nil {
		return nil, err
	}
	if err := s.brandRepo.SetLogo(ctx, id, &key); err != nil {
		s.removeObject(ctx, key)
		return nil, err
	}

	if brand.LogoKey != nil {
		s.removeObject(ctx, *brand.LogoKey)
	}
	brand.LogoKey = &key
	s.presignLogo(ctx, brand)
	return brand, nil
}

func (s *brandService) presignLogo(ctx context.Context, brand *models.Brand) {
	if brand.LogoKey == nil {
		return
	}
	url, err := s.storage.PresignedURL(ctx, *brand.LogoKey, presignExpiry)
	if err != nil {
		s.logger.Warn("failed to presign brand logo", zap.String("brand_id", brand.ID.String()), zap.Error(err))
		return
	}
	brand.LogoURL = url
}

func (s *brandService) removeObject(ctx context.Context, key string) {
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to delete object", zap.String("key", key), zap.Error(err))
	}
}
