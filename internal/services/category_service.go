package services

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/common"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/google/uuid"
)

var ErrCategoryCycle = errors.New("category cannot be its own ancestor")

type CategoryService interface {
	Create(ctx context.Context, category *models.Category) error
	Get(ctx context.Context, id uuid.UUID) (*models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *models.CategoryFilter) ([]*models.Category, error)
}

type categoryService struct {
	categoryRepo repositories.CategoryRepository
}

func NewCategoryService(categoryRepo repositories.CategoryRepository) CategoryService {
	return &categoryService{categoryRepo: categoryRepo}
}

func (s *categoryService) Create(ctx context.Context, category *models.Category) error {
	if category.ParentID != nil {
		if _, err := s.categoryRepo.GetByID(ctx, *category.ParentID); err != nil {
			return parentLookupError(err)
		}
	}
	slug, err := resolveSlug(ctx, category.Slug, category.Name, s.categoryRepo.SlugExists)
	if err != nil {
		return err
	}
	category.ID = uuid.New()
	category.Slug = slug
	return s.categoryRepo.Create(ctx, category)
}

func (s *categoryService) Get(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return s.categoryRepo.GetByID(ctx, id)
}

// Update rejects moving a category under itself or one of its descendants
func (s *categoryService) Update(ctx context.Context, category *models.Category) error {
	existing, err := s.categoryRepo.GetByID(ctx, category.ID)
	if err != nil {
		return err
	}

	if category.ParentID != nil {
		if *category.ParentID == category.ID {
			return ErrCategoryCycle
		}
		if _, err := s.categoryRepo.GetByID(ctx, *category.ParentID); err != nil {
			return parentLookupError(err)
		}
		below, err := s.categoryRepo.IsDescendant(ctx, category.ID, *category.ParentID)
		if err != nil {
			return err
		}
		if below {
			return ErrCategoryCycle
		}
	}

	switch {
	case category.Slug == "" && category.Name == existing.Name:
		category.Slug = existing.Slug
	case category.Slug == "" || category.Slug != existing.Slug:
		slug, err := resolveSlug(ctx, category.Slug, category.Name, s.categoryRepo.SlugExists)
		if err != nil {
			return err
		}
		category.Slug = slug
	}
	return s.categoryRepo.Update(ctx, category)
}

func (s *categoryService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.categoryRepo.Delete(ctx, id)
}

func (s *categoryService) List(ctx context.Context, filter *models.CategoryFilter) ([]*models.Category, error) {
	filter.Search = common.SanitizeSearchQuery(filter.Search)
	return s.categoryRepo.List(ctx, filter)
}

func parentLookupError(err error) error {
	if errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("parent category does not exist: %w", common.ErrInvalidInput)
	}
	return err
}
