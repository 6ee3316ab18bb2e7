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

type ReviewInput struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Title  string `json:"title" validate:"required,max=200"`
	Body   string `json:"body" validate:"max=5000"`
}

type ReviewService interface {
	Create(ctx context.Context, productID, userID uuid.UUID, input *ReviewInput) (*models.Review, error)
	ListForProduct(ctx context.Context, productID uuid.UUID, limit, offset int) (*models.ProductReviews, error)
	List(ctx context.Context, filter *models.ReviewFilter) ([]*models.Review, error)
	Update(ctx context.Context, id, userID uuid.UUID, input *ReviewInput) (*models.Review, error)
	Delete(ctx context.Context, id, userID uuid.UUID, isStaff bool) error
	Moderate(ctx context.Context, id uuid.UUID, status models.ReviewStatus) (*models.Review, error)
}

type reviewService struct {
	reviewRepo  repositories.ReviewRepository
	productRepo repositories.ProductRepository
}

func NewReviewService(reviewRepo repositories.ReviewRepository, productRepo repositories.ProductRepository) ReviewService {
	return &reviewService{reviewRepo: reviewRepo, productRepo: productRepo}
}

// Create stores a pending review; a second review of the same product is a conflict.
// Text is stored as written and escaped by whatever renders it.
func (s *reviewService) Create(ctx context.Context, productID, userID uuid.UUID, input *ReviewInput) (*models.Review, error) {
	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	review := &models.Review{
		ID:        uuid.New(),
		ProductID: productID,
		UserID:    userID,
		Rating:    input.Rating,
		Title:     input.Title,
		Body:      input.Body,
		Status:    models.ReviewStatusPending,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, fmt.Errorf("you already reviewed this product: %w", common.ErrConflict)
		}
		return nil, err
	}
	return review, nil
}

// ListForProduct shows approved reviews, newest first, with the rating summary
func (s *reviewService) ListForProduct(ctx context.Context, productID uuid.UUID, limit, offset int) (*models.ProductReviews, error) {
	approved := models.ReviewStatusApproved
	reviews, err := s.reviewRepo.List(ctx, &models.ReviewFilter{
		ProductID: &productID,
		Status:    &approved,
		Ordering:  "-created_at",
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return nil, err
	}
	count, avg, err := s.reviewRepo.RatingSummary(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &models.ProductReviews{ProductID: productID, Count: count, AverageRating: avg, Reviews: reviews}, nil
}

func (s *reviewService) List(ctx context.Context, filter *models.ReviewFilter) ([]*models.Review, error) {
	return s.reviewRepo.List(ctx, filter)
}

// Update lets the author edit; the edit goes back to moderation
func (s *reviewService) Update(ctx context.Context, id, userID uuid.UUID, input *ReviewInput) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.UserID != userID {
		return nil, common.ErrForbidden
	}
	review.Rating = input.Rating
	review.Title = input.Title
	review.Body = input.Body
	review.Status = models.ReviewStatusPending
	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *reviewService) Delete(ctx context.Context, id, userID uuid.UUID, isStaff bool) error {
	review, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !isStaff && review.UserID != userID {
		return common.ErrForbidden
	}
	return s.reviewRepo.Delete(ctx, id)
}

func (s *reviewService) Moderate(ctx context.Context, id uuid.UUID, status models.ReviewStatus) (*models.Review, error) {
	switch status {
	case models.ReviewStatusApproved, models.ReviewStatusRejected, models.ReviewStatusPending:
	default:
		return nil, fmt.Errorf("unknown review status %q: %w", status, common.ErrInvalidInput)
	}
	return s.reviewRepo.SetStatus(ctx, id, status)
}
