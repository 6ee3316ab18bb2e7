package handlers

import (
	"net/http"
	"strconv"

	"storefront/internal/common"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ReviewHandlers struct {
	reviewSvc services.ReviewService
	logger    *zap.Logger
}

func NewReviewHandlers(reviewSvc services.ReviewService, logger *zap.Logger) *ReviewHandlers {
	return &ReviewHandlers{reviewSvc: reviewSvc, logger: logger}
}

// CreateReview handles POST /products/:id/reviews
func (h *ReviewHandlers) CreateReview(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}
	productID, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	var req services.ReviewInput
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	review, err := h.reviewSvc.Create(c.Request().Context(), productID, userID, &req)
	if err != nil {
		return respondError(c, h.logger, "create review", "Product", err)
	}
	return c.JSON(http.StatusCreated, review)
}

// ListProductReviews handles GET /products/:id/reviews (approved only)
func (h *ReviewHandlers) ListProductReviews(c echo.Context) error {
	productID, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	limit, offset, err := common.ParseLimitOffset(c)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	reviews, err := h.reviewSvc.ListForProduct(c.Request().Context(), productID, limit, offset)
	if err != nil {
		return respondError(c, h.logger, "list product reviews", "Product", err)
	}
	return c.JSON(http.StatusOK, reviews)
}

// ListReviews handles GET /reviews (staff)
func (h *ReviewHandlers) ListReviews(c echo.Context) error {
	limit, offset, err := common.ParseLimitOffset(c)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	ordering, err := common.ParseOrdering(c, "", "created_at", "-created_at", "rating", "-rating")
	if err != nil {
		return common.SendValidationError(c, "ordering", err.Error())
	}
	filter := &models.ReviewFilter{Ordering: ordering, Limit: limit, Offset: offset}
	if filter.ProductID, err = common.ValidateOptionalUUID(c.QueryParam("product"), "product"); err != nil {
		return common.SendValidationError(c, "product", err.Error())
	}
	if raw := c.QueryParam("rating"); raw != "" {
		rating, err := strconv.Atoi(raw)
		if err != nil || rating < 1 || rating > 5 {
			return common.SendValidationError(c, "rating", "must be between 1 and 5")
		}
		filter.Rating = &rating
	}
	if raw := c.QueryParam("status"); raw != "" {
		status := models.ReviewStatus(raw)
		switch status {
		case models.ReviewStatusPending, models.ReviewStatusApproved, models.ReviewStatusRejected:
			filter.Status = &status
		default:
			return common.SendValidationError(c, "status", "must be one of pending, approved, rejected")
		}
	}

	reviews, err := h.reviewSvc.List(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, h.logger, "list reviews", "Review", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"reviews": reviews,
		"limit":   limit,
		"offset":  offset,
	})
}

// UpdateReview handles PATCH /reviews/:id (author only)
func (h *ReviewHandlers) UpdateReview(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	var req services.ReviewInput
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	review, err := h.reviewSvc.Update(c.Request().Context(), id, userID, &req)
	if err != nil {
		return respondError(c, h.logger, "update review", "Review", err)
	}
	return c.JSON(http.StatusOK, review)
}

// DeleteReview handles DELETE /reviews/:id (author or staff)
func (h *ReviewHandlers) DeleteReview(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	if err := h.reviewSvc.Delete(c.Request().Context(), id, userID, common.IsStaffFromContext(c.Request().Context())); err != nil {
		return respondError(c, h.logger, "delete review", "Review", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ApproveReview handles POST /reviews/:id/approve (staff)
func (h *ReviewHandlers) ApproveReview(c echo.Context) error {
	return h.moderate(c, models.ReviewStatusApproved)
}

// RejectReview handles POST /reviews/:id/reject (staff)
func (h *ReviewHandlers) RejectReview(c echo.Context) error {
	return h.moderate(c, models.ReviewStatusRejected)
}

func (h *ReviewHandlers) moderate(c echo.Context, status models.ReviewStatus) error {
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	review, err := h.reviewSvc.Moderate(c.Request().Context(), id, status)
	if err != nil {
		return respondError(c, h.logger, "moderate review", "Review", err)
	}
	return c.JSON(http.StatusOK, review)
}
