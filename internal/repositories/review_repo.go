package repositories

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/common"
	"storefront/internal/models"

	"github.com/google/uuid"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	Update(ctx context.Context, review *models.Review) error
	SetStatus(ctx context.Context, id uuid.UUID, status models.ReviewStatus) (*models.Review, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *models.ReviewFilter) ([]*models.Review, error)
	RatingSummary(ctx context.Context, productID uuid.UUID) (int, float64, error)
}

type reviewRepo struct {
	db DBTX
}

func NewReviewRepo(db DBTX) ReviewRepository {
	return &reviewRepo{db: db}
}

const reviewColumns = `id, product_id, user_id, rating, title, body, status, created_at, updated_at`

func scanReview(row rowScanner) (*models.Review, error) {
	rv := &models.Review{}
	if err := row.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Rating, &rv.Title, &rv.Body, &rv.Status,
		&rv.CreatedAt, &rv.UpdatedAt); err != nil {
		return nil, err
	}
	return rv, nil
}

func (r *reviewRepo) Create(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO reviews (id, product_id, user_id, rating, title, body, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, review.ID, review.ProductID, review.UserID, review.Rating, review.Title,
		review.Body, review.Status).Scan(&review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", common.MapDBError(err))
	}
	return nil
}

func (r *reviewRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	rv, err := scanReview(r.db.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id))
	if err != nil {
		return nil, common.MapDBError(err)
	}
	return rv, nil
}

func (r *reviewRepo) Update(ctx context.Context, review *models.Review) error {
	query := `
		UPDATE reviews
		SET rating = $1, title = $2, body = $3, status = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query, review.Rating, review.Title, review.Body, review.Status, review.ID).Scan(&review.UpdatedAt)
	if err != nil {
		return common.MapDBError(err)
	}
	return nil
}

func (r *reviewRepo) SetStatus(ctx context.Context, id uuid.UUID, status models.ReviewStatus) (*models.Review, error) {
	query := `UPDATE reviews SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING ` + reviewColumns
	rv, err := scanReview(r.db.QueryRow(ctx, query, status, id))
	if err != nil {
		return nil, common.MapDBError(err)
	}
	return rv, nil
}

func (r *reviewRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *reviewRepo) List(ctx context.Context, filter *models.ReviewFilter) ([]*models.Review, error) {
	var conditions []string
	var args []interface{}
	argCount := 0

	if filter.ProductID != nil {
		argCount++
		conditions = append(conditions, fmt.Sprintf("product_id = $%d", argCount))
		args = append(args, *filter.ProductID)
	}
	if filter.Rating != nil {
		argCount++
		conditions = append(conditions, fmt.Sprintf("rating = $%d", argCount))
		args = append(args, *filter.Rating)
	}
	if filter.Status != nil {
		argCount++
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCount))
		args = append(args, *filter.Status)
	}

	query := `SELECT ` + reviewColumns + ` FROM reviews`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY " + orderClause(filter.Ordering, map[string]string{
		"created_at":  "created_at ASC",
		"-created_at": "created_at DESC",
		"rating":      "rating ASC, created_at DESC",
		"-rating":     "rating DESC, created_at DESC",
	}, "created_at DESC")

	argCount++
	query += fmt.Sprintf(" LIMIT $%d", argCount)
	args = append(args, filter.Limit)
	argCount++
	query += fmt.Sprintf(" OFFSET $%d", argCount)
	args = append(args, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*models.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

// RatingSummary counts approved reviews of a product and averages their rating
func (r *reviewRepo) RatingSummary(ctx context.Context, productID uuid.UUID) (int, float64, error) {
	query := `
		SELECT COUNT(*), COALESCE(AVG(rating), 0)::float8
		FROM reviews
		WHERE product_id = $1 AND status = $2
	`
	var count int
	var avg float64
	if err := r.db.QueryRow(ctx, query, productID, models.ReviewStatusApproved).Scan(&count, &avg); err != nil {
		return 0, 0, fmt.Errorf("failed to summarize ratings: %w", err)
	}
	return count, avg, nil
}
