package repositories

import (
	"context"
	"fmt"

	"storefront/internal/common"
	"storefront/internal/models"

	"github.com/google/uuid"
)

type ProductImageRepository interface {
	Create(ctx context.Context, image *models.ProductImage) error
	GetByID(ctx context.Context, productID, id uuid.UUID) (*models.ProductImage, error)
	Delete(ctx context.Context, productID, id uuid.UUID) error
	SetPrimary(ctx context.Context, productID, id uuid.UUID) error
	ListByProductIDs(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID][]*models.ProductImage, error)
}

type productImageRepo struct {
	db DBTX
}

func NewProductImageRepo(db DBTX) ProductImageRepository {
	return &productImageRepo{db: db}
}

// Create stores the image; the first image of a product, or one flagged primary, becomes the sole primary
func (r *productImageRepo) Create(ctx context.Context, image *models.ProductImage) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var existing int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM product_images WHERE product_id = $1`, image.ProductID).Scan(&existing); err != nil {
		return fmt.Errorf("failed to count product images: %w", err)
	}
	if existing == 0 {
		image.IsPrimary = true
	}
	if image.IsPrimary && existing > 0 {
		if _, err := tx.Exec(ctx, `UPDATE product_images SET is_primary = FALSE WHERE product_id = $1 AND is_primary`, image.ProductID); err != nil {
			return fmt.Errorf("failed to clear primary image: %w", err)
		}
	}

	query := `
		INSERT INTO product_images (id, product_id, object_key, alt_text, is_primary, sort_order, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at
	`
	err = tx.QueryRow(ctx, query, image.ID, image.ProductID, image.ObjectKey, image.AltText, image.IsPrimary, image.SortOrder).
		Scan(&image.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create product image: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *productImageRepo) GetByID(ctx context.Context, productID, id uuid.UUID) (*models.ProductImage, error) {
	query := `
		SELECT id, product_id, object_key, alt_text, is_primary, sort_order, created_at
		FROM product_images
		WHERE id = $1 AND product_id = $2
	`
	img := &models.ProductImage{}
	err := r.db.QueryRow(ctx, query, id, productID).
		Scan(&img.ID, &img.ProductID, &img.ObjectKey, &img.AltText, &img.IsPrimary, &img.SortOrder, &img.CreatedAt)
	if err != nil {
		return nil, common.MapDBError(err)
	}
	return img, nil
}

func (r *productImageRepo) Delete(ctx context.Context, productID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM product_images WHERE id = $1 AND product_id = $2`, id, productID)
	if err != nil {
		return fmt.Errorf("failed to delete product image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *productImageRepo) SetPrimary(ctx context.Context, productID, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE product_images SET is_primary = FALSE WHERE product_id = $1 AND is_primary`, productID); err != nil {
		return fmt.Errorf("failed to clear primary image: %w", err)
	}
	tag, err := tx.Exec(ctx, `UPDATE product_images SET is_primary = TRUE WHERE id = $1 AND product_id = $2`, id, productID)
	if err != nil {
		return fmt.Errorf("failed to set primary image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return tx.Commit(ctx)
}

func (r *productImageRepo) ListByProductIDs(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID][]*models.ProductImage, error) {
	grouped := make(map[uuid.UUID][]*models.ProductImage, len(productIDs))
	if len(productIDs) == 0 {
		return grouped, nil
	}
	query := `
		SELECT id, product_id, object_key, alt_text, is_primary, sort_order, created_at
		FROM product_images
		WHERE product_id = ANY($1)
		ORDER BY is_primary DESC, sort_order ASC, created_at ASC
	`
	rows, err := r.db.Query(ctx, query, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list product images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		img := &models.ProductImage{}
		if err := rows.Scan(&img.ID, &img.ProductID, &img.ObjectKey, &img.AltText, &img.IsPrimary, &img.SortOrder, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product image: %w", err)
		}
		grouped[img.ProductID] = append(grouped[img.ProductID], img)
	}
	return grouped, rows.Err()
}
