package repositories

import (
	"context"
	"fmt"

	"storefront/internal/common"
	"storefront/internal/models"

	"github.com/google/uuid"
)

type VariantRepository interface {
	Create(ctx context.Context, variant *models.ProductVariant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
	Update(ctx context.Context, variant *models.ProductVariant) error
	Delete(ctx context.Context, productID, id uuid.UUID) error
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]*models.ProductVariant, error)
	ListByProductIDs(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID][]*models.ProductVariant, error)
	ListLowStock(ctx context.Context, threshold, limit int) ([]*models.LowStockVariant, error)
}

type variantRepo struct {
	db DBTX
}

func NewVariantRepo(db DBTX) VariantRepository {
	return &variantRepo{db: db}
}

const variantColumns = `v.id, v.product_id, v.sku, v.name, v.price, v.compare_price, v.stock, v.weight,
	v.dimensions, v.attributes, p.name, v.created_at, v.updated_at`

func scanVariant(row rowScanner) (*models.ProductVariant, error) {
	v := &models.ProductVariant{}
	if err := row.Scan(&v.ID, &v.ProductID, &v.SKU, &v.Name, &v.Price, &v.ComparePrice, &v.Stock, &v.Weight,
		&v.Dimensions, &v.Attributes, &v.ProductName, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	return v, nil
}

func (r *variantRepo) Create(ctx context.Context, variant *models.ProductVariant) error {
	query := `
		INSERT INTO product_variants (id, product_id, sku, name, price, compare_price, stock, weight, dimensions, attributes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, variant.ID, variant.ProductID, variant.SKU, variant.Name, variant.Price,
		variant.ComparePrice, variant.Stock, variant.Weight, variant.Dimensions, variant.Attributes).
		Scan(&variant.CreatedAt, &variant.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create variant: %w", common.MapDBError(err))
	}
	return nil
}

func (r *variantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	query := `
		SELECT ` + variantColumns + `
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.id = $1
	`
	v, err := scanVariant(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, common.MapDBError(err)
	}
	return v, nil
}

func (r *variantRepo) Update(ctx context.Context, variant *models.ProductVariant) error {
	query := `
		UPDATE product_variants
		SET sku = $1, name = $2, price = $3, compare_price = $4, stock = $5, weight = $6, dimensions = $7, attributes = $8, updated_at = NOW()
		WHERE id = $9 AND product_id = $10
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query, variant.SKU, variant.Name, variant.Price, variant.ComparePrice, variant.Stock,
		variant.Weight, variant.Dimensions, variant.Attributes, variant.ID, variant.ProductID).Scan(&variant.UpdatedAt)
	if err != nil {
		return common.MapDBError(err)
	}
	return nil
}

func (r *variantRepo) Delete(ctx context.Context, productID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM product_variants WHERE id = $1 AND product_id = $2`, id, productID)
	if err != nil {
		return fmt.Errorf("failed to delete variant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *variantRepo) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*models.ProductVariant, error) {
	grouped, err := r.ListByProductIDs(ctx, []uuid.UUID{productID})
	if err != nil {
		return nil, err
	}
	if variants, ok := grouped[productID]; ok {
		return variants, nil
	}
	return []*models.ProductVariant{}, nil
}

// ListByProductIDs loads the variants of several products in one round trip
func (r *variantRepo) ListByProductIDs(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID][]*models.ProductVariant, error) {
	grouped := make(map[uuid.UUID][]*models.ProductVariant, len(productIDs))
	if len(productIDs) == 0 {
		return grouped, nil
	}
	query := `
		SELECT ` + variantColumns + `
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.product_id = ANY($1)
		ORDER BY v.price, v.name
	`
	rows, err := r.db.Query(ctx, query, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		grouped[v.ProductID] = append(grouped[v.ProductID], v)
	}
	return grouped, rows.Err()
}

func (r *variantRepo) ListLowStock(ctx context.Context, threshold, limit int) ([]*models.LowStockVariant, error) {
	query := `
		SELECT v.id, v.product_id, v.sku, p.name || ' - ' || v.name, v.stock
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.stock < $1 AND p.is_active
		ORDER BY v.stock ASC, v.sku
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock variants: %w", err)
	}
	defer rows.Close()

	variants := []*models.LowStockVariant{}
	for rows.Next() {
		v := &models.LowStockVariant{}
		if err := rows.Scan(&v.VariantID, &v.ProductID, &v.SKU, &v.DisplayName, &v.Stock); err != nil {
			return nil, fmt.Errorf("failed to scan low stock variant: %w", err)
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}
