package repositories

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/common"
	"storefront/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *models.ProductFilter) ([]*models.Product, int, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
}

type productRepo struct {
	db DBTX
}

func NewProductRepo(db DBTX) ProductRepository {
	return &productRepo{db: db}
}

const productColumns = `p.id, p.name, p.slug, p.brand_id, p.description, p.is_active,
	ARRAY(SELECT pc.category_id FROM product_categories pc WHERE pc.product_id = p.id) AS category_ids,
	p.created_at, p.updated_at`

func scanProduct(row rowScanner) (*models.Product, error) {
	p := &models.Product{}
	if err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.BrandID, &p.Description, &p.IsActive, &p.CategoryIDs,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if p.CategoryIDs == nil {
		p.CategoryIDs = []uuid.UUID{}
	}
	return p, nil
}

func replaceProductCategories(ctx context.Context, tx pgx.Tx, productID uuid.UUID, categoryIDs []uuid.UUID) error {
	if _, err := tx.Exec(ctx, `DELETE FROM product_categories WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("failed to clear product categories: %w", err)
	}
	for _, categoryID := range categoryIDs {
		_, err := tx.Exec(ctx, `INSERT INTO product_categories (product_id, category_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			productID, categoryID)
		if err != nil {
			return fmt.Errorf("failed to link category %s: %w", categoryID, err)
		}
	}
	return nil
}

func (r *productRepo) Create(ctx context.Context, product *models.Product) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO products (id, name, slug, brand_id, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err = tx.QueryRow(ctx, query, product.ID, product.Name, product.Slug, product.BrandID, product.Description, product.IsActive).
		Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", common.MapDBError(err))
	}
	if err := replaceProductCategories(ctx, tx, product.ID, product.CategoryIDs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *productRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products p WHERE p.id = $1`, id))
	if err != nil {
		return nil, common.MapDBError(err)
	}
	return p, nil
}

func (r *productRepo) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products p WHERE p.slug = $1`, slug))
	if err != nil {
		return nil, common.MapDBError(err)
	}
	return p, nil
}

func (r *productRepo) Update(ctx context.Context, product *models.Product) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE products
		SET name = $1, slug = $2, brand_id = $3, description = $4, is_active = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`
	err = tx.QueryRow(ctx, query, product.Name, product.Slug, product.BrandID, product.Description, product.IsActive, product.ID).
		Scan(&product.UpdatedAt)
	if err != nil {
		return common.MapDBError(err)
	}
	if product.CategoryIDs != nil {
		if err := replaceProductCategories(ctx, tx, product.ID, product.CategoryIDs); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

// List returns one page of products plus the total number of matches
func (r *productRepo) List(ctx context.Context, filter *models.ProductFilter) ([]*models.Product, int, error) {
	var conditions []string
	var args []interface{}
	argCount := 0

	if filter.ActiveOnly {
		conditions = append(conditions, "p.is_active")
	}
	if filter.Search != "" {
		argCount++
		conditions = append(conditions, fmt.Sprintf("(p.name ILIKE $%d OR p.description ILIKE $%d)", argCount, argCount))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.MinPrice != nil {
		argCount++
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM product_variants v WHERE v.product_id = p.id AND v.price >= $%d)", argCount))
		args = append(args, *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		argCount++
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM product_variants v WHERE v.product_id = p.id AND v.price <= $%d)", argCount))
		args = append(args, *filter.MaxPrice)
	}
	if filter.BrandID != nil {
		argCount++
		conditions = append(conditions, fmt.Sprintf("p.brand_id = $%d", argCount))
		args = append(args, *filter.BrandID)
	}
	if filter.BrandSlug != "" {
		argCount++
		conditions = append(conditions, fmt.Sprintf("p.brand_id = (SELECT id FROM brands WHERE slug = $%d)", argCount))
		args = append(args, filter.BrandSlug)
	}
	if filter.CategorySlug != "" {
		argCount++
		conditions = append(conditions, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM product_categories pc JOIN categories c ON c.id = pc.category_id
			WHERE pc.product_id = p.id AND c.slug = $%d)`, argCount))
		args = append(args, filter.CategorySlug)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products p`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	minPrice := "(SELECT MIN(v.price) FROM product_variants v WHERE v.product_id = p.id)"
	query := `SELECT ` + productColumns + ` FROM products p` + where
	query += " ORDER BY " + orderClause(filter.Ordering, map[string]string{
		models.ProductOrderNewest:    "p.created_at DESC",
		models.ProductOrderOldest:    "p.created_at ASC",
		models.ProductOrderPriceAsc:  minPrice + " ASC NULLS LAST",
		models.ProductOrderPriceDesc: minPrice + " DESC NULLS LAST",
		models.ProductOrderName:      "p.name ASC",
	}, "p.created_at DESC") + ", p.id"

	argCount++
	query += fmt.Sprintf(" LIMIT $%d", argCount)
	args = append(args, filter.Limit)
	argCount++
	query += fmt.Sprintf(" OFFSET $%d", argCount)
	args = append(args, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func (r *productRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE slug = $1)`, slug).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check product slug: %w", err)
	}
	return exists, nil
}
