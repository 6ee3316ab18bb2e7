package repositories

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/common"
	"storefront/internal/models"

	"github.com/google/uuid"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *models.CategoryFilter) ([]*models.Category, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]*models.Category, error)
	IsDescendant(ctx context.Context, ancestorID, candidateID uuid.UUID) (bool, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
}

type categoryRepo struct {
	db DBTX
}

func NewCategoryRepo(db DBTX) CategoryRepository {
	return &categoryRepo{db: db}
}

const categoryColumns = `c.id, c.name, c.slug, c.description, c.parent_id, c.created_at, c.updated_at`

func scanCategory(row rowScanner) (*models.Category, error) {
	c := &models.Category{}
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ParentID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *categoryRepo) Create(ctx context.Context, category *models.Category) error {
	query := `
		INSERT INTO categories (id, name, slug, description, parent_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, category.ID, category.Name, category.Slug, category.Description, category.ParentID).
		Scan(&category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", common.MapDBError(err))
	}
	return nil
}

func (r *categoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories c WHERE c.id = $1`
	c, err := scanCategory(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, common.MapDBError(err)
	}
	return c, nil
}

func (r *categoryRepo) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories c WHERE c.slug = $1`
	c, err := scanCategory(r.db.QueryRow(ctx, query, slug))
	if err != nil {
		return nil, common.MapDBError(err)
	}
	return c, nil
}

func (r *categoryRepo) Update(ctx context.Context, category *models.Category) error {
	query := `
		UPDATE categories
		SET name = $1, slug = $2, description = $3, parent_id = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query, category.Name, category.Slug, category.Description, category.ParentID, category.ID).
		Scan(&category.UpdatedAt)
	if err != nil {
		return common.MapDBError(err)
	}
	return nil
}

func (r *categoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *categoryRepo) List(ctx context.Context, filter *models.CategoryFilter) ([]*models.Category, error) {
	var conditions []string
	var args []interface{}
	argCount := 0

	if filter.Search != "" {
		argCount++
		conditions = append(conditions, fmt.Sprintf("c.name ILIKE $%d", argCount))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.ParentSlug != "" {
		argCount++
		conditions = append(conditions, fmt.Sprintf("c.parent_id = (SELECT id FROM categories WHERE slug = $%d)", argCount))
		args = append(args, filter.ParentSlug)
	}

	query := `SELECT ` + categoryColumns + ` FROM categories c`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY " + orderClause(filter.Ordering, map[string]string{
		"name":  "c.name ASC",
		"-name": "c.name DESC",
	}, "c.name ASC")

	if filter.Limit > 0 {
		argCount++
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, filter.Limit)
		argCount++
		query += fmt.Sprintf(" OFFSET $%d", argCount)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *categoryRepo) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*models.Category, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM categories c
		JOIN product_categories pc ON pc.category_id = c.id
		WHERE pc.product_id = $1
		ORDER BY c.name
	`
	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list product categories: %w", err)
	}
	defer rows.Close()

	categories := []*models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// IsDescendant reports whether candidateID sits anywhere below ancestorID in the tree
func (r *categoryRepo) IsDescendant(ctx context.Context, ancestorID, candidateID uuid.UUID) (bool, error) {
	query := `
		WITH RECURSIVE subtree AS (
			SELECT id FROM categories WHERE parent_id = $1
			UNION
			SELECT c.id FROM categories c JOIN subtree s ON c.parent_id = s.id
		)
		SELECT EXISTS (SELECT 1 FROM subtree WHERE id = $2)
	`
	var found bool
	if err := r.db.QueryRow(ctx, query, ancestorID, candidateID).Scan(&found); err != nil {
		return false, fmt.Errorf("failed to walk category tree: %w", err)
	}
	return found, nil
}

func (r *categoryRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE slug = $1)`, slug).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check category slug: %w", err)
	}
	return exists, nil
}
