package repositories

import (
	"context"
	"fmt"

	"storefront/internal/common"
	"storefront/internal/models"

	"github.com/google/uuid"
)

type BrandRepository interface {
	Create(ctx context.Context, brand *models.Brand) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Brand, error)
	GetBySlug(ctx context.Context, slug string) (*models.Brand, error)
	Update(ctx context.Context, brand *models.Brand) error
	SetLogo(ctx context.Context, id uuid.UUID, logoKey *string) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, search string, limit, offset int) ([]*models.Brand, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
}

type brandRepo struct {
	db DBTX
}

func NewBrandRepo(db DBTX) BrandRepository {
	return &brandRepo{db: db}
}

const brandColumns = `id, name, slug, logo_key, created_at, updated_at`

func scanBrand(row rowScanner) (*models.Brand, error) {
	b := &models.Brand{}
	if err := row.Scan(&b.ID, &b.Name, &b.Slug, &b.LogoKey, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *brandRepo) Create(ctx context.Context, brand *models.Brand) error {
	query := `
		INSERT INTO brands (id, name, slug, logo_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, brand.ID, brand.Name, brand.Slug, brand.LogoKey).Scan(&brand.CreatedAt, &brand.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create brand: %w", common.MapDBError(err))
	}
	return nil
}

func (r *brandRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Brand, error) {
	b, err := scanBrand(r.db.QueryRow(ctx, `SELECT `+brandColumns+` FROM brands WHERE id = $1`, id))
	if err != nil {
		return nil, common.MapDBError(err)
	}
	return b, nil
}

func (r *brandRepo) GetBySlug(ctx context.Context, slug string) (*models.Brand, error) {
	b, err := scanBrand(r.db.QueryRow(ctx, `SELECT `+brandColumns+` FROM brands WHERE slug = $1`, slug))
	if err != nil {
		return nil, common.MapDBError(err)
	}
	return b, nil
}

func (r *brandRepo) Update(ctx context.Context, brand *models.Brand) error {
	query := `
		UPDATE brands
		SET name = $1, slug = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at
	`
	if err := r.db.QueryRow(ctx, query, brand.Name, brand.Slug, brand.ID).Scan(&brand.UpdatedAt); err != nil {
		return common.MapDBError(err)
	}
	return nil
}

func (r *brandRepo) SetLogo(ctx context.Context, id uuid.UUID, logoKey *string) error {
	tag, err := r.db.Exec(ctx, `UPDATE brands SET logo_key = $1, updated_at = NOW() WHERE id = $2`, logoKey, id)
	if err != nil {
		return fmt.Errorf("failed to set brand logo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *brandRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM brands WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete brand: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *brandRepo) List(ctx context.Context, search string, limit, offset int) ([]*models.Brand, error) {
	query := `
		SELECT ` + brandColumns + `
		FROM brands
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		ORDER BY name
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, search, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	defer rows.Close()

	brands := []*models.Brand{}
	for rows.Next() {
		b, err := scanBrand(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan brand: %w", err)
		}
		brands = append(brands, b)
	}
	return brands, rows.Err()
}

func (r *brandRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM brands WHERE slug = $1)`, slug).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check brand slug: %w", err)
	}
	return exists, nil
}
