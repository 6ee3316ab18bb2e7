package repositories

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/common"
	"storefront/internal/models"

	"github.com/google/uuid"
)

type CartRepository interface {
	Create(ctx context.Context, cart *models.Cart) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	GetLatestByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AttachUser(ctx context.Context, cartID, userID uuid.UUID) error
	AddItem(ctx context.Context, cartID, variantID uuid.UUID, quantity int) error
	SetItemQuantity(ctx context.Context, cartID, variantID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, cartID, variantID uuid.UUID) error
	Clear(ctx context.Context, cartID uuid.UUID) error
	DeleteStaleAnonymous(ctx context.Context, idleSince time.Time) (int64, error)
}

type cartRepo struct {
	db DBTX
}

func NewCartRepo(db DBTX) CartRepository {
	return &cartRepo{db: db}
}

func (r *cartRepo) Create(ctx context.Context, cart *models.Cart) error {
	query := `
		INSERT INTO carts (id, user_id, session_key, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	if err := r.db.QueryRow(ctx, query, cart.ID, cart.UserID, cart.SessionKey).Scan(&cart.CreatedAt, &cart.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create cart: %w", err)
	}
	return nil
}

func (r *cartRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	cart := &models.Cart{}
	query := `SELECT id, user_id, session_key, created_at, updated_at FROM carts WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(&cart.ID, &cart.UserID, &cart.SessionKey, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		return nil, common.MapDBError(err)
	}
	if err := r.loadItems(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *cartRepo) GetLatestByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart := &models.Cart{}
	query := `
		SELECT id, user_id, session_key, created_at, updated_at
		FROM carts
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT 1
	`
	err := r.db.QueryRow(ctx, query, userID).Scan(&cart.ID, &cart.UserID, &cart.SessionKey, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		return nil, common.MapDBError(err)
	}
	if err := r.loadItems(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *cartRepo) loadItems(ctx context.Context, cart *models.Cart) error {
	query := `
		SELECT ci.id, ci.cart_id, ci.variant_id, ci.quantity, v.name, p.name, v.price, ci.added_at
		FROM cart_items ci
		JOIN product_variants v ON v.id = ci.variant_id
		JOIN products p ON p.id = v.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.added_at
	`
	rows, err := r.db.Query(ctx, query, cart.ID)
	if err != nil {
		return fmt.Errorf("failed to load cart items: %w", err)
	}
	defer rows.Close()

	cart.Items = []*models.CartItem{}
	for rows.Next() {
		item := &models.CartItem{}
		if err := rows.Scan(&item.ID, &item.CartID, &item.VariantID, &item.Quantity, &item.VariantName,
			&item.ProductName, &item.UnitPrice, &item.AddedAt); err != nil {
			return fmt.Errorf("failed to scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}
	return rows.Err()
}

func (r *cartRepo) AttachUser(ctx context.Context, cartID, userID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE carts SET user_id = $1, updated_at = NOW() WHERE id = $2`, userID, cartID)
	if err != nil {
		return fmt.Errorf("failed to attach cart: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

// AddItem merges into the existing (cart, variant) line instead of adding a second one
func (r *cartRepo) AddItem(ctx context.Context, cartID, variantID uuid.UUID, quantity int) error {
	query := `
		INSERT INTO cart_items (id, cart_id, variant_id, quantity, added_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (cart_id, variant_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	`
	if _, err := r.db.Exec(ctx, query, uuid.New(), cartID, variantID, quantity); err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	return r.touch(ctx, cartID)
}

func (r *cartRepo) SetItemQuantity(ctx context.Context, cartID, variantID uuid.UUID, quantity int) error {
	tag, err := r.db.Exec(ctx, `UPDATE cart_items SET quantity = $1 WHERE cart_id = $2 AND variant_id = $3`, quantity, cartID, variantID)
	if err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return r.touch(ctx, cartID)
}

func (r *cartRepo) RemoveItem(ctx context.Context, cartID, variantID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1 AND variant_id = $2`, cartID, variantID)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return r.touch(ctx, cartID)
}

func (r *cartRepo) Clear(ctx context.Context, cartID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return r.touch(ctx, cartID)
}

func (r *cartRepo) touch(ctx context.Context, cartID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `UPDATE carts SET updated_at = NOW() WHERE id = $1`, cartID); err != nil {
		return fmt.Errorf("failed to touch cart: %w", err)
	}
	return nil
}

// DeleteStaleAnonymous removes carts with no owner that have been idle since before idleSince
func (r *cartRepo) DeleteStaleAnonymous(ctx context.Context, idleSince time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM carts WHERE user_id IS NULL AND updated_at < $1`, idleSince)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale carts: %w", err)
	}
	return tag.RowsAffected(), nil
}
