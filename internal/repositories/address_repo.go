package repositories

import (
	"context"
	"fmt"

	"storefront/internal/common"
	"storefront/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type AddressRepository interface {
	Create(ctx context.Context, address *models.Address) error
	Update(ctx context.Context, address *models.Address) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Address, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Address, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	SetDefault(ctx context.Context, userID, id uuid.UUID) error
}

type addressRepo struct {
	db DBTX
}

func NewAddressRepo(db DBTX) AddressRepository {
	return &addressRepo{db: db}
}

const addressColumns = `id, user_id, label, street, city, state, postal_code, country, is_default, created_at, updated_at`

func scanAddress(row rowScanner) (*models.Address, error) {
	a := &models.Address{}
	if err := row.Scan(&a.ID, &a.UserID, &a.Label, &a.Street, &a.City, &a.State, &a.PostalCode, &a.Country,
		&a.IsDefault, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return a, nil
}

// clearDefault unsets the user's current default so at most one address holds the flag
func clearDefault(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	_, err := tx.Exec(ctx, `UPDATE addresses SET is_default = FALSE, updated_at = NOW() WHERE user_id = $1 AND is_default`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear default address: %w", err)
	}
	return nil
}

func pointUserDefault(ctx context.Context, tx pgx.Tx, userID, addressID uuid.UUID) error {
	_, err := tx.Exec(ctx, `UPDATE users SET default_address_id = $1, updated_at = NOW() WHERE id = $2`, addressID, userID)
	if err != nil {
		return fmt.Errorf("failed to set user default address: %w", err)
	}
	return nil
}

func (r *addressRepo) Create(ctx context.Context, address *models.Address) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if address.IsDefault {
		if err := clearDefault(ctx, tx, address.UserID); err != nil {
			return err
		}
	}

	query := `
		INSERT INTO addresses (id, user_id, label, street, city, state, postal_code, country, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err = tx.QueryRow(ctx, query, address.ID, address.UserID, address.Label, address.Street, address.City, address.State,
		address.PostalCode, address.Country, address.IsDefault).Scan(&address.CreatedAt, &address.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create address: %w", err)
	}

	if address.IsDefault {
		if err := pointUserDefault(ctx, tx, address.UserID, address.ID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *addressRepo) Update(ctx context.Context, address *models.Address) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if address.IsDefault {
		if err := clearDefault(ctx, tx, address.UserID); err != nil {
			return err
		}
	}

	query := `
		UPDATE addresses
		SET label = $1, street = $2, city = $3, state = $4, postal_code = $5, country = $6, is_default = $7, updated_at = NOW()
		WHERE id = $8 AND user_id = $9
		RETURNING updated_at
	`
	err = tx.QueryRow(ctx, query, address.Label, address.Street, address.City, address.State, address.PostalCode,
		address.Country, address.IsDefault, address.ID, address.UserID).Scan(&address.UpdatedAt)
	if err != nil {
		return common.MapDBError(err)
	}

	if address.IsDefault {
		if err := pointUserDefault(ctx, tx, address.UserID, address.ID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *addressRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE id = $1 AND user_id = $2`
	a, err := scanAddress(r.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		return nil, common.MapDBError(err)
	}
	return a, nil
}

func (r *addressRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Address, error) {
	query := `
		SELECT ` + addressColumns + `
		FROM addresses
		WHERE user_id = $1
		ORDER BY is_default DESC, created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	defer rows.Close()

	addresses := []*models.Address{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, a)
	}
	return addresses, rows.Err()
}

func (r *addressRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *addressRepo) SetDefault(ctx context.Context, userID, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := clearDefault(ctx, tx, userID); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `UPDATE addresses SET is_default = TRUE, updated_at = NOW() WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to set default address: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	if err := pointUserDefault(ctx, tx, userID, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
