package repositories

import (
	"context"
	"fmt"

	"storefront/internal/models"
)

type ContactRepository interface {
	Create(ctx context.Context, contact *models.Contact) error
}

type contactRepo struct {
	db DBTX
}

func NewContactRepo(db DBTX) ContactRepository {
	return &contactRepo{db: db}
}

func (r *contactRepo) Create(ctx context.Context, contact *models.Contact) error {
	query := `
		INSERT INTO contacts (id, name, email, subject, message, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query, contact.ID, contact.Name, contact.Email, contact.Subject, contact.Message).
		Scan(&contact.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save contact message: %w", err)
	}
	return nil
}
