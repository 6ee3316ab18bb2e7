package repositories

import (
	"context"
	"fmt"

	"storefront/internal/common"
	"storefront/internal/models"

	"github.com/google/uuid"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*models.Payment, error)
	MarkSucceeded(ctx context.Context, transactionID string) (*models.Payment, error)
	MarkFailed(ctx context.Context, transactionID string) (*models.Payment, error)
}

type paymentRepo struct {
	db DBTX
}

func NewPaymentRepo(db DBTX) PaymentRepository {
	return &paymentRepo{db: db}
}

const paymentColumns = `id, order_id, provider, status, amount, transaction_id, metadata, created_at, updated_at`

func scanPayment(row rowScanner) (*models.Payment, error) {
	p := &models.Payment{}
	if err := row.Scan(&p.ID, &p.OrderID, &p.Provider, &p.Status, &p.Amount, &p.TransactionID, &p.Metadata,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *paymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (id, order_id, provider, status, amount, transaction_id, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, payment.ID, payment.OrderID, payment.Provider, payment.Status, payment.Amount,
		payment.TransactionID, payment.Metadata).Scan(&payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", common.MapDBError(err))
	}
	return nil
}

func (r *paymentRepo) GetByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE transaction_id = $1`, transactionID))
	if err != nil {
		return nil, common.MapDBError(err)
	}
	return p, nil
}

func (r *paymentRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*models.Payment, error) {
	rows, err := r.db.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_id = $1 ORDER BY created_at DESC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	payments := []*models.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// MarkSucceeded flips the payment to SUCCEEDED and its order to PROCESSING together.
// Re-applying it to an already succeeded payment is allowed.
func (r *paymentRepo) MarkSucceeded(ctx context.Context, transactionID string) (*models.Payment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE payments
		SET status = $1, updated_at = NOW()
		WHERE transaction_id = $2
		RETURNING ` + paymentColumns
	payment, err := scanPayment(tx.QueryRow(ctx, query, models.PaymentStatusSucceeded, transactionID))
	if err != nil {
		return nil, common.MapDBError(err)
	}

	_, err = tx.Exec(ctx, `UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`,
		models.OrderStatusProcessing, payment.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark order processing: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit payment update: %w", err)
	}
	return payment, nil
}

func (r *paymentRepo) MarkFailed(ctx context.Context, transactionID string) (*models.Payment, error) {
	query := `
		UPDATE payments
		SET status = $1, updated_at = NOW()
		WHERE transaction_id = $2
		RETURNING ` + paymentColumns
	payment, err := scanPayment(r.db.QueryRow(ctx, query, models.PaymentStatusFailed, transactionID))
	if err != nil {
		return nil, common.MapDBError(err)
	}
	return payment, nil
}
