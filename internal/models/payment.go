package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSucceeded PaymentStatus = "SUCCEEDED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

const PaymentProviderStripe = "Stripe"

type Payment struct {
	ID            uuid.UUID              `json:"id" db:"id"`
	OrderID       uuid.UUID              `json:"order_id" db:"order_id"`
	Provider      string                 `json:"provider" db:"provider"`
	Status        PaymentStatus          `json:"status" db:"status"`
	Amount        decimal.Decimal        `json:"amount" db:"amount"`
	TransactionID string                 `json:"transaction_id" db:"transaction_id"`
	Metadata      map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	CreatedAt     time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at" db:"updated_at"`
}
