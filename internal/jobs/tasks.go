package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
)

// Task type definitions
const (
	TypeEmailConfirmation      = "email:confirmation"
	TypeEmailPasswordReset     = "email:password_reset"
	TypeEmailContact           = "email:contact"
	TypeEmailOrderConfirmation = "email:order_confirmation"
	TypeEmailLowStock          = "email:low_stock"
)

// Enqueuer is the part of *asynq.Client the application needs
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueue submits the task at most once: asynq never retries it
func Enqueue(ctx context.Context, q Enqueuer, task *asynq.Task) error {
	if _, err := q.EnqueueContext(ctx, task, asynq.MaxRetry(0)); err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", task.Type(), err)
	}
	return nil
}

// AccountEmailPayload backs confirmation and password reset emails
type AccountEmailPayload struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	Link      string `json:"link"`
}

type ContactEmailPayload struct {
	To      string `json:"to"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type OrderConfirmationPayload struct {
	OrderID uuid.UUID       `json:"order_id"`
	Email   string          `json:"email"`
	Total   decimal.Decimal `json:"total"`
}

type LowStockLine struct {
	SKU         string `json:"sku"`
	DisplayName string `json:"display_name"`
	Stock       int    `json:"stock"`
}

type LowStockPayload struct {
	To        string         `json:"to"`
	Threshold int            `json:"threshold"`
	Variants  []LowStockLine `json:"variants"`
}

func newJSONTask(taskType string, payload interface{}) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, data), nil
}

func NewConfirmationEmailTask(email, firstName, link string) (*asynq.Task, error) {
	return newJSONTask(TypeEmailConfirmation, AccountEmailPayload{Email: email, FirstName: firstName, Link: link})
}

func NewPasswordResetEmailTask(email, firstName, link string) (*asynq.Task, error) {
	return newJSONTask(TypeEmailPasswordReset, AccountEmailPayload{Email: email, FirstName: firstName, Link: link})
}

func NewContactEmailTask(payload ContactEmailPayload) (*asynq.Task, error) {
	return newJSONTask(TypeEmailContact, payload)
}

func NewOrderConfirmationTask(orderID uuid.UUID, email string, total decimal.Decimal) (*asynq.Task, error) {
	return newJSONTask(TypeEmailOrderConfirmation, OrderConfirmationPayload{OrderID: orderID, Email: email, Total: total})
}

func NewLowStockTask(payload LowStockPayload) (*asynq.Task, error) {
	return newJSONTask(TypeEmailLowStock, payload)
}
