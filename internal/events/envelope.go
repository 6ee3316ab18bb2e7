package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventPaymentSucceeded   = "payment.succeeded"
	EventPaymentFailed      = "payment.failed"
)

const (
	envelopeVersion = 1
	producerName    = "storefront-api"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // the order id
	Payload       json.RawMessage `json:"payload"`
}

type OrderLinePayload struct {
	VariantID       string          `json:"variant_id"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
}

type OrderCreatedPayload struct {
	OrderID string             `json:"order_id"`
	UserID  string             `json:"user_id"`
	Total   decimal.Decimal    `json:"total"`
	Items   []OrderLinePayload `json:"items"`
}

type OrderStatusChangedPayload struct {
	OrderID        string  `json:"order_id"`
	PreviousStatus string  `json:"previous_status"`
	Status         string  `json:"status"`
	TrackingNumber *string `json:"tracking_number,omitempty"`
}

type PaymentPayload struct {
	OrderID       string          `json:"order_id"`
	PaymentID     string          `json:"payment_id"`
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason,omitempty"`
}

// NewEnvelope wraps payload for the given event type and correlation id
func NewEnvelope(eventType, correlationID string, payload interface{}) (*Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return &Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  envelopeVersion,
		OccurredAt:    time.Now().UTC(),
		Producer:      producerName,
		CorrelationID: correlationID,
		Payload:       raw,
	}, nil
}

// UnwrapPayload decodes an envelope payload into T
func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
