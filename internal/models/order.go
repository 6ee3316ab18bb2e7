package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// Valid reports whether s is one of the known order statuses
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	UserID            *uuid.UUID      `json:"user_id,omitempty" db:"user_id"`
	Status            OrderStatus     `json:"status" db:"status"`
	Total             decimal.Decimal `json:"total" db:"total"`
	ShippingAddressID *uuid.UUID      `json:"shipping_address_id,omitempty" db:"shipping_address_id"`
	BillingAddressID  *uuid.UUID      `json:"billing_address_id,omitempty" db:"billing_address_id"`
	TrackingNumber    *string         `json:"tracking_number,omitempty" db:"tracking_number"`
	Items             []*OrderItem    `json:"items,omitempty" db:"-"`
	PlacedAt          time.Time       `json:"placed_at" db:"placed_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

type OrderItem struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	OrderID         uuid.UUID       `json:"order_id" db:"order_id"`
	VariantID       *uuid.UUID      `json:"variant_id,omitempty" db:"variant_id"`
	ProductName     string          `json:"product_name,omitempty" db:"-"`
	Quantity        int             `json:"quantity" db:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase" db:"price_at_purchase"`
}

// Subtotal is price at purchase times quantity
func (i *OrderItem) Subtotal() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// RecomputeTotal sets Total to the sum of item subtotals and returns it
func (o *Order) RecomputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	o.Total = total
	return total
}

// MaxLineQuantity caps a single variant's quantity in one order, after merging repeats
const MaxLineQuantity = 1000

// OrderLine is one requested (variant, quantity) pair
type OrderLine struct {
	VariantID uuid.UUID `json:"variant_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1,max=1000"`
}

// PlaceOrderInput carries everything the order transaction needs
type PlaceOrderInput struct {
	UserID            uuid.UUID
	Lines             []OrderLine
	ShippingAddressID *uuid.UUID
	BillingAddressID  *uuid.UUID
}

// OrderFilter holds search and filter criteria for order listings
type OrderFilter struct {
	UserID       *uuid.UUID   `json:"user_id,omitempty"` // nil lists every user's orders
	Status       *OrderStatus `json:"status,omitempty"`
	PlacedAfter  *time.Time   `json:"placed_after,omitempty"`
	PlacedBefore *time.Time   `json:"placed_before,omitempty"`
	Ordering     string       `json:"ordering,omitempty"` // placed_at, -placed_at, total, -total
	Limit        int          `json:"limit,omitempty"`
	Offset       int          `json:"offset,omitempty"`
}
