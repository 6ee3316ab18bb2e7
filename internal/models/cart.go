package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Cart struct {
	ID         uuid.UUID   `json:"id" db:"id"`
	UserID     *uuid.UUID  `json:"user_id,omitempty" db:"user_id"`
	SessionKey *string     `json:"-" db:"session_key"`
	Items      []*CartItem `json:"items" db:"-"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at" db:"updated_at"`
}

type CartItem struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	CartID      uuid.UUID       `json:"cart_id" db:"cart_id"`
	VariantID   uuid.UUID       `json:"variant_id" db:"variant_id"`
	Quantity    int             `json:"quantity" db:"quantity"`
	VariantName string          `json:"variant_name" db:"-"`
	ProductName string          `json:"product_name" db:"-"`
	UnitPrice   decimal.Decimal `json:"unit_price" db:"-"`
	AddedAt     time.Time       `json:"added_at" db:"added_at"`
}

// Subtotal is unit price times quantity at the variant's current price
func (i *CartItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// TotalItems sums line quantities
func (c *Cart) TotalItems() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// TotalPrice sums line subtotals
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// CartLineView is the JSON shape of one cart line
type CartLineView struct {
	VariantID   uuid.UUID       `json:"variant_id"`
	ProductName string          `json:"product_name"`
	VariantName string          `json:"variant_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// CartView is the JSON shape of a cart with computed totals
type CartView struct {
	ID         *uuid.UUID      `json:"id"`
	Items      []CartLineView  `json:"items"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// View renders the cart; a nil cart renders as empty
func (c *Cart) View() CartView {
	view := CartView{Items: []CartLineView{}, TotalPrice: decimal.Zero}
	if c == nil {
		return view
	}
	id := c.ID
	view.ID = &id
	for _, item := range c.Items {
		view.Items = append(view.Items, CartLineView{
			VariantID:   item.VariantID,
			ProductName: item.ProductName,
			VariantName: item.VariantName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			Subtotal:    item.Subtotal(),
		})
	}
	view.TotalItems = c.TotalItems()
	view.TotalPrice = c.TotalPrice()
	return view
}
