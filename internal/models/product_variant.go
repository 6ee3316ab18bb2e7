package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductVariant struct {
	ID           uuid.UUID              `json:"id" db:"id"`
	ProductID    uuid.UUID              `json:"product_id" db:"product_id"`
	SKU          string                 `json:"sku" db:"sku"`
	Name         string                 `json:"name" db:"name"`
	Price        decimal.Decimal        `json:"price" db:"price"`
	ComparePrice *decimal.Decimal       `json:"compare_price,omitempty" db:"compare_price"`
	Stock        int                    `json:"stock" db:"stock"`
	Weight       *decimal.Decimal       `json:"weight,omitempty" db:"weight"`
	Dimensions   map[string]interface{} `json:"dimensions,omitempty" db:"dimensions"`
	Attributes   map[string]interface{} `json:"attributes,omitempty" db:"attributes"`
	ProductName  string                 `json:"product_name,omitempty" db:"-"`
	CreatedAt    time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at" db:"updated_at"`
}

// DisplayName is the storefront label for a variant, "Product - Variant"
func (v *ProductVariant) DisplayName() string {
	if v.ProductName == "" {
		return v.Name
	}
	return v.ProductName + " - " + v.Name
}

// LowStockVariant is a variant whose stock fell under the alert threshold
type LowStockVariant struct {
	VariantID   uuid.UUID `json:"variant_id" db:"variant_id"`
	ProductID   uuid.UUID `json:"product_id" db:"product_id"`
	SKU         string    `json:"sku" db:"sku"`
	DisplayName string    `json:"display_name" db:"display_name"`
	Stock       int       `json:"stock" db:"stock"`
}
