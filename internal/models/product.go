package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID          uuid.UUID         `json:"id" db:"id"`
	Name        string            `json:"name" db:"name"`
	Slug        string            `json:"slug" db:"slug"`
	BrandID     *uuid.UUID        `json:"brand_id,omitempty" db:"brand_id"`
	Description *string           `json:"description,omitempty" db:"description"`
	IsActive    bool              `json:"is_active" db:"is_active"`
	CategoryIDs []uuid.UUID       `json:"category_ids" db:"-"`
	Categories  []*Category       `json:"categories,omitempty" db:"-"`
	Variants    []*ProductVariant `json:"variants,omitempty" db:"-"`
	Images      []*ProductImage   `json:"images,omitempty" db:"-"`
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" db:"updated_at"`
}

// Product list orderings accepted by the catalog
const (
	ProductOrderNewest    = "newest"
	ProductOrderOldest    = "oldest"
	ProductOrderPriceAsc  = "price_asc"
	ProductOrderPriceDesc = "price_desc"
	ProductOrderName      = "name"
)

// ProductFilter holds search and filter criteria for product listings
type ProductFilter struct {
	Search       string           `json:"search,omitempty"`        // Matches name or description
	MinPrice     *decimal.Decimal `json:"min_price,omitempty"`     // Any variant priced at or above
	MaxPrice     *decimal.Decimal `json:"max_price,omitempty"`     // Any variant priced at or below
	BrandID      *uuid.UUID       `json:"brand_id,omitempty"`
	BrandSlug    string           `json:"brand,omitempty"`
	CategorySlug string           `json:"category,omitempty"`
	ActiveOnly   bool             `json:"-"`
	Ordering     string           `json:"ordering,omitempty"`
	Limit        int              `json:"limit,omitempty"`
	Offset       int              `json:"offset,omitempty"`
}

// ProductPage is one page of a product listing
type ProductPage struct {
	Count    int        `json:"count"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
	Results  []*Product `json:"results"`
}
