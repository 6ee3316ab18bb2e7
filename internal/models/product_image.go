package models

import (
	"time"

	"github.com/google/uuid"
)

type ProductImage struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	ObjectKey string    `json:"-" db:"object_key"`
	ImageURL  string    `json:"image_url,omitempty" db:"-"` // Presigned, filled by the service
	AltText   *string   `json:"alt_text,omitempty" db:"alt_text"`
	IsPrimary bool      `json:"is_primary" db:"is_primary"`
	SortOrder int       `json:"order" db:"sort_order"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
