package models

import (
	"time"

	"github.com/google/uuid"
)

type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

type Review struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	ProductID uuid.UUID    `json:"product_id" db:"product_id"`
	UserID    uuid.UUID    `json:"user_id" db:"user_id"`
	Rating    int          `json:"rating" db:"rating"`
	Title     string       `json:"title" db:"title"`
	Body      string       `json:"body" db:"body"`
	Status    ReviewStatus `json:"status" db:"status"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" db:"updated_at"`
}

// ReviewFilter holds search and filter criteria for review listings
type ReviewFilter struct {
	ProductID *uuid.UUID    `json:"product_id,omitempty"`
	Rating    *int          `json:"rating,omitempty"`
	Status    *ReviewStatus `json:"status,omitempty"`
	Ordering  string        `json:"ordering,omitempty"` // created_at, -created_at, rating, -rating
	Limit     int           `json:"limit,omitempty"`
	Offset    int           `json:"offset,omitempty"`
}

// ProductReviews is the public review listing for one product
type ProductReviews struct {
	ProductID     uuid.UUID `json:"product_id"`
	Count         int       `json:"count"`
	AverageRating float64   `json:"average_rating"`
	Reviews       []*Review `json:"reviews"`
}
