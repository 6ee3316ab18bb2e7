package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	Email            string     `json:"email" db:"email"`
	PasswordHash     string     `json:"-" db:"password_hash"` // Never serialize in JSON
	FirstName        string     `json:"first_name" db:"first_name"`
	LastName         string     `json:"last_name" db:"last_name"`
	Phone            *string    `json:"phone,omitempty" db:"phone"`
	IsActive         bool       `json:"is_active" db:"is_active"`
	IsVerified       bool       `json:"is_verified" db:"is_verified"`
	IsStaff          bool       `json:"is_staff" db:"is_staff"`
	DefaultAddressID *uuid.UUID `json:"default_address_id,omitempty" db:"default_address_id"`
	DateJoined       time.Time  `json:"date_joined" db:"date_joined"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// UserFilter holds the staff-side user listing criteria
type UserFilter struct {
	Search   string `json:"search,omitempty"`
	Ordering string `json:"ordering,omitempty"` // email, -email, date_joined, -date_joined
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// ProfileUpdate is the self-service subset of user fields
type ProfileUpdate struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=150"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=32"`
}
