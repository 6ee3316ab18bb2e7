package common

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidInput = errors.New("invalid input")
)

const pgUniqueViolation = "23505"

// MapDBError translates driver errors into the package sentinels, leaving others untouched
func MapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrConflict
	}
	return err
}

// ErrInsufficientStock is matched by InsufficientStockError via errors.Is
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrVariantNotFound is matched by VariantNotFoundError via errors.Is
var ErrVariantNotFound = errors.New("variant not found")

// InsufficientStockError reports the first order line that cannot be filled
type InsufficientStockError struct {
	VariantID   uuid.UUID
	DisplayName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %s: requested %d, available %d", e.DisplayName, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// VariantNotFoundError reports an order or cart line naming an unknown variant
type VariantNotFoundError struct {
	VariantID uuid.UUID
}

func (e *VariantNotFoundError) Error() string {
	return fmt.Sprintf("variant with id %s not found", e.VariantID)
}

func (e *VariantNotFoundError) Is(target error) bool {
	return target == ErrVariantNotFound
}
