package services

import (
	"context"
	"strings"

	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/google/uuid"
)

type AddressService interface {
	List(ctx context.Context, userID uuid.UUID) ([]*models.Address, error)
	Create(ctx context.Context, address *models.Address) error
	Update(ctx context.Context, address *models.Address) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	SetDefault(ctx context.Context, userID, id uuid.UUID) (*models.Address, error)
}

type addressService struct {
	addressRepo repositories.AddressRepository
}

func NewAddressService(addressRepo repositories.AddressRepository) AddressService {
	return &addressService{addressRepo: addressRepo}
}

func (s *addressService) List(ctx context.Context, userID uuid.UUID) ([]*models.Address, error) {
	return s.addressRepo.ListByUser(ctx, userID)
}

func (s *addressService) Create(ctx context.Context, address *models.Address) error {
	address.ID = uuid.New()
	normalizeAddress(address)
	return s.addressRepo.Create(ctx, address)
}

// Update only touches addresses owned by address.UserID
func (s *addressService) Update(ctx context.Context, address *models.Address) error {
	if _, err := s.addressRepo.GetByID(ctx, address.UserID, address.ID); err != nil {
		return err
	}
	normalizeAddress(address)
	return s.addressRepo.Update(ctx, address)
}

func (s *addressService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.addressRepo.Delete(ctx, userID, id)
}

func (s *addressService) SetDefault(ctx context.Context, userID, id uuid.UUID) (*models.Address, error) {
	if err := s.addressRepo.SetDefault(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.addressRepo.GetByID(ctx, userID, id)
}

func normalizeAddress(a *models.Address) {
	a.Country = strings.ToUpper(strings.TrimSpace(a.Country))
	a.Label = strings.TrimSpace(a.Label)
	a.Street = strings.TrimSpace(a.Street)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
}
