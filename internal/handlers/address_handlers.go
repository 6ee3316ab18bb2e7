package handlers

import (
	"net/http"

	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type AddressHandlers struct {
	addressSvc services.AddressService
	logger     *zap.Logger
}

func NewAddressHandlers(addressSvc services.AddressService, logger *zap.Logger) *AddressHandlers {
	return &AddressHandlers{addressSvc: addressSvc, logger: logger}
}

type AddressRequest struct {
	Label      string `json:"label" validate:"max=50"`
	Street     string `json:"street" validate:"required,max=255"`
	City       string `json:"city" validate:"required,max=100"`
	State      string `json:"state" validate:"max=100"`
	PostalCode string `json:"postal_code" validate:"required,max=20"`
	Country    string `json:"country" validate:"required,iso3166_1_alpha2"`
	IsDefault  bool   `json:"is_default"`
}

func (r *AddressRequest) toModel() *models.Address {
	return &models.Address{
		Label:      r.Label,
		Street:     r.Street,
		City:       r.City,
		State:      r.State,
		PostalCode: r.PostalCode,
		Country:    r.Country,
		IsDefault:  r.IsDefault,
	}
}

// ListAddresses handles GET /me/addresses
func (h *AddressHandlers) ListAddresses(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}
	addresses, err := h.addressSvc.List(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, h.logger, "list addresses", "Address", err)
	}
	return c.JSON(http.StatusOK, addresses)
}

// CreateAddress handles POST /me/addresses
func (h *AddressHandlers) CreateAddress(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}
	var req AddressRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	address := req.toModel()
	address.UserID = userID
	if err := h.addressSvc.Create(c.Request().Context(), address); err != nil {
		return respondError(c, h.logger, "create address", "Address", err)
	}
	return c.JSON(http.StatusCreated, address)
}

// UpdateAddress handles PUT /me/addresses/:id
func (h *AddressHandlers) UpdateAddress(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	var req AddressRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	address := req.toModel()
	address.ID = id
	address.UserID = userID
	if err := h.addressSvc.Update(c.Request().Context(), address); err != nil {
		return respondError(c, h.logger, "update address", "Address", err)
	}
	return c.JSON(http.StatusOK, address)
}

// DeleteAddress handles DELETE /me/addresses/:id
func (h *AddressHandlers) DeleteAddress(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	if err := h.addressSvc.Delete(c.Request().Context(), userID, id); err != nil {
		return respondError(c, h.logger, "delete address", "Address", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SetDefaultAddress handles POST /me/addresses/:id/default
func (h *AddressHandlers) SetDefaultAddress(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	address, err := h.addressSvc.SetDefault(c.Request().Context(), userID, id)
	if err != nil {
		return respondError(c, h.logger, "set default address", "Address", err)
	}
	return c.JSON(http.StatusOK, address)
}
