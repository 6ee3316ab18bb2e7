package handlers

import (
	"net/http"

	"storefront/internal/common"
	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CartHandlers serves the cart of the current session or signed-in user
type CartHandlers struct {
	cartSvc services.CartService
	logger  *zap.Logger
}

func NewCartHandlers(cartSvc services.CartService, logger *zap.Logger) *CartHandlers {
	return &CartHandlers{cartSvc: cartSvc, logger: logger}
}

type AddCartItemRequest struct {
	VariantID uuid.UUID `json:"variant_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"omitempty,min=1,max=1000"` // defaults to 1
}

type SetCartItemRequest struct {
	Quantity int `json:"quantity" validate:"max=1000"` // <= 0 removes the line
}

func cartOwner(c echo.Context) services.CartOwner {
	owner := services.CartOwner{SessionID: middleware.CartSessionID(c)}
	if userID, ok := common.GetUserIDFromContext(c.Request().Context()); ok {
		owner.UserID = &userID
	}
	return owner
}

// GetCart handles GET /cart; a missing cart renders empty
func (h *CartHandlers) GetCart(c echo.Context) error {
	cart, err := h.cartSvc.Get(c.Request().Context(), cartOwner(c))
	if err != nil {
		return respondError(c, h.logger, "get cart", "Cart", err)
	}
	return c.JSON(http.StatusOK, cart.View())
}

// AddItem handles POST /cart/items
func (h *CartHandlers) AddItem(c echo.Context) error {
	var req AddCartItemRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	cart, err := h.cartSvc.AddItem(c.Request().Context(), cartOwner(c), req.VariantID, req.Quantity)
	if err != nil {
		return respondError(c, h.logger, "add cart item", "Cart", err)
	}
	return c.JSON(http.StatusOK, cart.View())
}

// SetItemQuantity handles PATCH /cart/items/:variant_id; quantity 0 removes the line
func (h *CartHandlers) SetItemQuantity(c echo.Context) error {
	variantID, ok, err := pathUUID(c, "variant_id")
	if !ok {
		return err
	}
	var req SetCartItemRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	cart, err := h.cartSvc.SetItemQuantity(c.Request().Context(), cartOwner(c), variantID, req.Quantity)
	if err != nil {
		return respondError(c, h.logger, "update cart item", "Cart", err)
	}
	return c.JSON(http.StatusOK, cart.View())
}

// RemoveItem handles DELETE /cart/items/:variant_id
func (h *CartHandlers) RemoveItem(c echo.Context) error {
	variantID, ok, err := pathUUID(c, "variant_id")
	if !ok {
		return err
	}
	cart, err := h.cartSvc.RemoveItem(c.Request().Context(), cartOwner(c), variantID)
	if err != nil {
		return respondError(c, h.logger, "remove cart item", "Cart", err)
	}
	return c.JSON(http.StatusOK, cart.View())
}

// ClearCart handles DELETE /cart
func (h *CartHandlers) ClearCart(c echo.Context) error {
	if err := h.cartSvc.Clear(c.Request().Context(), cartOwner(c)); err != nil {
		return respondError(c, h.logger, "clear cart", "Cart", err)
	}
	return c.NoContent(http.StatusNoContent)
}
