package handlers

import (
	"net/http"
	"strings"

	"storefront/internal/common"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	maxIdempotencyKeyLen = 255
)

type OrderHandlers struct {
	orderSvc services.OrderService
	logger   *zap.Logger
}

func NewOrderHandlers(orderSvc services.OrderService, logger *zap.Logger) *OrderHandlers {
	return &OrderHandlers{orderSvc: orderSvc, logger: logger}
}

type CheckoutRequest struct {
	ShippingAddressID *uuid.UUID `json:"shipping_address_id"`
	BillingAddressID  *uuid.UUID `json:"billing_address_id"`
}

type UpdateOrderStatusRequest struct {
	Status         models.OrderStatus `json:"status" validate:"required"`
	TrackingNumber *string            `json:"tracking_number" validate:"omitempty,max=100"`
}

// PlaceOrder handles POST /orders. A repeated Idempotency-Key returns the original order with 200.
func (h *OrderHandlers) PlaceOrder(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}
	key := strings.TrimSpace(c.Request().Header.Get(IdempotencyKeyHeader))
	if len(key) > maxIdempotencyKeyLen {
		return common.SendValidationError(c, IdempotencyKeyHeader, "must be at most 255 characters")
	}

	var req services.PlaceOrderRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	order, replayed, err := h.orderSvc.PlaceOrder(c.Request().Context(), userID, &req, key)
	if err != nil {
		return respondError(c, h.logger, "place order", "Order", err)
	}
	if replayed {
		return c.JSON(http.StatusOK, order)
	}
	h.logger.Info("order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("total", order.Total.StringFixed(2)),
	)
	return c.JSON(http.StatusCreated, order)
}

// Checkout handles POST /orders/checkout, turning the current cart into an order
func (h *OrderHandlers) Checkout(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}
	var req CheckoutRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	order, err := h.orderSvc.Checkout(c.Request().Context(), userID, middleware.CartSessionID(c), req.ShippingAddressID, req.BillingAddressID)
	if err != nil {
		return respondError(c, h.logger, "checkout", "Cart", err)
	}
	return c.JSON(http.StatusCreated, order)
}

// ListOrders handles GET /orders; staff see every user's orders
func (h *OrderHandlers) ListOrders(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}
	limit, offset, err := common.ParseLimitOffset(c)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	ordering, err := common.ParseOrdering(c, "", "placed_at", "-placed_at", "total", "-total")
	if err != nil {
		return common.SendValidationError(c, "ordering", err.Error())
	}
	filter := &models.OrderFilter{
		Ordering: ordering,
		Limit:    limit,
		Offset:   offset,
	}
	if raw := c.QueryParam("status"); raw != "" {
		status := models.OrderStatus(strings.ToUpper(raw))
		if !status.Valid() {
			return common.SendValidationError(c, "status", "unknown order status")
		}
		filter.Status = &status
	}
	if filter.PlacedAfter, err = common.ParseDateParam(c.QueryParam("placed_after"), "placed_after"); err != nil {
		return common.SendValidationError(c, "placed_after", err.Error())
	}
	if filter.PlacedBefore, err = common.ParseDateParam(c.QueryParam("placed_before"), "placed_before"); err != nil {
		return common.SendValidationError(c, "placed_before", err.Error())
	}

	isStaff := common.IsStaffFromContext(c.Request().Context())
	orders, err := h.orderSvc.List(c.Request().Context(), userID, isStaff, filter)
	if err != nil {
		return respondError(c, h.logger, "list orders", "Order", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"orders": orders,
		"limit":  limit,
		"offset": offset,
	})
}

// GetOrder handles GET /orders/:id
func (h *OrderHandlers) GetOrder(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	order, err := h.orderSvc.Get(c.Request().Context(), userID, common.IsStaffFromContext(c.Request().Context()), id)
	if err != nil {
		return respondError(c, h.logger, "get order", "Order", err)
	}
	return c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus handles PATCH /orders/:id/status (staff)
func (h *OrderHandlers) UpdateOrderStatus(c echo.Context) error {
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	var req UpdateOrderStatusRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	req.Status = models.OrderStatus(strings.ToUpper(string(req.Status)))
	if !req.Status.Valid() {
		return common.SendValidationError(c, "status", "unknown order status")
	}
	order, err := h.orderSvc.UpdateStatus(c.Request().Context(), id, req.Status, req.TrackingNumber)
	if err != nil {
		return respondError(c, h.logger, "update order status", "Order", err)
	}
	return c.JSON(http.StatusOK, order)
}
