package handlers

import (
	"io"
	"net/http"

	"storefront/internal/common"
	"storefront/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	StripeSignatureHeader = "Stripe-Signature"
	maxWebhookBytes       = 64 << 10
)

// PaymentHandlers handles checkout sessions, the provider webhook and redirect pages
type PaymentHandlers struct {
	paymentSvc services.PaymentService
	orderSvc   services.OrderService
	logger     *zap.Logger
}

func NewPaymentHandlers(paymentSvc services.PaymentService, orderSvc services.OrderService, logger *zap.Logger) *PaymentHandlers {
	return &PaymentHandlers{paymentSvc: paymentSvc, orderSvc: orderSvc, logger: logger}
}

type CheckoutSessionRequest struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
}

// CreateCheckoutSession handles POST /payments/checkout-session
func (h *PaymentHandlers) CreateCheckoutSession(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}
	var req CheckoutSessionRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	session, err := h.paymentSvc.CreateCheckoutSession(c.Request().Context(), userID, req.OrderID)
	if err != nil {
		return respondError(c, h.logger, "create checkout session", "Order", err)
	}
	return c.JSON(http.StatusCreated, session)
}

// StripeWebhook handles POST /webhooks/stripe. The raw body is needed for signature verification.
func (h *PaymentHandlers) StripeWebhook(c echo.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBytes))
	if err != nil {
		return common.SendClientError(c, "Could not read request body")
	}
	signature := c.Request().Header.Get(StripeSignatureHeader)
	if signature == "" {
		return common.SendClientError(c, "Missing webhook signature")
	}

	if err := h.paymentSvc.HandleWebhook(c.Request().Context(), payload, signature); err != nil {
		return respondError(c, h.logger, "handle payment webhook", "Payment", err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}

// PaymentSucceeded handles GET /payments/success/:order_id
func (h *PaymentHandlers) PaymentSucceeded(c echo.Context) error {
	return h.orderOutcome(c, "succeeded")
}

// PaymentFailed handles GET /payments/failed/:order_id
func (h *PaymentHandlers) PaymentFailed(c echo.Context) error {
	return h.orderOutcome(c, "failed")
}

func (h *PaymentHandlers) orderOutcome(c echo.Context, outcome string) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}
	orderID, ok, err := pathUUID(c, "order_id")
	if !ok {
		return err
	}
	order, err := h.orderSvc.Get(c.Request().Context(), userID, common.IsStaffFromContext(c.Request().Context()), orderID)
	if err != nil {
		return respondError(c, h.logger, "get order payment outcome", "Order", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"order_id": order.ID,
		"status":   order.Status,
		"total":    order.Total,
		"payment":  outcome,
	})
}

// ListOrderPayments handles GET /orders/:id/payments
func (h *PaymentHandlers) ListOrderPayments(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}
	orderID, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	payments, err := h.paymentSvc.ListForOrder(c.Request().Context(), userID, common.IsStaffFromContext(c.Request().Context()), orderID)
	if err != nil {
		return respondError(c, h.logger, "list order payments", "Order", err)
	}
	return c.JSON(http.StatusOK, payments)
}
