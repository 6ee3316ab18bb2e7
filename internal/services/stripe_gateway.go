package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Stripe event types the webhook reacts to
const (
	StripeCheckoutCompleted           = "checkout.session.completed"
	StripeCheckoutExpired             = "checkout.session.expired"
	StripeCheckoutAsyncPaymentFailed  = "checkout.session.async_payment_failed"
	StripeCheckoutAsyncPaymentSuccess = "checkout.session.async_payment_succeeded"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// GatewayEvent is a verified webhook event reduced to what the payment flow needs
type GatewayEvent struct {
	ID        string
	Type      string
	SessionID string
}

// PaymentGateway creates hosted checkout sessions and verifies their webhooks
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, order *models.Order, successURL, cancelURL string) (*CheckoutSession, error)
	ParseWebhook(payload []byte, signature string) (*GatewayEvent, error)
}

type stripeGateway struct {
	api           *client.API
	webhookSecret string
	currency      string
}

func NewStripeGateway(secretKey, webhookSecret, currency string) PaymentGateway {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &stripeGateway{
		api:           sc,
		webhookSecret: webhookSecret,
		currency:      strings.ToLower(currency),
	}
}

// CreateCheckoutSession charges the order total as a single line item
func (g *stripeGateway) CreateCheckoutSession(ctx context.Context, order *models.Order, successURL, cancelURL string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(successURL),
		CancelURL:         stripe.String(cancelURL),
		ClientReferenceID: stripe.String(order.ID.String()),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(g.currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Order #" + order.ID.String()),
					},
					UnitAmount: stripe.Int64(AmountInCents(order)),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("order_id", order.ID.String())

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// ParseWebhook verifies the Stripe-Signature header against the raw body
func (g *stripeGateway) ParseWebhook(payload []byte, signature string) (*GatewayEvent, error) {
	if signature == "" {
		return nil, ErrInvalidSignature
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &GatewayEvent{ID: event.ID, Type: string(event.Type)}
	if strings.HasPrefix(out.Type, "checkout.session.") && event.Data != nil {
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("failed to decode checkout session: %w", err)
		}
		out.SessionID = sess.ID
	}
	return out, nil
}

// AmountInCents converts the order total to the provider's minor unit
func AmountInCents(order *models.Order) int64 {
	return order.Total.Shift(2).Round(0).IntPart()
}
