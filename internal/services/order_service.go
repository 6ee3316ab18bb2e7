package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/caching"
	"storefront/internal/common"
	"storefront/internal/events"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	idempotencyTTL = 24 * time.Hour
	// a claim that is never completed or released frees the key after this
	idempotencyPendingTTL = 2 * time.Minute
)

var (
	ErrEmptyOrder            = fmt.Errorf("order has no items: %w", common.ErrInvalidInput)
	ErrIdempotencyInProgress = fmt.Errorf("a request with this Idempotency-Key is still in progress: %w", common.ErrConflict)
)

type PlaceOrderRequest struct {
	Items             []models.OrderLine `json:"items" validate:"required,min=1,max=100,dive"`
	ShippingAddressID *uuid.UUID         `json:"shipping_address_id,omitempty"`
	BillingAddressID  *uuid.UUID         `json:"billing_address_id,omitempty"`
}

type OrderService interface {
	// PlaceOrder reports replayed=true when idempotencyKey matched an earlier order
	PlaceOrder(ctx context.Context, userID uuid.UUID, req *PlaceOrderRequest, idempotencyKey string) (order *models.Order, replayed bool, err error)
	Checkout(ctx context.Context, userID uuid.UUID, sessionID string, shippingAddressID, billingAddressID *uuid.UUID) (*models.Order, error)
	Get(ctx context.Context, userID uuid.UUID, isStaff bool, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, userID uuid.UUID, isStaff bool, filter *models.OrderFilter) ([]*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus, trackingNumber *string) (*models.Order, error)
}

type orderService struct {
	orderRepo   repositories.OrderRepository
	addressRepo repositories.AddressRepository
	cartRepo    repositories.CartRepository
	cartSvc     CartService
	cacheSvc    caching.CacheService
	publisher   events.Publisher
	logger      *zap.Logger
}

func NewOrderService(
	orderRepo repositories.OrderRepository,
	addressRepo repositories.AddressRepository,
	cartRepo repositories.CartRepository,
	cartSvc CartService,
	cacheSvc caching.CacheService,
	publisher events.Publisher,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		addressRepo: addressRepo,
		cartRepo:    cartRepo,
		cartSvc:     cartSvc,
		cacheSvc:    cacheSvc,
		publisher:   publisher,
		logger:      logger,
	}
}

func (s *orderService) PlaceOrder(ctx context.Context, userID uuid.UUID, req *PlaceOrderRequest, idempotencyKey string) (*models.Order, bool, error) {
	if idempotencyKey == "" {
		order, err := s.place(ctx, userID, req.Items, req.ShippingAddressID, req.BillingAddressID)
		return order, false, err
	}

	key := "order:" + userID.String() + ":" + idempotencyKey
	claimed, previousID, err := s.cacheSvc.ClaimIdempotencyKey(ctx, key, idempotencyPendingTTL)
	if err != nil {
		return nil, false, err
	}
	if !claimed {
		if previousID == nil {
			return nil, false, ErrIdempotencyInProgress
		}
		order, err := s.Get(ctx, userID, false, *previousID)
		if err != nil {
			return nil, false, err
		}
		return order, true, nil
	}

	order, err := s.place(ctx, userID, req.Items, req.ShippingAddressID, req.BillingAddressID)
	if err != nil {
		if relErr := s.cacheSvc.ReleaseIdempotencyKey(ctx, key); relErr != nil {
			s.logger.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(relErr))
		}
		return nil, false, err
	}
	if err := s.cacheSvc.CompleteIdempotencyKey(ctx, key, order.ID, idempotencyTTL); err != nil {
		s.logger.Warn("failed to record idempotency key", zap.String("key", key), zap.Error(err))
	}
	return order, false, nil
}

// Checkout places an order from the caller's cart and empties the cart afterwards
func (s *orderService) Checkout(ctx context.Context, userID uuid.UUID, sessionID string, shippingAddressID, billingAddressID *uuid.UUID) (*models.Order, error) {
	cart, err := s.cartSvc.Get(ctx, CartOwner{SessionID: sessionID, UserID: &userID})
	if err != nil {
		return nil, err
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, fmt.Errorf("cart is empty: %w", common.ErrInvalidInput)
	}

	lines := make([]models.OrderLine, 0, len(cart.Items))
	for _, item := range cart.Items {
		lines = append(lines, models.OrderLine{VariantID: item.VariantID, Quantity: item.Quantity})
	}

	order, err := s.place(ctx, userID, lines, shippingAddressID, billingAddressID)
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo.Clear(ctx, cart.ID); err != nil {
		s.logger.Error("order placed but cart not cleared", zap.String("order_id", order.ID.String()), zap.String("cart_id", cart.ID.String()), zap.Error(err))
	}
	return order, nil
}

// Get hides other users' orders behind ErrNotFound unless isStaff
func (s *orderService) Get(ctx context.Context, userID uuid.UUID, isStaff bool, id uuid.UUID) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isStaff && (order.UserID == nil || *order.UserID != userID) {
		return nil, common.ErrNotFound
	}
	return order, nil
}

func (s *orderService) List(ctx context.Context, userID uuid.UUID, isStaff bool, filter *models.OrderFilter) ([]*models.Order, error) {
	if !isStaff {
		filter.UserID = &userID
	}
	return s.orderRepo.List(ctx, filter)
}

func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus, trackingNumber *string) (*models.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown order status %q: %w", status, common.ErrInvalidInput)
	}
	existing, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	order, err := s.orderRepo.UpdateStatus(ctx, id, status, trackingNumber)
	if err != nil {
		return nil, err
	}
	order.Items = existing.Items

	s.publish(ctx, events.EventOrderStatusChanged, order.ID, events.OrderStatusChangedPayload{
		OrderID:        order.ID.String(),
		PreviousStatus: string(existing.Status),
		Status:         string(order.Status),
		TrackingNumber: order.TrackingNumber,
	})
	return order, nil
}

func (s *orderService) place(ctx context.Context, userID uuid.UUID, lines []models.OrderLine, shippingAddressID, billingAddressID *uuid.UUID) (*models.Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, addrID := range []*uuid.UUID{shippingAddressID, billingAddressID} {
		if addrID == nil {
			continue
		}
		if _, err := s.addressRepo.GetByID(ctx, userID, *addrID); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, fmt.Errorf("address %s does not belong to you: %w", *addrID, common.ErrInvalidInput)
			}
			return nil, err
		}
	}

	order, err := s.orderRepo.PlaceOrder(ctx, &models.PlaceOrderInput{
		UserID:            userID,
		Lines:             lines,
		ShippingAddressID: shippingAddressID,
		BillingAddressID:  billingAddressID,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("total", order.Total.StringFixed(2)),
		zap.Int("lines", len(order.Items)),
	)

	items := make([]events.OrderLinePayload, 0, len(order.Items))
	for _, item := range order.Items {
		line := events.OrderLinePayload{Quantity: item.Quantity, PriceAtPurchase: item.PriceAtPurchase}
		if item.VariantID != nil {
			line.VariantID = item.VariantID.String()
		}
		items = append(items, line)
	}
	s.publish(ctx, events.EventOrderCreated, order.ID, events.OrderCreatedPayload{
		OrderID: order.ID.String(),
		UserID:  userID.String(),
		Total:   order.Total,
		Items:   items,
	})
	return order, nil
}

// publish never fails the caller; the order is already committed
func (s *orderService) publish(ctx context.Context, eventType string, orderID uuid.UUID, payload interface{}) {
	if err := s.publisher.Publish(ctx, eventType, orderID.String(), payload); err != nil {
		s.logger.Warn("failed to publish event", zap.String("event_type", eventType), zap.String("order_id", orderID.String()), zap.Error(err))
	}
}
