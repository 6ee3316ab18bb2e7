package handlers

import (
	"context"

	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) cartResult(args mock.Arguments) (*models.Cart, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Cart), args.Error(1)
}

func (m *MockCartService) Get(ctx context.Context, owner services.CartOwner) (*models.Cart, error) {
	return m.cartResult(m.Called(ctx, owner))
}

func (m *MockCartService) AddItem(ctx context.Context, owner services.CartOwner, variantID uuid.UUID, quantity int) (*models.Cart, error) {
	return m.cartResult(m.Called(ctx, owner, variantID, quantity))
}

func (m *MockCartService) SetItemQuantity(ctx context.Context, owner services.CartOwner, variantID uuid.UUID, quantity int) (*models.Cart, error) {
	return m.cartResult(m.Called(ctx, owner, variantID, quantity))
}

func (m *MockCartService) RemoveItem(ctx context.Context, owner services.CartOwner, variantID uuid.UUID) (*models.Cart, error) {
	return m.cartResult(m.Called(ctx, owner, variantID))
}

func (m *MockCartService) Clear(ctx context.Context, owner services.CartOwner) error {
	return m.Called(ctx, owner).Error(0)
}

func (m *MockCartService) AttachToUser(ctx context.Context, sessionID string, userID uuid.UUID) error {
	return m.Called(ctx, sessionID, userID).Error(0)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) PlaceOrder(ctx context.Context, userID uuid.UUID, req *services.PlaceOrderRequest, idempotencyKey string) (*models.Order, bool, error) {
	args := m.Called(ctx, userID, req, idempotencyKey)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*models.Order), args.Bool(1), args.Error(2)
}

func (m *MockOrderService) Checkout(ctx context.Context, userID uuid.UUID, sessionID string, shippingAddressID, billingAddressID *uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, userID, sessionID, shippingAddressID, billingAddressID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderService) Get(ctx context.Context, userID uuid.UUID, isStaff bool, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, userID, isStaff, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderService) List(ctx context.Context, userID uuid.UUID, isStaff bool, filter *models.OrderFilter) ([]*models.Order, error) {
	args := m.Called(ctx, userID, isStaff, filter)
	return args.Get(0).([]*models.Order), args.Error(1)
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus, trackingNumber *string) (*models.Order, error) {
	args := m.Called(ctx, id, status, trackingNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) CreateCheckoutSession(ctx context.Context, userID, orderID uuid.UUID) (*services.CheckoutSession, error) {
	args := m.Called(ctx, userID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CheckoutSession), args.Error(1)
}

func (m *MockPaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	return m.Called(ctx, payload, signature).Error(0)
}

func (m *MockPaymentService) ListForOrder(ctx context.Context, userID uuid.UUID, isStaff bool, orderID uuid.UUID) ([]*models.Payment, error) {
	args := m.Called(ctx, userID, isStaff, orderID)
	return args.Get(0).([]*models.Payment), args.Error(1)
}

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(context.Context) error {
	return p.err
}

type MockStatsProvider struct {
	mock.Mock
}

func (m *MockStatsProvider) SalesStats(ctx context.Context) (*models.SalesStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SalesStats), args.Error(1)
}

func (m *MockStatsProvider) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DashboardStats), args.Error(1)
}

func (m *MockStatsProvider) LowStock(ctx context.Context, limit int) ([]*models.LowStockVariant, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]*models.LowStockVariant), args.Error(1)
}

func (m *MockStatsProvider) LowStockThreshold() int {
	return m.Called().Int(0)
}
