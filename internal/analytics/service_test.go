package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/caching"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockStatsRepo struct {
	mock.Mock
}

func (m *mockStatsRepo) SalesStats(ctx context.Context) (*models.SalesStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SalesStats), args.Error(1)
}

func (m *mockStatsRepo) SalesSince(ctx context.Context, since time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockStatsRepo) RecentOrders(ctx context.Context, limit int) ([]*models.Order, error) {
	args := m.Called(ctx, limit)
	orders, _ := args.Get(0).([]*models.Order)
	return orders, args.Error(1)
}

func (m *mockStatsRepo) CountOrdersByStatus(ctx context.Context, status models.OrderStatus) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

// mockVariantRepo implements only the low-stock query the service uses
type mockVariantRepo struct {
	repositories.VariantRepository
	mock.Mock
}

func (m *mockVariantRepo) ListLowStock(ctx context.Context, threshold, limit int) ([]*models.LowStockVariant, error) {
	args := m.Called(ctx, threshold, limit)
	variants, _ := args.Get(0).([]*models.LowStockVariant)
	return variants, args.Error(1)
}

type mockDashboardCache struct {
	caching.CacheService
	mock.Mock
}

func (m *mockDashboardCache) GetDashboard(ctx context.Context) (*models.DashboardStats, error) {
	args := m.Called(ctx)
	stats, _ := args.Get(0).(*models.DashboardStats)
	return stats, args.Error(1)
}

func (m *mockDashboardCache) SetDashboard(ctx context.Context, stats *models.DashboardStats, ttl time.Duration) error {
	return m.Called(ctx, stats, ttl).Error(0)
}

func newTestService(stats *mockStatsRepo, variants *mockVariantRepo, cache *mockDashboardCache) *AnalyticsService {
	svc := NewAnalyticsService(stats, variants, cache, zap.NewNop(), 10)
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC) }
	return svc
}

func TestRefreshDashboard(t *testing.T) {
	stats, variants, cache := new(mockStatsRepo), new(mockVariantRepo), new(mockDashboardCache)
	svc := newTestService(stats, variants, cache)
	ctx := context.Background()

	startOfDay := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	stats.On("SalesSince", ctx, startOfDay).Return(decimal.RequireFromString("120.50"), nil)
	stats.On("RecentOrders", ctx, 5).Return(nil, nil)
	variants.On("ListLowStock", ctx, 10, 50).Return([]*models.LowStockVariant{{Stock: 2}}, nil)
	stats.On("CountOrdersByStatus", ctx, models.OrderStatusPending).Return(3, nil)
	cache.On("SetDashboard", ctx, mock.AnythingOfType("*models.DashboardStats"), DashboardTTL).Return(nil)

	got, err := svc.RefreshDashboard(ctx)
	require.NoError(t, err)
	assert.True(t, got.TodaysSales.Equal(decimal.RequireFromString("120.50")))
	assert.NotNil(t, got.RecentOrders)
	assert.Empty(t, got.RecentOrders)
	assert.Len(t, got.LowStockVariants, 1)
	assert.Equal(t, 3, got.PendingOrders)
	assert.Equal(t, 10, got.LowStockLimit)
	stats.AssertExpectations(t)
	variants.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestDashboard_ServesCachedCopy(t *testing.T) {
	stats, variants, cache := new(mockStatsRepo), new(mockVariantRepo), new(mockDashboardCache)
	svc := newTestService(stats, variants, cache)
	cached := &models.DashboardStats{PendingOrders: 7}
	cache.On("GetDashboard", mock.Anything).Return(cached, nil)

	got, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Same(t, cached, got)
	stats.AssertNotCalled(t, "SalesSince", mock.Anything, mock.Anything)
}

func TestDashboard_CacheErrorFallsBackToRefresh(t *testing.T) {
	stats, variants, cache := new(mockStatsRepo), new(mockVariantRepo), new(mockDashboardCache)
	svc := newTestService(stats, variants, cache)
	cache.On("GetDashboard", mock.Anything).Return(nil, errors.New("redis down"))
	stats.On("SalesSince", mock.Anything, mock.Anything).Return(decimal.Zero, nil)
	stats.On("RecentOrders", mock.Anything, 5).Return([]*models.Order{}, nil)
	variants.On("ListLowStock", mock.Anything, 10, 50).Return(nil, nil)
	stats.On("CountOrdersByStatus", mock.Anything, models.OrderStatusPending).Return(0, nil)
	cache.On("SetDashboard", mock.Anything, mock.Anything, DashboardTTL).Return(errors.New("redis down"))

	got, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got.LowStockVariants)
}

func TestRefreshDashboard_RepoError(t *testing.T) {
	stats, variants, cache := new(mockStatsRepo), new(mockVariantRepo), new(mockDashboardCache)
	svc := newTestService(stats, variants, cache)
	boom := errors.New("query failed")
	stats.On("SalesSince", mock.Anything, mock.Anything).Return(decimal.Zero, boom)

	_, err := svc.RefreshDashboard(context.Background())
	assert.ErrorIs(t, err, boom)
	cache.AssertNotCalled(t, "SetDashboard", mock.Anything, mock.Anything, mock.Anything)
}

func TestLowStock_UsesConfiguredThreshold(t *testing.T) {
	stats, variants, cache := new(mockStatsRepo), new(mockVariantRepo), new(mockDashboardCache)
	svc := newTestService(stats, variants, cache)
	variants.On("ListLowStock", mock.Anything, 10, 25).Return(nil, nil)

	got, err := svc.LowStock(context.Background(), 25)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, 10, svc.LowStockThreshold())
	variants.AssertExpectations(t)
}
