package analytics

import (
	"context"
	"time"

	"storefront/internal/caching"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"go.uber.org/zap"
)

const (
	DashboardTTL       = 5 * time.Minute
	recentOrdersLen    = 5
	lowStockDisplayLen = 50
)

// AnalyticsService computes store statistics and keeps the dashboard cached
type AnalyticsService struct {
	statsRepo         repositories.StatsRepository
	variantRepo       repositories.VariantRepository
	cacheService      caching.CacheService
	logger            *zap.Logger
	lowStockThreshold int
	now               func() time.Time
}

func NewAnalyticsService(statsRepo repositories.StatsRepository, variantRepo repositories.VariantRepository, cacheService caching.CacheService, logger *zap.Logger, lowStockThreshold int) *AnalyticsService {
	return &AnalyticsService{
		statsRepo:         statsRepo,
		variantRepo:       variantRepo,
		cacheService:      cacheService,
		logger:            logger,
		lowStockThreshold: lowStockThreshold,
		now:               time.Now,
	}
}

// SalesStats returns store-wide totals, always fresh
func (s *AnalyticsService) SalesStats(ctx context.Context) (*models.SalesStats, error) {
	return s.statsRepo.SalesStats(ctx)
}

// Dashboard serves the cached dashboard, computing it on a miss
func (s *AnalyticsService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	cached, err := s.cacheService.GetDashboard(ctx)
	if err != nil {
		s.logger.Warn("dashboard cache read failed", zap.Error(err))
	}
	if cached != nil {
		return cached, nil
	}
	return s.RefreshDashboard(ctx)
}

// RefreshDashboard recomputes the dashboard and stores it for DashboardTTL
func (s *AnalyticsService) RefreshDashboard(ctx context.Context) (*models.DashboardStats, error) {
	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	todays, err := s.statsRepo.SalesSince(ctx, startOfDay)
	if err != nil {
		return nil, err
	}
	recent, err := s.statsRepo.RecentOrders(ctx, recentOrdersLen)
	if err != nil {
		return nil, err
	}
	lowStock, err := s.variantRepo.ListLowStock(ctx, s.lowStockThreshold, lowStockDisplayLen)
	if err != nil {
		return nil, err
	}
	pending, err := s.statsRepo.CountOrdersByStatus(ctx, models.OrderStatusPending)
	if err != nil {
		return nil, err
	}

	stats := &models.DashboardStats{
		TodaysSales:      todays,
		RecentOrders:     recent,
		LowStockVariants: lowStock,
		PendingOrders:    pending,
		LowStockLimit:    s.lowStockThreshold,
		GeneratedAt:      now.UTC(),
	}
	if stats.RecentOrders == nil {
		stats.RecentOrders = []*models.Order{}
	}
	if stats.LowStockVariants == nil {
		stats.LowStockVariants = []*models.LowStockVariant{}
	}

	if err := s.cacheService.SetDashboard(ctx, stats, DashboardTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
	return stats, nil
}

// LowStock lists variants under the configured threshold
func (s *AnalyticsService) LowStock(ctx context.Context, limit int) ([]*models.LowStockVariant, error) {
	variants, err := s.variantRepo.ListLowStock(ctx, s.lowStockThreshold, limit)
	if err != nil {
		return nil, err
	}
	if variants == nil {
		variants = []*models.LowStockVariant{}
	}
	return variants, nil
}

func (s *AnalyticsService) LowStockThreshold() int {
	return s.lowStockThreshold
}
