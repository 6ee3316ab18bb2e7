package jobs

import (
	"context"

	"storefront/internal/analytics"

	"go.uber.org/zap"
)

type DashboardRefreshService struct {
	analyticsService *analytics.AnalyticsService
	logger           *zap.Logger
}

func NewDashboardRefreshService(analyticsService *analytics.AnalyticsService, logger *zap.Logger) *DashboardRefreshService {
	return &DashboardRefreshService{analyticsService: analyticsService, logger: logger}
}

func (d *DashboardRefreshService) Run(ctx context.Context) error {
	stats, err := d.analyticsService.RefreshDashboard(ctx)
	if err != nil {
		d.logger.Error("dashboard refresh failed", zap.Error(err))
		return err
	}
	d.logger.Info("dashboard refreshed",
		zap.String("todays_sales", stats.TodaysSales.StringFixed(2)),
		zap.Int("pending_orders", stats.PendingOrders),
		zap.Int("low_stock_variants", len(stats.LowStockVariants)),
	)
	return nil
}
