package handlers

import (
	"context"
	"net/http"
	"strconv"

	"storefront/internal/common"
	"storefront/internal/models"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// StatsProvider is implemented by analytics.AnalyticsService
type StatsProvider interface {
	SalesStats(ctx context.Context) (*models.SalesStats, error)
	Dashboard(ctx context.Context) (*models.DashboardStats, error)
	LowStock(ctx context.Context, limit int) ([]*models.LowStockVariant, error)
	LowStockThreshold() int
}

const (
	defaultLowStockLimit = 50
	maxLowStockLimit     = 500
)

type StatsHandlers struct {
	stats  StatsProvider
	logger *zap.Logger
}

func NewStatsHandlers(stats StatsProvider, logger *zap.Logger) *StatsHandlers {
	return &StatsHandlers{stats: stats, logger: logger}
}

// GetStats handles GET /stats (staff)
func (h *StatsHandlers) GetStats(c echo.Context) error {
	stats, err := h.stats.SalesStats(c.Request().Context())
	if err != nil {
		return respondError(c, h.logger, "get sales stats", "Stats", err)
	}
	return c.JSON(http.StatusOK, stats)
}

// GetDashboard handles GET /stats/dashboard (staff)
func (h *StatsHandlers) GetDashboard(c echo.Context) error {
	dashboard, err := h.stats.Dashboard(c.Request().Context())
	if err != nil {
		return respondError(c, h.logger, "get dashboard", "Stats", err)
	}
	return c.JSON(http.StatusOK, dashboard)
}

// GetLowStock handles GET /stats/low-stock (staff)
func (h *StatsHandlers) GetLowStock(c echo.Context) error {
	limit := defaultLowStockLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLowStockLimit {
			return common.SendValidationError(c, "limit", "must be between 1 and 500")
		}
		limit = n
	}

	variants, err := h.stats.LowStock(c.Request().Context(), limit)
	if err != nil {
		return respondError(c, h.logger, "list low stock variants", "Stats", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"threshold": h.stats.LowStockThreshold(),
		"results":   variants,
	})
}
