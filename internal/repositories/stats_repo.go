package repositories

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/models"

	"github.com/shopspring/decimal"
)

// StatsRepository runs the aggregate queries behind the staff dashboard
type StatsRepository interface {
	SalesStats(ctx context.Context) (*models.SalesStats, error)
	SalesSince(ctx context.Context, since time.Time) (decimal.Decimal, error)
	RecentOrders(ctx context.Context, limit int) ([]*models.Order, error)
	CountOrdersByStatus(ctx context.Context, status models.OrderStatus) (int, error)
}

type statsRepo struct {
	db DBTX
}

func NewStatsRepo(db DBTX) StatsRepository {
	return &statsRepo{db: db}
}

func (r *statsRepo) SalesStats(ctx context.Context) (*models.SalesStats, error) {
	query := `
		SELECT
			(SELECT COALESCE(SUM(total), 0) FROM orders),
			(SELECT COUNT(*) FROM orders),
			(SELECT COUNT(*) FROM users)
	`
	stats := &models.SalesStats{}
	if err := r.db.QueryRow(ctx, query).Scan(&stats.TotalSales, &stats.TotalOrders, &stats.TotalUsers); err != nil {
		return nil, fmt.Errorf("failed to compute sales stats: %w", err)
	}
	return stats, nil
}

// SalesSince sums totals of paid orders placed at or after since
func (r *statsRepo) SalesSince(ctx context.Context, since time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(total), 0)
		FROM orders
		WHERE placed_at >= $1 AND status IN ($2, $3, $4)
	`
	var total decimal.Decimal
	err := r.db.QueryRow(ctx, query, since, models.OrderStatusProcessing, models.OrderStatusShipped, models.OrderStatusDelivered).
		Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum sales: %w", err)
	}
	return total, nil
}

func (r *statsRepo) RecentOrders(ctx context.Context, limit int) ([]*models.Order, error) {
	rows, err := r.db.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY placed_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent orders: %w", err)
	}
	defer rows.Close()

	orders := []*models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *statsRepo) CountOrdersByStatus(ctx context.Context, status models.OrderStatus) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE status = $1`, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}
