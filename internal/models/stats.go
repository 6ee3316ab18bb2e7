package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesStats are the store-wide totals
type SalesStats struct {
	TotalSales  decimal.Decimal `json:"total_sales"`
	TotalOrders int             `json:"total_orders"`
	TotalUsers  int             `json:"total_users"`
}

// DashboardStats backs the staff dashboard
type DashboardStats struct {
	TodaysSales      decimal.Decimal    `json:"todays_sales"`
	RecentOrders     []*Order           `json:"recent_orders"`
	LowStockVariants []*LowStockVariant `json:"low_stock_variants"`
	PendingOrders    int                `json:"pending_orders"`
	LowStockLimit    int                `json:"low_stock_threshold"`
	GeneratedAt      time.Time          `json:"generated_at"`
}
