// Package dashboard assembles the back-office KPIs from sales and catalog
// aggregates.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"pharmacy-pos/internal/domain"
)

const (
	MaxDays        = 365
	defaultTopDays = 30
	defaultTrend   = 7
	defaultTop     = 10
	maxTop         = 100
)

type salesStats interface {
	Summary(ctx context.Context, since time.Time) (*domain.SaleSummary, error)
	TopSellers(ctx context.Context, since time.Time, limit int) ([]domain.ProductSales, error)
	DailyTrend(ctx context.Context, since time.Time) ([]domain.DailySales, error)
}

type inventoryStats interface {
	InventoryStats(ctx context.Context) (*domain.InventoryStats, error)
}

type Service struct {
	sales     salesStats
	inventory inventoryStats
	now       func() time.Time
}

func New(sales salesStats, inventory inventoryStats) *Service {
	return &Service{sales: sales, inventory: inventory, now: time.Now}
}

type KPIs struct {
	SalesToday     int             `json:"totalSalesCount"`
	RevenueToday   decimal.Decimal `json:"totalSalesToday"`
	ProfitToday    decimal.Decimal `json:"profitToday"`
	ItemsSoldToday int             `json:"itemsSoldToday"`
	ActiveProducts int             `json:"totalProducts"`
	LowStockItems  int             `json:"lowStockItems"`
	OutOfStock     int             `json:"outOfStockItems"`
	InventoryValue decimal.Decimal `json:"inventoryValue"`
}

func (s *Service) KPIs(ctx context.Context) (*KPIs, error) {
	today, err := s.sales.Summary(ctx, s.midnight())
	if err != nil {
		return nil, err
	}
	stock, err := s.inventory.InventoryStats(ctx)
	if err != nil {
		return nil, err
	}
	return &KPIs{
		SalesToday:     today.TotalSales,
		RevenueToday:   today.TotalRevenue,
		ProfitToday:    today.TotalProfit,
		ItemsSoldToday: today.TotalItemsSold,
		ActiveProducts: stock.ActiveProducts,
		LowStockItems:  stock.LowStockItems,
		OutOfStock:     stock.OutOfStock,
		InventoryValue: stock.InventoryValue,
	}, nil
}

// FastMoving ranks products by units sold over the last days days. Zero
// arguments take the defaults.
func (s *Service) FastMoving(ctx context.Context, days, limit int) ([]domain.ProductSales, error) {
	days, err := normalize(days, defaultTopDays, MaxDays, "days")
	if err != nil {
		return nil, err
	}
	limit, err = normalize(limit, defaultTop, maxTop, "limit")
	if err != nil {
		return nil, err
	}
	return s.sales.TopSellers(ctx, s.now().AddDate(0, 0, -days), limit)
}

// SalesTrend returns per-day sales for the last days calendar days,
// today included.
func (s *Service) SalesTrend(ctx context.Context, days int) ([]domain.DailySales, error) {
	days, err := normalize(days, defaultTrend, MaxDays, "days")
	if err != nil {
		return nil, err
	}
	return s.sales.DailyTrend(ctx, s.midnight().AddDate(0, 0, 1-days))
}

func (s *Service) midnight() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func normalize(v, def, upper int, name string) (int, error) {
	if v == 0 {
		return def, nil
	}
	if v < 1 || v > upper {
		return 0, fmt.Errorf("%s must be between 1 and %d: %w", name, upper, domain.ErrInvalidInput)
	}
	return v, nil
}
