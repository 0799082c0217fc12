package sale

import (
	"context"
	"time"

	"pharmacy-pos/internal/domain"
)

// ListFilter pages through sales, newest first. Start and End bound the
// sale date inclusively when set.
type ListFilter struct {
	Skip  int
	Limit int
	Start *time.Time
	End   *time.Time
}

type Repository interface {
	Create(ctx context.Context, in domain.SaleInput) (*domain.Sale, error)
	GetByID(ctx context.Context, id int64) (*domain.Sale, error)
	List(ctx context.Context, f ListFilter) ([]domain.Sale, error)
	Summary(ctx context.Context, since time.Time) (*domain.SaleSummary, error)
	TopSellers(ctx context.Context, since time.Time, limit int) ([]domain.ProductSales, error)
	DailyTrend(ctx context.Context, since time.Time) ([]domain.DailySales, error)
}
