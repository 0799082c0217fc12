package product

import (
	"context"

	"pharmacy-pos/internal/domain"
)

// ListFilter narrows catalog listings. Search matches name, generic name,
// SKU or barcode, case-insensitively.
type ListFilter struct {
	Search          string
	CategoryID      int64
	Skip            int
	Limit           int
	IncludeInactive bool
}

type Repository interface {
	List(ctx context.Context, f ListFilter) ([]domain.Product, error)
	ListLowStock(ctx context.Context, limit int) ([]domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetByCode(ctx context.Context, code string) (*domain.Product, error)
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, p domain.Product) (*domain.Product, error)
	Deactivate(ctx context.Context, id int64) error
	AdjustStock(ctx context.Context, adj domain.StockAdjustment) (*domain.StockAdjustment, error)
	InventoryStats(ctx context.Context) (*domain.InventoryStats, error)
}
