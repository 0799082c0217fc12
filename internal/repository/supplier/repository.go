package supplier

import (
	"context"

	"pharmacy-pos/internal/domain"
)

type Repository interface {
	List(ctx context.Context, skip, limit int) ([]domain.Supplier, error)
	GetByID(ctx context.Context, id int64) (*domain.Supplier, error)
	Create(ctx context.Context, s domain.Supplier) (*domain.Supplier, error)
	Update(ctx context.Context, s domain.Supplier) (*domain.Supplier, error)
	Delete(ctx context.Context, id int64) error
}
