package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"pharmacy-pos/internal/domain"
	productrepo "pharmacy-pos/internal/repository/product"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

// ListInput mirrors the catalog query string.
type ListInput struct {
	Search          string
	CategoryID      int64
	Skip            int
	Limit           int
	IncludeInactive bool
}

func (s *Service) List(ctx context.Context, in ListInput) ([]domain.Product, error) {
	limit, err := NormalizeLimit(in.Limit)
	if err != nil {
		return nil, err
	}
	if in.Skip < 0 {
		return nil, fmt.Errorf("skip must not be negative: %w", domain.ErrInvalidInput)
	}
	return s.repo.List(ctx, productrepo.ListFilter{
		Search:          strings.TrimSpace(in.Search),
		CategoryID:      in.CategoryID,
		Skip:            in.Skip,
		Limit:           limit,
		IncludeInactive: in.IncludeInactive,
	})
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Product, error) {
	if id <= 0 {
		return nil, domain.ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// LookupCode resolves a scanned barcode or a typed SKU.
func (s *Service) LookupCode(ctx context.Context, code string) (*domain.Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("code required: %w", domain.ErrInvalidInput)
	}
	return s.repo.GetByCode(ctx, code)
}

func (s *Service) LowStock(ctx context.Context, limit int) ([]domain.Product, error) {
	limit, err := NormalizeLimit(limit)
	if err != nil {
		return nil, err
	}
	return s.repo.ListLowStock(ctx, limit)
}

// NormalizeLimit applies the default page size and rejects values outside
// 1..MaxLimit. Zero means "not given".
func NormalizeLimit(limit int) (int, error) {
	if limit == 0 {
		return DefaultLimit, nil
	}
	if limit < 1 || limit > MaxLimit {
		return 0, fmt.Errorf("limit must be between 1 and %d: %w", MaxLimit, domain.ErrInvalidInput)
	}
	return limit, nil
}

// CreateInput is a new catalog entry. IsActive defaults to true.
type CreateInput struct {
	SKU               string          `json:"sku"`
	Barcode           string          `json:"barcode"`
	Name              string          `json:"name"`
	GenericName       string          `json:"genericName"`
	Description       string          `json:"description"`
	CostPrice         decimal.Decimal `json:"costPrice"`
	SellingPrice      decimal.Decimal `json:"sellingPrice"`
	MRP               decimal.Decimal `json:"mrp"`
	TotalStock        int             `json:"totalStock"`
	LowStockThreshold *int            `json:"lowStockThreshold"`
	IsActive          *bool           `json:"isActive"`
	CategoryID        int64           `json:"categoryId"`
	SupplierID        int64           `json:"supplierId"`
}

const defaultLowStockThreshold = 10

func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Product, error) {
	p := domain.Product{
		SKU:               strings.TrimSpace(in.SKU),
		Barcode:           strings.TrimSpace(in.Barcode),
		Name:              strings.TrimSpace(in.Name),
		GenericName:       strings.TrimSpace(in.GenericName),
		Description:       strings.TrimSpace(in.Description),
		CostPrice:         in.CostPrice,
		SellingPrice:      in.SellingPrice,
		MRP:               in.MRP,
		TotalStock:        in.TotalStock,
		LowStockThreshold: defaultLowStockThreshold,
		IsActive:          true,
		CategoryID:        in.CategoryID,
		SupplierID:        in.SupplierID,
	}
	if in.LowStockThreshold != nil {
		p.LowStockThreshold = *in.LowStockThreshold
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if err := validate(p); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, p)
}

// Patch changes only the fields that are set. Stock is not editable here;
// use AdjustStock.
type Patch struct {
	SKU               *string          `json:"sku"`
	Barcode           *string          `json:"barcode"`
	Name              *string          `json:"name"`
	GenericName       *string          `json:"genericName"`
	Description       *string          `json:"description"`
	CostPrice         *decimal.Decimal `json:"costPrice"`
	SellingPrice      *decimal.Decimal `json:"sellingPrice"`
	MRP               *decimal.Decimal `json:"mrp"`
	LowStockThreshold *int             `json:"lowStockThreshold"`
	IsActive          *bool            `json:"isActive"`
	CategoryID        *int64           `json:"categoryId"`
	SupplierID        *int64           `json:"supplierId"`
}

func (s *Service) Update(ctx context.Context, id int64, patch Patch) (*domain.Product, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p := *current
	setString(&p.SKU, patch.SKU)
	setString(&p.Barcode, patch.Barcode)
	setString(&p.Name, patch.Name)
	setString(&p.GenericName, patch.GenericName)
	setString(&p.Description, patch.Description)
	if patch.CostPrice != nil {
		p.CostPrice = *patch.CostPrice
	}
	if patch.SellingPrice != nil {
		p.SellingPrice = *patch.SellingPrice
	}
	if patch.MRP != nil {
		p.MRP = *patch.MRP
	}
	if patch.LowStockThreshold != nil {
		p.LowStockThreshold = *patch.LowStockThreshold
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
	if patch.CategoryID != nil {
		p.CategoryID = *patch.CategoryID
	}
	if patch.SupplierID != nil {
		p.SupplierID = *patch.SupplierID
	}
	if err := validate(p); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, p)
}

// Deactivate hides the product from the till and from default listings.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.ErrNotFound
	}
	return s.repo.Deactivate(ctx, id)
}

type AdjustInput struct {
	Type     domain.AdjustmentType `json:"adjustmentType"`
	Quantity int                   `json:"quantity"`
	Reason   string                `json:"reason"`
}

// AdjustStock records a stock change outside of a sale. For corrections
// Quantity is the counted stock; for every other type it is the amount moved.
func (s *Service) AdjustStock(ctx context.Context, productID, performedBy int64, in AdjustInput) (*domain.StockAdjustment, error) {
	if productID <= 0 {
		return nil, domain.ErrNotFound
	}
	in.Type = domain.AdjustmentType(strings.ToLower(strings.TrimSpace(string(in.Type))))
	if !in.Type.Valid() {
		return nil, fmt.Errorf("unknown adjustment type %q: %w", in.Type, domain.ErrInvalidInput)
	}
	if in.Type == domain.AdjustmentCorrection {
		if in.Quantity < 0 {
			return nil, domain.ErrInvalidQuantity
		}
	} else if in.Quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	return s.repo.AdjustStock(ctx, domain.StockAdjustment{
		ProductID:   productID,
		Type:        in.Type,
		Quantity:    in.Quantity,
		Reason:      strings.TrimSpace(in.Reason),
		PerformedBy: performedBy,
	})
}

func validate(p domain.Product) error {
	switch {
	case p.SKU == "" || len(p.SKU) > 50:
		return fmt.Errorf("sku must be 1-50 characters: %w", domain.ErrInvalidInput)
	case p.Name == "" || len(p.Name) > 200:
		return fmt.Errorf("name must be 1-200 characters: %w", domain.ErrInvalidInput)
	case len(p.Barcode) > 100:
		return fmt.Errorf("barcode too long: %w", domain.ErrInvalidInput)
	case p.CostPrice.IsNegative() || p.SellingPrice.IsNegative() || p.MRP.IsNegative():
		return fmt.Errorf("prices must not be negative: %w", domain.ErrInvalidInput)
	case p.TotalStock < 0:
		return fmt.Errorf("stock must not be negative: %w", domain.ErrInvalidInput)
	case p.LowStockThreshold < 0:
		return fmt.Errorf("low stock threshold must not be negative: %w", domain.ErrInvalidInput)
	case p.CategoryID < 0 || p.SupplierID < 0:
		return fmt.Errorf("invalid category or supplier: %w", domain.ErrInvalidInput)
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
