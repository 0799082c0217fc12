package product

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"pharmacy-pos/internal/domain"
	productrepo "pharmacy-pos/internal/repository/product"
)

type stubRepo struct {
	products    []domain.Product
	product     *domain.Product
	err         error
	lastFilter  productrepo.ListFilter
	lastCode    string
	lastLimit   int
	created     *domain.Product
	updated     *domain.Product
	deactivated int64
	adjusted    *domain.StockAdjustment
}

func (s *stubRepo) List(_ context.Context, f productrepo.ListFilter) ([]domain.Product, error) {
	s.lastFilter = f
	return s.products, s.err
}

func (s *stubRepo) ListLowStock(_ context.Context, limit int) ([]domain.Product, error) {
	s.lastLimit = limit
	return s.products, s.err
}

func (s *stubRepo) GetByID(_ context.Context, _ int64) (*domain.Product, error) {
	return s.product, s.err
}

func (s *stubRepo) GetByCode(_ context.Context, code string) (*domain.Product, error) {
	s.lastCode = code
	return s.product, s.err
}

func (s *stubRepo) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	return &p, s.err
}

func (s *stubRepo) Create(_ context.Context, p domain.Product) (*domain.Product, error) {
	s.created = &p
	return &p, s.err
}

func (s *stubRepo) Update(_ context.Context, p domain.Product) (*domain.Product, error) {
	s.updated = &p
	return &p, s.err
}

func (s *stubRepo) Deactivate(_ context.Context, id int64) error {
	s.deactivated = id
	return s.err
}

func (s *stubRepo) AdjustStock(_ context.Context, adj domain.StockAdjustment) (*domain.StockAdjustment, error) {
	s.adjusted = &adj
	return &adj, s.err
}

func (s *stubRepo) InventoryStats(_ context.Context) (*domain.InventoryStats, error) {
	return &domain.InventoryStats{}, s.err
}

func TestServiceListDefaults(t *testing.T) {
	repo := &stubRepo{products: []domain.Product{{ID: 1}}}
	svc := New(repo)
	got, err := svc.List(context.Background(), ListInput{Search: "  amox "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("unexpected products: %+v", got)
	}
	if repo.lastFilter.Limit != DefaultLimit || repo.lastFilter.Search != "amox" {
		t.Fatalf("unexpected filter: %+v", repo.lastFilter)
	}
}

func TestServiceListRejectsBadPaging(t *testing.T) {
	svc := New(&stubRepo{})
	for _, in := range []ListInput{{Limit: 101}, {Limit: -1}, {Skip: -1}} {
		if _, err := svc.List(context.Background(), in); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("expected invalid input for %+v, got %v", in, err)
		}
	}
}

func TestServiceLookupCode(t *testing.T) {
	repo := &stubRepo{product: &domain.Product{ID: 3, SKU: "CET-10"}}
	svc := New(repo)
	got, err := svc.LookupCode(context.Background(), " 8901234567890 ")
	if err != nil || got.ID != 3 {
		t.Fatalf("unexpected result %+v (%v)", got, err)
	}
	if repo.lastCode != "8901234567890" {
		t.Fatalf("expected trimmed code, got %q", repo.lastCode)
	}
	if _, err := svc.LookupCode(context.Background(), "   "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestServiceGetRejectsNonPositiveID(t *testing.T) {
	svc := New(&stubRepo{product: &domain.Product{ID: 1}})
	if _, err := svc.Get(context.Background(), 0); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServiceLowStockPassesLimit(t *testing.T) {
	repo := &stubRepo{}
	svc := New(repo)
	if _, err := svc.LowStock(context.Background(), 20); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastLimit != 20 {
		t.Fatalf("expected limit 20, got %d", repo.lastLimit)
	}
}

func TestServiceCreateDefaultsAndTrims(t *testing.T) {
	repo := &stubRepo{}
	svc := New(repo)
	_, err := svc.Create(context.Background(), CreateInput{
		SKU:          " AMOX-250 ",
		Name:         "Amoxicillin 250mg",
		CostPrice:    decimal.RequireFromString("3"),
		SellingPrice: decimal.RequireFromString("5.5"),
		TotalStock:   40,
		CategoryID:   2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := repo.created
	if got.SKU != "AMOX-250" || !got.IsActive || got.LowStockThreshold != 10 || got.CategoryID != 2 {
		t.Fatalf("unexpected product %+v", got)
	}
}

func TestServiceCreateValidation(t *testing.T) {
	negative := -1
	cases := map[string]CreateInput{
		"missing sku":        {Name: "x"},
		"missing name":       {SKU: "x"},
		"negative price":     {SKU: "x", Name: "x", SellingPrice: decimal.RequireFromString("-1")},
		"negative stock":     {SKU: "x", Name: "x", TotalStock: -5},
		"negative threshold": {SKU: "x", Name: "x", LowStockThreshold: &negative},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			repo := &stubRepo{}
			if _, err := New(repo).Create(context.Background(), in); !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
			if repo.created != nil {
				t.Fatalf("repo must not be called")
			}
		})
	}
}

func TestServiceUpdateAppliesPatch(t *testing.T) {
	current := &domain.Product{
		ID: 5, SKU: "CET-10", Name: "Cetirizine 10mg",
		SellingPrice: decimal.RequireFromString("2.50"), TotalStock: 30, LowStockThreshold: 10, IsActive: true, CategoryID: 3,
	}
	repo := &stubRepo{product: current}
	svc := New(repo)

	price := decimal.RequireFromString("2.75")
	noCategory := int64(0)
	name := "  Cetirizine HCl 10mg "
	if _, err := svc.Update(context.Background(), 5, Patch{SellingPrice: &price, CategoryID: &noCategory, Name: &name}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := repo.updated
	if !got.SellingPrice.Equal(price) || got.CategoryID != 0 || got.Name != "Cetirizine HCl 10mg" {
		t.Fatalf("unexpected update %+v", got)
	}
	if got.SKU != "CET-10" || got.TotalStock != 30 || !got.IsActive {
		t.Fatalf("unset fields must be kept, got %+v", got)
	}
	if current.Name != "Cetirizine 10mg" {
		t.Fatalf("patch must not alias the loaded product")
	}

	empty := ""
	if _, err := svc.Update(context.Background(), 5, Patch{SKU: &empty}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestServiceDeactivate(t *testing.T) {
	repo := &stubRepo{}
	svc := New(repo)
	if err := svc.Deactivate(context.Background(), 9); err != nil || repo.deactivated != 9 {
		t.Fatalf("unexpected result %d %v", repo.deactivated, err)
	}
	if err := svc.Deactivate(context.Background(), 0); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServiceAdjustStock(t *testing.T) {
	repo := &stubRepo{}
	svc := New(repo)

	adj, err := svc.AdjustStock(context.Background(), 4, 2, AdjustInput{Type: " Damage ", Quantity: 3, Reason: " broken bottles "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if adj.Type != domain.AdjustmentDamage || adj.PerformedBy != 2 || adj.Reason != "broken bottles" || adj.ProductID != 4 {
		t.Fatalf("unexpected adjustment %+v", adj)
	}
	if _, err := svc.AdjustStock(context.Background(), 4, 2, AdjustInput{Type: domain.AdjustmentCorrection, Quantity: 0}); err != nil {
		t.Fatalf("a zero count correction is allowed: %v", err)
	}

	cases := []struct {
		in   AdjustInput
		want error
	}{
		{AdjustInput{Type: "theft", Quantity: 1}, domain.ErrInvalidInput},
		{AdjustInput{Type: domain.AdjustmentAddition, Quantity: 0}, domain.ErrInvalidQuantity},
		{AdjustInput{Type: domain.AdjustmentCorrection, Quantity: -1}, domain.ErrInvalidQuantity},
	}
	for _, tc := range cases {
		if _, err := svc.AdjustStock(context.Background(), 4, 2, tc.in); !errors.Is(err, tc.want) {
			t.Fatalf("%+v: expected %v, got %v", tc.in, tc.want, err)
		}
	}
}
