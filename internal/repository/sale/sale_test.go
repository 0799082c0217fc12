package sale

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"pharmacy-pos/internal/db/dbtest"
	"pharmacy-pos/internal/domain"
	"pharmacy-pos/internal/repository/product"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedCatalog(t *testing.T, ctx context.Context, repo product.Repository) (domain.Product, domain.Product) {
	t.Helper()
	para, err := repo.Upsert(ctx, domain.Product{
		SKU: "PARA-500", Name: "Paracetamol 500mg",
		CostPrice: dec("4.00"), SellingPrice: dec("10.00"),
		TotalStock: 5, LowStockThreshold: 2, IsActive: true,
	})
	if err != nil {
		t.Fatalf("seed paracetamol: %v", err)
	}
	ors, err := repo.Upsert(ctx, domain.Product{
		SKU: "ORS-1", Name: "Oral rehydration salts",
		CostPrice: dec("0.50"), SellingPrice: dec("1.25"),
		TotalStock: 40, LowStockThreshold: 10, IsActive: true,
	})
	if err != nil {
		t.Fatalf("seed ors: %v", err)
	}
	return *para, *ors
}

func TestPostgres_CreateSale(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	products := product.NewPostgres(pool, nil)
	repo := NewPostgres(pool, nil).(*postgresRepo)
	repo.now = func() time.Time { return time.Date(2026, 1, 14, 9, 30, 0, 0, time.UTC) }

	para, ors := seedCatalog(t, ctx, products)

	in := domain.SaleInput{
		UserID: 7,
		Items: []domain.SaleItemInput{
			{ProductID: ors.ID, Quantity: 2, UnitPrice: dec("1.25")},
			{ProductID: para.ID, Quantity: 4, UnitPrice: dec("10.00"), DiscountAmount: dec("5.00")},
		},
		DiscountAmount: dec("1.00"),
		TaxAmount:      dec("0.50"),
		PaymentMethod:  domain.PaymentCash,
		AmountPaid:     dec("50.00"),
	}
	sale, err := repo.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sale.InvoiceNumber != "INV-20260114-0001" {
		t.Fatalf("unexpected invoice %q", sale.InvoiceNumber)
	}
	// 2*1.25 + (40 - 5) = 37.50; 37.50 - 1.00 + 0.50 = 37.00
	if !sale.Subtotal.Equal(dec("37.50")) || !sale.TotalAmount.Equal(dec("37.00")) || !sale.ChangeAmount.Equal(dec("13.00")) {
		t.Fatalf("unexpected totals %+v", sale)
	}
	if len(sale.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(sale.Items))
	}

	got, err := products.GetByID(ctx, para.ID)
	if err != nil || got.TotalStock != 1 {
		t.Fatalf("expected paracetamol stock 1, got %+v (%v)", got, err)
	}

	second, err := repo.Create(ctx, domain.SaleInput{
		UserID:        7,
		Items:         []domain.SaleItemInput{{ProductID: ors.ID, Quantity: 1, UnitPrice: dec("1.25")}},
		PaymentMethod: domain.PaymentCard,
		AmountPaid:    dec("1.25"),
	})
	if err != nil {
		t.Fatalf("Create second: %v", err)
	}
	if second.InvoiceNumber != "INV-20260114-0002" {
		t.Fatalf("unexpected second invoice %q", second.InvoiceNumber)
	}

	loaded, err := repo.GetByID(ctx, sale.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(loaded.Items) != 2 || loaded.Items[0].ProductName == "" {
		t.Fatalf("expected items with names, got %+v", loaded.Items)
	}
	if !loaded.TotalAmount.Equal(dec("37.00")) {
		t.Fatalf("unexpected stored total %s", loaded.TotalAmount)
	}

	list, err := repo.List(ctx, ListFilter{Limit: 10})
	if err != nil || len(list) != 2 || list[0].ID != second.ID {
		t.Fatalf("unexpected list %+v (%v)", list, err)
	}
}

func TestPostgres_CreateRejects(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	products := product.NewPostgres(pool, nil)
	repo := NewPostgres(pool, nil)

	para, _ := seedCatalog(t, ctx, products)

	_, err := repo.Create(ctx, domain.SaleInput{
		UserID:     1,
		Items:      []domain.SaleItemInput{{ProductID: para.ID, Quantity: 6, UnitPrice: dec("10.00")}},
		AmountPaid: dec("100"),
	})
	var stockErr *domain.StockError
	if !errors.As(err, &stockErr) || stockErr.Available != 5 || stockErr.Requested != 6 {
		t.Fatalf("expected stock error, got %v", err)
	}

	_, err = repo.Create(ctx, domain.SaleInput{
		UserID:     1,
		Items:      []domain.SaleItemInput{{ProductID: para.ID, Quantity: 2, UnitPrice: dec("10.00")}},
		AmountPaid: dec("19.99"),
	})
	if !errors.Is(err, domain.ErrInsufficientPayment) {
		t.Fatalf("expected insufficient payment, got %v", err)
	}

	_, err = repo.Create(ctx, domain.SaleInput{
		UserID:     1,
		Items:      []domain.SaleItemInput{{ProductID: 424242, Quantity: 1, UnitPrice: dec("1")}},
		AmountPaid: dec("1"),
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if _, err := repo.Create(ctx, domain.SaleInput{UserID: 1}); !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("expected empty cart, got %v", err)
	}

	got, err := products.GetByID(ctx, para.ID)
	if err != nil || got.TotalStock != 5 {
		t.Fatalf("stock must be untouched after failures, got %+v (%v)", got, err)
	}
}

func TestPostgres_Summary(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	products := product.NewPostgres(pool, nil)
	repo := NewPostgres(pool, nil)

	para, ors := seedCatalog(t, ctx, products)
	since := time.Now().Add(-time.Hour)

	if _, err := repo.Create(ctx, domain.SaleInput{
		UserID: 3,
		Items: []domain.SaleItemInput{
			{ProductID: para.ID, Quantity: 2, UnitPrice: dec("10.00"), DiscountAmount: dec("2.00")},
			{ProductID: ors.ID, Quantity: 4, UnitPrice: dec("1.25")},
		},
		DiscountAmount: dec("1.00"),
		AmountPaid:     dec("30"),
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	sum, err := repo.Summary(ctx, since)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	// revenue 18 + 5 - 1 = 22; profit (18 - 8) + (5 - 2) - 1 = 12
	if sum.TotalSales != 1 || sum.TotalItemsSold != 6 {
		t.Fatalf("unexpected counts %+v", sum)
	}
	if !sum.TotalRevenue.Equal(dec("22")) || !sum.TotalProfit.Equal(dec("12")) {
		t.Fatalf("unexpected amounts revenue=%s profit=%s", sum.TotalRevenue, sum.TotalProfit)
	}
}

func TestPostgres_TopSellersAndTrend(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	products := product.NewPostgres(pool, nil)
	repo := NewPostgres(pool, nil)

	para, ors := seedCatalog(t, ctx, products)
	since := time.Now().Add(-time.Hour)

	for _, items := range [][]domain.SaleItemInput{
		{{ProductID: para.ID, Quantity: 1, UnitPrice: dec("10.00")}, {ProductID: ors.ID, Quantity: 3, UnitPrice: dec("1.25")}},
		{{ProductID: ors.ID, Quantity: 5, UnitPrice: dec("1.25")}},
	} {
		if _, err := repo.Create(ctx, domain.SaleInput{UserID: 1, Items: items, AmountPaid: dec("100")}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	top, err := repo.TopSellers(ctx, since, 10)
	if err != nil {
		t.Fatalf("TopSellers: %v", err)
	}
	if len(top) != 2 || top[0].ProductID != ors.ID || top[0].QuantitySold != 8 || !top[0].Revenue.Equal(dec("10")) {
		t.Fatalf("unexpected top sellers %+v", top)
	}
	if top[1].ProductID != para.ID || top[1].QuantitySold != 1 {
		t.Fatalf("unexpected runner-up %+v", top[1])
	}

	limited, err := repo.TopSellers(ctx, since, 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("expected one seller, got %+v %v", limited, err)
	}

	trend, err := repo.DailyTrend(ctx, since)
	if err != nil {
		t.Fatalf("DailyTrend: %v", err)
	}
	if len(trend) != 1 || trend[0].SalesCount != 2 || !trend[0].Revenue.Equal(dec("20")) {
		t.Fatalf("unexpected trend %+v", trend)
	}

	none, err := repo.TopSellers(ctx, time.Now().Add(time.Hour), 10)
	if err != nil || len(none) != 0 {
		t.Fatalf("expected no sellers in the future, got %+v %v", none, err)
	}
}

func TestInvoicePrefix(t *testing.T) {
	got := InvoicePrefix(time.Date(2026, 3, 9, 23, 59, 0, 0, time.UTC))
	if got != "INV-20260309-" || !strings.HasPrefix(got+"0001", "INV-") {
		t.Fatalf("unexpected prefix %q", got)
	}
}
