package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"pharmacy-pos/internal/domain"
)

type stubProductRepo struct {
	items []domain.Product
}

func (s *stubProductRepo) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	s.items = append(s.items, p)
	return &p, nil
}

func TestCSVImporter_Run(t *testing.T) {
	csvData := `sku,barcode,name,generic_name,description,cost_price,selling_price,mrp,total_stock,low_stock_threshold
PARA-500,8901000000011,Paracetamol 500mg,Acetaminophen,Pain relief,0.80,1.50,1.75,240,40
,,,,,,,,,
ORS-21,,ORS sachet,,,0.20,0.50,,8,
`
	repo := &stubProductRepo{}
	imp := NewCSVImporter(strings.NewReader(csvData), repo)

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 2 || len(repo.items) != 2 {
		t.Fatalf("expected 2 products imported, got %d (%d saved)", count, len(repo.items))
	}

	first := repo.items[0]
	if first.SKU != "PARA-500" || first.Barcode != "8901000000011" || first.GenericName != "Acetaminophen" {
		t.Fatalf("unexpected product data: %+v", first)
	}
	if !first.SellingPrice.Equal(decimal.RequireFromString("1.50")) || !first.MRP.Equal(decimal.RequireFromString("1.75")) {
		t.Fatalf("unexpected prices: %+v", first)
	}
	if first.TotalStock != 240 || first.LowStockThreshold != 40 || !first.IsActive {
		t.Fatalf("unexpected stock fields: %+v", first)
	}

	second := repo.items[1]
	if second.LowStockThreshold != defaultLowStockThreshold || !second.MRP.IsZero() || second.Barcode != "" {
		t.Fatalf("expected defaults on second product: %+v", second)
	}
}

func TestCSVImporter_ColumnOrderAndActiveFlag(t *testing.T) {
	csvData := "\ufeffName,SKU,Selling_Price,is_active\nCetirizine 10mg,CET-10,1.10,false\n"
	repo := &stubProductRepo{}
	if _, err := NewCSVImporter(strings.NewReader(csvData), repo).Run(context.Background()); err != nil {
		t.Fatalf("import run: %v", err)
	}
	if len(repo.items) != 1 || repo.items[0].SKU != "CET-10" || repo.items[0].IsActive {
		t.Fatalf("unexpected import %+v", repo.items)
	}
}

func TestCSVImporter_Errors(t *testing.T) {
	cases := map[string]string{
		"missing column": "sku,name\nA,B\n",
		"bad price":      "sku,name,selling_price\nA,Aspirin,abc\n",
		"negative stock": "sku,name,selling_price,total_stock\nA,Aspirin,1.00,-4\n",
		"missing name":   "sku,name,selling_price\nA,,1.00\n",
		"missing price":  "sku,name,selling_price\nA,Aspirin,\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			repo := &stubProductRepo{}
			if _, err := NewCSVImporter(strings.NewReader(data), repo).Run(context.Background()); err == nil {
				t.Fatalf("expected error")
			}
			if len(repo.items) != 0 {
				t.Fatalf("expected nothing saved, got %+v", repo.items)
			}
		})
	}
}

func TestCSVImporter_ReportsLine(t *testing.T) {
	data := "sku,name,selling_price\nA,Aspirin,1.00\nB,Bisacodyl,x\n"
	repo := &stubProductRepo{}
	count, err := NewCSVImporter(strings.NewReader(data), repo).Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Fatalf("expected line 3 error, got %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 imported before failure, got %d", count)
	}
}
