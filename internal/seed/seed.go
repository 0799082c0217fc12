package seed

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"pharmacy-pos/internal/domain"
)

// ProductWriter stores catalog rows keyed by SKU.
type ProductWriter interface {
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}

type productSeed struct {
	SKU          string
	Barcode      string
	Name         string
	GenericName  string
	Description  string
	CostPrice    string
	SellingPrice string
	MRP          string
	Stock        int
	Threshold    int
}

var demoProducts = []productSeed{
	{SKU: "PARA-500", Barcode: "8901000000011", Name: "Paracetamol 500mg (10 tabs)", GenericName: "Acetaminophen",
		Description: "Analgesic and antipyretic", CostPrice: "0.80", SellingPrice: "1.50", MRP: "1.75", Stock: 240, Threshold: 40},
	{SKU: "AMOX-250", Barcode: "8901000000028", Name: "Amoxicillin 250mg (15 caps)", GenericName: "Amoxicillin",
		Description: "Broad spectrum antibiotic", CostPrice: "2.10", SellingPrice: "3.90", MRP: "4.20", Stock: 60, Threshold: 20},
	{SKU: "CET-10", Barcode: "8901000000035", Name: "Cetirizine 10mg (10 tabs)", GenericName: "Cetirizine hydrochloride",
		Description: "Antihistamine", CostPrice: "0.45", SellingPrice: "1.10", MRP: "1.25", Stock: 150, Threshold: 30},
	{SKU: "ORS-21", Barcode: "8901000000042", Name: "ORS sachet 21g", GenericName: "Oral rehydration salts",
		CostPrice: "0.20", SellingPrice: "0.50", MRP: "0.50", Stock: 8, Threshold: 25},
	{SKU: "IBU-400", Barcode: "8901000000059", Name: "Ibuprofen 400mg (10 tabs)", GenericName: "Ibuprofen",
		Description: "NSAID pain relief", CostPrice: "0.95", SellingPrice: "2.25", MRP: "2.40", Stock: 90, Threshold: 20},
}

// Apply inserts a small demo pharmacy catalog. Running it again refreshes the
// same rows by SKU.
func Apply(ctx context.Context, w ProductWriter) (int, error) {
	for i, s := range demoProducts {
		p, err := s.product()
		if err != nil {
			return i, fmt.Errorf("seed %s: %w", s.SKU, err)
		}
		if _, err := w.Upsert(ctx, p); err != nil {
			return i, fmt.Errorf("upsert product %s: %w", s.SKU, err)
		}
	}
	return len(demoProducts), nil
}

func (s productSeed) product() (domain.Product, error) {
	cost, err := decimal.NewFromString(s.CostPrice)
	if err != nil {
		return domain.Product{}, err
	}
	price, err := decimal.NewFromString(s.SellingPrice)
	if err != nil {
		return domain.Product{}, err
	}
	mrp, err := decimal.NewFromString(s.MRP)
	if err != nil {
		return domain.Product{}, err
	}
	return domain.Product{
		SKU:               s.SKU,
		Barcode:           s.Barcode,
		Name:              s.Name,
		GenericName:       s.GenericName,
		Description:       s.Description,
		CostPrice:         cost,
		SellingPrice:      price,
		MRP:               mrp,
		TotalStock:        s.Stock,
		LowStockThreshold: s.Threshold,
		IsActive:          true,
	}, nil
}
