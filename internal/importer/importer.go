package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"pharmacy-pos/internal/domain"
)

const defaultLowStockThreshold = 10

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// CSVImporter reads a catalog CSV and upserts one product per row, keyed by
// SKU. Columns are matched by header name, so their order is free.
type CSVImporter struct {
	reader      *csv.Reader
	productRepo ProductWriter
}

// RequiredColumns must appear in the header row.
var RequiredColumns = []string{"sku", "name", "selling_price"}

func NewCSVImporter(r io.Reader, repo ProductWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:      csvr,
		productRepo: repo,
	}
}

// Run imports every row and stops at the first invalid one. The count of
// rows already written is returned alongside any error.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			return 0, fmt.Errorf("missing column %q", col)
		}
	}

	imported := 0
	for line := 2; ; line++ {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		if blank(record) {
			continue
		}

		p, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		if _, err := i.productRepo.Upsert(ctx, p); err != nil {
			return imported, fmt.Errorf("upsert product %q: %w", p.SKU, err)
		}
		imported++
	}
	return imported, nil
}

func parseRow(record []string, index map[string]int) (domain.Product, error) {
	p := domain.Product{
		SKU:               pick(record, index, "sku"),
		Barcode:           pick(record, index, "barcode"),
		Name:              pick(record, index, "name"),
		GenericName:       pick(record, index, "generic_name"),
		Description:       pick(record, index, "description"),
		LowStockThreshold: defaultLowStockThreshold,
		IsActive:          true,
	}
	if p.SKU == "" || p.Name == "" {
		return p, errors.New("sku and name are required")
	}

	var err error
	if p.SellingPrice, err = money(record, index, "selling_price", true); err != nil {
		return p, err
	}
	if p.CostPrice, err = money(record, index, "cost_price", false); err != nil {
		return p, err
	}
	if p.MRP, err = money(record, index, "mrp", false); err != nil {
		return p, err
	}
	if p.TotalStock, err = count(record, index, "total_stock", 0); err != nil {
		return p, err
	}
	if p.LowStockThreshold, err = count(record, index, "low_stock_threshold", defaultLowStockThreshold); err != nil {
		return p, err
	}
	if raw := pick(record, index, "is_active"); raw != "" {
		if p.IsActive, err = strconv.ParseBool(raw); err != nil {
			return p, fmt.Errorf("is_active: %w", err)
		}
	}
	return p, nil
}

func money(record []string, index map[string]int, col string, required bool) (decimal.Decimal, error) {
	raw := pick(record, index, col)
	if raw == "" {
		if required {
			return decimal.Zero, fmt.Errorf("%s is required", col)
		}
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", col, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", col)
	}
	return d, nil
}

func count(record []string, index map[string]int, col string, def int) (int, error) {
	raw := pick(record, index, col)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", col, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s must not be negative", col)
	}
	return n, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	return idx
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
