package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalog descriptor the till works from. TotalStock is the
// quantity on hand at the moment the row was read.
type Product struct {
	ID                int64           `json:"id"`
	SKU               string          `json:"sku"`
	Barcode           string          `json:"barcode,omitempty"`
	Name              string          `json:"name"`
	GenericName       string          `json:"genericName,omitempty"`
	Description       string          `json:"description,omitempty"`
	CostPrice         decimal.Decimal `json:"costPrice"`
	SellingPrice      decimal.Decimal `json:"sellingPrice"`
	MRP               decimal.Decimal `json:"mrp"`
	TotalStock        int             `json:"totalStock"`
	LowStockThreshold int             `json:"lowStockThreshold"`
	IsActive          bool            `json:"isActive"`
	CategoryID        int64           `json:"categoryId,omitempty"`
	CategoryName      string          `json:"categoryName,omitempty"`
	SupplierID        int64           `json:"supplierId,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// LowStock reports whether stock is at or below the reorder threshold.
func (p Product) LowStock() bool {
	return p.TotalStock <= p.LowStockThreshold
}

type AdjustmentType string

const (
	AdjustmentAddition    AdjustmentType = "addition"
	AdjustmentSubtraction AdjustmentType = "subtraction"
	AdjustmentCorrection  AdjustmentType = "correction"
	AdjustmentDamage      AdjustmentType = "damage"
	AdjustmentReturn      AdjustmentType = "return"
)

// Delta returns the signed stock change for quantity units of this kind.
// Corrections set the stock outright and report ok=false.
func (t AdjustmentType) Delta(quantity int) (delta int, ok bool) {
	switch t {
	case AdjustmentAddition, AdjustmentReturn:
		return quantity, true
	case AdjustmentSubtraction, AdjustmentDamage:
		return -quantity, true
	}
	return 0, false
}

func (t AdjustmentType) Valid() bool {
	switch t {
	case AdjustmentAddition, AdjustmentSubtraction, AdjustmentCorrection, AdjustmentDamage, AdjustmentReturn:
		return true
	}
	return false
}

// StockAdjustment records a stock change made outside of a sale.
type StockAdjustment struct {
	ID          int64          `json:"id"`
	ProductID   int64          `json:"productId"`
	Type        AdjustmentType `json:"adjustmentType"`
	Quantity    int            `json:"quantity"`
	StockAfter  int            `json:"stockAfter"`
	Reason      string         `json:"reason,omitempty"`
	PerformedBy int64          `json:"performedBy,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// InventoryStats summarizes the active catalog.
type InventoryStats struct {
	ActiveProducts int             `json:"activeProducts"`
	LowStockItems  int             `json:"lowStockItems"`
	OutOfStock     int             `json:"outOfStock"`
	InventoryValue decimal.Decimal `json:"inventoryValue"`
}
