package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentCash   = "cash"
	PaymentCard   = "card"
	PaymentMobile = "mobile"
)

type Sale struct {
	ID             int64           `json:"id"`
	InvoiceNumber  string          `json:"invoiceNumber"`
	UserID         int64           `json:"userId"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	PaymentMethod  string          `json:"paymentMethod"`
	AmountPaid     decimal.Decimal `json:"amountPaid"`
	ChangeAmount   decimal.Decimal `json:"changeAmount"`
	CustomerName   string          `json:"customerName,omitempty"`
	CustomerPhone  string          `json:"customerPhone,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	Items          []SaleItem      `json:"items,omitempty"`
}

type SaleItem struct {
	ID             int64           `json:"id"`
	SaleID         int64           `json:"saleId"`
	ProductID      int64           `json:"productId"`
	ProductName    string          `json:"productName,omitempty"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	TotalPrice     decimal.Decimal `json:"totalPrice"`
}

// SaleInput is what the till submits; totals are recomputed by the store.
type SaleInput struct {
	UserID         int64
	Items          []SaleItemInput
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	PaymentMethod  string
	AmountPaid     decimal.Decimal
	CustomerName   string
	CustomerPhone  string
	Notes          string
}

type SaleSummary struct {
	TotalSales     int             `json:"totalSales"`
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
	TotalProfit    decimal.Decimal `json:"totalProfit"`
	TotalItemsSold int             `json:"totalItemsSold"`
}

// ProductSales is one product's sales volume over a window.
type ProductSales struct {
	ProductID    int64           `json:"productId"`
	Name         string          `json:"productName"`
	SKU          string          `json:"sku"`
	QuantitySold int             `json:"totalSold"`
	Revenue      decimal.Decimal `json:"totalRevenue"`
}

// DailySales is one calendar day of sales, Date formatted as YYYY-MM-DD.
type DailySales struct {
	Date       string          `json:"date"`
	SalesCount int             `json:"salesCount"`
	Revenue    decimal.Decimal `json:"totalRevenue"`
}
