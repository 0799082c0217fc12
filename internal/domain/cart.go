package domain

import "github.com/shopspring/decimal"

type LineItem struct {
	ProductID      int64           `json:"productId"`
	Name           string          `json:"name"`
	SKU            string          `json:"sku"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	TotalPrice     decimal.Decimal `json:"totalPrice"`
	AvailableStock int             `json:"availableStock"`
}

// SaleItemInput is one cart line as handed to sale submission.
type SaleItemInput struct {
	ProductID      int64           `json:"productId"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
}
