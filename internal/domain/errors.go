package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientStock indicates a quantity above the known stock ceiling.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrLineNotFound indicates a cart mutation addressed a product with no line.
	ErrLineNotFound        = errors.New("line item not found")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrInvalidDiscount     = errors.New("invalid discount")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("insufficient permissions")
	// ErrConflict indicates a uniqueness clash such as a duplicate SKU or name.
	ErrConflict = errors.New("already exists")
)

// StockError reports which product ran short. It matches ErrInsufficientStock.
type StockError struct {
	ProductID int64
	Name      string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.Name, e.Requested, e.Available)
	}
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

func (e *StockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
