// Package cart is the till's in-memory shopping cart.
//
// A Cart keeps one line per product. Every mutation either applies fully or
// returns an error and leaves the cart untouched, and each line's total is
// recomputed as unit price * quantity - discount whenever either input moves.
// A Cart is owned by a single cashier session and is not safe for concurrent
// use; callers that share one across goroutines must serialize access.
package cart

import (
	"math"

	"github.com/shopspring/decimal"
	"pharmacy-pos/internal/domain"
)

// State is the externally visible state of a cart.
type State int

const (
	Empty State = iota
	NonEmpty
)

func (s State) String() string {
	if s == NonEmpty {
		return "non_empty"
	}
	return "empty"
}

type Cart struct {
	lines []domain.LineItem
	index map[int64]int
}

func New() *Cart {
	return &Cart{index: make(map[int64]int)}
}

// Add puts quantity units of p in the cart. p.TotalStock must be the stock on
// hand as of this call; it bounds the resulting line quantity and becomes the
// line's AvailableStock.
func (c *Cart) Add(p domain.Product, quantity int) error {
	if quantity < 1 {
		return domain.ErrInvalidQuantity
	}
	if p.SellingPrice.IsNegative() {
		return domain.ErrInvalidInput
	}

	if i, ok := c.index[p.ID]; ok {
		line := c.lines[i]
		if quantity > p.TotalStock-line.Quantity {
			return stockError(line.ProductID, line.Name, saturatingAdd(line.Quantity, quantity), p.TotalStock)
		}
		newQuantity := line.Quantity + quantity
		line.Quantity = newQuantity
		line.TotalPrice = lineTotal(line.UnitPrice, newQuantity, line.DiscountAmount)
		line.AvailableStock = p.TotalStock
		c.lines[i] = line
		return nil
	}

	if quantity > p.TotalStock {
		return stockError(p.ID, p.Name, quantity, p.TotalStock)
	}
	c.index[p.ID] = len(c.lines)
	c.lines = append(c.lines, domain.LineItem{
		ProductID:      p.ID,
		Name:           p.Name,
		SKU:            p.SKU,
		Quantity:       quantity,
		UnitPrice:      p.SellingPrice,
		DiscountAmount: decimal.Zero,
		TotalPrice:     lineTotal(p.SellingPrice, quantity, decimal.Zero),
		AvailableStock: p.TotalStock,
	})
	return nil
}

// UpdateQuantity sets the quantity of an existing line against the current
// stock. A quantity below 1 removes the line.
func (c *Cart) UpdateQuantity(productID int64, quantity, stock int) error {
	i, ok := c.index[productID]
	if !ok {
		return domain.ErrLineNotFound
	}
	if quantity < 1 {
		c.RemoveItem(productID)
		return nil
	}
	line := c.lines[i]
	if quantity > stock {
		return stockError(line.ProductID, line.Name, quantity, stock)
	}
	if gross(line.UnitPrice, quantity).LessThan(line.DiscountAmount) {
		return domain.ErrInvalidDiscount
	}
	line.Quantity = quantity
	line.TotalPrice = lineTotal(line.UnitPrice, quantity, line.DiscountAmount)
	line.AvailableStock = stock
	c.lines[i] = line
	return nil
}

// UpdateDiscount replaces the line discount. The discount may not be negative
// or exceed the line's gross value.
func (c *Cart) UpdateDiscount(productID int64, discount decimal.Decimal) error {
	i, ok := c.index[productID]
	if !ok {
		return domain.ErrLineNotFound
	}
	line := c.lines[i]
	if discount.IsNegative() || discount.GreaterThan(gross(line.UnitPrice, line.Quantity)) {
		return domain.ErrInvalidDiscount
	}
	line.DiscountAmount = discount
	line.TotalPrice = lineTotal(line.UnitPrice, line.Quantity, discount)
	c.lines[i] = line
	return nil
}

// RemoveItem drops the line for productID. Unknown products are ignored.
func (c *Cart) RemoveItem(productID int64) {
	i, ok := c.index[productID]
	if !ok {
		return
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	delete(c.index, productID)
	for j := i; j < len(c.lines); j++ {
		c.index[c.lines[j].ProductID] = j
	}
}

func (c *Cart) Clear() {
	c.lines = nil
	c.index = make(map[int64]int)
}

func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, line := range c.lines {
		sum = sum.Add(line.TotalPrice)
	}
	return sum
}

func (c *Cart) TotalItems() int {
	n := 0
	for _, line := range c.lines {
		n += line.Quantity
	}
	return n
}

func (c *Cart) Len() int {
	return len(c.lines)
}

func (c *Cart) State() State {
	if len(c.lines) == 0 {
		return Empty
	}
	return NonEmpty
}

// Line returns a copy of the line for productID.
func (c *Cart) Line(productID int64) (domain.LineItem, bool) {
	i, ok := c.index[productID]
	if !ok {
		return domain.LineItem{}, false
	}
	return c.lines[i], true
}

// Lines returns a copy of all lines in insertion order.
func (c *Cart) Lines() []domain.LineItem {
	out := make([]domain.LineItem, len(c.lines))
	copy(out, c.lines)
	return out
}

// Items returns the lines in the shape expected by sale submission.
func (c *Cart) Items() []domain.SaleItemInput {
	out := make([]domain.SaleItemInput, 0, len(c.lines))
	for _, line := range c.lines {
		out = append(out, domain.SaleItemInput{
			ProductID:      line.ProductID,
			Quantity:       line.Quantity,
			UnitPrice:      line.UnitPrice,
			DiscountAmount: line.DiscountAmount,
		})
	}
	return out
}

// Clone returns an independent copy of c.
func (c *Cart) Clone() *Cart {
	out := &Cart{
		lines: make([]domain.LineItem, len(c.lines)),
		index: make(map[int64]int, len(c.index)),
	}
	copy(out.lines, c.lines)
	for k, v := range c.index {
		out.index[k] = v
	}
	return out
}

func gross(unit decimal.Decimal, quantity int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(quantity)))
}

func lineTotal(unit decimal.Decimal, quantity int, discount decimal.Decimal) decimal.Decimal {
	return gross(unit, quantity).Sub(discount)
}

// saturatingAdd returns a+b for non-negative a and b, clamped at math.MaxInt.
func saturatingAdd(a, b int) int {
	if b > math.MaxInt-a {
		return math.MaxInt
	}
	return a + b
}

func stockError(productID int64, name string, requested, available int) error {
	return &domain.StockError{
		ProductID: productID,
		Name:      name,
		Requested: requested,
		Available: available,
	}
}
