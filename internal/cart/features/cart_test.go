package features

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"
	"pharmacy-pos/internal/cart"
	"pharmacy-pos/internal/domain"
)

type cartTestContext struct {
	cart     *cart.Cart
	products map[int64]domain.Product
	err      error
}

func (c *cartTestContext) reset() {
	c.cart = cart.New()
	c.products = make(map[int64]domain.Product)
	c.err = nil
}

func (c *cartTestContext) anEmptyCart() error {
	c.cart = cart.New()
	return nil
}

func (c *cartTestContext) productPricedWithStock(id int64, name, price string, stock int) error {
	p, err := decimal.NewFromString(price)
	if err != nil {
		return err
	}
	c.products[id] = domain.Product{
		ID:           id,
		SKU:          fmt.Sprintf("SKU-%d", id),
		Name:         name,
		SellingPrice: p,
		TotalStock:   stock,
	}
	return nil
}

func (c *cartTestContext) lookup(id int64) (domain.Product, error) {
	p, ok := c.products[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("product %d not defined", id)
	}
	return p, nil
}

func (c *cartTestContext) iAddOfProduct(quantity int, id int64) error {
	p, err := c.lookup(id)
	if err != nil {
		return err
	}
	c.err = c.cart.Add(p, quantity)
	return nil
}

func (c *cartTestContext) iSetTheDiscountOnProductTo(id int64, amount string) error {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return err
	}
	c.err = c.cart.UpdateDiscount(id, d)
	return nil
}

func (c *cartTestContext) iChangeTheQuantityOfProductTo(id int64, quantity int) error {
	stock := 0
	if p, ok := c.products[id]; ok {
		stock = p.TotalStock
	}
	c.err = c.cart.UpdateQuantity(id, quantity, stock)
	return nil
}

func (c *cartTestContext) iRemoveProduct(id int64) error {
	c.cart.RemoveItem(id)
	return nil
}

func (c *cartTestContext) iClearTheCart() error {
	c.cart.Clear()
	return nil
}

func (c *cartTestContext) theLineForProductHasQuantityAndTotal(id int64, quantity int, total string) error {
	line, ok := c.cart.Line(id)
	if !ok {
		return fmt.Errorf("no line for product %d", id)
	}
	want, err := decimal.NewFromString(total)
	if err != nil {
		return err
	}
	if line.Quantity != quantity {
		return fmt.Errorf("expected quantity %d, got %d", quantity, line.Quantity)
	}
	if !line.TotalPrice.Equal(want) {
		return fmt.Errorf("expected total %s, got %s", want, line.TotalPrice)
	}
	return nil
}

func (c *cartTestContext) theSubtotalIs(amount string) error {
	want, err := decimal.NewFromString(amount)
	if err != nil {
		return err
	}
	if got := c.cart.Subtotal(); !got.Equal(want) {
		return fmt.Errorf("expected subtotal %s, got %s", want, got)
	}
	return nil
}

func (c *cartTestContext) theCartHoldsItems(n int) error {
	if got := c.cart.TotalItems(); got != n {
		return fmt.Errorf("expected %d items, got %d", n, got)
	}
	return nil
}

func (c *cartTestContext) theCartHasLines(n int) error {
	if got := c.cart.Len(); got != n {
		return fmt.Errorf("expected %d lines, got %d", n, got)
	}
	return nil
}

func (c *cartTestContext) theCartIsEmpty() error {
	if c.cart.State() != cart.Empty {
		return fmt.Errorf("expected empty cart, got %d lines", c.cart.Len())
	}
	return nil
}

func (c *cartTestContext) rejectedWith(target error) error {
	if !errors.Is(c.err, target) {
		return fmt.Errorf("expected %v, got %v", target, c.err)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &cartTestContext{}
	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^an empty cart$`, tc.anEmptyCart)
	ctx.Step(`^product (\d+) "([^"]*)" priced ([0-9.]+) with (\d+) in stock$`, tc.productPricedWithStock)
	ctx.Step(`^I add (\d+) of product (\d+)$`, tc.iAddOfProduct)
	ctx.Step(`^I set the discount on product (\d+) to ([0-9.]+)$`, tc.iSetTheDiscountOnProductTo)
	ctx.Step(`^I change the quantity of product (\d+) to (-?\d+)$`, tc.iChangeTheQuantityOfProductTo)
	ctx.Step(`^I remove product (\d+)$`, tc.iRemoveProduct)
	ctx.Step(`^I clear the cart$`, tc.iClearTheCart)
	ctx.Step(`^the line for product (\d+) has quantity (\d+) and total ([0-9.]+)$`, tc.theLineForProductHasQuantityAndTotal)
	ctx.Step(`^the subtotal is ([0-9.]+)$`, tc.theSubtotalIs)
	ctx.Step(`^the cart holds (\d+) items$`, tc.theCartHoldsItems)
	ctx.Step(`^the cart has (\d+) lines?$`, tc.theCartHasLines)
	ctx.Step(`^the cart is empty$`, tc.theCartIsEmpty)
	ctx.Step(`^the change is rejected for insufficient stock$`, func() error { return tc.rejectedWith(domain.ErrInsufficientStock) })
	ctx.Step(`^the change is rejected because the line does not exist$`, func() error { return tc.rejectedWith(domain.ErrLineNotFound) })
	ctx.Step(`^the change is rejected as an invalid discount$`, func() error { return tc.rejectedWith(domain.ErrInvalidDiscount) })
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"cart.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
