package sale

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"pharmacy-pos/internal/db"
	"pharmacy-pos/internal/domain"
	"pharmacy-pos/internal/logging"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	now    func() time.Time
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{
		pool:   pool,
		logger: logging.OrNop(logger).Named("sale_repo"),
		now:    time.Now,
	}
}

type lockedProduct struct {
	name  string
	cost  decimal.Decimal
	stock int
}

// Create records a sale and decrements stock in one serializable
// transaction. Line and sale totals are recomputed here from the submitted
// unit prices and discounts.
func (r *postgresRepo) Create(ctx context.Context, in domain.SaleInput) (*domain.Sale, error) {
	if len(in.Items) == 0 {
		return nil, domain.ErrEmptyCart
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = domain.PaymentCash
	}
	items := make([]domain.SaleItemInput, len(in.Items))
	copy(items, in.Items)
	// Lock rows in id order so concurrent checkouts cannot deadlock.
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	for i := 1; i < len(items); i++ {
		if items[i].ProductID == items[i-1].ProductID {
			return nil, fmt.Errorf("duplicate product %d: %w", items[i].ProductID, domain.ErrInvalidInput)
		}
	}

	var sale *domain.Sale
	err := db.WithTx(ctx, r.pool, db.TxOptions{IsoLevel: pgx.Serializable, MaxRetries: 3}, func(tx pgx.Tx) error {
		locked := make(map[int64]lockedProduct, len(items))
		subtotal := decimal.Zero
		lines := make([]domain.SaleItem, 0, len(items))

		for _, item := range items {
			p, err := lockProduct(ctx, tx, item.ProductID)
			if err != nil {
				return err
			}
			if item.Quantity <= 0 {
				return domain.ErrInvalidQuantity
			}
			if p.stock < item.Quantity {
				return &domain.StockError{ProductID: item.ProductID, Name: p.name, Requested: item.Quantity, Available: p.stock}
			}
			gross := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
			if item.DiscountAmount.IsNegative() || item.DiscountAmount.GreaterThan(gross) {
				return fmt.Errorf("product %d: %w", item.ProductID, domain.ErrInvalidDiscount)
			}
			total := gross.Sub(item.DiscountAmount)
			subtotal = subtotal.Add(total)
			locked[item.ProductID] = p
			lines = append(lines, domain.SaleItem{
				ProductID:      item.ProductID,
				ProductName:    p.name,
				Quantity:       item.Quantity,
				UnitPrice:      item.UnitPrice,
				DiscountAmount: item.DiscountAmount,
				TotalPrice:     total,
			})
		}

		total := subtotal.Sub(in.DiscountAmount).Add(in.TaxAmount)
		if total.IsNegative() {
			return fmt.Errorf("sale discount exceeds subtotal: %w", domain.ErrInvalidDiscount)
		}
		if in.AmountPaid.LessThan(total) {
			return fmt.Errorf("total %s, paid %s: %w", total.StringFixed(2), in.AmountPaid.StringFixed(2), domain.ErrInsufficientPayment)
		}

		invoice, err := nextInvoiceNumber(ctx, tx, r.now())
		if err != nil {
			return err
		}

		s := &domain.Sale{
			InvoiceNumber:  invoice,
			UserID:         in.UserID,
			Subtotal:       subtotal,
			DiscountAmount: in.DiscountAmount,
			TaxAmount:      in.TaxAmount,
			TotalAmount:    total,
			PaymentMethod:  in.PaymentMethod,
			AmountPaid:     in.AmountPaid,
			ChangeAmount:   in.AmountPaid.Sub(total),
			CustomerName:   in.CustomerName,
			CustomerPhone:  in.CustomerPhone,
			Notes:          in.Notes,
		}
		if err := tx.QueryRow(ctx, `
INSERT INTO sales (invoice_number, user_id, subtotal, discount_amount, tax_amount, total_amount,
                   payment_method, amount_paid, change_amount, customer_name, customer_phone, notes)
VALUES ($1, $2, $3::text::numeric, $4::text::numeric, $5::text::numeric, $6::text::numeric,
        $7, $8::text::numeric, $9::text::numeric, NULLIF($10, ''), NULLIF($11, ''), NULLIF($12, ''))
RETURNING id, created_at
`,
			s.InvoiceNumber, s.UserID, s.Subtotal.String(), s.DiscountAmount.String(), s.TaxAmount.String(),
			s.TotalAmount.String(), s.PaymentMethod, s.AmountPaid.String(), s.ChangeAmount.String(),
			s.CustomerName, s.CustomerPhone, s.Notes,
		).Scan(&s.ID, &s.CreatedAt); err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}

		for i := range lines {
			line := &lines[i]
			line.SaleID = s.ID
			cost := locked[line.ProductID].cost
			if err := tx.QueryRow(ctx, `
INSERT INTO sale_items (sale_id, product_id, quantity, unit_price, cost_price, discount_amount, total_price)
VALUES ($1, $2, $3, $4::text::numeric, $5::text::numeric, $6::text::numeric, $7::text::numeric)
RETURNING id
`, s.ID, line.ProductID, line.Quantity, line.UnitPrice.String(), cost.String(),
				line.DiscountAmount.String(), line.TotalPrice.String()).Scan(&line.ID); err != nil {
				return fmt.Errorf("insert sale item: %w", err)
			}
			if _, err := tx.Exec(ctx, `
UPDATE products
SET total_stock = total_stock - $1, updated_at = NOW()
WHERE id = $2
`, line.Quantity, line.ProductID); err != nil {
				return fmt.Errorf("update stock: %w", err)
			}
		}

		s.Items = lines
		sale = s
		return nil
	})
	if err != nil {
		r.logger.Warn("create sale failed", zap.Int64("user_id", in.UserID), zap.Int("items", len(items)), zap.Error(err))
		return nil, err
	}
	r.logger.Info("sale recorded",
		zap.String("invoice", sale.InvoiceNumber),
		zap.Int64("sale_id", sale.ID),
		zap.String("total", sale.TotalAmount.StringFixed(2)))
	return sale, nil
}

func lockProduct(ctx context.Context, tx pgx.Tx, id int64) (lockedProduct, error) {
	var (
		p      lockedProduct
		cost   string
		active bool
	)
	err := tx.QueryRow(ctx, `
SELECT name, cost_price::text, total_stock, is_active
FROM products
WHERE id = $1
FOR UPDATE
`, id).Scan(&p.name, &cost, &p.stock, &active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return p, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
		}
		return p, fmt.Errorf("lock product %d: %w", id, err)
	}
	if !active {
		return p, fmt.Errorf("product %d inactive: %w", id, domain.ErrNotFound)
	}
	if p.cost, err = decimal.NewFromString(cost); err != nil {
		return p, fmt.Errorf("parse cost_price: %w", err)
	}
	return p, nil
}

// InvoicePrefix is the per-day invoice prefix, e.g. INV-20260114-.
func InvoicePrefix(t time.Time) string {
	return "INV-" + t.Format("20060102") + "-"
}

func nextInvoiceNumber(ctx context.Context, tx pgx.Tx, now time.Time) (string, error) {
	prefix := InvoicePrefix(now)
	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM sales WHERE invoice_number LIKE $1 || '%'`, prefix).Scan(&count); err != nil {
		return "", fmt.Errorf("count invoices: %w", err)
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

const saleColumns = `id, invoice_number, user_id, subtotal::text, discount_amount::text, tax_amount::text,
       total_amount::text, payment_method, amount_paid::text, change_amount::text,
       COALESCE(customer_name, ''), COALESCE(customer_phone, ''), COALESCE(notes, ''), created_at`

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Sale, error) {
	s, err := scanSale(r.pool.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("get sale failed", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
SELECT si.id, si.sale_id, si.product_id, p.name, si.quantity, si.unit_price::text,
       si.discount_amount::text, si.total_price::text
FROM sale_items si
JOIN products p ON p.id = si.product_id
WHERE si.sale_id = $1
ORDER BY si.id
`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			item                  domain.SaleItem
			unit, discount, total string
		)
		if err := rows.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.ProductName, &item.Quantity,
			&unit, &discount, &total); err != nil {
			return nil, err
		}
		if err := parseDecimals(
			decimalField{unit, &item.UnitPrice},
			decimalField{discount, &item.DiscountAmount},
			decimalField{total, &item.TotalPrice},
		); err != nil {
			return nil, err
		}
		s.Items = append(s.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]domain.Sale, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+saleColumns+`
FROM sales
WHERE ($1::date IS NULL OR created_at::date >= $1::date)
  AND ($2::date IS NULL OR created_at::date <= $2::date)
ORDER BY created_at DESC, id DESC
OFFSET $3 LIMIT $4
`, f.Start, f.End, f.Skip, f.Limit)
	if err != nil {
		r.logger.Error("list sales failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var out []domain.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) Summary(ctx context.Context, since time.Time) (*domain.SaleSummary, error) {
	var (
		sum                       domain.SaleSummary
		revenue, discounts, items string
		lineProfit                string
	)
	if err := r.pool.QueryRow(ctx, `
SELECT COUNT(*), COALESCE(SUM(total_amount), 0)::text, COALESCE(SUM(discount_amount), 0)::text
FROM sales
WHERE created_at >= $1
`, since).Scan(&sum.TotalSales, &revenue, &discounts); err != nil {
		return nil, fmt.Errorf("summarize sales: %w", err)
	}
	if err := r.pool.QueryRow(ctx, `
SELECT COALESCE(SUM(si.quantity), 0)::text, COALESCE(SUM(si.total_price - si.cost_price * si.quantity), 0)::text
FROM sale_items si
JOIN sales s ON s.id = si.sale_id
WHERE s.created_at >= $1
`, since).Scan(&items, &lineProfit); err != nil {
		return nil, fmt.Errorf("summarize sale items: %w", err)
	}

	var discount, profit, itemCount decimal.Decimal
	if err := parseDecimals(
		decimalField{revenue, &sum.TotalRevenue},
		decimalField{discounts, &discount},
		decimalField{lineProfit, &profit},
		decimalField{items, &itemCount},
	); err != nil {
		return nil, err
	}
	sum.TotalProfit = profit.Sub(discount)
	sum.TotalItemsSold = int(itemCount.IntPart())
	return &sum, nil
}

// TopSellers ranks products by units sold since the given time.
func (r *postgresRepo) TopSellers(ctx context.Context, since time.Time, limit int) ([]domain.ProductSales, error) {
	rows, err := r.pool.Query(ctx, `
SELECT p.id, p.name, p.sku, SUM(si.quantity), SUM(si.total_price)::text
FROM sale_items si
JOIN sales s ON s.id = si.sale_id
JOIN products p ON p.id = si.product_id
WHERE s.created_at >= $1
GROUP BY p.id, p.name, p.sku
ORDER BY SUM(si.quantity) DESC, p.id
LIMIT $2
`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("top sellers: %w", err)
	}
	defer rows.Close()

	var out []domain.ProductSales
	for rows.Next() {
		var (
			ps      domain.ProductSales
			revenue string
		)
		if err := rows.Scan(&ps.ProductID, &ps.Name, &ps.SKU, &ps.QuantitySold, &revenue); err != nil {
			return nil, err
		}
		if err := parseDecimals(decimalField{revenue, &ps.Revenue}); err != nil {
			return nil, err
		}
		out = append(out, ps)
	}
	return out, rows.Err()
}

// DailyTrend groups sales since the given time by calendar day in the
// database's time zone, oldest first.
func (r *postgresRepo) DailyTrend(ctx context.Context, since time.Time) ([]domain.DailySales, error) {
	rows, err := r.pool.Query(ctx, `
SELECT to_char(created_at::date, 'YYYY-MM-DD'), COUNT(*), SUM(total_amount)::text
FROM sales
WHERE created_at >= $1
GROUP BY created_at::date
ORDER BY created_at::date
`, since)
	if err != nil {
		return nil, fmt.Errorf("daily trend: %w", err)
	}
	defer rows.Close()

	var out []domain.DailySales
	for rows.Next() {
		var (
			d       domain.DailySales
			revenue string
		)
		if err := rows.Scan(&d.Date, &d.SalesCount, &revenue); err != nil {
			return nil, err
		}
		if err := parseDecimals(decimalField{revenue, &d.Revenue}); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanSale(row interface{ Scan(dest ...any) error }) (*domain.Sale, error) {
	var (
		s                                        domain.Sale
		subtotal, discount, tax, total, paid, ch string
	)
	if err := row.Scan(&s.ID, &s.InvoiceNumber, &s.UserID, &subtotal, &discount, &tax, &total,
		&s.PaymentMethod, &paid, &ch, &s.CustomerName, &s.CustomerPhone, &s.Notes, &s.CreatedAt); err != nil {
		return nil, err
	}
	if err := parseDecimals(
		decimalField{subtotal, &s.Subtotal},
		decimalField{discount, &s.DiscountAmount},
		decimalField{tax, &s.TaxAmount},
		decimalField{total, &s.TotalAmount},
		decimalField{paid, &s.AmountPaid},
		decimalField{ch, &s.ChangeAmount},
	); err != nil {
		return nil, err
	}
	return &s, nil
}

type decimalField struct {
	raw string
	dst *decimal.Decimal
}

func parseDecimals(fields ...decimalField) error {
	for _, f := range fields {
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return fmt.Errorf("parse amount %q: %w", f.raw, err)
		}
		*f.dst = d
	}
	return nil
}
