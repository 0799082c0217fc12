package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"pharmacy-pos/internal/db"
	"pharmacy-pos/internal/domain"
	"pharmacy-pos/internal/logging"
)

const productColumns = `id, sku, COALESCE(barcode, ''), name, COALESCE(generic_name, ''), COALESCE(description, ''),
       cost_price::text, selling_price::text, COALESCE(mrp, selling_price)::text,
       total_stock, low_stock_threshold, is_active,
       COALESCE(category_id, 0), COALESCE((SELECT c.name FROM categories c WHERE c.id = products.category_id), ''),
       COALESCE(supplier_id, 0), created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("product_repo")}
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]domain.Product, error) {
	q := `
SELECT ` + productColumns + `
FROM products
WHERE ($1 OR is_active)
  AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR generic_name ILIKE '%' || $2 || '%'
       OR sku ILIKE '%' || $2 || '%' OR barcode = $2)
  AND ($5::bigint = 0 OR category_id = $5)
ORDER BY name, id
OFFSET $3 LIMIT $4
`
	rows, err := r.pool.Query(ctx, q, f.IncludeInactive, f.Search, f.Skip, f.Limit, f.CategoryID)
	if err != nil {
		r.logger.Error("list failed", zap.String("search", f.Search), zap.Error(err))
		return nil, err
	}
	result, err := collectProducts(rows)
	if err != nil {
		r.logger.Error("list rows failed", zap.String("search", f.Search), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("list", zap.String("search", f.Search), zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) ListLowStock(ctx context.Context, limit int) ([]domain.Product, error) {
	q := `
SELECT ` + productColumns + `
FROM products
WHERE is_active AND total_stock <= low_stock_threshold
ORDER BY total_stock, name
LIMIT $1
`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		r.logger.Error("low stock failed", zap.Error(err))
		return nil, err
	}
	return collectProducts(rows)
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("get not found", zap.Int64("id", id))
			return nil, domain.ErrNotFound
		}
		r.logger.Error("get failed", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) GetByCode(ctx context.Context, code string) (*domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE sku = $1 OR barcode = $1 ORDER BY (sku = $1) DESC LIMIT 1`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("get by code not found", zap.String("code", code))
			return nil, domain.ErrNotFound
		}
		r.logger.Error("get by code failed", zap.String("code", code), zap.Error(err))
		return nil, err
	}
	return p, nil
}

// Upsert inserts or replaces a product by SKU. Category and supplier links
// of an existing row are left alone.
func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	q := `
INSERT INTO products (sku, barcode, name, generic_name, description, cost_price, selling_price, mrp,
                      total_stock, low_stock_threshold, is_active)
VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''), NULLIF($5, ''), $6::text::numeric, $7::text::numeric, NULLIF($8::text, '')::numeric,
        $9, $10, $11)
ON CONFLICT (sku) DO UPDATE SET
    barcode = EXCLUDED.barcode,
    name = EXCLUDED.name,
    generic_name = EXCLUDED.generic_name,
    description = EXCLUDED.description,
    cost_price = EXCLUDED.cost_price,
    selling_price = EXCLUDED.selling_price,
    mrp = EXCLUDED.mrp,
    total_stock = EXCLUDED.total_stock,
    low_stock_threshold = EXCLUDED.low_stock_threshold,
    is_active = EXCLUDED.is_active,
    updated_at = NOW()
RETURNING ` + productColumns

	res, err := scanProduct(r.pool.QueryRow(ctx, q,
		p.SKU,
		p.Barcode,
		p.Name,
		p.GenericName,
		p.Description,
		p.CostPrice.String(),
		p.SellingPrice.String(),
		mrpArg(p.MRP),
		p.TotalStock,
		p.LowStockThreshold,
		p.IsActive,
	))
	if err != nil {
		r.logger.Error("upsert failed", zap.String("sku", p.SKU), zap.Error(err))
		return nil, writeErr(fmt.Sprintf("upsert product %s", p.SKU), err)
	}
	r.logger.Debug("upserted", zap.String("sku", res.SKU), zap.Int64("id", res.ID))
	return res, nil
}

// Create inserts a new product. A taken SKU or barcode is ErrConflict.
func (r *postgresRepo) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	q := `
INSERT INTO products (sku, barcode, name, generic_name, description, cost_price, selling_price, mrp,
                      total_stock, low_stock_threshold, is_active, category_id, supplier_id)
VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''), NULLIF($5, ''), $6::text::numeric, $7::text::numeric, NULLIF($8::text, '')::numeric,
        $9, $10, $11, NULLIF($12::bigint, 0), NULLIF($13::bigint, 0))
RETURNING ` + productColumns

	res, err := scanProduct(r.pool.QueryRow(ctx, q,
		p.SKU,
		p.Barcode,
		p.Name,
		p.GenericName,
		p.Description,
		p.CostPrice.String(),
		p.SellingPrice.String(),
		mrpArg(p.MRP),
		p.TotalStock,
		p.LowStockThreshold,
		p.IsActive,
		p.CategoryID,
		p.SupplierID,
	))
	if err != nil {
		r.logger.Warn("create failed", zap.String("sku", p.SKU), zap.Error(err))
		return nil, writeErr(fmt.Sprintf("create product %s", p.SKU), err)
	}
	r.logger.Info("product created", zap.String("sku", res.SKU), zap.Int64("id", res.ID))
	return res, nil
}

// Update replaces the descriptive fields of product p.ID. Stock only moves
// through sales and AdjustStock.
func (r *postgresRepo) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	q := `
UPDATE products SET
    sku = $2,
    barcode = NULLIF($3, ''),
    name = $4,
    generic_name = NULLIF($5, ''),
    description = NULLIF($6, ''),
    cost_price = $7::text::numeric,
    selling_price = $8::text::numeric,
    mrp = NULLIF($9::text, '')::numeric,
    low_stock_threshold = $10,
    is_active = $11,
    category_id = NULLIF($12::bigint, 0),
    supplier_id = NULLIF($13::bigint, 0),
    updated_at = NOW()
WHERE id = $1
RETURNING ` + productColumns

	res, err := scanProduct(r.pool.QueryRow(ctx, q,
		p.ID,
		p.SKU,
		p.Barcode,
		p.Name,
		p.GenericName,
		p.Description,
		p.CostPrice.String(),
		p.SellingPrice.String(),
		mrpArg(p.MRP),
		p.LowStockThreshold,
		p.IsActive,
		p.CategoryID,
		p.SupplierID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Warn("update failed", zap.Int64("id", p.ID), zap.Error(err))
		return nil, writeErr(fmt.Sprintf("update product %d", p.ID), err)
	}
	r.logger.Info("product updated", zap.Int64("id", res.ID))
	return res, nil
}

// Deactivate hides a product from the till. Sale history keeps its rows.
func (r *postgresRepo) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("deactivate failed", zap.Int64("id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Info("product deactivated", zap.Int64("id", id))
	return nil
}

// AdjustStock applies adj to the product's stock and records it. Stock may
// not go below zero.
func (r *postgresRepo) AdjustStock(ctx context.Context, adj domain.StockAdjustment) (*domain.StockAdjustment, error) {
	out := adj
	err := db.WithTx(ctx, r.pool, db.DefaultTxOptions(), func(tx pgx.Tx) error {
		var (
			name  string
			stock int
		)
		err := tx.QueryRow(ctx, `SELECT name, total_stock FROM products WHERE id = $1 FOR UPDATE`, adj.ProductID).
			Scan(&name, &stock)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("lock product %d: %w", adj.ProductID, err)
		}

		next := adj.Quantity
		if delta, ok := adj.Type.Delta(adj.Quantity); ok {
			next = stock + delta
		}
		if next < 0 {
			return &domain.StockError{ProductID: adj.ProductID, Name: name, Requested: adj.Quantity, Available: stock}
		}

		if _, err := tx.Exec(ctx, `UPDATE products SET total_stock = $2, updated_at = NOW() WHERE id = $1`, adj.ProductID, next); err != nil {
			return fmt.Errorf("update stock: %w", err)
		}
		out.StockAfter = next
		return tx.QueryRow(ctx, `
INSERT INTO stock_adjustments (product_id, adjustment_type, quantity, stock_after, reason, performed_by)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6::bigint, 0))
RETURNING id, created_at
`, adj.ProductID, string(adj.Type), adj.Quantity, next, adj.Reason, adj.PerformedBy).Scan(&out.ID, &out.CreatedAt)
	})
	if err != nil {
		r.logger.Debug("adjust stock rejected", zap.Int64("product_id", adj.ProductID), zap.Error(err))
		return nil, err
	}
	r.logger.Info("stock adjusted",
		zap.Int64("product_id", out.ProductID),
		zap.String("type", string(out.Type)),
		zap.Int("quantity", out.Quantity),
		zap.Int("stock_after", out.StockAfter))
	return &out, nil
}

func (r *postgresRepo) InventoryStats(ctx context.Context) (*domain.InventoryStats, error) {
	var (
		stats domain.InventoryStats
		value string
	)
	err := r.pool.QueryRow(ctx, `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE total_stock <= low_stock_threshold),
       COUNT(*) FILTER (WHERE total_stock = 0),
       COALESCE(SUM(cost_price * total_stock), 0)::text
FROM products
WHERE is_active
`).Scan(&stats.ActiveProducts, &stats.LowStockItems, &stats.OutOfStock, &value)
	if err != nil {
		return nil, fmt.Errorf("inventory stats: %w", err)
	}
	if stats.InventoryValue, err = decimal.NewFromString(value); err != nil {
		return nil, fmt.Errorf("parse inventory value: %w", err)
	}
	return &stats, nil
}

func mrpArg(mrp decimal.Decimal) string {
	if mrp.IsZero() {
		return ""
	}
	return mrp.String()
}

func writeErr(op string, err error) error {
	switch db.ClassifyError(err) {
	case db.ErrorClassUniqueViolation:
		return fmt.Errorf("%s: sku or barcode taken: %w", op, domain.ErrConflict)
	case db.ErrorClassForeignKeyViolation:
		return fmt.Errorf("%s: unknown category or supplier: %w", op, domain.ErrInvalidInput)
	}
	return fmt.Errorf("%s: %w", op, err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		p                    domain.Product
		cost, selling, mrpTx string
	)
	if err := row.Scan(
		&p.ID,
		&p.SKU,
		&p.Barcode,
		&p.Name,
		&p.GenericName,
		&p.Description,
		&cost,
		&selling,
		&mrpTx,
		&p.TotalStock,
		&p.LowStockThreshold,
		&p.IsActive,
		&p.CategoryID,
		&p.CategoryName,
		&p.SupplierID,
		&p.CreatedAt,
	); err != nil {
		return nil, err
	}
	var err error
	if p.CostPrice, err = decimal.NewFromString(cost); err != nil {
		return nil, fmt.Errorf("parse cost_price: %w", err)
	}
	if p.SellingPrice, err = decimal.NewFromString(selling); err != nil {
		return nil, fmt.Errorf("parse selling_price: %w", err)
	}
	if p.MRP, err = decimal.NewFromString(mrpTx); err != nil {
		return nil, fmt.Errorf("parse mrp: %w", err)
	}
	return &p, nil
}

func collectProducts(rows pgx.Rows) ([]domain.Product, error) {
	defer rows.Close()
	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
