package category

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"pharmacy-pos/internal/db"
	"pharmacy-pos/internal/domain"
	"pharmacy-pos/internal/logging"
)

const categoryColumns = `id, name, COALESCE(description, ''), created_at, updated_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("category_repo")}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return c, err
}

// Create inserts a category. Names are unique; a duplicate is ErrConflict.
func (r *postgresRepo) Create(ctx context.Context, c domain.Category) (*domain.Category, error) {
	const q = `
INSERT INTO categories (name, description)
VALUES ($1, NULLIF($2, ''))
RETURNING ` + categoryColumns
	out, err := scanCategory(r.pool.QueryRow(ctx, q, c.Name, c.Description))
	if err != nil {
		return nil, writeErr("create category", c.Name, err)
	}
	r.logger.Info("category created", zap.Int64("id", out.ID), zap.String("name", out.Name))
	return out, nil
}

func (r *postgresRepo) Update(ctx context.Context, c domain.Category) (*domain.Category, error) {
	const q = `
UPDATE categories
SET name = $2,
    description = NULLIF($3, ''),
    updated_at = NOW()
WHERE id = $1
RETURNING ` + categoryColumns
	out, err := scanCategory(r.pool.QueryRow(ctx, q, c.ID, c.Name, c.Description))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, writeErr("update category", c.Name, err)
	}
	return out, nil
}

// Delete removes a category. Its products stay in the catalog without one.
func (r *postgresRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Info("category deleted", zap.Int64("id", id))
	return nil
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var c domain.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func writeErr(op, name string, err error) error {
	if db.ClassifyError(err) == db.ErrorClassUniqueViolation {
		return fmt.Errorf("%s %q: %w", op, name, domain.ErrConflict)
	}
	return fmt.Errorf("%s %q: %w", op, name, err)
}
