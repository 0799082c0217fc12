package supplier

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

const supplierColumns = `id, name, COALESCE(contact_person, ''), COALESCE(email, ''), COALESCE(phone, ''),
       COALESCE(address, ''), COALESCE(notes, ''), created_at, updated_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("supplier_repo")}
}

func (r *postgresRepo) List(ctx context.Context, skip, limit int) ([]domain.Supplier, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+supplierColumns+` FROM suppliers ORDER BY name, id OFFSET $1 LIMIT $2`, skip, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Supplier, error) {
	s, err := scanSupplier(r.pool.QueryRow(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return s, err
}

func (r *postgresRepo) Create(ctx context.Context, s domain.Supplier) (*domain.Supplier, error) {
	const q = `
INSERT INTO suppliers (name, contact_person, email, phone, address, notes)
VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''))
RETURNING ` + supplierColumns
	out, err := scanSupplier(r.pool.QueryRow(ctx, q, s.Name, s.ContactPerson, s.Email, s.Phone, s.Address, s.Notes))
	if err != nil {
		return nil, writeErr("create supplier", s.Name, err)
	}
	r.logger.Info("supplier created", zap.Int64("id", out.ID), zap.String("name", out.Name))
	return out, nil
}

func (r *postgresRepo) Update(ctx context.Context, s domain.Supplier) (*domain.Supplier, error) {
	const q = `
UPDATE suppliers
SET name = $2,
    contact_person = NULLIF($3, ''),
    email = NULLIF($4, ''),
    phone = NULLIF($5, ''),
    address = NULLIF($6, ''),
    notes = NULLIF($7, ''),
    updated_at = NOW()
WHERE id = $1
RETURNING ` + supplierColumns
	out, err := scanSupplier(r.pool.QueryRow(ctx, q, s.ID, s.Name, s.ContactPerson, s.Email, s.Phone, s.Address, s.Notes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, writeErr("update supplier", s.Name, err)
	}
	return out, nil
}

// Delete removes a supplier and unlinks its products.
func (r *postgresRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Info("supplier deleted", zap.Int64("id", id))
	return nil
}

func scanSupplier(row pgx.Row) (*domain.Supplier, error) {
	var s domain.Supplier
	if err := row.Scan(&s.ID, &s.Name, &s.ContactPerson, &s.Email, &s.Phone, &s.Address, &s.Notes, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func writeErr(op, name string, err error) error {
	if db.ClassifyError(err) == db.ErrorClassUniqueViolation {
		return fmt.Errorf("%s %q: %w", op, name, domain.ErrConflict)
	}
	return fmt.Errorf("%s %q: %w", op, name, err)
}
