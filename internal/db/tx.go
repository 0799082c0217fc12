package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Beginner is satisfied by *pgxpool.Pool and pgx.Tx.
type Beginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

type TxOptions struct {
	IsoLevel   pgx.TxIsoLevel
	MaxRetries uint64
}

func DefaultTxOptions() TxOptions {
	return TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		MaxRetries: 3,
	}
}

// WithTx runs fn inside a transaction, committing on success. Serialization
// failures, deadlocks and lock timeouts roll back and retry with exponential
// backoff; every other error is returned as is.
func WithTx(ctx context.Context, db Beginner, opts TxOptions, fn func(pgx.Tx) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 50 * time.Millisecond
	policy.MaxInterval = time.Second
	policy.MaxElapsedTime = 5 * time.Second

	attempt := func() error {
		err := runTx(ctx, db, opts, fn)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	return backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(policy, opts.MaxRetries), ctx))
}

func runTx(ctx context.Context, db Beginner, opts TxOptions, fn func(pgx.Tx) error) error {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{IsoLevel: opts.IsoLevel})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type ErrorClass int

const (
	ErrorClassPermanent ErrorClass = iota
	ErrorClassTransient
	ErrorClassDeadlock
	ErrorClassSerialization
	ErrorClassUniqueViolation
	ErrorClassForeignKeyViolation
)

func ClassifyError(err error) ErrorClass {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001":
			return ErrorClassSerialization
		case "40P01":
			return ErrorClassDeadlock
		case "55P03":
			return ErrorClassTransient
		case "23505":
			return ErrorClassUniqueViolation
		case "23503":
			return ErrorClassForeignKeyViolation
		}
	}
	return ErrorClassPermanent
}

func IsRetryable(err error) bool {
	switch ClassifyError(err) {
	case ErrorClassTransient, ErrorClassDeadlock, ErrorClassSerialization:
		return true
	}
	return false
}
