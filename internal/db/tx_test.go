package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
	commitErr  error
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return t.commitErr
}

func (t *fakeTx) Rollback(context.Context) error {
	t.rolledBack = true
	return nil
}

type fakeBeginner struct {
	txs      []*fakeTx
	beginErr error
	lastOpts pgx.TxOptions
}

func (b *fakeBeginner) BeginTx(_ context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	b.lastOpts = opts
	if b.beginErr != nil {
		return nil, b.beginErr
	}
	tx := &fakeTx{}
	b.txs = append(b.txs, tx)
	return tx, nil
}

func TestClassifyError(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorClass
	}{
		{&pgconn.PgError{Code: "40001"}, ErrorClassSerialization},
		{fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "40P01"}), ErrorClassDeadlock},
		{&pgconn.PgError{Code: "55P03"}, ErrorClassTransient},
		{&pgconn.PgError{Code: "23505"}, ErrorClassUniqueViolation},
		{&pgconn.PgError{Code: "23503"}, ErrorClassForeignKeyViolation},
		{&pgconn.PgError{Code: "23502"}, ErrorClassPermanent},
		{errors.New("boom"), ErrorClassPermanent},
		{pgx.ErrNoRows, ErrorClassPermanent},
	}
	for _, tc := range cases {
		if got := ClassifyError(tc.err); got != tc.want {
			t.Fatalf("ClassifyError(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
	if IsRetryable(&pgconn.PgError{Code: "23505"}) {
		t.Fatalf("unique violation must not be retryable")
	}
}

func TestWithTx_Commits(t *testing.T) {
	b := &fakeBeginner{}
	err := WithTx(context.Background(), b, TxOptions{IsoLevel: pgx.Serializable, MaxRetries: 2}, func(pgx.Tx) error {
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b.txs) != 1 || !b.txs[0].committed {
		t.Fatalf("expected one committed tx, got %+v", b.txs)
	}
	if b.lastOpts.IsoLevel != pgx.Serializable {
		t.Fatalf("expected serializable isolation, got %s", b.lastOpts.IsoLevel)
	}
}

func TestWithTx_PermanentErrorRollsBackOnce(t *testing.T) {
	b := &fakeBeginner{}
	want := errors.New("insufficient stock")
	err := WithTx(context.Background(), b, DefaultTxOptions(), func(pgx.Tx) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
	if len(b.txs) != 1 || !b.txs[0].rolledBack || b.txs[0].committed {
		t.Fatalf("expected a single rolled back tx, got %+v", b.txs)
	}
}

func TestWithTx_RetriesSerializationFailures(t *testing.T) {
	b := &fakeBeginner{}
	calls := 0
	err := WithTx(context.Background(), b, TxOptions{MaxRetries: 3}, func(pgx.Tx) error {
		calls++
		if calls < 3 {
			return &pgconn.PgError{Code: "40001"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 || len(b.txs) != 3 || !b.txs[2].committed {
		t.Fatalf("expected success on third attempt, calls=%d txs=%d", calls, len(b.txs))
	}
}

func TestWithTx_GivesUpAfterMaxRetries(t *testing.T) {
	b := &fakeBeginner{}
	calls := 0
	err := WithTx(context.Background(), b, TxOptions{MaxRetries: 1}, func(pgx.Tx) error {
		calls++
		return &pgconn.PgError{Code: "40P01"}
	})
	if ClassifyError(err) != ErrorClassDeadlock {
		t.Fatalf("expected deadlock error, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestWithTx_BeginError(t *testing.T) {
	b := &fakeBeginner{beginErr: errors.New("no conn")}
	err := WithTx(context.Background(), b, DefaultTxOptions(), func(pgx.Tx) error {
		t.Fatalf("fn must not run")
		return nil
	})
	if err == nil || err.Error() != "begin transaction: no conn" {
		t.Fatalf("expected begin error, got %v", err)
	}
}
