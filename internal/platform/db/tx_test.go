package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestTxFromContext_Nil(t *testing.T) {
	tx := TxFromContext(context.Background())
	if tx != nil {
		t.Error("expected nil tx from empty context")
	}
}

func TestTxFromContext_WithWrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), DBTxKey, "not-a-tx")
	tx := TxFromContext(ctx)
	if tx != nil {
		t.Error("expected nil when context value is wrong type")
	}
}

func TestWithTx_NoPool(t *testing.T) {
	_, _, err := WithTx(context.Background(), nil)
	if err == nil {
		t.Error("expected error when pool is nil")
	}
	if err.Error() != "no database connection" {
		t.Errorf("unexpected error message: %s", err.Error())
	}
}

// fakeTx satisfies pgx.Tx for the join path, which only checks presence.
type fakeTx struct{ pgx.Tx }

func TestTxRunner_JoinsExistingTx(t *testing.T) {
	r := NewTxRunner(nil)
	ctx := context.WithValue(context.Background(), DBTxKey, fakeTx{})

	called := false
	err := r.InTx(ctx, func(innerCtx context.Context) error {
		called = true
		if TxFromContext(innerCtx) == nil {
			t.Error("expected inner context to carry the existing tx")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected fn to be called")
	}
}

func TestTxRunner_PropagatesFnError(t *testing.T) {
	r := NewTxRunner(nil)
	ctx := context.WithValue(context.Background(), DBTxKey, fakeTx{})

	want := errors.New("boom")
	err := r.InTx(ctx, func(context.Context) error { return want })
	if !errors.Is(err, want) {
		t.Errorf("expected fn error to propagate, got %v", err)
	}
}

func TestTxRunner_NoPool(t *testing.T) {
	r := NewTxRunner(nil)
	err := r.InTx(context.Background(), func(context.Context) error { return nil })
	if err == nil {
		t.Error("expected error when no pool and no tx in context")
	}
}
