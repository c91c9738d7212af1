// Package tx carries a unit of work through context so stores can join it.
package tx

import (
	"context"
	"database/sql"
)

type ctxKey struct{}
type lockKeyCtx struct{}
type memoryTxCtx struct{}

var txKey = ctxKey{}

// Runner executes fn as a single unit of work. Nested calls join the outer unit.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// WithLockKey names the aggregate a unit of work serializes on, usually a person id.
// Postgres relies on row locks and ignores it; the in-memory runner shards on it.
func WithLockKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, lockKeyCtx{}, key)
}

func lockKey(ctx context.Context) string {
	key, _ := ctx.Value(lockKeyCtx{}).(string)
	return key
}

// DBTX is the query surface shared by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Execer returns the transaction in ctx, or db when none is active.
func Execer(ctx context.Context, db *sql.DB) DBTX {
	if t, ok := From(ctx); ok {
		return t
	}
	return db
}
