// Package tx smuggles a SQL transaction through context so stores can join
// an enclosing transaction without changing their signatures.
package tx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

type ctxKey struct{}

var txKey = ctxKey{}

// With stores a SQL transaction in the context for downstream store calls.
func With(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from the context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// serializationRetries bounds re-runs after SQLSTATE 40001. Row locks taken
// inside fn keep serialization losses rare, so one retry absorbs them.
const serializationRetries = 1

// Within runs fn inside a serializable transaction, committing on nil error
// and rolling back otherwise. The transaction rides the context so every
// store call inside fn joins it. Serializable isolation is what closes the
// count-then-insert window on capacity checks; a transaction that loses the
// serializability check is re-run once instead of surfacing the failure.
func Within(ctx context.Context, db *sql.DB, fn func(ctx context.Context) error) error {
	for attempt := 0; ; attempt++ {
		err := runTx(ctx, db, fn)
		if err == nil || attempt >= serializationRetries || !serializationFailure(err) {
			return err
		}
	}
}

func runTx(ctx context.Context, db *sql.DB, fn func(ctx context.Context) error) error {
	sqlTx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(With(ctx, sqlTx)); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// serializationFailure reports whether err is a PostgreSQL serialization
// conflict (SQLSTATE 40001). Such transactions are safe to re-run.
func serializationFailure(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "40001"
}
