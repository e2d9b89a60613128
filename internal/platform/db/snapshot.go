package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type contextKey string

const querierKey contextKey = "db_querier"

// Querier is the read surface shared by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// TxBeginner starts transactions. *pgxpool.Pool satisfies it.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// WithQuerier returns a context whose repositories read through q.
func WithQuerier(ctx context.Context, q Querier) context.Context {
	return context.WithValue(ctx, querierKey, q)
}

// QuerierFromContext returns the querier bound by WithQuerier, or nil.
func QuerierFromContext(ctx context.Context) Querier {
	q, _ := ctx.Value(querierKey).(Querier)
	return q
}

// snapshotOptions gives every statement in the callback the same view of the
// database.
var snapshotOptions = pgx.TxOptions{
	IsoLevel:   pgx.RepeatableRead,
	AccessMode: pgx.ReadOnly,
}

// ReadSnapshot runs fn inside a read-only REPEATABLE READ transaction. The
// transaction is bound to the context passed to fn so that repositories
// called from fn observe a single point in time. If a querier is already
// bound to ctx, fn runs inside it instead of opening a nested transaction.
func ReadSnapshot(ctx context.Context, b TxBeginner, fn func(ctx context.Context) error) error {
	if QuerierFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := b.BeginTx(ctx, snapshotOptions)
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(WithQuerier(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// SnapshotFunc runs fn against one consistent read view.
type SnapshotFunc func(ctx context.Context, fn func(ctx context.Context) error) error

// Snapshots binds ReadSnapshot to b.
func Snapshots(b TxBeginner) SnapshotFunc {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		return ReadSnapshot(ctx, b, fn)
	}
}
