// Package sqlstore implements the repositories once, in SQL, on top of a small
// connection contract that both the pgx pool and database/sql satisfy through
// thin adapters (see the postgres and sqlite packages).
package sqlstore

import (
	"context"
	"errors"
)

// ErrNoRows is returned by Row.Scan when the query produced nothing.
// Adapters translate their driver's own sentinel into it.
var ErrNoRows = errors.New("sqlstore: no rows in result set")

type Row interface {
	Scan(dest ...any) error
}

type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// Conn is a minimal query executor implemented by both pools and transactions.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

type Tx interface {
	Conn
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DB is a pooled connection to one database.
type DB interface {
	Conn
	Begin(ctx context.Context) (Tx, error)
	Ping(ctx context.Context) error
	Dialect() Dialect
	Close() error
}

type txKey struct{}

func withTx(ctx context.Context, tx Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func txFrom(ctx context.Context) (Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(Tx)
	return tx, ok && tx != nil
}

// getQ returns the transaction carried by ctx, or the pool.
func getQ(ctx context.Context, db DB) Conn {
	if tx, ok := txFrom(ctx); ok {
		return tx
	}
	return db
}

func ensureDB(db DB) error {
	if db == nil {
		return errors.New("sqlstore: db is nil")
	}
	return nil
}
