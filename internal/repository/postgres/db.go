// Package postgres adapts a pgx pool to the sqlstore connection contract.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/worldcities/worldcities-api/internal/repository/sqlstore"
)

// executor is implemented by both pgxpool.Pool and pgx.Tx.
type executor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type conn struct{ q executor }

func (c conn) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	tag, err := c.q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (c conn) Query(ctx context.Context, sql string, args ...any) (sqlstore.Rows, error) {
	rows, err := c.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c conn) QueryRow(ctx context.Context, sql string, args ...any) sqlstore.Row {
	return row{c.q.QueryRow(ctx, sql, args...)}
}

type row struct{ r pgx.Row }

func (r row) Scan(dest ...any) error {
	err := r.r.Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return sqlstore.ErrNoRows
	}
	return err
}

type tx struct {
	conn
	tx pgx.Tx
}

func (t tx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t tx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

// DB wraps a pgx pool. Close releases the pool.
type DB struct {
	conn
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *DB {
	return &DB{conn: conn{q: pool}, pool: pool}
}

func (d *DB) Begin(ctx context.Context) (sqlstore.Tx, error) {
	t, err := d.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	return tx{conn: conn{q: t}, tx: t}, nil
}

func (d *DB) Ping(ctx context.Context) error { return d.pool.Ping(ctx) }

func (d *DB) Dialect() sqlstore.Dialect { return sqlstore.Postgres }

func (d *DB) Close() error {
	d.pool.Close()
	return nil
}

// Pool exposes the underlying pool, e.g. for migrations through pgx/stdlib.
func (d *DB) Pool() *pgxpool.Pool { return d.pool }

var _ sqlstore.DB = (*DB)(nil)
