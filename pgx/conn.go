package pgx

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kroma-labs/sentinel-dbtrace/dbtrace"
)

var _ dbtrace.Conn = (*Conn)(nil)

// Conn adapts a *pgxpool.Pool to dbtrace.Conn. The backend is always
// Postgres.
type Conn struct {
	executor
	pool *pgxpool.Pool
}

// New adapts an existing pool.
func New(pool *pgxpool.Pool) *Conn {
	return &Conn{executor: executor{q: pool}, pool: pool}
}

// Open parses url and creates a pool. The pool connects lazily; call Ping
// to verify the database is reachable.
//
// Example:
//
//	conn, err := sentinelpgx.Open(ctx, "postgres://app@localhost:5432/orders")
//	if err != nil {
//	    return err
//	}
//	defer conn.Close()
//	db := dbtrace.New(conn, dbtrace.DefaultConfig())
func Open(ctx context.Context, url string) (*Conn, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed parsing postgres connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create a postgres connection pool: %w", err)
	}

	return New(pool), nil
}

// Pool returns the underlying pool.
func (c *Conn) Pool() *pgxpool.Pool {
	return c.pool
}

// Ping verifies the database is reachable.
func (c *Conn) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

// Close closes every connection in the pool.
func (c *Conn) Close() error {
	c.pool.Close()
	return nil
}

// Begin implements dbtrace.Conn.
func (c *Conn) Begin(ctx context.Context) (dbtrace.Tx, error) {
	return c.BeginWithOptions(ctx, dbtrace.TxOptions{})
}

// BeginWithOptions implements dbtrace.Conn.
func (c *Conn) BeginWithOptions(ctx context.Context, opts dbtrace.TxOptions) (dbtrace.Tx, error) {
	tx, err := c.pool.BeginTx(ctx, ConvertTxOptions(opts))
	if err != nil {
		return nil, err
	}
	return &txn{executor: executor{q: tx}, tx: tx}, nil
}

// Transaction implements dbtrace.Conn.
func (c *Conn) Transaction(ctx context.Context, fn dbtrace.TxFunc) error {
	return c.TransactionWithOptions(ctx, fn, dbtrace.TxOptions{})
}

// TransactionWithOptions implements dbtrace.Conn.
func (c *Conn) TransactionWithOptions(ctx context.Context, fn dbtrace.TxFunc, opts dbtrace.TxOptions) error {
	tx, err := c.BeginWithOptions(ctx, opts)
	if err != nil {
		return err
	}
	return dbtrace.RunInTx(ctx, tx, fn)
}

// Backend implements dbtrace.Conn.
func (c *Conn) Backend() dbtrace.Backend {
	return dbtrace.Postgres
}

// SupportsReturning implements dbtrace.Conn.
func (c *Conn) SupportsReturning() bool {
	return true
}

// IsMock implements dbtrace.Conn.
func (c *Conn) IsMock() bool {
	return false
}

// txn adapts pgx.Tx to dbtrace.Tx.
type txn struct {
	executor
	tx pgx.Tx
}

func (t *txn) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *txn) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

// ConvertTxOptions maps dbtrace transaction options onto pgx. The string
// values of both sides are the SQL keywords, so they convert directly.
func ConvertTxOptions(opts dbtrace.TxOptions) pgx.TxOptions {
	return pgx.TxOptions{
		IsoLevel:   pgx.TxIsoLevel(opts.IsolationLevel),
		AccessMode: pgx.TxAccessMode(opts.AccessMode),
	}
}
