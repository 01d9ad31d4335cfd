package sql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kroma-labs/sentinel-dbtrace/dbtrace"
)

var _ dbtrace.Conn = (*Conn)(nil)

// Conn adapts a *sql.DB to dbtrace.Conn.
//
// Conn itself records nothing; wrap it with dbtrace.New to get spans.
type Conn struct {
	executor
	db      *sql.DB
	backend dbtrace.Backend
}

// New adapts an already opened *sql.DB. backend selects the db.system
// reported on spans and the transaction capabilities.
func New(db *sql.DB, backend dbtrace.Backend) *Conn {
	return &Conn{
		executor: executor{q: db},
		db:       db,
		backend:  backend,
	}
}

// Open opens a database with database/sql and applies pool options.
//
// Example:
//
//	import _ "github.com/lib/pq"
//
//	conn, err := sentinelsql.Open("postgres", dsn, dbtrace.Postgres,
//	    sentinelsql.WithMaxOpenConns(20),
//	)
//	if err != nil {
//	    return err
//	}
//	db := dbtrace.New(conn, dbtrace.DefaultConfig())
func Open(driverName, dsn string, backend dbtrace.Backend, opts ...Option) (*Conn, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	Configure(db, opts...)

	return New(db, backend), nil
}

// DB returns the underlying *sql.DB.
func (c *Conn) DB() *sql.DB {
	return c.db
}

// Ping verifies the database is reachable.
func (c *Conn) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the underlying pool.
func (c *Conn) Close() error {
	return c.db.Close()
}

// Begin implements dbtrace.Conn.
func (c *Conn) Begin(ctx context.Context) (dbtrace.Tx, error) {
	return c.BeginWithOptions(ctx, dbtrace.TxOptions{})
}

// BeginWithOptions implements dbtrace.Conn.
func (c *Conn) BeginWithOptions(ctx context.Context, opts dbtrace.TxOptions) (dbtrace.Tx, error) {
	tx, err := c.db.BeginTx(ctx, ConvertTxOptions(opts))
	if err != nil {
		return nil, err
	}
	return newTx(tx), nil
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
	return c.backend
}

// SupportsReturning implements dbtrace.Conn. MySQL has no RETURNING clause.
func (c *Conn) SupportsReturning() bool {
	return c.backend != dbtrace.MySQL
}

// IsMock implements dbtrace.Conn.
func (c *Conn) IsMock() bool {
	return false
}

// ConvertTxOptions maps dbtrace transaction options onto database/sql.
// Unknown isolation levels fall back to the driver default.
func ConvertTxOptions(opts dbtrace.TxOptions) *sql.TxOptions {
	out := &sql.TxOptions{ReadOnly: opts.AccessMode == dbtrace.ReadOnly}

	switch opts.IsolationLevel {
	case dbtrace.Serializable:
		out.Isolation = sql.LevelSerializable
	case dbtrace.RepeatableRead:
		out.Isolation = sql.LevelRepeatableRead
	case dbtrace.ReadCommitted:
		out.Isolation = sql.LevelReadCommitted
	case dbtrace.ReadUncommitted:
		out.Isolation = sql.LevelReadUncommitted
	default:
		out.Isolation = sql.LevelDefault
	}

	return out
}
