package sqlx

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/kroma-labs/sentinel-dbtrace/dbtrace"
	sentinelsql "github.com/kroma-labs/sentinel-dbtrace/sql"
)

var _ dbtrace.Conn = (*Conn)(nil)

// Conn adapts a *sqlx.DB to dbtrace.Conn. Besides the dbtrace.Executor
// methods it keeps sqlx's named parameter binding through Named.
type Conn struct {
	executor
	db      *sqlx.DB
	backend dbtrace.Backend
}

// New adapts an existing *sqlx.DB.
func New(db *sqlx.DB, backend dbtrace.Backend) *Conn {
	return &Conn{
		executor: executor{ext: db},
		db:       db,
		backend:  backend,
	}
}

// NewDB wraps an existing *sql.DB with sqlx. driverName selects the
// bind variable style used by Named and Rebind.
//
// Example:
//
//	sqlDB, _ := sql.Open("postgres", dsn)
//	conn := sentinelsqlx.NewDB(sqlDB, "postgres", dbtrace.Postgres)
func NewDB(db *sql.DB, driverName string, backend dbtrace.Backend) *Conn {
	return New(sqlx.NewDb(db, driverName), backend)
}

// Open opens a database with sqlx and applies pool options.
//
// Example:
//
//	conn, err := sentinelsqlx.Open("postgres", dsn, dbtrace.Postgres,
//	    sentinelsql.WithMaxOpenConns(20),
//	)
func Open(driverName, dsn string, backend dbtrace.Backend, opts ...sentinelsql.Option) (*Conn, error) {
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sentinelsql.Configure(db.DB, opts...)

	return New(db, backend), nil
}

// Connect opens and verifies a database connection.
// It is equivalent to Open followed by Ping.
func Connect(ctx context.Context, driverName, dsn string, backend dbtrace.Backend, opts ...sentinelsql.Option) (*Conn, error) {
	conn, err := Open(driverName, dsn, backend, opts...)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return conn, nil
}

// DB returns the underlying *sqlx.DB.
func (c *Conn) DB() *sqlx.DB {
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
	tx, err := c.db.BeginTxx(ctx, sentinelsql.ConvertTxOptions(opts))
	if err != nil {
		return nil, err
	}
	return &Tx{executor: executor{ext: tx}, tx: tx}, nil
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

// SupportsReturning implements dbtrace.Conn.
func (c *Conn) SupportsReturning() bool {
	return c.backend != dbtrace.MySQL
}

// IsMock implements dbtrace.Conn.
func (c *Conn) IsMock() bool {
	return false
}
