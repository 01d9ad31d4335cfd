package dbtrace

import (
	"context"
)

// Compile-time interface checks.
var (
	_ Conn = (*TracedConn)(nil)
	_ Tx   = (*tracedTx)(nil)
)

// TracedConn wraps a Conn and traces every call made through it. It is a
// Conn itself, so it can replace the wrapped connection anywhere.
//
// Spans are started from the context passed to each call, so they nest
// under whatever span the caller (e.g. HTTP middleware) already has in
// ctx, and anything the backend does with the derived context nests
// under the database span.
//
// A TracedConn holds no mutable state and is safe for concurrent use if
// the wrapped Conn is.
type TracedConn struct {
	tracedExecutor
	inner Conn
}

// New wraps conn with tracing configured by cfg.
//
// Example:
//
//	db := dbtrace.New(conn,
//	    dbtrace.DefaultConfig().WithDatabaseName("orders"),
//	    dbtrace.WithLogger(logger),
//	)
//	rows, err := db.QueryAll(ctx, dbtrace.NewStatement("SELECT * FROM users"))
func New(conn Conn, cfg TracingConfig, opts ...Option) *TracedConn {
	ins := &instrumenter{
		backend: conn.Backend(),
		cfg:     cfg,
		in:      newInstrumentation(opts...),
	}
	return &TracedConn{
		tracedExecutor: tracedExecutor{exec: conn, ins: ins},
		inner:          conn,
	}
}

// Wrap wraps conn using DefaultConfig.
func Wrap(conn Conn, opts ...Option) *TracedConn {
	return New(conn, DefaultConfig(), opts...)
}

// Inner returns the wrapped connection.
func (c *TracedConn) Inner() Conn {
	return c.inner
}

// Config returns the tracing configuration.
func (c *TracedConn) Config() TracingConfig {
	return c.ins.cfg
}

// Begin implements Conn. The returned transaction is traced as well.
func (c *TracedConn) Begin(ctx context.Context) (Tx, error) {
	return traceTx(ctx, c.ins, labelBegin, nil, func(ctx context.Context) (Tx, error) {
		return c.ins.wrapTx(c.inner.Begin(ctx))
	})
}

// BeginWithOptions implements Conn.
func (c *TracedConn) BeginWithOptions(ctx context.Context, opts TxOptions) (Tx, error) {
	return traceTx(ctx, c.ins, labelBegin, &opts, func(ctx context.Context) (Tx, error) {
		return c.ins.wrapTx(c.inner.BeginWithOptions(ctx, opts))
	})
}

// Transaction implements Conn. Statements issued through the transaction
// handed to fn are children of the TRANSACTION span.
func (c *TracedConn) Transaction(ctx context.Context, fn TxFunc) error {
	_, err := traceTx(ctx, c.ins, labelTransaction, nil, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.inner.Transaction(ctx, c.ins.wrapTxFunc(fn))
	})
	return err
}

// TransactionWithOptions implements Conn.
func (c *TracedConn) TransactionWithOptions(ctx context.Context, fn TxFunc, opts TxOptions) error {
	_, err := traceTx(ctx, c.ins, labelTransaction, &opts, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.inner.TransactionWithOptions(ctx, c.ins.wrapTxFunc(fn), opts)
	})
	return err
}

// Backend implements Conn.
func (c *TracedConn) Backend() Backend {
	return c.inner.Backend()
}

// SupportsReturning implements Conn.
func (c *TracedConn) SupportsReturning() bool {
	return c.inner.SupportsReturning()
}

// IsMock implements Conn.
func (c *TracedConn) IsMock() bool {
	return c.inner.IsMock()
}

// tracedExecutor traces the statement-level calls shared by connections
// and transactions.
type tracedExecutor struct {
	exec Executor
	ins  *instrumenter
}

// Execute implements Executor.
func (e tracedExecutor) Execute(ctx context.Context, stmt Statement) (ExecResult, error) {
	return traceQuery(ctx, e.ins, stmt.SQL, stmt.Args, func(ctx context.Context) (ExecResult, error) {
		return e.exec.Execute(ctx, stmt)
	}, affectedRows)
}

// ExecuteUnprepared implements Executor.
func (e tracedExecutor) ExecuteUnprepared(ctx context.Context, sql string) (ExecResult, error) {
	return traceQuery(ctx, e.ins, sql, nil, func(ctx context.Context) (ExecResult, error) {
		return e.exec.ExecuteUnprepared(ctx, sql)
	}, affectedRows)
}

// QueryOne implements Executor.
func (e tracedExecutor) QueryOne(ctx context.Context, stmt Statement) (*Row, error) {
	return traceQuery(ctx, e.ins, stmt.SQL, stmt.Args, func(ctx context.Context) (*Row, error) {
		return e.exec.QueryOne(ctx, stmt)
	}, func(row *Row) *int64 {
		var n int64
		if row != nil {
			n = 1
		}
		return &n
	})
}

// QueryAll implements Executor.
func (e tracedExecutor) QueryAll(ctx context.Context, stmt Statement) ([]Row, error) {
	return traceQuery(ctx, e.ins, stmt.SQL, stmt.Args, func(ctx context.Context) ([]Row, error) {
		return e.exec.QueryAll(ctx, stmt)
	}, func(rows []Row) *int64 {
		n := int64(len(rows))
		return &n
	})
}

// Stream implements Executor. The span covers opening the stream only;
// rows read afterwards are not counted.
func (e tracedExecutor) Stream(ctx context.Context, stmt Statement) (RowStream, error) {
	return traceQuery(ctx, e.ins, stmt.SQL, stmt.Args, func(ctx context.Context) (RowStream, error) {
		return e.exec.Stream(ctx, stmt)
	}, nil)
}

func affectedRows(res ExecResult) *int64 {
	n := res.RowsAffected
	return &n
}
