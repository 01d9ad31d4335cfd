package dbtrace

import (
	"context"
	"errors"
)

// ErrNoCurrentRow is returned by RowStream.Row when Next has not been
// called or has returned false.
var ErrNoCurrentRow = errors.New("dbtrace: no current row")

// Backend identifies the database engine a connection talks to.
type Backend int

const (
	Postgres Backend = iota
	MySQL
	SQLite
)

// System returns the value used for the db.system span attribute.
func (b Backend) System() string {
	switch b {
	case MySQL:
		return "mysql"
	case SQLite:
		return "sqlite"
	default:
		return "postgresql"
	}
}

// String implements fmt.Stringer.
func (b Backend) String() string {
	return b.System()
}

// Statement is a SQL string together with its bound arguments.
type Statement struct {
	SQL  string
	Args []any
}

// NewStatement builds a Statement from sql and positional arguments.
func NewStatement(sql string, args ...any) Statement {
	return Statement{SQL: sql, Args: args}
}

// ExecResult is the outcome of a statement that does not return rows.
type ExecResult struct {
	RowsAffected int64
	LastInsertID int64
}

// Row is a single materialised result row. Columns and Values are
// index-aligned.
type Row struct {
	Columns []string
	Values  []any
}

// Get returns the value of the named column.
func (r Row) Get(column string) (any, bool) {
	for i, c := range r.Columns {
		if c == column && i < len(r.Values) {
			return r.Values[i], true
		}
	}
	return nil, false
}

// RowStream iterates over a result set without materialising it.
//
//	for stream.Next() {
//	    row, err := stream.Row()
//	    ...
//	}
//	if err := stream.Err(); err != nil { ... }
type RowStream interface {
	Next() bool
	Row() (Row, error)
	Err() error
	Close() error
}

// IsolationLevel is a transaction isolation level. The zero value means
// the backend default.
type IsolationLevel string

const (
	Serializable    IsolationLevel = "serializable"
	RepeatableRead  IsolationLevel = "repeatable read"
	ReadCommitted   IsolationLevel = "read committed"
	ReadUncommitted IsolationLevel = "read uncommitted"
)

// AccessMode is a transaction access mode. The zero value means the
// backend default.
type AccessMode string

const (
	ReadWrite AccessMode = "read write"
	ReadOnly  AccessMode = "read only"
)

// TxOptions configures a transaction. Both fields are optional.
type TxOptions struct {
	IsolationLevel IsolationLevel
	AccessMode     AccessMode
}

// Executor runs statements. It is implemented by both connections and
// transactions.
type Executor interface {
	// Execute runs a statement that does not return rows.
	Execute(ctx context.Context, stmt Statement) (ExecResult, error)
	// ExecuteUnprepared runs raw SQL without preparing or binding.
	ExecuteUnprepared(ctx context.Context, sql string) (ExecResult, error)
	// QueryOne returns the first row, or nil if the query yields no rows.
	QueryOne(ctx context.Context, stmt Statement) (*Row, error)
	// QueryAll returns every row.
	QueryAll(ctx context.Context, stmt Statement) ([]Row, error)
	// Stream opens a cursor over the result set. The caller must Close it.
	Stream(ctx context.Context, stmt Statement) (RowStream, error)
}

// Tx is an open transaction.
type Tx interface {
	Executor
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TxFunc is the body of a transaction. Returning an error rolls the
// transaction back.
type TxFunc func(ctx context.Context, tx Tx) error

// Conn is the capability set a database backend provides. TracedConn
// wraps any Conn and is itself a Conn.
type Conn interface {
	Executor

	// Begin starts a transaction with backend defaults.
	Begin(ctx context.Context) (Tx, error)
	// BeginWithOptions starts a transaction with explicit isolation level
	// and access mode.
	BeginWithOptions(ctx context.Context, opts TxOptions) (Tx, error)
	// Transaction runs fn in a transaction, committing when fn returns nil
	// and rolling back otherwise.
	Transaction(ctx context.Context, fn TxFunc) error
	// TransactionWithOptions is Transaction with explicit options.
	TransactionWithOptions(ctx context.Context, fn TxFunc, opts TxOptions) error

	Backend() Backend
	SupportsReturning() bool
	IsMock() bool
}

// RunInTx runs fn inside tx. It commits when fn returns nil and rolls
// back when fn returns an error or panics. The error from fn is returned
// as is; a failed rollback is not reported over it.
//
// Backends use this to implement Conn.Transaction on top of Begin.
func RunInTx(ctx context.Context, tx Tx, fn TxFunc) (err error) {
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
