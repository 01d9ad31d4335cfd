package dbtrace

import (
	"context"
	"sync"
)

var _ Conn = (*MockConn)(nil)

// MockConn is an in-memory Conn for tests and offline demos. Each hook is
// optional; an unset hook returns a zero result and no error. Every
// statement is appended to a log that can be read back with Statements.
//
// Example:
//
//	mock := &dbtrace.MockConn{
//	    QueryFunc: func(_ context.Context, _ dbtrace.Statement) ([]dbtrace.Row, error) {
//	        return []dbtrace.Row{{Columns: []string{"id"}, Values: []any{1}}}, nil
//	    },
//	}
//	db := dbtrace.Wrap(mock)
type MockConn struct {
	// BackendKind is reported by Backend. Defaults to Postgres.
	BackendKind Backend

	ExecFunc     func(ctx context.Context, stmt Statement) (ExecResult, error)
	QueryFunc    func(ctx context.Context, stmt Statement) ([]Row, error)
	BeginFunc    func(ctx context.Context, opts TxOptions) error
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	mu         sync.Mutex
	statements []Statement
	commits    int
	rollbacks  int
}

// Statements returns every statement executed so far, in order,
// including COMMIT and ROLLBACK markers.
func (m *MockConn) Statements() []Statement {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Statement, len(m.statements))
	copy(out, m.statements)
	return out
}

// Commits returns how many transactions were committed.
func (m *MockConn) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits
}

// Rollbacks returns how many transactions were rolled back.
func (m *MockConn) Rollbacks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rollbacks
}

func (m *MockConn) log(stmt Statement) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statements = append(m.statements, stmt)
}

// Execute implements Executor.
func (m *MockConn) Execute(ctx context.Context, stmt Statement) (ExecResult, error) {
	m.log(stmt)
	if m.ExecFunc == nil {
		return ExecResult{}, nil
	}
	return m.ExecFunc(ctx, stmt)
}

// ExecuteUnprepared implements Executor.
func (m *MockConn) ExecuteUnprepared(ctx context.Context, sql string) (ExecResult, error) {
	return m.Execute(ctx, Statement{SQL: sql})
}

// QueryOne implements Executor.
func (m *MockConn) QueryOne(ctx context.Context, stmt Statement) (*Row, error) {
	rows, err := m.QueryAll(ctx, stmt)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// QueryAll implements Executor.
func (m *MockConn) QueryAll(ctx context.Context, stmt Statement) ([]Row, error) {
	m.log(stmt)
	if m.QueryFunc == nil {
		return nil, nil
	}
	return m.QueryFunc(ctx, stmt)
}

// Stream implements Executor.
func (m *MockConn) Stream(ctx context.Context, stmt Statement) (RowStream, error) {
	rows, err := m.QueryAll(ctx, stmt)
	if err != nil {
		return nil, err
	}
	return NewRowStream(rows), nil
}

// Begin implements Conn.
func (m *MockConn) Begin(ctx context.Context) (Tx, error) {
	return m.BeginWithOptions(ctx, TxOptions{})
}

// BeginWithOptions implements Conn.
func (m *MockConn) BeginWithOptions(ctx context.Context, opts TxOptions) (Tx, error) {
	if m.BeginFunc != nil {
		if err := m.BeginFunc(ctx, opts); err != nil {
			return nil, err
		}
	}
	m.log(Statement{SQL: "BEGIN"})
	return &mockTx{conn: m}, nil
}

// Transaction implements Conn.
func (m *MockConn) Transaction(ctx context.Context, fn TxFunc) error {
	return m.TransactionWithOptions(ctx, fn, TxOptions{})
}

// TransactionWithOptions implements Conn.
func (m *MockConn) TransactionWithOptions(ctx context.Context, fn TxFunc, opts TxOptions) error {
	tx, err := m.BeginWithOptions(ctx, opts)
	if err != nil {
		return err
	}
	return RunInTx(ctx, tx, fn)
}

// Backend implements Conn.
func (m *MockConn) Backend() Backend {
	return m.BackendKind
}

// SupportsReturning implements Conn.
func (m *MockConn) SupportsReturning() bool {
	return m.BackendKind != MySQL
}

// IsMock implements Conn.
func (m *MockConn) IsMock() bool {
	return true
}

type mockTx struct {
	conn *MockConn
}

func (t *mockTx) Execute(ctx context.Context, stmt Statement) (ExecResult, error) {
	return t.conn.Execute(ctx, stmt)
}

func (t *mockTx) ExecuteUnprepared(ctx context.Context, sql string) (ExecResult, error) {
	return t.conn.ExecuteUnprepared(ctx, sql)
}

func (t *mockTx) QueryOne(ctx context.Context, stmt Statement) (*Row, error) {
	return t.conn.QueryOne(ctx, stmt)
}

func (t *mockTx) QueryAll(ctx context.Context, stmt Statement) ([]Row, error) {
	return t.conn.QueryAll(ctx, stmt)
}

func (t *mockTx) Stream(ctx context.Context, stmt Statement) (RowStream, error) {
	return t.conn.Stream(ctx, stmt)
}

func (t *mockTx) Commit(ctx context.Context) error {
	t.conn.log(Statement{SQL: "COMMIT"})
	if t.conn.CommitFunc != nil {
		if err := t.conn.CommitFunc(ctx); err != nil {
			return err
		}
	}
	t.conn.mu.Lock()
	t.conn.commits++
	t.conn.mu.Unlock()
	return nil
}

func (t *mockTx) Rollback(ctx context.Context) error {
	t.conn.log(Statement{SQL: "ROLLBACK"})
	if t.conn.RollbackFunc != nil {
		if err := t.conn.RollbackFunc(ctx); err != nil {
			return err
		}
	}
	t.conn.mu.Lock()
	t.conn.rollbacks++
	t.conn.mu.Unlock()
	return nil
}

// sliceStream is a RowStream over materialised rows.
type sliceStream struct {
	rows []Row
	pos  int
}

// NewRowStream returns a RowStream that yields rows in order.
func NewRowStream(rows []Row) RowStream {
	return &sliceStream{rows: rows, pos: -1}
}

func (s *sliceStream) Next() bool {
	if s.pos+1 >= len(s.rows) {
		s.pos = len(s.rows)
		return false
	}
	s.pos++
	return true
}

func (s *sliceStream) Row() (Row, error) {
	if s.pos < 0 || s.pos >= len(s.rows) {
		return Row{}, ErrNoCurrentRow
	}
	return s.rows[s.pos], nil
}

func (s *sliceStream) Err() error { return nil }

func (s *sliceStream) Close() error { return nil }
