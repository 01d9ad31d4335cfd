package pgx

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kroma-labs/sentinel-dbtrace/dbtrace"
)

// querier is the subset of *pgxpool.Pool and pgx.Tx used to run statements.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type executor struct {
	q querier
}

// Execute implements dbtrace.Executor. pgx does not report insert ids,
// so LastInsertID is always zero; use RETURNING instead.
func (e executor) Execute(ctx context.Context, stmt dbtrace.Statement) (dbtrace.ExecResult, error) {
	tag, err := e.q.Exec(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return dbtrace.ExecResult{}, err
	}
	return dbtrace.ExecResult{RowsAffected: tag.RowsAffected()}, nil
}

// ExecuteUnprepared implements dbtrace.Executor using the simple query
// protocol, which allows several statements in one string.
func (e executor) ExecuteUnprepared(ctx context.Context, sql string) (dbtrace.ExecResult, error) {
	tag, err := e.q.Exec(ctx, sql, pgx.QueryExecModeSimpleProtocol)
	if err != nil {
		return dbtrace.ExecResult{}, err
	}
	return dbtrace.ExecResult{RowsAffected: tag.RowsAffected()}, nil
}

// QueryOne implements dbtrace.Executor.
func (e executor) QueryOne(ctx context.Context, stmt dbtrace.Statement) (*dbtrace.Row, error) {
	rows, err := e.q.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	row, err := currentRow(rows)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// QueryAll implements dbtrace.Executor.
func (e executor) QueryAll(ctx context.Context, stmt dbtrace.Statement) ([]dbtrace.Row, error) {
	rows, err := e.q.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []dbtrace.Row
	for rows.Next() {
		row, err := currentRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Stream implements dbtrace.Executor.
func (e executor) Stream(ctx context.Context, stmt dbtrace.Statement) (dbtrace.RowStream, error) {
	rows, err := e.q.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, err
	}
	return &rowStream{rows: rows}, nil
}

func columnNames(rows pgx.Rows) []string {
	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}
	return cols
}

func currentRow(rows pgx.Rows) (dbtrace.Row, error) {
	values, err := rows.Values()
	if err != nil {
		return dbtrace.Row{}, err
	}
	return dbtrace.Row{Columns: columnNames(rows), Values: values}, nil
}

// rowStream adapts pgx.Rows to dbtrace.RowStream.
type rowStream struct {
	rows pgx.Rows
	cur  dbtrace.Row
	ok   bool
	err  error
}

func (s *rowStream) Next() bool {
	s.ok = false
	if s.err != nil || !s.rows.Next() {
		return false
	}

	row, err := currentRow(s.rows)
	if err != nil {
		s.err = err
		return false
	}
	s.cur, s.ok = row, true
	return true
}

func (s *rowStream) Row() (dbtrace.Row, error) {
	if !s.ok {
		return dbtrace.Row{}, dbtrace.ErrNoCurrentRow
	}
	return s.cur, nil
}

func (s *rowStream) Err() error {
	if s.err != nil {
		return s.err
	}
	return s.rows.Err()
}

// Close releases the connection. pgx.Rows.Close reports nothing; any
// failure surfaces through Err.
func (s *rowStream) Close() error {
	s.rows.Close()
	return nil
}
