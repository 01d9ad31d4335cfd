package sql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kroma-labs/sentinel-dbtrace/dbtrace"
)

// querier is the subset of *sql.DB and *sql.Tx used to run statements.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// executor implements dbtrace.Executor for both the pool and transactions.
type executor struct {
	q querier
}

// Execute implements dbtrace.Executor.
func (e executor) Execute(ctx context.Context, stmt dbtrace.Statement) (dbtrace.ExecResult, error) {
	res, err := e.q.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return dbtrace.ExecResult{}, err
	}
	return execResult(res), nil
}

// ExecuteUnprepared implements dbtrace.Executor. Without arguments most
// drivers send the text as a simple query.
func (e executor) ExecuteUnprepared(ctx context.Context, query string) (dbtrace.ExecResult, error) {
	res, err := e.q.ExecContext(ctx, query)
	if err != nil {
		return dbtrace.ExecResult{}, err
	}
	return execResult(res), nil
}

// QueryOne implements dbtrace.Executor.
func (e executor) QueryOne(ctx context.Context, stmt dbtrace.Statement) (*dbtrace.Row, error) {
	rows, err := e.q.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if !rows.Next() {
		return nil, rows.Err()
	}
	row, err := scanRow(rows, cols)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// QueryAll implements dbtrace.Executor.
func (e executor) QueryAll(ctx context.Context, stmt dbtrace.Statement) ([]dbtrace.Row, error) {
	rows, err := e.q.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []dbtrace.Row
	for rows.Next() {
		row, err := scanRow(rows, cols)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Stream implements dbtrace.Executor.
func (e executor) Stream(ctx context.Context, stmt dbtrace.Statement) (dbtrace.RowStream, error) {
	rows, err := e.q.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, err
	}

	cols, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, err
	}
	return &rowStream{rows: rows, cols: cols}, nil
}

// execResult reads what the driver reports. Drivers that do not support
// a value report zero.
func execResult(res sql.Result) dbtrace.ExecResult {
	affected, _ := res.RowsAffected()
	lastID, _ := res.LastInsertId()
	return dbtrace.ExecResult{RowsAffected: affected, LastInsertID: lastID}
}
