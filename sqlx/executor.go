package sqlx

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/kroma-labs/sentinel-dbtrace/dbtrace"
)

// executor implements dbtrace.Executor over *sqlx.DB and *sqlx.Tx.
type executor struct {
	ext sqlx.ExtContext
}

// Execute implements dbtrace.Executor.
func (e executor) Execute(ctx context.Context, stmt dbtrace.Statement) (dbtrace.ExecResult, error) {
	res, err := e.ext.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return dbtrace.ExecResult{}, err
	}
	return execResult(res), nil
}

// ExecuteUnprepared implements dbtrace.Executor.
func (e executor) ExecuteUnprepared(ctx context.Context, query string) (dbtrace.ExecResult, error) {
	res, err := e.ext.ExecContext(ctx, query)
	if err != nil {
		return dbtrace.ExecResult{}, err
	}
	return execResult(res), nil
}

// QueryOne implements dbtrace.Executor.
func (e executor) QueryOne(ctx context.Context, stmt dbtrace.Statement) (*dbtrace.Row, error) {
	rows, err := e.ext.QueryxContext(ctx, stmt.SQL, stmt.Args...)
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

	values, err := rows.SliceScan()
	if err != nil {
		return nil, err
	}
	return &dbtrace.Row{Columns: cols, Values: values}, nil
}

// QueryAll implements dbtrace.Executor.
func (e executor) QueryAll(ctx context.Context, stmt dbtrace.Statement) ([]dbtrace.Row, error) {
	rows, err := e.ext.QueryxContext(ctx, stmt.SQL, stmt.Args...)
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
		values, err := rows.SliceScan()
		if err != nil {
			return nil, err
		}
		out = append(out, dbtrace.Row{Columns: cols, Values: values})
	}
	return out, rows.Err()
}

// Stream implements dbtrace.Executor.
func (e executor) Stream(ctx context.Context, stmt dbtrace.Statement) (dbtrace.RowStream, error) {
	rows, err := e.ext.QueryxContext(ctx, stmt.SQL, stmt.Args...)
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

// Named binds :name parameters from arg, a struct or map, and rebinds the
// query to the driver's placeholder style.
//
// Example:
//
//	stmt, err := conn.Named(
//	    "INSERT INTO users (name, email) VALUES (:name, :email)",
//	    map[string]any{"name": "ann", "email": "ann@example.com"},
//	)
//	// stmt.SQL on postgres: "INSERT INTO users (name, email) VALUES ($1, $2)"
//	_, err = db.Execute(ctx, stmt)
func (e executor) Named(query string, arg any) (dbtrace.Statement, error) {
	bound, args, err := sqlx.Named(query, arg)
	if err != nil {
		return dbtrace.Statement{}, err
	}
	return dbtrace.Statement{SQL: e.ext.Rebind(bound), Args: args}, nil
}

// Rebind converts '?' placeholders to the driver's style.
func (e executor) Rebind(query string) string {
	return e.ext.Rebind(query)
}

func execResult(res sql.Result) dbtrace.ExecResult {
	affected, _ := res.RowsAffected()
	lastID, _ := res.LastInsertId()
	return dbtrace.ExecResult{RowsAffected: affected, LastInsertID: lastID}
}

// rowStream adapts *sqlx.Rows to dbtrace.RowStream.
type rowStream struct {
	rows *sqlx.Rows
	cols []string
	cur  dbtrace.Row
	ok   bool
	err  error
}

func (s *rowStream) Next() bool {
	s.ok = false
	if s.err != nil || !s.rows.Next() {
		return false
	}

	values, err := s.rows.SliceScan()
	if err != nil {
		s.err = err
		return false
	}
	s.cur, s.ok = dbtrace.Row{Columns: s.cols, Values: values}, true
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

func (s *rowStream) Close() error {
	return s.rows.Close()
}
