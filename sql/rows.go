package sql

import (
	"database/sql"

	"github.com/kroma-labs/sentinel-dbtrace/dbtrace"
)

// scanRow reads the current row into the values the driver returns.
// database/sql copies byte slices when scanning into *any, so rows stay
// valid after Next.
func scanRow(rows *sql.Rows, cols []string) (dbtrace.Row, error) {
	values := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}

	if err := rows.Scan(dest...); err != nil {
		return dbtrace.Row{}, err
	}

	return dbtrace.Row{Columns: cols, Values: values}, nil
}

// rowStream adapts *sql.Rows to dbtrace.RowStream.
type rowStream struct {
	rows *sql.Rows
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

	row, err := scanRow(s.rows, s.cols)
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

func (s *rowStream) Close() error {
	return s.rows.Close()
}
