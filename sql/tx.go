package sql

import (
	"context"
	"database/sql"
)

// tx adapts *sql.Tx to dbtrace.Tx.
type tx struct {
	executor
	raw *sql.Tx
}

func newTx(t *sql.Tx) *tx {
	return &tx{executor: executor{q: t}, raw: t}
}

// Commit implements dbtrace.Tx. database/sql does not take a context
// here; cancellation was bound when the transaction began.
func (t *tx) Commit(context.Context) error {
	return t.raw.Commit()
}

// Rollback implements dbtrace.Tx.
func (t *tx) Rollback(context.Context) error {
	return t.raw.Rollback()
}
