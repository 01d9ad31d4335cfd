package sqlx

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Tx adapts *sqlx.Tx to dbtrace.Tx.
type Tx struct {
	executor
	tx *sqlx.Tx
}

// Commit implements dbtrace.Tx.
func (t *Tx) Commit(context.Context) error {
	return t.tx.Commit()
}

// Rollback implements dbtrace.Tx.
func (t *Tx) Rollback(context.Context) error {
	return t.tx.Rollback()
}
