package dbtrace

import (
	"context"
)

// tracedTx traces the statements of a transaction and its COMMIT and
// ROLLBACK boundaries.
type tracedTx struct {
	tracedExecutor
	inner Tx
}

// wrapTx is shaped to wrap a (Tx, error) return directly. On error the
// backend's values are handed back untouched.
func (i *instrumenter) wrapTx(tx Tx, err error) (Tx, error) {
	if err != nil || tx == nil {
		return tx, err
	}
	return &tracedTx{
		tracedExecutor: tracedExecutor{exec: tx, ins: i},
		inner:          tx,
	}, nil
}

func (i *instrumenter) wrapTxFunc(fn TxFunc) TxFunc {
	return func(ctx context.Context, tx Tx) error {
		traced, _ := i.wrapTx(tx, nil)
		return fn(ctx, traced)
	}
}

// Commit implements Tx.
func (t *tracedTx) Commit(ctx context.Context) error {
	_, err := traceTx(ctx, t.ins, labelCommit, nil, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, t.inner.Commit(ctx)
	})
	return err
}

// Rollback implements Tx.
func (t *tracedTx) Rollback(ctx context.Context) error {
	_, err := traceTx(ctx, t.ins, labelRollback, nil, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, t.inner.Rollback(ctx)
	})
	return err
}
