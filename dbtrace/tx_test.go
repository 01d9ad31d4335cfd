package dbtrace

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
)

func TestTracedConn_Begin(t *testing.T) {
	t.Run("given begin, execute and commit, then each gets its own span", func(t *testing.T) {
		h := newHarness(t, &MockConn{}, DefaultConfig())
		ctx := context.Background()

		tx, err := h.db.Begin(ctx)
		require.NoError(t, err)
		_, err = tx.Execute(ctx, NewStatement("INSERT INTO users (name) VALUES ($1)", "ann"))
		require.NoError(t, err)
		require.NoError(t, tx.Commit(ctx))

		assert.Equal(t, []string{"BEGIN", "INSERT users", "COMMIT"}, h.spanNames())
		assert.Equal(t, 1, h.mock.Commits())

		for _, span := range h.spans() {
			assert.Equal(t, codes.Ok, span.Status.Code)
		}
		assert.Equal(t, "COMMIT", attrMap(h.spans()[2])["db.operation"].AsString())
	})

	t.Run("given rollback, then a ROLLBACK span is recorded", func(t *testing.T) {
		h := newHarness(t, &MockConn{}, DefaultConfig())
		ctx := context.Background()

		tx, err := h.db.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.Rollback(ctx))

		assert.Equal(t, []string{"BEGIN", "ROLLBACK"}, h.spanNames())
		assert.Equal(t, 1, h.mock.Rollbacks())
	})

	t.Run("given begin fails, then the error is returned and the span is ERROR", func(t *testing.T) {
		errBusy := errors.New("too many connections")
		h := newHarness(t, &MockConn{BeginFunc: func(context.Context, TxOptions) error {
			return errBusy
		}}, DefaultConfig())

		tx, err := h.db.Begin(context.Background())

		assert.Nil(t, tx)
		assert.Same(t, errBusy, err)
		spans := h.spans()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status.Code)
	})

	t.Run("given commit fails, then the error is returned and the span is ERROR", func(t *testing.T) {
		errSerialization := errors.New("could not serialize access")
		h := newHarness(t, &MockConn{CommitFunc: func(context.Context) error {
			return errSerialization
		}}, DefaultConfig())
		ctx := context.Background()

		tx, err := h.db.Begin(ctx)
		require.NoError(t, err)
		err = tx.Commit(ctx)

		assert.Same(t, errSerialization, err)
		spans := h.spans()
		require.Len(t, spans, 2)
		assert.Equal(t, codes.Error, spans[1].Status.Code)
		assert.Equal(t, errSerialization.Error(), attrMap(spans[1])["error.message"].AsString())
	})

	t.Run("given options, then isolation level and access mode are recorded", func(t *testing.T) {
		h := newHarness(t, &MockConn{}, DefaultConfig())

		_, err := h.db.BeginWithOptions(context.Background(), TxOptions{
			IsolationLevel: Serializable,
			AccessMode:     ReadOnly,
		})
		require.NoError(t, err)

		attrs := attrMap(h.spans()[0])
		assert.Equal(t, "BEGIN", attrs["db.operation"].AsString())
		assert.Equal(t, "serializable", attrs["db.transaction.isolation_level"].AsString())
		assert.Equal(t, "read only", attrs["db.transaction.access_mode"].AsString())
	})

	t.Run("given boundary spans over the threshold, then only statements are flagged slow", func(t *testing.T) {
		h := newHarness(t, &MockConn{
			ExecFunc: func(context.Context, Statement) (ExecResult, error) {
				time.Sleep(2 * time.Millisecond)
				return ExecResult{RowsAffected: 1}, nil
			},
			BeginFunc: func(context.Context, TxOptions) error {
				time.Sleep(2 * time.Millisecond)
				return nil
			},
		}, DefaultConfig().WithSlowQueryThreshold(time.Nanosecond))
		ctx := context.Background()

		tx, err := h.db.Begin(ctx)
		require.NoError(t, err)
		_, err = tx.Execute(ctx, NewStatement("DELETE FROM sessions"))
		require.NoError(t, err)
		require.NoError(t, tx.Commit(ctx))

		spans := h.spans()
		require.Len(t, spans, 3)

		_, beginSlow := attrMap(spans[0])["slow_query"]
		assert.False(t, beginSlow)
		_, beginRows := attrMap(spans[0])["db.rows_affected"]
		assert.False(t, beginRows)

		assert.True(t, attrMap(spans[1])["slow_query"].AsBool())

		_, commitSlow := attrMap(spans[2])["slow_query"]
		assert.False(t, commitSlow)
	})
}

func TestTracedConn_Transaction(t *testing.T) {
	t.Run("given a successful body, then statements nest under the TRANSACTION span", func(t *testing.T) {
		h := newHarness(t, &MockConn{}, DefaultConfig())

		err := h.db.Transaction(context.Background(), func(ctx context.Context, tx Tx) error {
			if _, err := tx.Execute(ctx, NewStatement("INSERT INTO users (name) VALUES ($1)", "ann")); err != nil {
				return err
			}
			_, err := tx.Execute(ctx, NewStatement("INSERT INTO audit_log (event) VALUES ($1)", "signup"))
			return err
		})
		require.NoError(t, err)

		spans := h.spans()
		require.Len(t, spans, 3)
		assert.Equal(t, []string{"INSERT users", "INSERT audit_log", "TRANSACTION"}, h.spanNames())

		txSpan := spans[2]
		assert.Equal(t, codes.Ok, txSpan.Status.Code)
		assert.Equal(t, txSpan.SpanContext.SpanID(), spans[0].Parent.SpanID())
		assert.Equal(t, txSpan.SpanContext.SpanID(), spans[1].Parent.SpanID())
		assert.Equal(t, 1, h.mock.Commits())
	})

	t.Run("given a failing body, then it rolls back and returns the body error", func(t *testing.T) {
		errValidation := errors.New("email already taken")
		h := newHarness(t, &MockConn{}, DefaultConfig())

		err := h.db.Transaction(context.Background(), func(context.Context, Tx) error {
			return errValidation
		})

		assert.Same(t, errValidation, err)
		assert.Equal(t, 1, h.mock.Rollbacks())
		assert.Zero(t, h.mock.Commits())

		spans := h.spans()
		require.Len(t, spans, 1)
		assert.Equal(t, "TRANSACTION", spans[0].Name)
		assert.Equal(t, codes.Error, spans[0].Status.Code)
	})

	t.Run("given a panicking body, then it rolls back and the panic propagates", func(t *testing.T) {
		h := newHarness(t, &MockConn{}, DefaultConfig())

		assert.Panics(t, func() {
			_ = h.db.Transaction(context.Background(), func(context.Context, Tx) error {
				panic("boom")
			})
		})

		assert.Equal(t, 1, h.mock.Rollbacks())
		spans := h.spans()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status.Code)
		assert.Equal(t, "panic: boom", attrMap(spans[0])["error.message"].AsString())
	})

	t.Run("given options, then the TRANSACTION span records them", func(t *testing.T) {
		var gotOpts TxOptions
		h := newHarness(t, &MockConn{BeginFunc: func(_ context.Context, opts TxOptions) error {
			gotOpts = opts
			return nil
		}}, DefaultConfig())
		opts := TxOptions{IsolationLevel: RepeatableRead}

		err := h.db.TransactionWithOptions(context.Background(), func(context.Context, Tx) error {
			return nil
		}, opts)
		require.NoError(t, err)

		assert.Equal(t, opts, gotOpts)
		attrs := attrMap(h.spans()[0])
		assert.Equal(t, "repeatable read", attrs["db.transaction.isolation_level"].AsString())
		_, hasMode := attrs["db.transaction.access_mode"]
		assert.False(t, hasMode)
	})
}

func TestRunInTx(t *testing.T) {
	tests := []struct {
		name          string
		fn            TxFunc
		wantErr       assert.ErrorAssertionFunc
		wantCommits   int
		wantRollbacks int
	}{
		{
			name: "given fn succeeds, then commits",
			fn: func(context.Context, Tx) error {
				return nil
			},
			wantErr:     assert.NoError,
			wantCommits: 1,
		},
		{
			name: "given fn fails, then rolls back and returns fn error",
			fn: func(context.Context, Tx) error {
				return assert.AnError
			},
			wantErr: func(t assert.TestingT, err error, _ ...any) bool {
				return assert.ErrorIs(t, err, assert.AnError)
			},
			wantRollbacks: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockConn{}
			tx, err := mock.Begin(context.Background())
			require.NoError(t, err)

			err = RunInTx(context.Background(), tx, tt.fn)

			tt.wantErr(t, err)
			assert.Equal(t, tt.wantCommits, mock.Commits())
			assert.Equal(t, tt.wantRollbacks, mock.Rollbacks())
		})
	}

	t.Run("given rollback also fails, then fn error is returned", func(t *testing.T) {
		mock := &MockConn{RollbackFunc: func(context.Context) error {
			return errors.New("connection reset")
		}}
		tx, err := mock.Begin(context.Background())
		require.NoError(t, err)

		err = RunInTx(context.Background(), tx, func(context.Context, Tx) error {
			return assert.AnError
		})

		assert.ErrorIs(t, err, assert.AnError)
	})
}
