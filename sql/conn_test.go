package sql

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/kroma-labs/sentinel-dbtrace/dbtrace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newMock(t *testing.T) (*Conn, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return New(mockDB, dbtrace.Postgres), mock
}

func TestOpen(t *testing.T) {
	t.Run("given unknown driver, then returns wrapped error", func(t *testing.T) {
		conn, err := Open("nonexistent_driver", "some_dsn", dbtrace.Postgres)

		require.Error(t, err)
		assert.Nil(t, conn)
		assert.Contains(t, err.Error(), "failed to open database")
	})
}

func TestConn_Execute(t *testing.T) {
	tests := []struct {
		name     string
		mockFn   func(sqlmock.Sqlmock)
		wantErr  assert.ErrorAssertionFunc
		wantRows int64
		wantID   int64
	}{
		{
			name: "given successful insert, then returns affected rows and last id",
			mockFn: func(m sqlmock.Sqlmock) {
				m.ExpectExec("INSERT INTO users (name) VALUES ($1)").
					WithArgs("ann").
					WillReturnResult(sqlmock.NewResult(42, 1))
			},
			wantErr:  assert.NoError,
			wantRows: 1,
			wantID:   42,
		},
		{
			name: "given exec error, then returns error",
			mockFn: func(m sqlmock.Sqlmock) {
				m.ExpectExec("INSERT INTO users (name) VALUES ($1)").
					WithArgs("ann").
					WillReturnError(assert.AnError)
			},
			wantErr: assert.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, mock := newMock(t)
			tt.mockFn(mock)

			res, err := conn.Execute(context.Background(),
				dbtrace.NewStatement("INSERT INTO users (name) VALUES ($1)", "ann"))

			tt.wantErr(t, err)
			assert.Equal(t, tt.wantRows, res.RowsAffected)
			assert.Equal(t, tt.wantID, res.LastInsertID)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestConn_ExecuteUnprepared(t *testing.T) {
	conn, mock := newMock(t)
	mock.ExpectExec("TRUNCATE sessions").WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := conn.ExecuteUnprepared(context.Background(), "TRUNCATE sessions")

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConn_QueryAll(t *testing.T) {
	tests := []struct {
		name     string
		mockFn   func(sqlmock.Sqlmock)
		wantErr  assert.ErrorAssertionFunc
		wantRows []dbtrace.Row
	}{
		{
			name: "given rows, then returns them with columns",
			mockFn: func(m sqlmock.Sqlmock) {
				m.ExpectQuery("SELECT id, name FROM users").
					WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
						AddRow(int64(1), "ann").
						AddRow(int64(2), "bob"))
			},
			wantErr: assert.NoError,
			wantRows: []dbtrace.Row{
				{Columns: []string{"id", "name"}, Values: []any{int64(1), "ann"}},
				{Columns: []string{"id", "name"}, Values: []any{int64(2), "bob"}},
			},
		},
		{
			name: "given no rows, then returns empty result",
			mockFn: func(m sqlmock.Sqlmock) {
				m.ExpectQuery("SELECT id, name FROM users").
					WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
			},
			wantErr: assert.NoError,
		},
		{
			name: "given query error, then returns error",
			mockFn: func(m sqlmock.Sqlmock) {
				m.ExpectQuery("SELECT id, name FROM users").WillReturnError(assert.AnError)
			},
			wantErr: assert.Error,
		},
		{
			name: "given row iteration error, then returns error",
			mockFn: func(m sqlmock.Sqlmock) {
				m.ExpectQuery("SELECT id, name FROM users").
					WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
						AddRow(int64(1), "ann").
						RowError(0, assert.AnError))
			},
			wantErr: assert.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, mock := newMock(t)
			tt.mockFn(mock)

			rows, err := conn.QueryAll(context.Background(), dbtrace.NewStatement("SELECT id, name FROM users"))

			if !tt.wantErr(t, err) {
				return
			}
			if err == nil {
				assert.Equal(t, tt.wantRows, rows)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestConn_QueryOne(t *testing.T) {
	tests := []struct {
		name    string
		mockFn  func(sqlmock.Sqlmock)
		wantErr assert.ErrorAssertionFunc
		wantRow *dbtrace.Row
	}{
		{
			name: "given matching row, then returns first row",
			mockFn: func(m sqlmock.Sqlmock) {
				m.ExpectQuery("SELECT name FROM users WHERE id = $1").
					WithArgs(1).
					WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("ann").AddRow("ignored"))
			},
			wantErr: assert.NoError,
			wantRow: &dbtrace.Row{Columns: []string{"name"}, Values: []any{"ann"}},
		},
		{
			name: "given no rows, then returns nil without error",
			mockFn: func(m sqlmock.Sqlmock) {
				m.ExpectQuery("SELECT name FROM users WHERE id = $1").
					WithArgs(1).
					WillReturnRows(sqlmock.NewRows([]string{"name"}))
			},
			wantErr: assert.NoError,
		},
		{
			name: "given ErrNoRows from the driver, then returns nil without error",
			mockFn: func(m sqlmock.Sqlmock) {
				m.ExpectQuery("SELECT name FROM users WHERE id = $1").
					WithArgs(1).
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: assert.NoError,
		},
		{
			name: "given query error, then returns error",
			mockFn: func(m sqlmock.Sqlmock) {
				m.ExpectQuery("SELECT name FROM users WHERE id = $1").
					WithArgs(1).
					WillReturnError(assert.AnError)
			},
			wantErr: assert.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, mock := newMock(t)
			tt.mockFn(mock)

			row, err := conn.QueryOne(context.Background(),
				dbtrace.NewStatement("SELECT name FROM users WHERE id = $1", 1))

			tt.wantErr(t, err)
			assert.Equal(t, tt.wantRow, row)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestConn_Stream(t *testing.T) {
	t.Run("given rows, then streams them in order", func(t *testing.T) {
		conn, mock := newMock(t)
		mock.ExpectQuery("SELECT id FROM users").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)))

		stream, err := conn.Stream(context.Background(), dbtrace.NewStatement("SELECT id FROM users"))
		require.NoError(t, err)

		_, err = stream.Row()
		assert.ErrorIs(t, err, dbtrace.ErrNoCurrentRow)

		var ids []any
		for stream.Next() {
			row, err := stream.Row()
			require.NoError(t, err)
			id, _ := row.Get("id")
			ids = append(ids, id)
		}
		require.NoError(t, stream.Err())
		require.NoError(t, stream.Close())

		assert.Equal(t, []any{int64(1), int64(2)}, ids)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("given query error, then returns error", func(t *testing.T) {
		conn, mock := newMock(t)
		mock.ExpectQuery("SELECT id FROM users").WillReturnError(assert.AnError)

		stream, err := conn.Stream(context.Background(), dbtrace.NewStatement("SELECT id FROM users"))

		assert.ErrorIs(t, err, assert.AnError)
		assert.Nil(t, stream)
	})
}

func TestConn_Capabilities(t *testing.T) {
	tests := []struct {
		name          string
		backend       dbtrace.Backend
		wantReturning bool
	}{
		{name: "given postgres, then supports RETURNING", backend: dbtrace.Postgres, wantReturning: true},
		{name: "given sqlite, then supports RETURNING", backend: dbtrace.SQLite, wantReturning: true},
		{name: "given mysql, then does not support RETURNING", backend: dbtrace.MySQL, wantReturning: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDB, _, err := sqlmock.New()
			require.NoError(t, err)
			defer mockDB.Close()

			conn := New(mockDB, tt.backend)

			assert.Equal(t, tt.backend, conn.Backend())
			assert.Equal(t, tt.wantReturning, conn.SupportsReturning())
			assert.False(t, conn.IsMock())
			assert.Same(t, mockDB, conn.DB())
		})
	}
}

func TestConn_Traced(t *testing.T) {
	t.Run("given a traced conn, then driver calls produce named spans", func(t *testing.T) {
		conn, mock := newMock(t)
		mock.ExpectQuery("SELECT id FROM users").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE users SET active = $1").
			WithArgs(false).
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectCommit()

		exporter := tracetest.NewInMemoryExporter()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
		defer tp.Shutdown(context.Background())

		db := dbtrace.New(conn, dbtrace.DefaultConfig(), dbtrace.WithTracerProvider(tp))
		ctx := context.Background()

		_, err := db.QueryAll(ctx, dbtrace.NewStatement("SELECT id FROM users"))
		require.NoError(t, err)
		err = db.Transaction(ctx, func(ctx context.Context, tx dbtrace.Tx) error {
			_, err := tx.Execute(ctx, dbtrace.NewStatement("UPDATE users SET active = $1", false))
			return err
		})
		require.NoError(t, err)

		var names []string
		for _, s := range exporter.GetSpans() {
			names = append(names, s.Name)
		}
		assert.Equal(t, []string{"SELECT users", "UPDATE users", "TRANSACTION"}, names)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("given a driver error, then the traced conn returns it unchanged", func(t *testing.T) {
		conn, mock := newMock(t)
		errConstraint := errors.New("violates foreign key constraint")
		mock.ExpectExec("DELETE FROM users").WillReturnError(errConstraint)

		db := dbtrace.Wrap(conn)

		_, err := db.Execute(context.Background(), dbtrace.NewStatement("DELETE FROM users"))

		assert.ErrorIs(t, err, errConstraint)
	})
}
