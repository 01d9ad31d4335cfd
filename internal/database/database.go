package database

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	_ "github.com/lib/pq"           // Register postgres driver
	_ "github.com/mattn/go-sqlite3" // Register sqlite3 driver
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/kroma-labs/sentinel-dbtrace/dbtrace"
	"github.com/kroma-labs/sentinel-dbtrace/internal/config"
	sentinelpgx "github.com/kroma-labs/sentinel-dbtrace/pgx"
	sentinelsql "github.com/kroma-labs/sentinel-dbtrace/sql"
	"github.com/kroma-labs/sentinel-dbtrace/sqlparse"
	sentinelsqlx "github.com/kroma-labs/sentinel-dbtrace/sqlx"
)

// pooledConn is what every real backend adapter offers on top of
// dbtrace.Conn.
type pooledConn interface {
	dbtrace.Conn
	Ping(ctx context.Context) error
	Close() error
	RecordPoolMetrics(meter metric.Meter, attrs ...attribute.KeyValue) error
}

// DB is a traced connection to the configured backend.
type DB struct {
	*dbtrace.TracedConn

	ping  func(ctx context.Context) error
	close func() error
}

// Deps are the telemetry handles the database is instrumented with.
type Deps struct {
	Logger         zerolog.Logger
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Open connects to the backend selected by cfg, waits for it to answer,
// registers pool metrics and wraps the connection with dbtrace.
func Open(ctx context.Context, cfg config.Config, deps Deps) (*DB, error) {
	conn, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	db := &DB{
		ping:  func(context.Context) error { return nil },
		close: func() error { return nil },
	}

	if pc, ok := conn.(pooledConn); ok {
		db.ping = pc.Ping
		db.close = pc.Close

		if err := waitForDB(ctx, pc, cfg.PingRetries, deps.Logger); err != nil {
			_ = pc.Close()
			return nil, err
		}

		meter := deps.MeterProvider.Meter(config.ServiceName)
		if err := pc.RecordPoolMetrics(meter, semconv.DBName(cfg.DatabaseName)); err != nil {
			deps.Logger.Warn().Err(err).Msg("failed to register pool metrics")
		}
	}

	db.TracedConn = dbtrace.New(conn, cfg.TracingConfig(),
		dbtrace.WithLogger(deps.Logger),
		dbtrace.WithTracerProvider(deps.TracerProvider),
		dbtrace.WithMeterProvider(deps.MeterProvider),
		dbtrace.WithInstanceName(cfg.InstanceName),
		dbtrace.WithQuerySanitizer(sqlparse.DefaultQuerySanitizer),
	)

	return db, nil
}

// Ping verifies the backend is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.ping(ctx)
}

// Close releases the underlying pool.
func (db *DB) Close() error {
	return db.close()
}

func openBackend(ctx context.Context, cfg config.Config) (dbtrace.Conn, error) {
	poolOpts := []sentinelsql.Option{
		sentinelsql.WithMaxOpenConns(cfg.MaxOpenConns),
		sentinelsql.WithMaxIdleConns(cfg.MaxIdleConns),
		sentinelsql.WithConnMaxLifetime(config.DefaultMaxLifetime),
		sentinelsql.WithConnMaxIdleTime(config.DefaultMaxIdleTime),
	}

	switch cfg.Backend {
	case config.BackendPostgres:
		return sentinelsql.Open("postgres", cfg.DSN, dbtrace.Postgres, poolOpts...)
	case config.BackendSQLX:
		return sentinelsqlx.Open("postgres", cfg.DSN, dbtrace.Postgres, poolOpts...)
	case config.BackendSQLite:
		// sqlite serialises writers; a single connection avoids SQLITE_BUSY.
		return sentinelsql.Open("sqlite3", cfg.DSN, dbtrace.SQLite, sentinelsql.WithMaxOpenConns(1))
	case config.BackendPGX:
		return sentinelpgx.Open(ctx, cfg.DSN)
	case config.BackendMock:
		return NewMockConn(), nil
	default:
		return nil, fmt.Errorf("unsupported backend %q", cfg.Backend)
	}
}

// waitForDB pings until the database answers or the attempts run out.
func waitForDB(ctx context.Context, pc pooledConn, attempts int, logger zerolog.Logger) error {
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 5 * time.Second

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, pc.Ping(ctx)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warn().
				Err(err).
				Str("db.system", pc.Backend().System()).
				Dur("retry_in", next).
				Msg("database not reachable yet")
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to reach database: %w", err)
	}
	return nil
}
