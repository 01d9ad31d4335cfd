// Package dbtrace instruments database calls with OpenTelemetry spans
// without changing how callers issue them.
//
// # Features
//
//   - Span per statement named "<OPERATION> <table>" (e.g. "SELECT users")
//   - Transaction boundary spans: BEGIN, TRANSACTION, COMMIT, ROLLBACK
//   - Slow query flag, span event and warn-level log above a threshold
//   - Row counts, durations, status and error messages on every span
//   - db.client.operation.duration histogram and slow query counter
//   - Works over any backend implementing Conn (see the sql, sqlx and pgx
//     packages, or MockConn)
//
// # Quick Start
//
//	import "github.com/kroma-labs/sentinel-dbtrace/dbtrace"
//
//	db := dbtrace.New(conn, dbtrace.DefaultConfig().
//	    WithDatabaseName("orders").
//	    WithSlowQueryThreshold(200*time.Millisecond),
//	)
//
//	// Use like the wrapped connection; pass the request context so
//	// database spans nest under the request span.
//	rows, err := db.QueryAll(ctx, dbtrace.NewStatement(
//	    "SELECT id, name FROM users WHERE active = $1", true))
//
// # Configuration
//
// TracingConfig is an immutable value. DevelopmentConfig logs SQL text and
// parameters with a 100ms slow threshold; ProductionConfig logs neither and
// uses a one second threshold.
//
// Telemetry plumbing is set with options:
//
//	db := dbtrace.New(conn, dbtrace.ProductionConfig(),
//	    dbtrace.WithTracerProvider(tp),
//	    dbtrace.WithMeterProvider(mp),
//	    dbtrace.WithLogger(logger),
//	    dbtrace.WithQuerySanitizer(sqlparse.DefaultQuerySanitizer),
//	)
//
// # Span Attributes
//
//	db.system          postgresql, mysql or sqlite
//	db.operation       SELECT, INSERT, ... or QUERY
//	db.sql.table       first table referenced, when detectable
//	db.statement       SQL text, only with statement logging enabled
//	db.name            when configured
//	server.address     when configured
//	server.port        when configured
//	peer.service       when configured
//	db.rows_affected   rows returned or affected, when available
//	db.duration_ms     elapsed milliseconds
//	slow_query         true when over the threshold
//	otel.status_code   OK or ERROR
//	error.message      error text on failure
//
// Errors returned by the wrapped connection are passed back unchanged.
package dbtrace
