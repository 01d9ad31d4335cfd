// Package sql adapts database/sql to the dbtrace.Conn interface so any
// database/sql driver can be traced with dbtrace.
//
// # Quick Start
//
//	import (
//	    _ "github.com/lib/pq"
//
//	    "github.com/kroma-labs/sentinel-dbtrace/dbtrace"
//	    sentinelsql "github.com/kroma-labs/sentinel-dbtrace/sql"
//	)
//
//	conn, err := sentinelsql.Open("postgres", dsn, dbtrace.Postgres,
//	    sentinelsql.WithMaxOpenConns(20),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conn.Close()
//
//	db := dbtrace.New(conn, dbtrace.DefaultConfig().WithDatabaseName("myapp"))
//	rows, err := db.QueryAll(ctx, dbtrace.NewStatement("SELECT * FROM users"))
//
// An existing *sql.DB can be adapted with New instead of Open.
//
// # Rows
//
// Values are whatever the driver returns when scanning into any:
// int64, float64, bool, string, []byte, time.Time or nil for most drivers.
// QueryOne returns a nil row, not sql.ErrNoRows, when nothing matches.
//
// # Pool Metrics
//
// Connection pool statistics are exported as observable instruments:
//
//	err := conn.RecordPoolMetrics(otel.GetMeterProvider().Meter("myapp"))
//
// Emitted metrics:
//   - db.client.connections.open
//   - db.client.connections.idle
//   - db.client.connections.max
//   - db.client.connections.used
//   - db.client.connections.wait_count
//   - db.client.connections.wait_duration
package sql
