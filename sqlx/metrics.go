package sqlx

import (
	sentinelsql "github.com/kroma-labs/sentinel-dbtrace/sql"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// RecordPoolMetrics registers connection pool metrics for the wrapped
// database, tagged with db.system followed by attrs.
//
// Example:
//
//	conn, _ := sentinelsqlx.Open("postgres", dsn, dbtrace.Postgres)
//	err := conn.RecordPoolMetrics(otel.GetMeterProvider().Meter("myapp"))
func (c *Conn) RecordPoolMetrics(meter metric.Meter, attrs ...attribute.KeyValue) error {
	all := make([]attribute.KeyValue, 0, len(attrs)+1)
	all = append(all, semconv.DBSystemKey.String(c.backend.System()))
	all = append(all, attrs...)
	return sentinelsql.RecordPoolMetrics(c.db.DB, meter, all...)
}
