package dbtrace

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// metrics holds the metric instruments for database operations.
type metrics struct {
	// Operation latency histogram
	queryDuration metric.Float64Histogram

	// Calls that crossed the slow query threshold
	slowQueries metric.Int64Counter
}

// newMetrics creates and registers metric instruments.
func newMetrics(meter metric.Meter) (*metrics, error) {
	m := &metrics{}
	var err error

	// Query duration histogram with recommended buckets for database operations
	m.queryDuration, err = meter.Float64Histogram(
		"db.client.operation.duration",
		metric.WithDescription("Duration of database client operations in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.001, 0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1, 2.5, 5, 10,
		),
	)
	if err != nil {
		return nil, err
	}

	m.slowQueries, err = meter.Int64Counter(
		"db.client.slow_queries",
		metric.WithDescription("Number of database operations slower than the configured threshold"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// recordQueryDuration records the duration of a database operation.
func (m *metrics) recordQueryDuration(
	ctx context.Context,
	duration time.Duration,
	operation string,
	attrs []attribute.KeyValue,
	err error,
) {
	if m == nil || m.queryDuration == nil {
		return
	}

	m.queryDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(withOperationStatus(attrs, operation, err)...))
}

// recordSlowQuery counts one operation over the slow query threshold.
func (m *metrics) recordSlowQuery(ctx context.Context, operation string, attrs []attribute.KeyValue) {
	if m == nil || m.slowQueries == nil {
		return
	}

	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
	allAttrs = append(allAttrs, attrs...)
	if operation != "" {
		allAttrs = append(allAttrs, attribute.String("db.operation", operation))
	}

	m.slowQueries.Add(ctx, 1, metric.WithAttributes(allAttrs...))
}

func withOperationStatus(attrs []attribute.KeyValue, operation string, err error) []attribute.KeyValue {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+2)
	allAttrs = append(allAttrs, attrs...)

	if operation != "" {
		allAttrs = append(allAttrs, attribute.String("db.operation", operation))
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	return append(allAttrs, attribute.String("status", status))
}
