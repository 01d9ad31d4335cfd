package pgx

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// poolMetrics holds the pgxpool instruments, observed from pool.Stat()
// when the meter is collected.
type poolMetrics struct {
	openConnections metric.Int64ObservableGauge
	idleConnections metric.Int64ObservableGauge
	maxConnections  metric.Int64ObservableGauge
	usedConnections metric.Int64ObservableGauge
	waitCount       metric.Int64ObservableCounter
	acquireDuration metric.Float64ObservableCounter
}

// RecordPoolMetrics registers pool metrics for the wrapped pool, tagged
// with db.system followed by attrs. Metric names match the sql package
// so dashboards work across adapters.
//
// Example:
//
//	conn, _ := sentinelpgx.Open(ctx, url)
//	err := conn.RecordPoolMetrics(otel.GetMeterProvider().Meter("myapp"))
func (c *Conn) RecordPoolMetrics(meter metric.Meter, attrs ...attribute.KeyValue) error {
	all := make([]attribute.KeyValue, 0, len(attrs)+1)
	all = append(all, semconv.DBSystemKey.String(c.Backend().System()))
	all = append(all, attrs...)

	m := &poolMetrics{}
	var err error

	m.openConnections, err = meter.Int64ObservableGauge(
		"db.client.connections.open",
		metric.WithDescription("Number of open connections in the pool"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return err
	}

	m.idleConnections, err = meter.Int64ObservableGauge(
		"db.client.connections.idle",
		metric.WithDescription("Number of idle connections in the pool"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return err
	}

	m.maxConnections, err = meter.Int64ObservableGauge(
		"db.client.connections.max",
		metric.WithDescription("Maximum number of connections allowed in the pool"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return err
	}

	m.usedConnections, err = meter.Int64ObservableGauge(
		"db.client.connections.used",
		metric.WithDescription("Number of connections currently in use"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return err
	}

	// Acquires that found the pool empty and had to wait
	m.waitCount, err = meter.Int64ObservableCounter(
		"db.client.connections.wait_count",
		metric.WithDescription("Total number of times waited for a connection"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return err
	}

	m.acquireDuration, err = meter.Float64ObservableCounter(
		"db.client.connections.acquire_duration",
		metric.WithDescription("Total time spent acquiring connections in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(
		func(_ context.Context, o metric.Observer) error {
			stats := c.pool.Stat()
			opt := metric.WithAttributes(all...)

			o.ObserveInt64(m.openConnections, int64(stats.TotalConns()), opt)
			o.ObserveInt64(m.idleConnections, int64(stats.IdleConns()), opt)
			o.ObserveInt64(m.maxConnections, int64(stats.MaxConns()), opt)
			o.ObserveInt64(m.usedConnections, int64(stats.AcquiredConns()), opt)
			o.ObserveInt64(m.waitCount, stats.EmptyAcquireCount(), opt)
			o.ObserveFloat64(m.acquireDuration, stats.AcquireDuration().Seconds(), opt)

			return nil
		},
		m.openConnections,
		m.idleConnections,
		m.maxConnections,
		m.usedConnections,
		m.waitCount,
		m.acquireDuration,
	)

	return err
}
