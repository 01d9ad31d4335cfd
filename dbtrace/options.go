package dbtrace

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// scope is the instrumentation scope name for OpenTelemetry.
	// This identifies the library in traces and metrics.
	scope = "github.com/kroma-labs/sentinel-dbtrace/dbtrace"
)

// instrumentation holds the telemetry plumbing shared by every call made
// through one TracedConn. It is built once and never mutated afterwards.
type instrumentation struct {
	// TracerProvider is the tracer provider to use.
	// If not set, uses the global provider via otel.GetTracerProvider().
	// When no global provider is configured, a no-op tracer is used (safe, but no traces).
	TracerProvider trace.TracerProvider

	// MeterProvider is the meter provider to use.
	// If not set, uses the global provider via otel.GetMeterProvider().
	MeterProvider metric.MeterProvider

	// Tracer is the tracer instance created from TracerProvider.
	Tracer trace.Tracer

	// Meter is the meter instance created from MeterProvider.
	Meter metric.Meter

	// Metrics holds the metric instruments.
	Metrics *metrics

	// Logger receives slow query warnings and query failures.
	Logger zerolog.Logger

	// QuerySanitizer rewrites SQL before it is recorded as db.statement.
	// If nil, statements are recorded as-is.
	QuerySanitizer func(query string) string

	// InstanceName identifies a specific connection, e.g. "primary" or
	// "replica". Recorded as db.instance when set.
	InstanceName string
}

// newInstrumentation creates the instrumentation with defaults and applies options.
func newInstrumentation(opts ...Option) *instrumentation {
	in := &instrumentation{
		TracerProvider: otel.GetTracerProvider(),
		MeterProvider:  otel.GetMeterProvider(),
		Logger:         log.Logger,
	}

	for _, opt := range opts {
		opt(in)
	}

	in.Tracer = in.TracerProvider.Tracer(scope)
	in.Meter = in.MeterProvider.Meter(scope)

	// Metrics stay nil if the instruments cannot be created; recording is nil-safe.
	in.Metrics, _ = newMetrics(in.Meter)

	return in
}

// Option configures the instrumentation.
type Option func(*instrumentation)

// WithTracerProvider sets a custom tracer provider.
// If not called, the global provider from otel.GetTracerProvider() is used.
//
// Example:
//
//	tp := sdktrace.NewTracerProvider(...)
//	db := dbtrace.New(conn, dbtrace.DefaultConfig(),
//	    dbtrace.WithTracerProvider(tp),
//	)
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(in *instrumentation) {
		in.TracerProvider = tp
	}
}

// WithMeterProvider sets a custom meter provider.
// If not called, the global provider from otel.GetMeterProvider() is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(in *instrumentation) {
		in.MeterProvider = mp
	}
}

// WithLogger sets the logger used for slow query warnings and query
// failures. Defaults to the global zerolog logger.
//
// Example:
//
//	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
//	db := dbtrace.New(conn, cfg, dbtrace.WithLogger(logger))
func WithLogger(l zerolog.Logger) Option {
	return func(in *instrumentation) {
		in.Logger = l
	}
}

// WithQuerySanitizer sets a function applied to SQL text before it is
// recorded as db.statement. It has no effect unless statement logging is
// enabled in the TracingConfig.
//
// Example:
//
//	db := dbtrace.New(conn, dbtrace.DefaultConfig().WithStatementLogging(true),
//	    dbtrace.WithQuerySanitizer(sqlparse.DefaultQuerySanitizer),
//	)
//	// Query: "SELECT * FROM users WHERE id = 123"
//	// Recorded as: "SELECT * FROM users WHERE id = ?"
func WithQuerySanitizer(fn func(string) string) Option {
	return func(in *instrumentation) {
		in.QuerySanitizer = fn
	}
}

// WithInstanceName sets an identifier for this specific connection,
// recorded as db.instance.
//
// Use it to tell apart several connections to the same database:
//   - Primary/replica setups: "primary", "replica-1"
//   - Read/write splits: "read", "write"
//   - Shards: "shard-0", "shard-1"
func WithInstanceName(name string) Option {
	return func(in *instrumentation) {
		in.InstanceName = name
	}
}
