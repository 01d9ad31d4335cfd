package dbtrace

import (
	"context"
	"fmt"

	"github.com/kroma-labs/sentinel-dbtrace/sqlparse"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys outside the semconv vocabulary.
const (
	keyInstance       = attribute.Key("db.instance")
	keyParameters     = attribute.Key("db.statement.parameters")
	keyDurationMs     = attribute.Key("db.duration_ms")
	keyRowsAffected   = attribute.Key("db.rows_affected")
	keySlowQuery      = attribute.Key("slow_query")
	keyStatusCode     = attribute.Key("otel.status_code")
	keyErrorMessage   = attribute.Key("error.message")
	keyIsolationLevel = attribute.Key("db.transaction.isolation_level")
	keyAccessMode     = attribute.Key("db.transaction.access_mode")
)

// Fixed labels for transaction boundary spans.
const (
	labelBegin       = "BEGIN"
	labelTransaction = "TRANSACTION"
	labelCommit      = "COMMIT"
	labelRollback    = "ROLLBACK"
)

// instrumenter builds and finalises spans for one wrapped connection.
// It is read-only after construction and shared by the connection and
// every transaction opened through it.
type instrumenter struct {
	backend Backend
	cfg     TracingConfig
	in      *instrumentation
}

// identityAttributes describe which database a span talks to. Optional
// values are only present when configured.
func (i *instrumenter) identityAttributes() []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 6)
	attrs = append(attrs, semconv.DBSystemKey.String(i.backend.System()))

	if name, ok := i.cfg.DatabaseName(); ok {
		attrs = append(attrs, semconv.DBNameKey.String(name))
	}
	if addr, ok := i.cfg.ServerAddress(); ok {
		attrs = append(attrs, semconv.ServerAddress(addr))
	}
	if port, ok := i.cfg.ServerPort(); ok {
		attrs = append(attrs, semconv.ServerPort(port))
	}
	if peer, ok := i.cfg.PeerService(); ok {
		attrs = append(attrs, semconv.PeerService(peer))
	}
	if i.in.InstanceName != "" {
		attrs = append(attrs, keyInstance.String(i.in.InstanceName))
	}
	return attrs
}

// metricAttributes is the low-cardinality subset used on metrics.
func (i *instrumenter) metricAttributes() []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	attrs = append(attrs, semconv.DBSystemKey.String(i.backend.System()))
	if name, ok := i.cfg.DatabaseName(); ok {
		attrs = append(attrs, semconv.DBNameKey.String(name))
	}
	if i.in.InstanceName != "" {
		attrs = append(attrs, keyInstance.String(i.in.InstanceName))
	}
	return attrs
}

// queryAttributes returns the attributes known when a statement span opens.
func (i *instrumenter) queryAttributes(parsed sqlparse.Parsed, sql string, args []any) []attribute.KeyValue {
	attrs := i.identityAttributes()
	attrs = append(attrs, semconv.DBOperationKey.String(parsed.Operation.String()))

	if parsed.Table != "" {
		attrs = append(attrs, semconv.DBSQLTableKey.String(parsed.Table))
	}

	if i.cfg.LogStatements() && sql != "" {
		statement := sql
		if i.in.QuerySanitizer != nil {
			statement = i.in.QuerySanitizer(sql)
		}
		attrs = append(attrs, semconv.DBStatementKey.String(statement))

		if i.cfg.LogParameters() && len(args) > 0 {
			attrs = append(attrs, keyParameters.StringSlice(formatArgs(args)))
		}
	}

	return attrs
}

// startQuery opens a client span for one statement. The returned context
// carries the span so work done by the backend nests under it.
func (i *instrumenter) startQuery(
	ctx context.Context,
	sql string,
	args []any,
) (context.Context, trace.Span, sqlparse.Parsed) {
	parsed := sqlparse.Parse(sql)

	ctx, span := i.in.Tracer.Start(ctx, parsed.SpanName(),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(i.queryAttributes(parsed, sql, args)...),
	)
	return ctx, span, parsed
}

// startTx opens a transaction boundary span. SQL text is never
// classified here; label is one of the fixed BEGIN/TRANSACTION/COMMIT/
// ROLLBACK labels.
func (i *instrumenter) startTx(ctx context.Context, label string, opts *TxOptions) (context.Context, trace.Span) {
	attrs := i.identityAttributes()
	attrs = append(attrs, semconv.DBOperationKey.String(label))

	if opts != nil {
		if opts.IsolationLevel != "" {
			attrs = append(attrs, keyIsolationLevel.String(string(opts.IsolationLevel)))
		}
		if opts.AccessMode != "" {
			attrs = append(attrs, keyAccessMode.String(string(opts.AccessMode)))
		}
	}

	return i.in.Tracer.Start(ctx, label,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

func formatArgs(args []any) []string {
	out := make([]string, len(args))
	for idx, arg := range args {
		out[idx] = fmt.Sprintf("%v", arg)
	}
	return out
}
