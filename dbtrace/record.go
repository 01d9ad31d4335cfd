package dbtrace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	statusOK    = "OK"
	statusError = "ERROR"
)

// errAborted stands in for the outcome of a call that never returned,
// e.g. because its goroutine exited.
var errAborted = errors.New("database call aborted before completion")

// outcome is what is known about a call once it has finished.
type outcome struct {
	operation string
	elapsed   time.Duration
	err       error
	// rows is nil when no count is available (streams, failures).
	rows *int64
	// boundary marks transaction boundary spans, which carry status and
	// duration but are never flagged slow and never carry a row count.
	boundary bool
}

// record folds the outcome of a call into its span. It observes only:
// the error stays with the caller untouched.
func (i *instrumenter) record(ctx context.Context, span trace.Span, o outcome) {
	durationMs := o.elapsed.Round(time.Millisecond).Milliseconds()
	span.SetAttributes(keyDurationMs.Int64(durationMs))

	if !o.boundary && i.cfg.RecordRowCounts() && o.rows != nil {
		span.SetAttributes(keyRowsAffected.Int64(*o.rows))
	}

	metricAttrs := i.metricAttributes()

	if threshold := i.cfg.SlowQueryThreshold(); !o.boundary && o.elapsed > threshold {
		thresholdMs := threshold.Milliseconds()
		span.SetAttributes(keySlowQuery.Bool(true))
		span.AddEvent("slow_query", trace.WithAttributes(
			attribute.Int64("duration_ms", durationMs),
			attribute.Int64("threshold_ms", thresholdMs),
		))
		i.logEvent(i.in.Logger.Warn(), span, o.operation).
			Int64("duration_ms", durationMs).
			Int64("threshold_ms", thresholdMs).
			Msg("slow query detected")
		i.in.Metrics.recordSlowQuery(ctx, o.operation, metricAttrs)
	}

	if o.err == nil {
		span.SetAttributes(keyStatusCode.String(statusOK))
		span.SetStatus(codes.Ok, "")
	} else {
		msg := o.err.Error()
		span.SetAttributes(
			keyStatusCode.String(statusError),
			keyErrorMessage.String(msg),
		)
		span.RecordError(o.err)
		span.SetStatus(codes.Error, msg)
		i.logEvent(i.in.Logger.Error(), span, o.operation).
			Err(o.err).
			Int64("duration_ms", durationMs).
			Msg("database query failed")
	}

	i.in.Metrics.recordQueryDuration(ctx, o.elapsed, o.operation, metricAttrs, o.err)
}

// logEvent decorates a log event with the fields that tie it to its span.
func (i *instrumenter) logEvent(event *zerolog.Event, span trace.Span, operation string) *zerolog.Event {
	event = event.
		Str("target", i.cfg.Target()).
		Str("db.system", i.backend.System()).
		Str("db.operation", operation)

	if sc := span.SpanContext(); sc.IsValid() {
		event = event.
			Str("trace_id", sc.TraceID().String()).
			Str("span_id", sc.SpanID().String())
	}
	return event
}

// run drives one call through its span: the call runs with the span's
// context, the outcome is recorded exactly once and the span is ended on
// every path, including panics, which are re-raised after recording.
func run[T any](
	ctx context.Context,
	i *instrumenter,
	span trace.Span,
	operation string,
	boundary bool,
	call func(context.Context) (T, error),
	count func(T) *int64,
) (result T, err error) {
	defer span.End()

	start := time.Now()
	returned := false
	defer func() {
		if returned {
			return
		}
		p := recover()
		i.record(ctx, span, outcome{
			operation: operation,
			elapsed:   time.Since(start),
			err:       abortError(p),
			boundary:  boundary,
		})
		if p != nil {
			panic(p)
		}
	}()

	result, err = call(ctx)
	returned = true

	var rows *int64
	if err == nil && count != nil {
		rows = count(result)
	}
	i.record(ctx, span, outcome{
		operation: operation,
		elapsed:   time.Since(start),
		err:       err,
		rows:      rows,
		boundary:  boundary,
	})

	return result, err
}

// traceQuery runs call under a statement span named after the classified SQL.
func traceQuery[T any](
	ctx context.Context,
	i *instrumenter,
	sql string,
	args []any,
	call func(context.Context) (T, error),
	count func(T) *int64,
) (T, error) {
	ctx, span, parsed := i.startQuery(ctx, sql, args)
	return run(ctx, i, span, parsed.Operation.String(), false, call, count)
}

// traceTx runs call under a transaction boundary span.
func traceTx[T any](
	ctx context.Context,
	i *instrumenter,
	label string,
	opts *TxOptions,
	call func(context.Context) (T, error),
) (T, error) {
	ctx, span := i.startTx(ctx, label, opts)
	return run(ctx, i, span, label, true, call, nil)
}

func abortError(p any) error {
	switch v := p.(type) {
	case nil:
		return errAborted
	case error:
		return fmt.Errorf("panic: %w", v)
	default:
		return fmt.Errorf("panic: %v", v)
	}
}
