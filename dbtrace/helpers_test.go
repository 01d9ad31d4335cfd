package dbtrace

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// harness bundles a traced mock connection with in-memory telemetry sinks.
type harness struct {
	mock     *MockConn
	db       *TracedConn
	tp       *sdktrace.TracerProvider
	exporter *tracetest.InMemoryExporter
	reader   *sdkmetric.ManualReader
	logs     *bytes.Buffer
}

func newHarness(t *testing.T, mock *MockConn, cfg TracingConfig, opts ...Option) *harness {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	logs := &bytes.Buffer{}
	all := append([]Option{
		WithTracerProvider(tp),
		WithMeterProvider(mp),
		WithLogger(zerolog.New(logs)),
	}, opts...)

	return &harness{
		mock:     mock,
		db:       New(mock, cfg, all...),
		tp:       tp,
		exporter: exporter,
		reader:   reader,
		logs:     logs,
	}
}

func (h *harness) spans() tracetest.SpanStubs {
	return h.exporter.GetSpans()
}

func (h *harness) spanNames() []string {
	spans := h.spans()
	names := make([]string, len(spans))
	for i, s := range spans {
		names[i] = s.Name
	}
	return names
}

func attrMap(s tracetest.SpanStub) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value, len(s.Attributes))
	for _, kv := range s.Attributes {
		m[kv.Key] = kv.Value
	}
	return m
}

func countEvents(s tracetest.SpanStub, name string) int {
	n := 0
	for _, e := range s.Events {
		if e.Name == name {
			n++
		}
	}
	return n
}
