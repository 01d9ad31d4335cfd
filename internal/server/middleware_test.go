package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newTracerProvider(t *testing.T) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp, exporter
}

func TestRecoveryMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		handler        http.HandlerFunc
		wantStatusCode int
		wantLogged     bool
	}{
		{
			name: "given handler panics with string, when recovery applied, then returns 500",
			handler: func(_ http.ResponseWriter, _ *http.Request) {
				panic("test panic")
			},
			wantStatusCode: http.StatusInternalServerError,
			wantLogged:     true,
		},
		{
			name: "given handler panics with error, when recovery applied, then returns 500",
			handler: func(_ http.ResponseWriter, _ *http.Request) {
				panic(assert.AnError)
			},
			wantStatusCode: http.StatusInternalServerError,
			wantLogged:     true,
		},
		{
			name: "given handler does not panic, when recovery applied, then proceeds normally",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
			wantStatusCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var logs bytes.Buffer
			handler := Recovery(zerolog.New(&logs))(tt.handler)

			rec := httptest.NewRecorder()
			assert.NotPanics(t, func() {
				handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			})

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantLogged, strings.Contains(logs.String(), "panic recovered"))
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		existingID string
	}{
		{
			name: "given no existing ID, when applied, then generates new ID",
		},
		{
			name:       "given existing ID, when applied, then forwards existing ID",
			existingID: "existing-request-id-123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var fromCtx string
			handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fromCtx = RequestIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.existingID != "" {
				req.Header.Set(RequestIDHeader, tt.existingID)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			responseID := rec.Header().Get(RequestIDHeader)
			require.NotEmpty(t, responseID)
			assert.Equal(t, responseID, fromCtx)
			if tt.existingID != "" {
				assert.Equal(t, tt.existingID, responseID)
			}
		})
	}

	t.Run("given empty context, then returns empty ID", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, RequestIDFromContext(context.Background()))
	})
}

func TestChainMiddleware(t *testing.T) {
	t.Parallel()

	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name+":before")
				next.ServeHTTP(w, r)
				order = append(order, name+":after")
			})
		}
	}

	handler := Chain(mark("first"), mark("second"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{
		"first:before", "second:before", "handler", "second:after", "first:after",
	}, order)
}

func TestLoggerMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		path      string
		wantLevel string
		wantEmpty bool
	}{
		{
			name:      "given 200 response, then logs at info",
			status:    http.StatusOK,
			path:      "/users",
			wantLevel: `"level":"info"`,
		},
		{
			name:      "given 404 response, then logs at warn",
			status:    http.StatusNotFound,
			path:      "/users",
			wantLevel: `"level":"warn"`,
		},
		{
			name:      "given 503 response, then logs at error",
			status:    http.StatusServiceUnavailable,
			path:      "/users",
			wantLevel: `"level":"error"`,
		},
		{
			name:      "given a skipped path, then logs nothing",
			status:    http.StatusOK,
			path:      "/ping",
			wantEmpty: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var logs bytes.Buffer
			handler := Chain(
				RequestID(),
				Logger(LoggerConfig{Logger: zerolog.New(&logs), SkipPaths: []string{"/ping"}}),
			)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set(RequestIDHeader, "req-1")
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if tt.wantEmpty {
				assert.Empty(t, logs.String())
				return
			}
			assert.Contains(t, logs.String(), tt.wantLevel)
			assert.Contains(t, logs.String(), `"request_id":"req-1"`)
			assert.Contains(t, logs.String(), `"path":"`+tt.path+`"`)
		})
	}
}

func TestTracingMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		status     int
		wantSpans  int
		wantStatus codes.Code
	}{
		{
			name:       "given successful request, then records a server span",
			path:       "/users",
			status:     http.StatusOK,
			wantSpans:  1,
			wantStatus: codes.Unset,
		},
		{
			name:       "given 5xx response, then marks span as error",
			path:       "/users",
			status:     http.StatusInternalServerError,
			wantSpans:  1,
			wantStatus: codes.Error,
		},
		{
			name:      "given a skipped path, then records nothing",
			path:      "/metrics",
			status:    http.StatusOK,
			wantSpans: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tp, exporter := newTracerProvider(t)
			handler := Tracing(TracingConfig{
				TracerProvider: tp,
				Propagator:     propagation.TraceContext{},
				SkipPaths:      []string{"/metrics"},
			})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			spans := exporter.GetSpans()
			require.Len(t, spans, tt.wantSpans)
			if tt.wantSpans == 0 {
				return
			}
			assert.Equal(t, "HTTP GET "+tt.path, spans[0].Name)
			assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind)
			assert.Equal(t, tt.wantStatus, spans[0].Status.Code)
		})
	}

	t.Run("given a traceparent header, then continues the remote trace", func(t *testing.T) {
		t.Parallel()

		tp, exporter := newTracerProvider(t)
		handler := Tracing(TracingConfig{
			TracerProvider: tp,
			Propagator:     propagation.TraceContext{},
		})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext.TraceID().String())
		assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent.SpanID().String())
	})
}
