package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// LoggerConfig configures the logging middleware.
type LoggerConfig struct {
	Logger zerolog.Logger

	// SkipPaths are paths that should not be logged, such as probes.
	SkipPaths []string
}

// Logger returns middleware that logs one line per request: info for
// 2xx/3xx, warn for 4xx and error for 5xx. When the request carries a
// span the line includes its trace_id, matching the database events
// logged by dbtrace for the same request.
func Logger(cfg LoggerConfig) Middleware {
	skipPaths := make(map[string]bool)
	for _, path := range cfg.SkipPaths {
		skipPaths[path] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := wrapResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			status := wrapped.Status()
			event := cfg.Logger.Info()
			if status >= http.StatusBadRequest {
				event = cfg.Logger.Warn()
			}
			if status >= http.StatusInternalServerError {
				event = cfg.Logger.Error()
			}

			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Dur("duration", time.Since(start)).
				Int("bytes", wrapped.BytesWritten()).
				Str("remote_addr", r.RemoteAddr)

			if requestID := RequestIDFromContext(r.Context()); requestID != "" {
				event.Str("request_id", requestID)
			}
			if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
				event.Str("trace_id", sc.TraceID().String())
			}

			event.Msg("request completed")
		})
	}
}
