package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// RouterConfig holds what NewRouter wires together.
type RouterConfig struct {
	Users          UserStore
	Logger         zerolog.Logger
	TracerProvider trace.TracerProvider
	ServiceName    string
	Version        string

	// ReadinessChecks run on GET /readyz.
	ReadinessChecks map[string]HealthCheck

	// MetricsHandler serves GET /metrics. Defaults to the Prometheus
	// default registry.
	MetricsHandler http.Handler
}

// NewRouter builds the HTTP API:
//
//	GET  /users        list users (?limit=1..100)
//	GET  /users/{id}   fetch one user
//	POST /users        create a user
//	GET  /ping         liveness
//	GET  /readyz       readiness
//	GET  /metrics      Prometheus exposition
func NewRouter(cfg RouterConfig) http.Handler {
	probes := []string{"/ping", "/readyz", "/metrics"}

	r := chi.NewRouter()
	r.Use(Chain(
		RequestID(),
		Tracing(TracingConfig{
			TracerProvider: cfg.TracerProvider,
			ServiceName:    cfg.ServiceName,
			SkipPaths:      probes,
		}),
		Logger(LoggerConfig{Logger: cfg.Logger, SkipPaths: probes}),
		Recovery(cfg.Logger),
	))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	users := &userHandler{store: cfg.Users, logger: cfg.Logger}
	r.Get("/users", users.list)
	r.Post("/users", users.create)
	r.Get("/users/{id}", users.get)

	health := NewHealthHandler(cfg.Version)
	for name, check := range cfg.ReadinessChecks {
		health.AddReadinessCheck(name, check)
	}
	r.Method(http.MethodGet, "/ping", health.PingHandler())
	r.Method(http.MethodGet, "/readyz", health.ReadyHandler())

	metrics := cfg.MetricsHandler
	if metrics == nil {
		metrics = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metrics)

	return r
}
