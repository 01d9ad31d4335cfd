package server

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"
)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// CheckResult is the outcome of one health check.
type CheckResult struct {
	Status  string `json:"status"`
	Latency string `json:"latency"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the body of the readiness endpoint.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// PingResponse is the body of the ping endpoint.
type PingResponse struct {
	Status string `json:"status"`
}

// HealthHandler serves /ping and /readyz.
type HealthHandler struct {
	version   string
	startTime time.Time

	mu     sync.RWMutex
	checks map[string]HealthCheck
}

// NewHealthHandler returns a handler reporting version.
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{
		version:   version,
		startTime: time.Now(),
		checks:    make(map[string]HealthCheck),
	}
}

// AddReadinessCheck registers a check run on every /readyz request.
func (h *HealthHandler) AddReadinessCheck(name string, check HealthCheck) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// PingHandler always answers 200 without running checks.
func (h *HealthHandler) PingHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteSuccess(w, http.StatusOK, PingResponse{Status: "pong"}, "")
	})
}

// ReadyHandler answers 200 when every readiness check passes and 503
// otherwise.
func (h *HealthHandler) ReadyHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.mu.RLock()
		checks := make(map[string]HealthCheck, len(h.checks))
		names := make([]string, 0, len(h.checks))
		for name, check := range h.checks {
			checks[name] = check
			names = append(names, name)
		}
		h.mu.RUnlock()
		sort.Strings(names)

		now := time.Now()
		results := make(map[string]CheckResult, len(names))
		var errs []Error

		for _, name := range names {
			start := time.Now()
			err := checks[name](r.Context())
			result := CheckResult{Status: "ok", Latency: time.Since(start).String()}
			if err != nil {
				result.Status = "fail"
				result.Message = err.Error()
				errs = append(errs, Error{Field: name, Message: err.Error()})
			}
			results[name] = result
		}

		data := HealthResponse{
			Status:    "ok",
			Version:   h.version,
			Uptime:    time.Since(h.startTime).Round(time.Second).String(),
			Timestamp: now.Format(time.RFC3339),
			Checks:    results,
		}
		status, message := http.StatusOK, "all checks passed"
		if len(errs) > 0 {
			data.Status = "fail"
			status, message = http.StatusServiceUnavailable, "one or more checks failed"
		}

		WriteJSON(w, status, Response[HealthResponse]{
			Data:    data,
			Errors:  errs,
			Message: message,
		})
	})
}
