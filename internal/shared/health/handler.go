package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Check is a named readiness probe. It should return quickly; the handler
// enforces a per-check timeout.
type Check func(context.Context) error

// Handler serves the /health endpoint with named readiness checks.
type Handler struct {
	mu        sync.RWMutex
	checks    map[string]Check
	timeout   time.Duration
	startTime time.Time
}

// Response is the JSON body returned by the health endpoint.
type Response struct {
	Status    string                 `json:"status"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Uptime    string                 `json:"uptime"`
	Timestamp time.Time              `json:"timestamp"`
}

// CheckResult is a single check outcome.
type CheckResult struct {
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration"`
}

// NewHandler creates a health handler with no checks registered.
func NewHandler() *Handler {
	return &Handler{
		checks:    make(map[string]Check),
		timeout:   5 * time.Second,
		startTime: time.Now(),
	}
}

// Register adds a named readiness check.
func (h *Handler) Register(name string, check Check) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// ServeHTTP runs all checks and reports 200 when everything passes,
// 503 otherwise.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	checks := make(map[string]Check, len(h.checks))
	for name, check := range h.checks {
		checks[name] = check
	}
	h.mu.RUnlock()

	resp := Response{
		Status:    "healthy",
		Checks:    make(map[string]CheckResult, len(checks)),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
	}

	status := http.StatusOK
	for name, check := range checks {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		start := time.Now()
		err := check(ctx)
		cancel()

		result := CheckResult{
			Status:   "ok",
			Duration: time.Since(start).Round(time.Millisecond).String(),
		}
		if err != nil {
			result.Status = "failed"
			result.Error = err.Error()
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
		}
		resp.Checks[name] = result
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
