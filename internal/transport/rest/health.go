package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/havliksimon/anki-card-creator/internal/mediacache"
)

const pingTimeout = 3 * time.Second

// pinger defines the minimal interface for dependency health checks.
type pinger interface {
	Ping(ctx context.Context) error
}

// statsSource reports media cache counters.
type statsSource interface {
	Stats() mediacache.Stats
}

type namedCheck struct {
	name string
	p    pinger
}

// HealthHandler serves health check endpoints. Only configured backends are
// checked: a server running without a database has no "database" component.
type HealthHandler struct {
	checks  []namedCheck
	cache   statsSource
	version string
}

// NewHealthHandler creates a HealthHandler. cache may be nil.
func NewHealthHandler(version string, cache statsSource) *HealthHandler {
	return &HealthHandler{version: version, cache: cache}
}

// WithCheck registers a dependency checked by Ready and Health.
func (h *HealthHandler) WithCheck(name string, p pinger) *HealthHandler {
	h.checks = append(h.checks, namedCheck{name: name, p: p})
	return h
}

// HealthResponse is the JSON response for /health and /ready.
type HealthResponse struct {
	Status     string                `json:"status"`
	Version    string                `json:"version,omitempty"`
	Components map[string]CompStatus `json:"components,omitempty"`
	Media      *mediacache.Stats     `json:"media,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// CompStatus is the status of an individual component.
type CompStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Live is the liveness probe. Always returns 200.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
	})
}

// Ready is the readiness probe: 200 if every dependency answers, 503 if not.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	_, ok := h.probe(r.Context())

	status, code := "ok", http.StatusOK
	if !ok {
		status, code = "down", http.StatusServiceUnavailable
	}
	writeJSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
	})
}

// Health is the full health check with per-component latency, the build
// version and media cache statistics.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	components, ok := h.probe(r.Context())

	resp := HealthResponse{
		Status:     "ok",
		Version:    h.version,
		Components: components,
		Timestamp:  time.Now(),
	}
	if h.cache != nil {
		stats := h.cache.Stats()
		resp.Media = &stats
	}

	code := http.StatusOK
	if !ok {
		resp.Status = "down"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

func (h *HealthHandler) probe(ctx context.Context) (map[string]CompStatus, bool) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	components := make(map[string]CompStatus, len(h.checks))
	ok := true
	for _, c := range h.checks {
		start := time.Now()
		err := c.p.Ping(ctx)
		latency := time.Since(start)

		if err != nil {
			components[c.name] = CompStatus{Status: "down", Error: err.Error()}
			ok = false
			continue
		}
		components[c.name] = CompStatus{Status: "ok", Latency: latency.String()}
	}
	return components, ok
}
