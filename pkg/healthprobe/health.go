// Package healthprobe holds the process liveness and readiness state served
// at /health and /ready. Liveness is unconditional; readiness flips on once
// market discovery has installed a non-empty symbol universe and flips off
// again at shutdown.
package healthprobe

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// HealthChecker tracks readiness and process start time.
type HealthChecker struct {
	startTime time.Time
	ready     atomic.Bool
}

// New creates a HealthChecker. The process starts not-ready.
func New() *HealthChecker {
	return &HealthChecker{startTime: time.Now()}
}

// SetReady marks the scanner as ready (or not) to serve traffic.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Uptime returns how long the process has been running.
func (h *HealthChecker) Uptime() time.Duration {
	return time.Since(h.startTime)
}

// HealthResponse is the JSON body of both probe endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Message string `json:"message,omitempty"`
}

func writeProbe(w http.ResponseWriter, code int, resp HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

// Health returns the liveness handler. It answers 200 whenever the process
// is up, regardless of readiness.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeProbe(w, http.StatusOK, HealthResponse{
			Status: "healthy",
			Uptime: h.Uptime().String(),
		})
	}
}

// Ready returns the readiness handler: 200 when ready, 503 otherwise.
func (h *HealthChecker) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if !h.ready.Load() {
			writeProbe(w, http.StatusServiceUnavailable, HealthResponse{
				Status:  "not_ready",
				Message: "application is starting",
			})

			return
		}

		writeProbe(w, http.StatusOK, HealthResponse{
			Status: "ready",
			Uptime: h.Uptime().String(),
		})
	}
}
