package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/careerrank/pkg/metrics"
)

// HealthHandler handles liveness and Prometheus scrape requests.
type HealthHandler struct {
	prometheus http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		prometheus: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// HandleHealth handles GET /healthz requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{OK: true})
}

// HandlePrometheus handles GET /prometheus requests with the text exposition format.
func (h *HealthHandler) HandlePrometheus(w http.ResponseWriter, r *http.Request) {
	h.prometheus.ServeHTTP(w, r)
}

type healthResponse struct {
	OK bool `json:"ok"`
}
