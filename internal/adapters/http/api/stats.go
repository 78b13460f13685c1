package api

import (
	"context"
	"net/http"

	"github.com/okian/careerrank/internal/domain/types"
)

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats(ctx context.Context) map[string]any
}

// CountersProvider exposes the request counters.
type CountersProvider interface {
	Counters() types.Counters
}

// StatsHandler handles stats and counters requests.
type StatsHandler struct {
	statsProvider    StatsProvider
	countersProvider CountersProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsProvider StatsProvider, countersProvider CountersProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider, countersProvider: countersProvider}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.statsProvider.GetStats(r.Context()))
}

// HandleCounters handles GET /metrics requests.
func (h *StatsHandler) HandleCounters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.countersProvider.Counters())
}
