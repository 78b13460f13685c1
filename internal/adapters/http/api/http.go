// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/careerrank/internal/domain/rerank"
	"github.com/okian/careerrank/internal/domain/types"
	"github.com/okian/careerrank/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Rerank scores a request. Failures carry a *rerank.Failure.
	Rerank(ctx context.Context, req rerank.Request) (rerank.Response, error)

	// Counters exposes the request counters.
	Counters() types.Counters

	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	rerankHandler *RerankHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(deps, deps),
		rerankHandler: NewRerankHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/prometheus", s.healthHandler.HandlePrometheus)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/metrics", MetricsMiddleware(s.statsHandler.HandleCounters, "metrics"))
	mux.HandleFunc("/rerank", MetricsMiddleware(s.rerankHandler.HandlePostRerank, "rerank"))
}

type errorResponse struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError logs err and writes an error body. message is what the client
// sees; err itself never leaves the process.
func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message, correlationID string, err error) {
	if message == "" {
		message = http.StatusText(status)
	}
	l := logger.Get().Named("api")
	fields := []logger.Field{
		logger.String("code", code),
		logger.Int("status", status),
		logger.String("correlation_id", correlationID),
		logger.Error(err),
	}
	if status >= http.StatusInternalServerError {
		l.Error(ctx, "request failed", fields...)
	} else {
		l.Debug(ctx, "request rejected", fields...)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: message, CorrelationID: correlationID})
}

// statusFor maps an error code to its HTTP status.
func statusFor(code string) int {
	switch code {
	case rerank.CodeBadRequest:
		return http.StatusBadRequest
	case rerank.CodeBackpressure:
		return http.StatusTooManyRequests
	case rerank.CodeEmbeddingFailed:
		return http.StatusBadGateway
	case rerank.CodeTimeout:
		return http.StatusGatewayTimeout
	case rerank.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
