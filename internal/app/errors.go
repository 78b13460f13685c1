package service

import (
	"fmt"

	"github.com/okian/careerrank/internal/domain/rerank"
)

// Sentinel errors for the service. Both match their rerank counterparts with
// errors.Is so the HTTP layer maps them without knowing this package.
var (
	ErrBackpressure = fmt.Errorf("service: %w", rerank.ErrBackpressure)
	ErrNotStarted   = fmt.Errorf("service not started: %w", rerank.ErrUnavailable)
)
