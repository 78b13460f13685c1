package rerank

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/careerrank/internal/domain/alignment"
)

// Error taxonomy for a re-rank request.
var (
	ErrInvalidRequest        = errors.New("invalid rerank request")
	ErrEmbedding             = errors.New("embedding failed")
	ErrStorageLoad           = errors.New("candidate load failed")
	ErrAlignmentPrecondition = errors.New("alignment precondition violated")
	ErrTimeout               = errors.New("rerank deadline exceeded")
	ErrInternal              = errors.New("internal rerank error")
	ErrBackpressure          = errors.New("rerank queue full")
	ErrUnavailable           = errors.New("rerank service unavailable")
)

// Error codes returned to clients. Messages behind them stay internal.
const (
	CodeBadRequest            = "bad_request"
	CodeBackpressure          = "backpressure"
	CodeEmbeddingFailed       = "embedding_failed"
	CodeAlignmentPrecondition = "alignment_precondition"
	CodeInternal              = "internal_error"
	CodeTimeout               = "timeout"
	CodeUnavailable           = "unavailable"
)

// RequestError is a validation failure. Detail names the offending field
// and is safe to return to clients.
type RequestError struct {
	Detail string
}

// Error implements error.
func (e *RequestError) Error() string {
	return e.Detail + ": " + ErrInvalidRequest.Error()
}

// Unwrap makes a RequestError match ErrInvalidRequest.
func (e *RequestError) Unwrap() error { return ErrInvalidRequest }

func invalidRequest(format string, args ...any) error {
	return &RequestError{Detail: fmt.Sprintf(format, args...)}
}

// Failure is a failed request together with its correlation id.
type Failure struct {
	CorrelationID string
	Err           error
}

// Error implements error.
func (f *Failure) Error() string {
	return fmt.Sprintf("rerank %s: %v", f.CorrelationID, f.Err)
}

// Unwrap exposes the underlying error.
func (f *Failure) Unwrap() error { return f.Err }

// Code maps an error to its client-facing code.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return CodeBadRequest
	case errors.Is(err, ErrBackpressure):
		return CodeBackpressure
	case errors.Is(err, ErrEmbedding):
		return CodeEmbeddingFailed
	case errors.Is(err, ErrAlignmentPrecondition), errors.Is(err, alignment.ErrDimensionMismatch):
		return CodeAlignmentPrecondition
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	case errors.Is(err, ErrUnavailable):
		return CodeUnavailable
	default:
		return CodeInternal
	}
}

// contextError converts a done context into ErrTimeout.
func contextError(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return nil
}
