package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/okian/careerrank/internal/domain/rerank"
)

const maxRerankBody = 1 << 20

// RerankDependencies defines the interface for rerank operations.
type RerankDependencies interface {
	Rerank(ctx context.Context, req rerank.Request) (rerank.Response, error)
}

// RerankHandler handles rerank requests.
type RerankHandler struct {
	deps RerankDependencies
}

// NewRerankHandler creates a new rerank handler.
func NewRerankHandler(deps RerankDependencies) *RerankHandler {
	return &RerankHandler{deps: deps}
}

// HandlePostRerank handles POST /rerank requests.
func (h *RerankHandler) HandlePostRerank(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_rerank"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req rerank.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRerankBody))
	if err := dec.Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, rerank.CodeBadRequest,
			"request body must be a JSON rerank request", uuid.NewString(), WrapKind(op, ErrBadRequest, err))
		return
	}

	resp, err := h.deps.Rerank(r.Context(), req)
	if err != nil {
		code := rerank.Code(err)
		var (
			correlationID string
			message       string
			f             *rerank.Failure
		)
		if errors.As(err, &f) {
			correlationID = f.CorrelationID
		}
		var reqErr *rerank.RequestError
		if errors.As(err, &reqErr) {
			message = reqErr.Detail
		}
		var kind error
		switch code {
		case rerank.CodeBadRequest:
			kind = ErrBadRequest
		case rerank.CodeBackpressure:
			kind = ErrBackpressure
		}
		if kind != nil {
			err = WrapKind(op, kind, err)
		} else {
			err = Wrap(op, err)
		}
		writeError(r.Context(), w, statusFor(code), code, message, correlationID, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
