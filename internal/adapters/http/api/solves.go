// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/okian/kismet/internal/domain/model"
)

// SubmitDependencies defines the interface for solve submission
type SubmitDependencies interface {
	Submit(ctx context.Context, req model.SolveRequest) (runID string, duplicate bool, err error)
}

// SolvesHandler handles solve submissions
type SolvesHandler struct {
	deps SubmitDependencies
}

// NewSolvesHandler creates a new solves handler
func NewSolvesHandler(deps SubmitDependencies) *SolvesHandler {
	return &SolvesHandler{deps: deps}
}

// HandleSubmitSolve handles POST /api/v1/solves requests
func (h *SolvesHandler) HandleSubmitSolve(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_solve"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req solveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err))
		return
	}

	runID, duplicate, err := h.deps.Submit(r.Context(), req.model())
	switch {
	case err == nil:
	case isBadRequest(err):
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w", op, err))
		return
	case isBackpressure(err):
		writeError(w, http.StatusTooManyRequests, "backpressure", fmt.Errorf("%s: %w", op, ErrBackpressure))
		return
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", fmt.Errorf("%s: %w", op, err))
		return
	}

	if duplicate {
		writeJSON(w, http.StatusOK, ackResponse{RunID: runID, Status: "duplicate", Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{RunID: runID, Status: "accepted", Duplicate: false})
}
