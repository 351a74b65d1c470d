// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

// ListDependencies defines the interface for run listing
type ListDependencies interface {
	RecentRuns(ctx context.Context, n int) ([]Run, error)
}

// RunsHandler handles run listing requests
type RunsHandler struct {
	deps     ListDependencies
	maxLimit int
}

// NewRunsHandler creates a new runs handler
func NewRunsHandler(deps ListDependencies, maxLimit int) *RunsHandler {
	return &RunsHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleListRuns handles GET /api/v1/solves?limit=N requests
func (h *RunsHandler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_runs"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n := defaultListLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w", op, ErrBadRequest))
			return
		}
		n = parsed
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", fmt.Errorf("%s: %w", op, ErrBadRequest))
		return
	}
	runs, err := h.deps.RecentRuns(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", fmt.Errorf("%s: %w", op, err))
		return
	}
	if runs == nil {
		runs = []Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}
