// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/kismet/internal/domain/analytics"
)

// RunDependencies defines the interface for single-run operations.
type RunDependencies interface {
	Run(ctx context.Context, id string) (Run, error)
	Analytics(ctx context.Context, id string, topChoiceWindow int) ([]analytics.Row, error)
}

// RunHandler handles single-run requests.
type RunHandler struct {
	deps RunDependencies
}

// NewRunHandler creates a new run handler.
func NewRunHandler(deps RunDependencies) *RunHandler {
	return &RunHandler{deps: deps}
}

// HandleGetRun handles GET /api/v1/solves/{run_id} and
// GET /api/v1/solves/{run_id}/analytics requests.
func (h *RunHandler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_run"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameters after /api/v1/solves/
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/solves/")
	if rest == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w", op, ErrBadRequest))
		return
	}

	if id, ok := strings.CutSuffix(rest, "/analytics"); ok {
		h.handleAnalytics(w, r, id)
		return
	}
	if strings.Contains(rest, "/") {
		http.NotFound(w, r)
		return
	}

	run, err := h.deps.Run(r.Context(), rest)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// handleAnalytics serves per-option demand statistics for one run.
func (h *RunHandler) handleAnalytics(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.run_analytics"
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w", op, ErrBadRequest))
		return
	}

	window := 0
	if windowStr := r.URL.Query().Get("top_choices"); windowStr != "" {
		parsed, err := strconv.Atoi(windowStr)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w", op, ErrBadRequest))
			return
		}
		window = parsed
	}

	rows, err := h.deps.Analytics(r.Context(), id, window)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if rows == nil {
		rows = []analytics.Row{}
	}
	writeJSON(w, http.StatusOK, rows)
}
