// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/kismet/internal/adapters/runstore"
	service "github.com/okian/kismet/internal/app"
	"github.com/okian/kismet/internal/domain/analytics"
	"github.com/okian/kismet/internal/domain/model"
	"github.com/okian/kismet/internal/domain/types"
	"github.com/okian/kismet/pkg/metrics"
)

// List query bounds.
const (
	defaultListLimit = 20
	maxListLimit     = 1000
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Submit registers and queues a solve run. A resubmitted request id
	// returns the original run id with duplicate set.
	Submit(ctx context.Context, req model.SolveRequest) (runID string, duplicate bool, err error)

	// Read operations expose run records and derived statistics.
	Run(ctx context.Context, id string) (Run, error)
	RecentRuns(ctx context.Context, n int) ([]Run, error)
	Analytics(ctx context.Context, id string, topChoiceWindow int) ([]analytics.Row, error)
}

// Run mirrors the read shape returned by run queries.
type Run = types.Run

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	solvesHandler *SolvesHandler
	runsHandler   *RunsHandler
	runHandler    *RunHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		solvesHandler: NewSolvesHandler(deps),
		runsHandler:   NewRunsHandler(deps, maxListLimit),
		runHandler:    NewRunHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/v1/solves", MetricsMiddleware(s.handleSolves, "solves"))
	mux.HandleFunc("/api/v1/solves/", MetricsMiddleware(s.runHandler.HandleGetRun, "solve"))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
}

// handleSolves dispatches the collection path by method: POST submits a
// new solve, GET lists recent runs.
func (s *Server) handleSolves(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.solvesHandler.HandleSubmitSolve(w, r)
	case http.MethodGet:
		s.runsHandler.HandleListRuns(w, r)
	default:
		http.NotFound(w, r)
	}
}

// solveRequest mirrors the OpenAPI schema for POST /api/v1/solves.
type solveRequest struct {
	RequestID    string              `json:"request_id,omitempty"`
	Participants []string            `json:"participants"`
	Options      []string            `json:"options"`
	Preferences  map[string][]string `json:"preferences"`
	MinQuota     int                 `json:"min_quota"`
	MaxQuota     int                 `json:"max_quota"`
	OptionWeight float64             `json:"option_weight"`
}

// validate checks the wire shape; quota and identifier semantics are
// checked once, on submission.
func (r solveRequest) validate() error {
	switch {
	case len(r.Participants) == 0:
		return errors.New("missing participants")
	case len(r.Options) == 0:
		return errors.New("missing options")
	}
	return nil
}

func (r solveRequest) model() model.SolveRequest {
	return model.SolveRequest{
		RequestID:    strings.TrimSpace(r.RequestID),
		Participants: r.Participants,
		Options:      r.Options,
		Preferences:  r.Preferences,
		MinQuota:     r.MinQuota,
		MaxQuota:     r.MaxQuota,
		OptionWeight: r.OptionWeight,
	}
}

type ackResponse struct {
	RunID     string `json:"run_id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// validationKinds are the submission errors the API translates to 400.
var validationKinds = []error{
	model.ErrMinQuota,
	model.ErrQuotaOrder,
	model.ErrOptionWeight,
	model.ErrEmptyID,
	model.ErrDuplicateID,
	model.ErrUnknownParticipant,
	model.ErrDuplicatePreference,
}

// isBadRequest reports whether err is a request validation failure.
func isBadRequest(err error) bool {
	for _, kind := range validationKinds {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// isNotFound allows the API to translate upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, runstore.ErrNotFound)
}

// isBackpressure reports whether err means the job queue refused the run.
func isBackpressure(err error) bool {
	return errors.Is(err, service.ErrQueueFull)
}
