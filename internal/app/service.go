// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	jobqueue "github.com/okian/kismet/internal/adapters/mq/queue"
	workerpool "github.com/okian/kismet/internal/adapters/mq/worker"
	"github.com/okian/kismet/internal/adapters/runstore"
	"github.com/okian/kismet/internal/adapters/solver/simplex"
	"github.com/okian/kismet/internal/domain/analytics"
	"github.com/okian/kismet/internal/domain/dedupe"
	"github.com/okian/kismet/internal/domain/engine"
	"github.com/okian/kismet/internal/domain/model"
	"github.com/okian/kismet/internal/domain/types"
	"github.com/okian/kismet/pkg/logger"
	"github.com/okian/kismet/pkg/metrics"
)

// Service wires the run store, deduper, job queue, and worker pool into
// the submit/query surface the API exposes.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    runstore.Store
	deduper  dedupe.Deduper
	jobQueue jobqueue.Queue
	solver   *engine.Solver
	pool     *workerpool.Pool

	// Configuration
	workerCount  int
	queueSize    int
	dedupeSize   int
	runRetention int
	backend      engine.Backend

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of solver workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the idempotency cache. Zero disables the bound;
// negative values are ignored.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.dedupeSize = size
		}
	}
}

// WithRunRetention bounds the number of finished runs kept in memory.
func WithRunRetention(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.runRetention = limit
		}
	}
}

// WithBackend sets the optimization backend the workers solve with.
func WithBackend(b engine.Backend) Option {
	return func(s *Service) {
		if b != nil {
			s.backend = b
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU() * 2,
		queueSize:    10_000,
		dedupeSize:   50_000,
		runRetention: 1_000,
		logger:       nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting solve service...")

	// Initialize components
	s.store = runstore.NewTreapStore(ctx,
		runstore.WithRetention(s.runRetention),
	)
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.jobQueue = jobqueue.NewInMemoryQueue(
		jobqueue.WithCapacity(s.queueSize),
		jobqueue.WithBufferSize(s.queueSize),
	)
	if s.backend == nil {
		s.backend = simplex.New()
	}
	s.solver = engine.New(engine.WithBackend(s.backend))

	// Create and start the worker pool
	s.pool = workerpool.NewPool(s.workerCount, s.jobQueue, s.solver, s.store)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "solve service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("runRetention", s.runRetention),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping solve service...")

	// Shutdown closes the queue, so workers drain before exiting.
	if s.pool != nil {
		if err := s.pool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "worker pool shutdown incomplete",
				logger.Error(err),
			)
		}
	}

	if s.store != nil {
		_ = s.store.Close()
	}

	s.started = false
	s.logger.Info(ctx, "solve service stopped")
}

// Submit validates and registers a solve request, queues it for the
// workers, and returns the run id it will execute under.
//
// Resubmitting a request id returns the run id of the original
// submission with duplicate set to true; nothing is re-queued. When the
// queue rejects the job under backpressure, the registration is rolled
// back so the client can retry, and ErrQueueFull is returned.
func (s *Service) Submit(ctx context.Context, req model.SolveRequest) (runID string, duplicate bool, err error) {
	s.mu.RLock()
	if !s.started {
		s.mu.RUnlock()
		return "", false, ErrNotStarted
	}
	store, deduper, q := s.store, s.deduper, s.jobQueue
	s.mu.RUnlock()

	if err := req.Validate(); err != nil {
		metrics.RecordErrorByComponent("service", "invalid_request")
		return "", false, fmt.Errorf("validate request: %w", err)
	}
	if req.RequestID == "" {
		req.RequestID = model.NewRequestID()
	}

	runID = uuid.NewString()
	boundID, seen := deduper.Remember(ctx, req.RequestID, runID)
	if seen {
		metrics.RecordSolveDuplicate()
		s.logger.Debug(ctx, "duplicate request",
			logger.String("requestID", req.RequestID),
			logger.String("runID", boundID),
		)
		return boundID, true, nil
	}

	run := types.Run{
		ID:        runID,
		RequestID: req.RequestID,
		Request:   req,
	}
	if err := store.Put(ctx, run); err != nil {
		deduper.Forget(ctx, req.RequestID)
		metrics.RecordErrorByComponent("service", "store_error")
		return "", false, fmt.Errorf("register run %s: %w", runID, err)
	}

	job := jobqueue.Job{RunID: runID, Request: req}
	if !q.Enqueue(ctx, job) {
		// Roll back so a retry of the same request id is accepted. The
		// run record stays behind as failed for visibility.
		deduper.Forget(ctx, req.RequestID)
		_ = store.Fail(ctx, runID, ErrQueueFull)
		metrics.RecordErrorByComponent("service", "queue_full")
		return "", false, ErrQueueFull
	}

	metrics.RecordSolveSubmitted()
	s.logger.Debug(ctx, "run queued",
		logger.String("requestID", req.RequestID),
		logger.String("runID", runID),
		logger.Int("participants", len(req.Participants)),
		logger.Int("options", len(req.Options)),
	)
	return runID, false, nil
}

// Run returns the full record of one solve run.
func (s *Service) Run(ctx context.Context, id string) (types.Run, error) {
	s.mu.RLock()
	if !s.started {
		s.mu.RUnlock()
		return types.Run{}, ErrNotStarted
	}
	store := s.store
	s.mu.RUnlock()

	return store.Get(ctx, id)
}

// RecentRuns returns up to n runs, newest submission first.
func (s *Service) RecentRuns(ctx context.Context, n int) ([]types.Run, error) {
	s.mu.RLock()
	if !s.started {
		s.mu.RUnlock()
		return nil, ErrNotStarted
	}
	store := s.store
	s.mu.RUnlock()

	return store.Recent(ctx, n)
}

// Analytics returns per-option demand statistics for a run's problem.
// topChoiceWindow widens or narrows the competition window; values
// below 1 keep the default.
func (s *Service) Analytics(ctx context.Context, id string, topChoiceWindow int) ([]analytics.Row, error) {
	s.mu.RLock()
	if !s.started {
		s.mu.RUnlock()
		return nil, ErrNotStarted
	}
	store := s.store
	s.mu.RUnlock()

	run, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return analytics.Analyze(run.Request.Problem(),
		analytics.WithTopChoiceWindow(topChoiceWindow),
	), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":      s.started,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"dedupeSize":   s.dedupeSize,
		"runRetention": s.runRetention,
	}

	if s.started {
		queueLen := s.jobQueue.Len(ctx)
		totalRuns := s.store.Count(ctx)

		stats["queueLength"] = queueLen
		stats["totalRuns"] = totalRuns
		stats["workers"] = s.pool.Size()
		stats["dedupeEntries"] = s.deduper.Size()
	}

	return stats
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// WaitForRun blocks until the run reaches a terminal state or the
// context expires. The poll interval is coarse; this exists for tests
// and CLI tooling, not the API hot path.
func (s *Service) WaitForRun(ctx context.Context, id string, poll time.Duration) (types.Run, error) {
	if poll <= 0 {
		poll = 10 * time.Millisecond
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		run, err := s.Run(ctx, id)
		if err != nil {
			return types.Run{}, err
		}
		if run.State.Terminal() {
			return run, nil
		}
		select {
		case <-ctx.Done():
			return run, ctx.Err()
		case <-ticker.C:
		}
	}
}
