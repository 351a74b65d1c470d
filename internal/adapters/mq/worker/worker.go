// Package worker runs queued solve jobs through the optimization engine.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/kismet/internal/domain/engine"
	"github.com/okian/kismet/internal/domain/model"
	"github.com/okian/kismet/pkg/logger"
	"github.com/okian/kismet/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	metricsUpdateInterval   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Job abstracts what workers read off the queue.
// Using the model.SolveJob type for consistency.
type Job = model.SolveJob

// Solver runs one optimization problem to completion.
type Solver interface {
	Solve(ctx context.Context, prob engine.Problem) (*engine.Result, error)
}

// RunStore records run state transitions as jobs move through the
// worker.
type RunStore interface {
	MarkRunning(ctx context.Context, id string) error
	Complete(ctx context.Context, id string, result *engine.Result) error
	Fail(ctx context.Context, id string, cause error) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes solve jobs using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	// It will finish the job in flight before stopping.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing solve jobs.
type InMemoryWorker struct {
	queue  Queue
	solver Solver
	store  RunStore
	name   string

	// processed, when set by the pool, counts finished jobs for the
	// throughput gauge.
	processed *atomic.Int64

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, solver Solver, store RunStore, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		solver:   solver,
		store:    store,
		name:     "worker", // default name
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"), // will be updated by options
	}

	// Apply all options
	for _, opt := range opts {
		opt(w)
	}

	// Set up logger with worker name if not already set
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer func() {
		close(w.done)
	}()

	jobChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}

			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing job", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	// Signal shutdown
	close(w.shutdown)

	// Wait for worker to finish or context to timeout
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob runs a single job through the engine and records the
// outcome on the run store. Solver statuses such as infeasible are
// normal completions; only invocation failures mark the run failed.
func (w *InMemoryWorker) processJob(ctx context.Context, job Job) error {
	// Track overall processing latency
	start := time.Now()
	defer func() {
		latency := time.Since(start).Milliseconds()
		metrics.RecordWorkerProcessingLatency(float64(latency))
	}()

	if err := w.store.MarkRunning(ctx, job.RunID); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		w.logger.Error(ctx, "run transition failed",
			logger.String("runID", job.RunID),
			logger.Error(err),
		)
		return fmt.Errorf("mark running %s: %w", job.RunID, err)
	}

	prob := job.Request.Problem()
	variables, constraints := engine.ModelSize(prob)
	metrics.RecordModelSize(variables, constraints)

	// Track solve latency separately from store bookkeeping.
	solveStart := time.Now()
	result, err := w.solver.Solve(ctx, prob)
	solveLatency := time.Since(solveStart).Milliseconds()

	if err != nil {
		metrics.RecordSolveError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "solve_error")
		w.logger.Error(ctx, "solve failed",
			logger.String("runID", job.RunID),
			logger.Error(err),
		)
		if failErr := w.store.Fail(ctx, job.RunID, err); failErr != nil {
			w.logger.Error(ctx, "recording run failure failed",
				logger.String("runID", job.RunID),
				logger.Error(failErr),
			)
		}
		return fmt.Errorf("solve run %s: %w", job.RunID, err)
	}

	metrics.RecordSolveDuration(float64(solveLatency))
	metrics.RecordSolveCompleted(result.Status.String())
	if result.Metrics != nil {
		metrics.UpdateSolveQuality(result.Metrics.AverageSatisfaction, result.Metrics.ActiveOptions)
	}

	if err := w.store.Complete(ctx, job.RunID, result); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		w.logger.Error(ctx, "recording run result failed",
			logger.String("runID", job.RunID),
			logger.Error(err),
		)
		return fmt.Errorf("complete run %s: %w", job.RunID, err)
	}

	if w.processed != nil {
		w.processed.Add(1)
	}
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	solver  Solver
	store   RunStore

	// Shutdown control
	shutdown chan struct{}

	// Metrics tracking
	processedCount    atomic.Int64
	lastProcessedTime time.Time

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, solver Solver, store RunStore) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:           make([]*InMemoryWorker, workerCount),
		queue:             queue,
		solver:            solver,
		store:             store,
		shutdown:          make(chan struct{}),
		lastProcessedTime: time.Now(),
		logger:            logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			solver,
			store,
			WithName("worker-"+strconv.Itoa(i)),
			withProcessedCounter(&pool.processedCount),
		)
	}

	// Initialize worker metrics
	metrics.UpdateWorkerActiveCount(workerCount)
	metrics.UpdateWorkerIdleCount(0)
	metrics.UpdateWorkerJobsPerSecond(0.0)

	return pool
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}

	// Start metrics updater
	go p.startMetricsUpdater(ctx)
}

// startMetricsUpdater starts a background goroutine that updates worker metrics.
func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.updateMetrics()
		}
	}
}

// updateMetrics publishes the jobs-per-second gauge from the counter
// delta since the previous tick.
func (p *Pool) updateMetrics() {
	now := time.Now()
	timeDiff := now.Sub(p.lastProcessedTime).Seconds()
	if timeDiff > 0 {
		jobsPerSecond := float64(p.processedCount.Swap(0)) / timeDiff
		metrics.UpdateWorkerJobsPerSecond(jobsPerSecond)
	}
	p.lastProcessedTime = now
}

// Shutdown gracefully shuts down the entire worker pool.
func (p *Pool) Shutdown(ctx context.Context) error {
	// Close the queue first so no new jobs arrive; workers drain what
	// is already buffered and then observe the closed channel.
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	// Stop the metrics updater
	close(p.shutdown)

	// Wait for all workers to finish or context to timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	metrics.UpdateWorkerActiveCount(0)

	return nil
}
