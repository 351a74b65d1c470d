package runstore

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/okian/kismet/internal/domain/engine"
	"github.com/okian/kismet/internal/domain/types"
	"github.com/okian/kismet/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: submission sequence DESC, so in-order traversal walks runs
// from newest to oldest. Sequences are unique, which keeps the ordering
// total without tie-breaking. Node priorities are random, giving the
// classic treap's expected O(log n) height even though sequences arrive
// strictly increasing.

// Default configuration.
const (
	defaultRetention             = 1000
	defaultMetricsUpdateInterval = 5 * time.Second
)

// runRecord pairs a stored run with its treap key.
type runRecord struct {
	run types.Run
	seq int64
}

// treap node
type node struct {
	id    string
	seq   int64
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aSeq, aID) should appear before (bSeq, bID) in
// recency order (newer runs first).
func less(aSeq int64, aID string, bSeq int64, bID string) bool {
	if aSeq != bSeq {
		return aSeq > bSeq
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, seq int64) *node {
	if n == nil {
		return &node{id: id, seq: seq, prio: rand.Uint64(), size: 1}
	}
	if less(seq, id, n.seq, n.id) {
		n.left = insert(n.left, id, seq)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, seq)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, seq int64) *node {
	if n == nil {
		return nil
	}
	if seq == n.seq && id == n.id {
		// Merge children by rotating the higher priority up until leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, seq)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, seq)
		}
	} else if less(seq, id, n.seq, n.id) {
		n.left = deleteNode(n.left, id, seq)
	} else {
		n.right = deleteNode(n.right, id, seq)
	}
	fix(n)
	return n
}

// collectRecent appends up to limit runs in recency order, newest
// first.
func collectRecent(n *node, limit int, byID map[string]*runRecord, out *[]types.Run) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectRecent(n.left, limit, byID, out)
	if len(*out) < limit {
		if rec, ok := byID[n.id]; ok {
			*out = append(*out, rec.run)
		}
	}
	if len(*out) < limit {
		collectRecent(n.right, limit, byID, out)
	}
}

// oldestFinished finds the oldest run in a terminal state via reverse
// in-order traversal.
func oldestFinished(n *node, byID map[string]*runRecord) (string, int64, bool) {
	if n == nil {
		return "", 0, false
	}
	if id, seq, ok := oldestFinished(n.right, byID); ok {
		return id, seq, ok
	}
	if rec, ok := byID[n.id]; ok && rec.run.State.Terminal() {
		return n.id, n.seq, true
	}
	return oldestFinished(n.left, byID)
}

// TreapStore is the in-memory Store implementation.
type TreapStore struct {
	mu                    sync.RWMutex
	root                  *node
	byID                  map[string]*runRecord
	seq                   int64
	finished              int
	retention             int
	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewTreapStore constructs a run store with configuration options.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		retention:             defaultRetention,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		byID:                  make(map[string]*runRecord),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.stopChan = make(chan struct{})
	s.startMetricsUpdater(ctx)

	metrics.UpdateStoreRuns(0)

	return s
}

// Close gracefully shuts down the background metrics goroutine.
func (s *TreapStore) Close() error {
	select {
	case <-s.stopChan:
		// Channel already closed.
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

// Put registers a new pending run.
func (s *TreapStore) Put(ctx context.Context, run types.Run) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	if run.SubmittedAt.IsZero() {
		run.SubmittedAt = time.Now()
	}
	run.State = types.StatePending

	s.mu.Lock()
	if _, exists := s.byID[run.ID]; exists {
		s.mu.Unlock()
		metrics.RecordErrorByComponent("runstore", "duplicate")
		return ErrDuplicate
	}
	s.seq++
	s.byID[run.ID] = &runRecord{run: run, seq: s.seq}
	s.root = insert(s.root, run.ID, s.seq)
	count := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateStoreRuns(count)
	return nil
}

// MarkRunning transitions a run to types.StateRunning.
func (s *TreapStore) MarkRunning(ctx context.Context, id string) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		metrics.RecordErrorByComponent("runstore", "not_found")
		return ErrNotFound
	}
	if rec.run.State.Terminal() {
		metrics.RecordErrorByComponent("runstore", "finished")
		return ErrFinished
	}
	if rec.run.State == types.StateRunning {
		return nil
	}
	rec.run.State = types.StateRunning
	rec.run.StartedAt = time.Now()
	return nil
}

// Complete transitions a run to types.StateDone and attaches the result.
func (s *TreapStore) Complete(ctx context.Context, id string, result *engine.Result) error {
	return s.finish(ctx, id, func(run *types.Run) {
		run.State = types.StateDone
		run.Result = result
	})
}

// Fail transitions a run to types.StateFailed and records the cause.
func (s *TreapStore) Fail(ctx context.Context, id string, cause error) error {
	return s.finish(ctx, id, func(run *types.Run) {
		run.State = types.StateFailed
		if cause != nil {
			run.Err = cause.Error()
		}
	})
}

// finish applies a terminal transition and enforces the retention
// bound on finished runs.
func (s *TreapStore) finish(ctx context.Context, id string, apply func(*types.Run)) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	rec, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		metrics.RecordErrorByComponent("runstore", "not_found")
		return ErrNotFound
	}
	if rec.run.State.Terminal() {
		s.mu.Unlock()
		metrics.RecordErrorByComponent("runstore", "finished")
		return ErrFinished
	}

	apply(&rec.run)
	rec.run.FinishedAt = time.Now()
	s.finished++

	evicted := 0
	for s.finished > s.retention {
		oldID, oldSeq, found := oldestFinished(s.root, s.byID)
		if !found {
			break
		}
		s.root = deleteNode(s.root, oldID, oldSeq)
		delete(s.byID, oldID)
		s.finished--
		evicted++
	}
	count := len(s.byID)
	s.mu.Unlock()

	for i := 0; i < evicted; i++ {
		metrics.RecordStoreEviction()
	}
	metrics.UpdateStoreRuns(count)
	return nil
}

// Get returns a run by id.
func (s *TreapStore) Get(ctx context.Context, id string) (types.Run, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		metrics.RecordErrorByComponent("runstore", "not_found")
		return types.Run{}, ErrNotFound
	}
	return rec.run, nil
}

// Recent returns up to n runs, newest submission first.
func (s *TreapStore) Recent(ctx context.Context, n int) ([]types.Run, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("runstore", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Run, 0, n)
	collectRecent(s.root, n, s.byID, &out)
	return out, nil
}

// Count returns the number of retained runs.
func (s *TreapStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// startMetricsUpdater starts a background goroutine that refreshes the
// run count gauge.
func (s *TreapStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateStoreRuns(s.Count(ctx))
			}
		}
	}()
}
