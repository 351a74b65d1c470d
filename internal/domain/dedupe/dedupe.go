// Package dedupe defines the interface for idempotency tracking.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Default retention bound for remembered request ids.
const defaultMaxSize = 50000

// Deduper binds request ids to run ids so resubmissions of the same
// request resolve to the original run instead of solving again.
type Deduper interface {
	// Remember atomically looks up requestID and binds it to runID when
	// absent. It returns the bound run id and whether the request was
	// seen before: (existing run id, true) for a duplicate, or
	// (runID, false) when newly recorded.
	Remember(ctx context.Context, requestID, runID string) (string, bool)

	// Forget removes a request id binding, allowing a resubmission to be
	// accepted as new. Used to roll back a binding when registering the
	// run fails after the fact (e.g. queue backpressure).
	Forget(ctx context.Context, requestID string)

	Size() int64
}

// node is one entry of the eviction list.
type node struct {
	requestID string
	runID     string
	next      *node
}

// reset clears the node state for reuse.
func (n *node) reset() {
	n.requestID = ""
	n.runID = ""
	n.next = nil
}

// inMemoryDeduper implements Deduper with an in-memory map. In bounded
// mode (maxSize > 0) entries additionally form a linked list ordered by
// insertion, newest at the head, and the oldest entry is evicted when
// the bound is reached; nodes are recycled through a sync.Pool. With
// maxSize <= 0 the map grows without limit.
type inMemoryDeduper struct {
	mu       sync.RWMutex
	seen     map[string]*node
	head     *node
	maxSize  int
	size     atomic.Int64
	nodePool sync.Pool
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration
// options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]*node)
	d.nodePool = sync.Pool{
		New: func() interface{} {
			return &node{}
		},
	}

	return d
}

// Remember atomically looks up requestID and binds it to runID when
// absent.
func (d *inMemoryDeduper) Remember(ctx context.Context, requestID, runID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if existing, ok := d.seen[requestID]; ok {
		return existing.runID, true
	}

	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}

	n := d.nodePool.Get().(*node)
	n.requestID = requestID
	n.runID = runID
	if d.maxSize > 0 {
		n.next = d.head
		d.head = n
	}
	d.seen[requestID] = n
	d.size.Add(1)
	return runID, false
}

// Forget removes a request id binding.
func (d *inMemoryDeduper) Forget(ctx context.Context, requestID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, ok := d.seen[requestID]
	if !ok {
		return
	}
	delete(d.seen, requestID)

	if d.maxSize > 0 {
		if d.head == n {
			d.head = n.next
		} else {
			current := d.head
			for current != nil && current.next != n {
				current = current.next
			}
			if current != nil {
				current.next = n.next
			}
		}
	}

	n.reset()
	d.nodePool.Put(n)
	d.size.Add(-1)
}

// evictOldest removes the oldest binding, the tail of the list. Must be
// called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	if d.head == nil {
		return
	}

	var prev *node
	current := d.head
	for current.next != nil {
		prev = current
		current = current.next
	}

	if prev == nil {
		d.head = nil
	} else {
		prev.next = nil
	}
	delete(d.seen, current.requestID)
	current.reset()
	d.nodePool.Put(current)
	d.size.Add(-1)
}

// Size returns the current number of bindings.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
