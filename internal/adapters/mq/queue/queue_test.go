package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/okian/kismet/internal/domain/model"
)

func job(runID string) Job {
	return Job{
		RunID: runID,
		Request: model.SolveRequest{
			RequestID:    "req-" + runID,
			Participants: []string{"p1"},
			Options:      []string{"o1"},
			MinQuota:     1,
			MaxQuota:     1,
		},
	}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if !q.Enqueue(ctx, job("run-1")) {
		t.Error("expected enqueue to succeed")
	}

	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	jobChan := q.Dequeue(ctx)
	got := <-jobChan
	if got.RunID != "run-1" {
		t.Errorf("expected run-1, got %v", got.RunID)
	}
	if got.Request.RequestID != "req-run-1" {
		t.Errorf("expected req-run-1, got %v", got.Request.RequestID)
	}

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, job("run-1")) {
		t.Error("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, job("run-2")) {
		t.Error("expected enqueue to succeed")
	}

	if q.Enqueue(ctx, job("run-3")) {
		t.Error("expected enqueue to fail when full")
	}

	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx := context.Background()
	numGoroutines := 10
	numJobs := 100

	done := make(chan bool, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			for j := 0; j < numJobs; j++ {
				for !q.Enqueue(ctx, job(fmt.Sprintf("run%d_%d", id, j))) {
					time.Sleep(time.Millisecond)
				}
			}
			done <- true
		}(i)
	}

	consumed := make(chan string, numGoroutines*numJobs)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			jobChan := q.Dequeue(ctx)
			for j := range jobChan {
				consumed <- j.RunID
			}
		}()
	}

	for i := 0; i < numGoroutines; i++ {
		<-done
	}

	// Give consumers a moment to drain the backlog.
	time.Sleep(100 * time.Millisecond)

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected final length 0, got %d", l)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if !q.Enqueue(ctx, job("run-1")) {
		t.Error("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, job("run-2")) {
		t.Error("expected enqueue to succeed")
	}

	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}

	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}

	if q.Enqueue(ctx, job("run-3")) {
		t.Error("expected enqueue to fail after closing")
	}

	// Jobs enqueued before the close still drain, then the channel
	// closes.
	jobChan := q.Dequeue(ctx)
	drained := 0
	timeout := time.After(time.Second)
	for {
		select {
		case _, ok := <-jobChan:
			if !ok {
				if drained != 2 {
					t.Errorf("expected to drain 2 jobs before close, got %d", drained)
				}
				goto channelClosed
			}
			drained++
		case <-timeout:
			t.Error("expected dequeue channel to be closed within timeout")
			return
		}
	}
channelClosed:

	if err := q.Close(); err != nil {
		t.Errorf("expected second close to succeed, got error: %v", err)
	}
}

func TestInMemoryQueue_BufferClamping(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(3), WithBufferSize(1000))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !q.Enqueue(ctx, job(fmt.Sprintf("run-%d", i))) {
			t.Fatalf("enqueue %d failed", i)
		}
	}

	// The channel buffer is clamped to the capacity, so the fourth job
	// is rejected rather than buffered beyond the bound.
	if q.Enqueue(ctx, job("run-overflow")) {
		t.Error("expected enqueue beyond capacity to fail")
	}
}
