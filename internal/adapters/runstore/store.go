// Package runstore defines the solve-run store interface and errors.
package runstore

import (
	"context"

	"github.com/okian/kismet/internal/domain/engine"
	"github.com/okian/kismet/internal/domain/types"
)

// Store provides read/write access to solve runs.
type Store interface {
	// Put registers a new pending run.
	// Returns ErrDuplicate if a run with the same id already exists.
	Put(ctx context.Context, run types.Run) error

	// MarkRunning transitions a run to StateRunning.
	MarkRunning(ctx context.Context, id string) error

	// Complete transitions a run to StateDone and attaches the result.
	Complete(ctx context.Context, id string, result *engine.Result) error

	// Fail transitions a run to StateFailed and records the cause.
	Fail(ctx context.Context, id string, cause error) error

	// Get returns a run by id. Returns ErrNotFound if the id is unknown.
	Get(ctx context.Context, id string) (types.Run, error)

	// Recent returns up to n runs, newest submission first.
	Recent(ctx context.Context, n int) ([]types.Run, error)

	// Count returns the number of retained runs.
	Count(ctx context.Context) int

	// Close stops background maintenance.
	Close() error
}
