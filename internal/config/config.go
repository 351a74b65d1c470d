// Package config defines service configuration and loading.
//
// Conventions:
// - New returns the defaults; Load layers file and environment on top.
// - Validate is the single gate: a Config that passes is safe to wire.
// - External errors are wrapped with this package's sentinels.
package config

import (
	"fmt"
	"runtime"
	"time"
)

// Solver backend names accepted in SolverBackend.
const (
	BackendSimplex = "simplex"
	BackendCPSAT   = "cpsat"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory solve-job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of solve workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize caps the request-deduplication cache. Zero disables
	// the cap.
	DedupeSize int `koanf:"dedupe_size"`

	// RunRetention caps how many finished runs the run store keeps.
	RunRetention int `koanf:"run_retention"`

	// SolverBackend selects the optimization backend: simplex or cpsat.
	SolverBackend string `koanf:"solver_backend"`

	// SolverMaxTime bounds one solve's wall-clock time. Zero disables
	// the bound.
	SolverMaxTime time.Duration `koanf:"solver_max_time"`

	// SolverSeed seeds the backend's tie-breaking where the backend
	// supports it.
	SolverSeed int64 `koanf:"solver_seed"`
}

// New creates a Config with the default values.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		Addr:          ":9080",
		QueueSize:     10_000,
		WorkerCount:   runtime.NumCPU() * 2,
		DedupeSize:    50_000,
		RunRetention:  1_000,
		SolverBackend: BackendSimplex,
		SolverMaxTime: 30 * time.Second,
	}
}

// Validate checks the configuration for values that cannot be wired.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	}
	if c.DedupeSize < 0 {
		return fmt.Errorf("%w: dedupe_size must not be negative, got %d", ErrInvalidConfig, c.DedupeSize)
	}
	if c.RunRetention < 1 {
		return fmt.Errorf("%w: run_retention must be positive, got %d", ErrInvalidConfig, c.RunRetention)
	}
	if c.SolverBackend != BackendSimplex && c.SolverBackend != BackendCPSAT {
		return fmt.Errorf("%w: unknown solver_backend %q", ErrInvalidConfig, c.SolverBackend)
	}
	if c.SolverMaxTime < 0 {
		return fmt.Errorf("%w: solver_max_time must not be negative, got %s", ErrInvalidConfig, c.SolverMaxTime)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return nil
}
