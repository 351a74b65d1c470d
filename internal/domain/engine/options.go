package engine

import "github.com/okian/kismet/pkg/logger"

// Option applies a configuration option to the Solver.
type Option func(*Solver)

// WithBackend sets the solver backend. Required: Solve fails with
// ErrNoBackend when no backend was configured.
func WithBackend(b Backend) Option {
	return func(s *Solver) {
		if b != nil {
			s.backend = b
		}
	}
}

// WithLogger sets the logger used for solve diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(s *Solver) {
		if l != nil {
			s.log = l
		}
	}
}
