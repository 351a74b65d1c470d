package cpsat

import "time"

// Option applies a configuration option to the Backend.
type Option func(*Backend)

// WithMaxTime caps the solver's wall-clock time per solve. Zero means
// no limit beyond the context deadline.
func WithMaxTime(d time.Duration) Option {
	return func(b *Backend) {
		if d > 0 {
			b.maxTime = d
		}
	}
}

// WithRandomSeed fixes the solver seed. Together with the single-worker
// search this pins which optimum is returned among ties.
func WithRandomSeed(seed int32) Option {
	return func(b *Backend) {
		b.seed = seed
	}
}
