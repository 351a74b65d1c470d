package runstore

import "time"

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithRetention bounds the number of finished runs kept in memory.
// Pending and running runs never count against the bound. A value
// below 1 is ignored.
func WithRetention(limit int) Option {
	return func(s *TreapStore) {
		if limit > 0 {
			s.retention = limit
		}
	}
}

// WithMetricsUpdateInterval sets the interval for background metrics
// updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *TreapStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}
