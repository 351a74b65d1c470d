package engine

import "errors"

// Parameter validation errors, returned before any model construction.
var (
	// ErrMinQuota indicates min quota below one.
	ErrMinQuota = errors.New("min quota must be at least 1")
	// ErrQuotaOrder indicates max quota below min quota.
	ErrQuotaOrder = errors.New("max quota must be greater than or equal to min quota")
	// ErrOptionWeight indicates a negative option weight.
	ErrOptionWeight = errors.New("option weight must be non-negative")
	// ErrNoBackend indicates the solver was constructed without a backend.
	ErrNoBackend = errors.New("no solver backend configured")
)
