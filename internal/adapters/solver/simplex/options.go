package simplex

// Option applies a configuration option to the Backend.
type Option func(*Backend)

// WithMaxNodes caps the number of branch-and-bound nodes explored per
// solve. Exceeding the cap yields a not-solved status.
func WithMaxNodes(n int) Option {
	return func(b *Backend) {
		if n > 0 {
			b.maxNodes = n
		}
	}
}

// WithMaxIterations caps the simplex iterations per LP relaxation.
func WithMaxIterations(n int) Option {
	return func(b *Backend) {
		if n > 0 {
			b.maxIterations = n
		}
	}
}

// WithTolerance sets the simplex numeric tolerance.
func WithTolerance(tol float64) Option {
	return func(b *Backend) {
		if tol > 0 {
			b.tolerance = tol
		}
	}
}
