package repository

type settings struct {
	maxItems int
}

// Option applies a configuration option to the Store.
type Option func(*settings)

// WithMaxItems caps how many items the store holds. Zero or negative
// means unbounded.
func WithMaxItems(n int) Option {
	return func(s *settings) {
		s.maxItems = n
	}
}
