package dedupe

const defaultMaxSize = 10000

type settings struct {
	maxSize int
}

// Option applies a configuration option to a Deduper.
type Option func(*settings)

// WithMaxSize sets the maximum number of keys to keep in memory.
// If maxSize > 0: bounded, the oldest key is evicted first.
// If maxSize <= 0: unbounded.
func WithMaxSize(maxSize int) Option {
	return func(s *settings) {
		s.maxSize = maxSize
	}
}
