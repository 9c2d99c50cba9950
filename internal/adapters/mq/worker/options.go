package worker

import (
	"context"
	"time"

	"github.com/okian/pixelrace/internal/domain/session"
	"github.com/okian/pixelrace/pkg/logger"
)

// Option applies a configuration option to the Runner.
type Option func(*Runner)

// WithTickInterval sets the race clock period.
func WithTickInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.tickInterval = d
		}
	}
}

// WithCountdown sets the pause between Start and the first tick. Zero
// starts ticking immediately.
func WithCountdown(d time.Duration) Option {
	return func(r *Runner) {
		if d >= 0 {
			r.countdown = d
		}
	}
}

// WithQueueSize sets how many commands may wait in the mailbox.
func WithQueueSize(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.queueSize = n
		}
	}
}

// WithResultsHook is called on the runner goroutine, once per race, with
// the snapshot of the tick that reached Results.
func WithResultsHook(hook func(ctx context.Context, snap session.Snapshot)) Option {
	return func(r *Runner) {
		r.onResults = hook
	}
}

// WithLogger sets a custom logger for the runner.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}
