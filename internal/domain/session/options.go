package session

import (
	"time"

	"github.com/okian/pixelrace/internal/domain/model"
)

// Option applies a configuration option to the Session.
type Option func(*Session)

// WithRoster overrides how the racer set is built from the chosen car.
func WithRoster(build func(model.Car) []model.Racer) Option {
	return func(s *Session) {
		if build != nil {
			s.roster = build
		}
	}
}

// WithTransitionHook is called after every state change.
func WithTransitionHook(hook func(from, to State)) Option {
	return func(s *Session) {
		s.onTransition = hook
	}
}

// WithTickInterval sets the tick length used for elapsed race time.
func WithTickInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.tickInterval = d
		}
	}
}
