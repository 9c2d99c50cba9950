package service

import (
	"time"

	"github.com/okian/pixelrace/internal/domain/motion"
	"github.com/okian/pixelrace/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithTickInterval sets the race clock period.
func WithTickInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.tickInterval = d
		}
	}
}

// WithCountdown sets the pause before the first tick. Zero disables it.
func WithCountdown(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.countdown = d
		}
	}
}

// WithMotionParams sets the per-tick movement tuning.
func WithMotionParams(p motion.Params) Option {
	return func(s *Service) {
		s.params = p
	}
}

// WithPerturbation sets the chance and size of per-tick speed noise.
func WithPerturbation(chance, magnitude float64) Option {
	return func(s *Service) {
		s.perturbChance = chance
		s.perturbMagnitude = magnitude
	}
}

// WithSeed seeds race noise. Each session derives its own seed from it;
// zero seeds every session from the clock.
func WithSeed(seed uint64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithPrizes sets prize money in rank order.
func WithPrizes(amounts []int64) Option {
	return func(s *Service) {
		s.prizes = amounts
	}
}

// WithStartingBalance sets the wallet of every new session.
func WithStartingBalance(amount int64) Option {
	return func(s *Service) {
		if amount >= 0 {
			s.startingBalance = amount
		}
	}
}

// WithGarageSlots sets the garage capacity, starters included.
func WithGarageSlots(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.garageSlots = n
		}
	}
}

// WithSlotPrice sets the price of an extra garage slot.
func WithSlotPrice(amount int64) Option {
	return func(s *Service) {
		if amount >= 0 {
			s.slotPrice = amount
		}
	}
}

// WithMaxSessions caps concurrently live sessions.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithCommandQueueSize bounds each session's command mailbox.
func WithCommandQueueSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithIdempotencyCacheSize bounds remembered purchase keys.
func WithIdempotencyCacheSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.idempotencySize = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
