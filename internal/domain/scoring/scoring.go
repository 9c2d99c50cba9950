// Package scoring turns finishing positions into prize money and race
// progress into display scores.
package scoring

import (
	"math"

	"github.com/shopspring/decimal"
)

// Default scoring configuration constants.
const (
	defaultScoreScale = 10
)

// DefaultPrizes is the prize money for ranks 1, 2 and 3.
func DefaultPrizes() []decimal.Decimal {
	return []decimal.Decimal{
		decimal.NewFromInt(10000),
		decimal.NewFromInt(5000),
		decimal.NewFromInt(2000),
	}
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithPrizes sets the prize table in rank order: the first amount goes to
// rank 1. Negative amounts are treated as zero.
func WithPrizes(amounts ...decimal.Decimal) Option {
	return func(s *Scorer) {
		if amounts == nil {
			return
		}
		s.prizes = make(map[int]decimal.Decimal, len(amounts))
		for i, amount := range amounts {
			if amount.IsPositive() {
				s.prizes[i+1] = amount
			}
		}
	}
}

// WithPrizesFromConfig converts whole-unit amounts from configuration.
func WithPrizesFromConfig(amounts []int64) Option {
	converted := make([]decimal.Decimal, len(amounts))
	for i, a := range amounts {
		converted[i] = decimal.NewFromInt(a)
	}
	return WithPrizes(converted...)
}

// WithScoreScale sets the progress multiplier used for display scores.
func WithScoreScale(scale float64) Option {
	return func(s *Scorer) {
		if scale > 0 {
			s.scoreScale = scale
		}
	}
}

// Scorer holds the prize table and score formula. It is immutable after
// construction and safe for concurrent use.
type Scorer struct {
	prizes     map[int]decimal.Decimal
	scoreScale float64
}

// New creates a Scorer with the default prize table.
func New(opts ...Option) *Scorer {
	s := &Scorer{scoreScale: defaultScoreScale}
	WithPrizes(DefaultPrizes()...)(s)

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Prize returns the prize for a 1-based rank, zero when the rank is not paid.
func (s *Scorer) Prize(rank int) decimal.Decimal {
	if p, ok := s.prizes[rank]; ok {
		return p
	}
	return decimal.Zero
}

// Score returns floor(progress * scale).
func (s *Scorer) Score(progress float64) int64 {
	return int64(math.Floor(progress * s.scoreScale))
}

// PaidRanks returns how many ranks carry a prize.
func (s *Scorer) PaidRanks() int {
	return len(s.prizes)
}
