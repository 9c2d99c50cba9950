// Package motion advances racers by one clock tick.
package motion

import (
	"math/rand/v2"
	"time"
)

// Default perturbation constants.
const (
	DefaultPerturbationChance    = 0.3
	DefaultPerturbationMagnitude = 0.3
)

// Perturber produces the per-racer speed noise for one tick.
type Perturber interface {
	Perturb() float64
}

// PerturberFunc adapts a function to Perturber.
type PerturberFunc func() float64

// Perturb calls f.
func (f PerturberFunc) Perturb() float64 { return f() }

// ChancePerturber returns +magnitude or -magnitude with the given chance
// and zero otherwise. It is not safe for concurrent use; each race owns one.
type ChancePerturber struct {
	rng       *rand.Rand
	chance    float64
	magnitude float64
}

// NewChancePerturber creates a perturber. A zero seed draws one from the clock.
func NewChancePerturber(seed uint64, chance, magnitude float64) *ChancePerturber {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano()) //nolint:gosec // non-negative wall clock
	}
	return &ChancePerturber{
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), //nolint:gosec // gameplay noise
		chance:    chance,
		magnitude: magnitude,
	}
}

// Perturb draws one sample.
func (p *ChancePerturber) Perturb() float64 {
	if p.rng.Float64() >= p.chance {
		return 0
	}
	if p.rng.IntN(2) == 0 {
		return -p.magnitude
	}
	return p.magnitude
}
