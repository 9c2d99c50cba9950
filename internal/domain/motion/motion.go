package motion

import (
	"fmt"

	"github.com/okian/pixelrace/internal/domain/model"
)

// Default motion constants.
const (
	DefaultStepScale       = 0.5
	DefaultMinSpeed        = 2
	DefaultMaxSpeed        = 7
	DefaultFinishThreshold = 90
	MaxProgress            = 100
)

// Params are the fixed constants of the per-tick update.
type Params struct {
	StepScale       float64
	MinSpeed        float64
	MaxSpeed        float64
	FinishThreshold float64
}

// DefaultParams returns the stock tuning.
func DefaultParams() Params {
	return Params{
		StepScale:       DefaultStepScale,
		MinSpeed:        DefaultMinSpeed,
		MaxSpeed:        DefaultMaxSpeed,
		FinishThreshold: DefaultFinishThreshold,
	}
}

// Validate checks the parameters are usable.
func (p Params) Validate() error {
	switch {
	case p.StepScale <= 0:
		return fmt.Errorf("%w: step scale must be positive", ErrInvalidParams)
	case p.MinSpeed <= 0 || p.MaxSpeed < p.MinSpeed:
		return fmt.Errorf("%w: speed range [%v,%v]", ErrInvalidParams, p.MinSpeed, p.MaxSpeed)
	case p.FinishThreshold <= 0 || p.FinishThreshold > MaxProgress:
		return fmt.Errorf("%w: finish threshold %v outside (0,%d]", ErrInvalidParams, p.FinishThreshold, MaxProgress)
	}
	return nil
}

// Stepper applies one tick of movement to a racer set.
type Stepper struct {
	params    Params
	perturber Perturber
}

// NewStepper creates a Stepper. A nil perturber means no noise.
func NewStepper(params Params, perturber Perturber) (*Stepper, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if perturber == nil {
		perturber = PerturberFunc(func() float64 { return 0 })
	}
	return &Stepper{params: params, perturber: perturber}, nil
}

// Params returns the stepper's tuning.
func (s *Stepper) Params() Params { return s.params }

// EffectiveSpeed clamps base+noise into the speed range.
func (s *Stepper) EffectiveSpeed(base, noise float64) float64 {
	return min(max(base+noise, s.params.MinSpeed), s.params.MaxSpeed)
}

// Step advances every unfinished racer in place and returns how many
// crossed the finish threshold on this tick. Finished racers are skipped,
// so progress never decreases and finish never reverts.
func (s *Stepper) Step(racers []model.Racer, tick int) int {
	finished := 0
	for i := range racers {
		r := &racers[i]
		if r.Finished {
			continue
		}

		speed := s.EffectiveSpeed(r.BaseSpeed, s.perturber.Perturb())
		delta := speed * s.params.StepScale

		r.LastSpeed = speed
		r.Distance += delta
		r.Progress = min(r.Progress+delta, MaxProgress)

		if r.Progress >= s.params.FinishThreshold {
			r.Finished = true
			r.FinishTick = tick
			finished++
		}
	}
	return finished
}
