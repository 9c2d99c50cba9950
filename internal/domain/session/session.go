package session

import (
	"fmt"
	"time"

	"github.com/okian/pixelrace/internal/domain/catalog"
	"github.com/okian/pixelrace/internal/domain/model"
	"github.com/okian/pixelrace/internal/domain/motion"
	"github.com/okian/pixelrace/internal/domain/ranking"
	"github.com/okian/pixelrace/pkg/metrics"
)

// Snapshot is the immutable view of a session after one command or tick.
// Readers never see a mix of pre- and post-tick racer state.
type Snapshot struct {
	State       State            `json:"state"`
	Car         *model.Car       `json:"car,omitempty"`
	Tick        int              `json:"tick"`
	Generation  uint64           `json:"generation"`
	ElapsedMS   int64            `json:"elapsed_ms"`
	CountdownMS int64            `json:"countdown_ms,omitempty"`
	Standings   []model.Standing `json:"standings"`
}

// TickResult describes what one tick did.
type TickResult struct {
	Tick     int
	Finished int
	// Completed is true only on the tick that moved the race to Results.
	Completed bool
}

// Session owns the racer set of one play-through. It is not safe for
// concurrent use; one goroutine drives it.
type Session struct {
	state        State
	car          *model.Car
	racers       []model.Racer
	standings    []model.Standing
	tick         int
	generation   uint64
	tickInterval time.Duration

	stepper      *motion.Stepper
	engine       *ranking.Engine
	roster       func(model.Car) []model.Racer
	onTransition func(from, to State)
}

// New creates a session in Selection.
func New(stepper *motion.Stepper, engine *ranking.Engine, opts ...Option) *Session {
	s := &Session{
		state:   Selection,
		stepper: stepper,
		engine:  engine,
		roster:  catalog.Roster,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current phase.
func (s *Session) State() State { return s.state }

// Generation increases every time a race starts or is reset.
func (s *Session) Generation() uint64 { return s.generation }

// Car returns the chosen car, if any.
func (s *Session) Car() (model.Car, bool) {
	if s.car == nil {
		return model.Car{}, false
	}
	return *s.car, true
}

// SelectCar chooses the player's car. Only legal in Selection.
func (s *Session) SelectCar(car model.Car) error {
	if s.state != Selection {
		return fmt.Errorf("select car while %s: %w", s.state, ErrInvalidTransition)
	}
	s.car = &car
	return nil
}

// Start moves Selection to Racing and lines up the roster.
func (s *Session) Start() error {
	if s.state != Selection {
		return fmt.Errorf("start while %s: %w", s.state, ErrInvalidTransition)
	}
	if s.car == nil {
		return ErrNoCarSelected
	}

	racers := s.roster(*s.car)
	if err := model.ValidateRoster(racers); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	s.racers = racers
	s.tick = 0
	s.generation++
	s.standings = s.engine.Rank(s.racers, 0)
	s.transition(Racing)
	return nil
}

// Tick advances every unfinished racer once and recomputes standings.
// The tick that finishes the last racer moves the session to Results.
func (s *Session) Tick() (TickResult, error) {
	if s.state != Racing {
		return TickResult{}, fmt.Errorf("tick while %s: %w", s.state, ErrNotRacing)
	}

	s.tick++
	res := TickResult{Tick: s.tick, Finished: s.stepper.Step(s.racers, s.tick)}
	start := time.Now()
	s.standings = s.engine.Rank(s.racers, s.tick)
	metrics.RecordRankingLatency(float64(time.Since(start).Microseconds()) / 1000)

	if model.AllFinished(s.racers) {
		s.transition(Results)
		res.Completed = true
	}
	return res, nil
}

// Restart moves Results back to Selection, resetting every racer and
// clearing standings. The chosen car is kept.
func (s *Session) Restart() error {
	if s.state != Results {
		return fmt.Errorf("restart while %s: %w", s.state, ErrInvalidTransition)
	}
	for i := range s.racers {
		s.racers[i].Reset()
	}
	s.standings = nil
	s.tick = 0
	s.generation++
	s.transition(Selection)
	return nil
}

// Standings returns a copy of the latest tick's standings.
func (s *Session) Standings() []model.Standing {
	out := make([]model.Standing, len(s.standings))
	copy(out, s.standings)
	return out
}

// Results returns the final standings once the race is over.
func (s *Session) Results() ([]model.Standing, error) {
	if s.state != Results {
		return nil, ErrResultsNotReady
	}
	return s.Standings(), nil
}

// Racers returns a copy of the racer set.
func (s *Session) Racers() []model.Racer {
	return append([]model.Racer(nil), s.racers...)
}

// Snapshot captures the session for readers.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		State:      s.state,
		Tick:       s.tick,
		Generation: s.generation,
		ElapsedMS:  int64(s.tick) * s.tickInterval.Milliseconds(),
		Standings:  s.Standings(),
	}
	if s.car != nil {
		car := *s.car
		snap.Car = &car
	}
	return snap
}

func (s *Session) transition(to State) {
	from := s.state
	s.state = to
	if s.onTransition != nil {
		s.onTransition(from, to)
	}
}
