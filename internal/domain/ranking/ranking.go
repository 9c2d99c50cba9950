// Package ranking orders racers and attaches prize and score.
//
// Ordering: finished before unfinished. Finished racers by finish tick ASC,
// then progress DESC. Unfinished racers by progress DESC. Any remaining tie
// keeps roster order. Ranks are 1..N with no shared places.
package ranking

import (
	"sort"
	"time"

	"github.com/okian/pixelrace/internal/domain/model"
	"github.com/okian/pixelrace/internal/domain/scoring"
	"github.com/samber/lo"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithTickInterval sets the wall clock length of one tick, used for
// finish times. Zero leaves times unreported.
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.tickInterval = d
		}
	}
}

// Engine recomputes standings from a racer snapshot. It keeps no state
// between calls, so ranking the same snapshot twice yields the same output.
type Engine struct {
	scorer       *scoring.Scorer
	tickInterval time.Duration
}

// New creates an Engine. A nil scorer uses the default prize table.
func New(scorer *scoring.Scorer, opts ...Option) *Engine {
	if scorer == nil {
		scorer = scoring.New()
	}
	e := &Engine{scorer: scorer}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// less returns true if a should appear before b.
func less(a, b model.Racer) bool {
	if a.Finished != b.Finished {
		return a.Finished
	}
	if a.Finished && a.FinishTick != b.FinishTick {
		return a.FinishTick < b.FinishTick
	}
	return a.Progress > b.Progress
}

// Order returns the racers sorted into finishing order without touching
// the input slice.
func Order(racers []model.Racer) []model.Racer {
	ordered := append([]model.Racer(nil), racers...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return less(ordered[i], ordered[j])
	})
	return ordered
}

// Rank returns one standing per racer in rank order. tick is the number
// of ticks applied so far and is used for the average speed of racers
// still running.
func (e *Engine) Rank(racers []model.Racer, tick int) []model.Standing {
	return lo.Map(Order(racers), func(r model.Racer, i int) model.Standing {
		rank := i + 1
		s := model.Standing{
			RacerID:    r.ID,
			Name:       r.Name,
			IsPlayer:   r.IsPlayer,
			Color:      r.Color,
			Rank:       rank,
			Prize:      e.scorer.Prize(rank),
			Score:      e.scorer.Score(r.Progress),
			Progress:   r.Progress,
			Finished:   r.Finished,
			FinishTick: r.FinishTick,
			Distance:   r.Distance,
		}

		ticks := tick
		if r.Finished {
			ticks = r.FinishTick
			s.FinishTimeMS = int64(r.FinishTick) * e.tickInterval.Milliseconds()
		}
		if ticks > 0 {
			s.AverageSpeed = r.Distance / float64(ticks)
		}
		return s
	})
}

// Player returns the player's standing.
func Player(standings []model.Standing) (model.Standing, bool) {
	return lo.Find(standings, func(s model.Standing) bool { return s.IsPlayer })
}
