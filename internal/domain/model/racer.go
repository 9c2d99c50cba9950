package model

import (
	"fmt"

	"github.com/samber/lo"
)

// Racer is any competing entity, the player or an opponent.
type Racer struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	IsPlayer  bool    `json:"is_player"`
	Color     string  `json:"color"`
	Lane      int     `json:"lane"`
	BaseSpeed float64 `json:"base_speed"`
	Progress  float64 `json:"progress"`
	Finished  bool    `json:"finished"`
	// FinishTick is the tick that carried the racer over the finish
	// threshold. Zero while the racer is still running.
	FinishTick int `json:"finish_tick"`
	// Distance accumulates every step without the 100 clamp.
	Distance  float64 `json:"distance"`
	LastSpeed float64 `json:"last_speed"`
}

// Reset returns the racer to the start line.
func (r *Racer) Reset() {
	r.Progress = 0
	r.Finished = false
	r.FinishTick = 0
	r.Distance = 0
	r.LastSpeed = 0
}

// ValidateRoster checks the invariants every race relies on: at least one
// racer, unique ids and exactly one player.
func ValidateRoster(racers []Racer) error {
	if len(racers) == 0 {
		return fmt.Errorf("%w: empty roster", ErrInvariant)
	}
	ids := lo.Map(racers, func(r Racer, _ int) int { return r.ID })
	if dup := lo.FindDuplicates(ids); len(dup) > 0 {
		return fmt.Errorf("%w: duplicate racer ids %v", ErrInvariant, dup)
	}
	if players := lo.CountBy(racers, func(r Racer) bool { return r.IsPlayer }); players != 1 {
		return fmt.Errorf("%w: roster has %d players, want 1", ErrInvariant, players)
	}
	return nil
}

// AllFinished reports whether every racer crossed the finish threshold.
func AllFinished(racers []Racer) bool {
	return len(racers) > 0 && lo.EveryBy(racers, func(r Racer) bool { return r.Finished })
}
