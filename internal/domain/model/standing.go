package model

import "github.com/shopspring/decimal"

// Standing is the per-tick ranking record of one racer. It is derived
// from a racer snapshot and never updated in place.
type Standing struct {
	RacerID      int             `json:"racer_id"`
	Name         string          `json:"name"`
	IsPlayer     bool            `json:"is_player"`
	Color        string          `json:"color"`
	Rank         int             `json:"rank"`
	Prize        decimal.Decimal `json:"prize"`
	Score        int64           `json:"score"`
	Progress     float64         `json:"progress"`
	Finished     bool            `json:"finished"`
	FinishTick   int             `json:"finish_tick,omitempty"`
	FinishTimeMS int64           `json:"finish_time_ms,omitempty"`
	Distance     float64         `json:"distance"`
	AverageSpeed float64         `json:"average_speed"`
}
