// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables on top.
// - Errors are wrapped with this package's sentinel kinds.
package config

import (
	"fmt"
	"time"

	"github.com/okian/pixelrace/internal/domain/motion"
)

// Tick interval bounds accepted for the served process.
const (
	MinTickIntervalMS = 100
	MaxTickIntervalMS = 300
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// TickIntervalMS is the race clock period.
	TickIntervalMS int `koanf:"tick_interval_ms"`
	// CountdownMS is the pause between start and the first tick.
	CountdownMS int `koanf:"countdown_ms"`

	StepScale       float64 `koanf:"step_scale"`
	MinSpeed        float64 `koanf:"min_speed"`
	MaxSpeed        float64 `koanf:"max_speed"`
	FinishThreshold float64 `koanf:"finish_threshold"`

	PerturbationChance    float64 `koanf:"perturbation_chance"`
	PerturbationMagnitude float64 `koanf:"perturbation_magnitude"`

	// Prizes lists prize money in rank order.
	Prizes []int64 `koanf:"prizes"`

	// Seed feeds the race noise generator. Zero seeds from the clock.
	Seed uint64 `koanf:"seed"`

	StartingBalance int64 `koanf:"starting_balance"`
	GarageSlots     int   `koanf:"garage_slots"`
	SlotPrice       int64 `koanf:"slot_price"`

	// MaxSessions caps concurrently live sessions.
	MaxSessions int `koanf:"max_sessions"`
	// CommandQueueSize bounds each session's command mailbox.
	CommandQueueSize int `koanf:"command_queue_size"`
	// IdempotencyCacheSize bounds remembered purchase keys.
	IdempotencyCacheSize int `koanf:"idempotency_cache_size"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		TickIntervalMS:        200,
		CountdownMS:           3000,
		StepScale:             0.5,
		MinSpeed:              2,
		MaxSpeed:              7,
		FinishThreshold:       90,
		PerturbationChance:    0.3,
		PerturbationMagnitude: 0.3,
		Prizes:                []int64{10000, 5000, 2000},
		StartingBalance:       15000,
		GarageSlots:           6,
		SlotPrice:             2500,
		MaxSessions:           1000,
		CommandQueueSize:      16,
		IdempotencyCacheSize:  10000,
	}
}

// TickInterval returns the race clock period.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// Countdown returns the pre-race countdown.
func (c *Config) Countdown() time.Duration {
	return time.Duration(c.CountdownMS) * time.Millisecond
}

// MotionParams returns the per-tick movement tuning.
func (c *Config) MotionParams() motion.Params {
	return motion.Params{
		StepScale:       c.StepScale,
		MinSpeed:        c.MinSpeed,
		MaxSpeed:        c.MaxSpeed,
		FinishThreshold: c.FinishThreshold,
	}
}

// Validate checks every value is usable.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	case c.TickIntervalMS < MinTickIntervalMS || c.TickIntervalMS > MaxTickIntervalMS:
		return fmt.Errorf("%w: tick_interval_ms %d outside [%d,%d]",
			ErrInvalidConfig, c.TickIntervalMS, MinTickIntervalMS, MaxTickIntervalMS)
	case c.CountdownMS < 0:
		return fmt.Errorf("%w: countdown_ms must not be negative", ErrInvalidConfig)
	case c.StepScale <= 0:
		return fmt.Errorf("%w: step_scale must be positive", ErrInvalidConfig)
	case c.MinSpeed <= 0 || c.MaxSpeed < c.MinSpeed:
		return fmt.Errorf("%w: speed range [%v,%v]", ErrInvalidConfig, c.MinSpeed, c.MaxSpeed)
	case c.FinishThreshold <= 0 || c.FinishThreshold > 100:
		return fmt.Errorf("%w: finish_threshold %v outside (0,100]", ErrInvalidConfig, c.FinishThreshold)
	case c.PerturbationChance < 0 || c.PerturbationChance > 1:
		return fmt.Errorf("%w: perturbation_chance %v outside [0,1]", ErrInvalidConfig, c.PerturbationChance)
	case c.PerturbationMagnitude < 0:
		return fmt.Errorf("%w: perturbation_magnitude must not be negative", ErrInvalidConfig)
	case c.StartingBalance < 0 || c.SlotPrice < 0:
		return fmt.Errorf("%w: money values must not be negative", ErrInvalidConfig)
	case c.GarageSlots <= 0:
		return fmt.Errorf("%w: garage_slots must be positive", ErrInvalidConfig)
	case c.MaxSessions <= 0 || c.CommandQueueSize <= 0:
		return fmt.Errorf("%w: max_sessions and command_queue_size must be positive", ErrInvalidConfig)
	}
	for i, p := range c.Prizes {
		if p < 0 {
			return fmt.Errorf("%w: prize for rank %d is negative", ErrInvalidConfig, i+1)
		}
	}
	return nil
}
