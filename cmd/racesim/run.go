package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/pixelrace/internal/config"
	"github.com/okian/pixelrace/internal/domain/catalog"
	"github.com/okian/pixelrace/internal/domain/model"
	"github.com/okian/pixelrace/internal/domain/motion"
	"github.com/okian/pixelrace/internal/domain/ranking"
	"github.com/okian/pixelrace/internal/domain/scoring"
	"github.com/okian/pixelrace/internal/domain/session"
	"github.com/okian/pixelrace/pkg/logger"
)

// maxTicks stops a local race that can never finish.
const maxTicks = 100_000

var errRaceStalled = errors.New("race did not finish")

func newRunCmd() *cobra.Command {
	var (
		carID int
		seed  uint64
		races int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate races locally and print the results",
		Long: `Simulates races in-process without waiting between ticks. Motion,
prize and tick settings come from the same PIXELRACE_* environment and
config file as the server. Any catalog car can be raced.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			car, err := catalog.Find(carID)
			if err != nil {
				return err
			}
			if seed == 0 {
				seed = cfg.Seed
			}

			for i := 0; i < races; i++ {
				raceSeed := seed
				if raceSeed != 0 {
					raceSeed += uint64(i)
				}
				standings, err := simulate(cfg, car, raceSeed)
				if err != nil {
					return err
				}
				logger.Get().Info(ctx, "race simulated",
					logger.Int("race", i+1), logger.Int("ticks", standings[len(standings)-1].FinishTick))

				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "Race %d: %s\n", i+1, car.Name)
				if err := printStandings(out, standings); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&carID, "car", 1, "catalog id of the player's car")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "noise seed (0 uses PIXELRACE_SEED, then the clock)")
	cmd.Flags().IntVar(&races, "races", 1, "number of races to run")
	return cmd
}

// simulate runs one race to completion and returns the final standings.
func simulate(cfg *config.Config, car model.Car, seed uint64) ([]model.Standing, error) {
	perturber := motion.NewChancePerturber(seed, cfg.PerturbationChance, cfg.PerturbationMagnitude)
	stepper, err := motion.NewStepper(cfg.MotionParams(), perturber)
	if err != nil {
		return nil, err
	}
	engine := ranking.New(
		scoring.New(scoring.WithPrizesFromConfig(cfg.Prizes)),
		ranking.WithTickInterval(cfg.TickInterval()),
	)

	s := session.New(stepper, engine, session.WithTickInterval(cfg.TickInterval()))
	if err := s.SelectCar(car); err != nil {
		return nil, err
	}
	if err := s.Start(); err != nil {
		return nil, err
	}
	for range maxTicks {
		res, err := s.Tick()
		if err != nil {
			return nil, err
		}
		if res.Completed {
			return s.Results()
		}
	}
	return nil, fmt.Errorf("%w after %d ticks", errRaceStalled, maxTicks)
}
