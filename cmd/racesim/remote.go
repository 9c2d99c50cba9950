package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/pixelrace/internal/domain/catalog"
	"github.com/okian/pixelrace/internal/raceclient"
	"github.com/okian/pixelrace/pkg/logger"
)

func newRemoteCmd(remote *remoteFlags) *cobra.Command {
	var (
		carID int
		buy   int
		races int
		keep  bool
		limit = defaultRaceCap
	)

	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Drive a race on a running server and verify the standings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), limit)
			defer cancel()

			c, err := remote.client()
			if err != nil {
				return err
			}
			if err := c.Health(ctx); err != nil {
				return err
			}

			v, err := c.CreateSession(ctx)
			if err != nil {
				return err
			}
			log := logger.Get()
			log.Info(ctx, "session created", logger.String("session", v.ID))
			if !keep {
				defer func() {
					if err := c.CloseSession(context.WithoutCancel(ctx), v.ID); err != nil {
						log.Warn(ctx, "close session failed", logger.String("session", v.ID), logger.Error(err))
					}
				}()
			}

			if buy != 0 {
				r, err := c.Purchase(ctx, v.ID, buy, "")
				if err != nil {
					return err
				}
				carID = buy
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Bought %s for %s, balance %s\n",
					r.Name, r.Price.StringFixed(0), r.Balance.StringFixed(0))
			}
			return raceRemote(ctx, cmd, c, v.ID, carID, races)
		},
	}

	cmd.Flags().IntVar(&carID, "car", 1, "owned car to race")
	cmd.Flags().IntVar(&buy, "buy", 0, "dealership car to buy and race instead")
	cmd.Flags().IntVar(&races, "races", 1, "number of races to run in the session")
	cmd.Flags().BoolVar(&keep, "keep", false, "leave the session open afterwards")
	cmd.Flags().DurationVar(&limit, "limit", defaultRaceCap, "overall time limit")
	return cmd
}

func raceRemote(ctx context.Context, cmd *cobra.Command, c *raceclient.Client, id string, carID, races int) error {
	out := cmd.OutOrStdout()
	racers := len(catalog.Opponents()) + 1

	if _, err := c.SelectCar(ctx, id, carID); err != nil {
		return err
	}
	for i := 0; i < races; i++ {
		if i > 0 {
			if _, err := c.Restart(ctx, id); err != nil {
				return err
			}
		}
		if _, err := c.Start(ctx, id); err != nil {
			return err
		}
		res, err := c.AwaitResults(ctx, id)
		if err != nil {
			return err
		}
		if err := raceclient.Verify(res.Standings, racers); err != nil {
			return err
		}

		_, _ = fmt.Fprintf(out, "Race %d in session %s\n", i+1, id)
		if err := printStandings(out, res.Standings); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "Balance: %s\n\n", res.Balance.StringFixed(0))
	}
	return nil
}
