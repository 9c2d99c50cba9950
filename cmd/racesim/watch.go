package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/pixelrace/internal/domain/ranking"
	"github.com/okian/pixelrace/internal/domain/session"
	"github.com/okian/pixelrace/internal/raceclient"
)

// errDone ends a watch early without reporting a failure.
var errDone = errors.New("done")

func newWatchCmd(remote *remoteFlags) *cobra.Command {
	var untilResults bool

	cmd := &cobra.Command{
		Use:   "watch SESSION_ID",
		Short: "Follow a session's live stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := remote.client()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			err = c.Watch(cmd.Context(), args[0], func(f raceclient.Frame) error {
				_, _ = fmt.Fprintln(out, frameLine(f))
				if untilResults && f.State == session.Results {
					return errDone
				}
				return nil
			})
			if errors.Is(err, errDone) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&untilResults, "until-results", false, "stop once the race is over")
	return cmd
}

// frameLine renders one frame on a single line.
func frameLine(f raceclient.Frame) string {
	line := fmt.Sprintf("%-9s tick=%d", f.State, f.Tick)
	if len(f.Standings) == 0 {
		return line
	}
	leader := f.Standings[0]
	line += fmt.Sprintf(" leader=%q %.1f%%", leader.Name, leader.Progress)
	if p, ok := ranking.Player(f.Standings); ok {
		line += fmt.Sprintf(" player=P%d %.1f%%", p.Rank, p.Progress)
	}
	return line
}
