package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/okian/pixelrace/internal/domain/model"
)

// printStandings writes standings as an aligned table. The player's row
// is marked with an asterisk.
func printStandings(w io.Writer, standings []model.Standing) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RANK\tRACER\tTICK\tTIME\tAVG SPEED\tPRIZE")
	for _, s := range standings {
		mark := ""
		if s.IsPlayer {
			mark = " *"
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s%s\t%d\t%.2fs\t%.2f\t%s\n",
			s.Rank, s.Name, mark, s.FinishTick,
			float64(s.FinishTimeMS)/1000, s.AverageSpeed, s.Prize.StringFixed(0))
	}
	return tw.Flush()
}
