package raceclient

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/okian/pixelrace/internal/domain/model"
)

// Verify checks final standings for internal consistency: ranks run
// 1..n, every racer finished, finish ticks never go backwards and there
// is exactly one player.
func Verify(standings []model.Standing, racers int) error {
	if len(standings) != racers {
		return fmt.Errorf("%w: %d standings, want %d", ErrVerification, len(standings), racers)
	}
	for i, s := range standings {
		if s.Rank != i+1 {
			return fmt.Errorf("%w: position %d has rank %d", ErrVerification, i, s.Rank)
		}
		if !s.Finished {
			return fmt.Errorf("%w: %s did not finish", ErrVerification, s.Name)
		}
		if i > 0 && s.FinishTick < standings[i-1].FinishTick {
			return fmt.Errorf("%w: %s finished at tick %d after %s at tick %d",
				ErrVerification, s.Name, s.FinishTick, standings[i-1].Name, standings[i-1].FinishTick)
		}
	}
	if n := lo.CountBy(standings, func(s model.Standing) bool { return s.IsPlayer }); n != 1 {
		return fmt.Errorf("%w: %d player entries", ErrVerification, n)
	}
	return nil
}
