package motion_test

import (
	"errors"
	"testing"

	"github.com/okian/pixelrace/internal/domain/catalog"
	"github.com/okian/pixelrace/internal/domain/model"
	"github.com/okian/pixelrace/internal/domain/motion"
	. "github.com/smartystreets/goconvey/convey"
)

func fixed(v float64) motion.Perturber {
	return motion.PerturberFunc(func() float64 { return v })
}

func TestParamsValidate(t *testing.T) {
	Convey("Given motion params", t, func() {
		So(motion.DefaultParams().Validate(), ShouldBeNil)

		bad := []motion.Params{
			{StepScale: 0, MinSpeed: 2, MaxSpeed: 7, FinishThreshold: 90},
			{StepScale: 0.5, MinSpeed: 0, MaxSpeed: 7, FinishThreshold: 90},
			{StepScale: 0.5, MinSpeed: 5, MaxSpeed: 4, FinishThreshold: 90},
			{StepScale: 0.5, MinSpeed: 2, MaxSpeed: 7, FinishThreshold: 0},
			{StepScale: 0.5, MinSpeed: 2, MaxSpeed: 7, FinishThreshold: 101},
		}
		for _, p := range bad {
			So(errors.Is(p.Validate(), motion.ErrInvalidParams), ShouldBeTrue)
			_, err := motion.NewStepper(p, nil)
			So(err, ShouldNotBeNil)
		}
	})
}

func TestStep(t *testing.T) {
	Convey("Given a stepper without noise", t, func() {
		s, err := motion.NewStepper(motion.DefaultParams(), nil)
		So(err, ShouldBeNil)

		Convey("When a racer at base speed 4 takes one step", func() {
			racers := []model.Racer{{ID: 1, BaseSpeed: 4}}
			n := s.Step(racers, 1)

			Convey("Then progress should grow by speed times step scale", func() {
				So(n, ShouldEqual, 0)
				So(racers[0].Progress, ShouldEqual, 2)
				So(racers[0].Distance, ShouldEqual, 2)
				So(racers[0].LastSpeed, ShouldEqual, 4)
			})
		})

		Convey("When a racer crosses the threshold", func() {
			racers := []model.Racer{{ID: 1, BaseSpeed: 6, Progress: 88}}
			n := s.Step(racers, 17)

			Convey("Then it should be finished at that tick", func() {
				So(n, ShouldEqual, 1)
				So(racers[0].Finished, ShouldBeTrue)
				So(racers[0].FinishTick, ShouldEqual, 17)
			})

			Convey("Then later steps should leave it untouched", func() {
				before := racers[0]
				So(s.Step(racers, 18), ShouldEqual, 0)
				So(racers[0], ShouldResemble, before)
			})
		})

		Convey("When progress would pass 100", func() {
			p := motion.DefaultParams()
			p.FinishThreshold = 100
			s100, _ := motion.NewStepper(p, nil)
			racers := []model.Racer{{ID: 1, BaseSpeed: 7, Progress: 98}}
			s100.Step(racers, 1)

			Convey("Then progress should be clamped while distance keeps counting", func() {
				So(racers[0].Progress, ShouldEqual, 100)
				So(racers[0].Distance, ShouldEqual, 3.5)
				So(racers[0].Finished, ShouldBeTrue)
			})
		})
	})

	Convey("Given extreme noise", t, func() {
		up, _ := motion.NewStepper(motion.DefaultParams(), fixed(10))
		down, _ := motion.NewStepper(motion.DefaultParams(), fixed(-10))

		Convey("Then the effective speed should be clamped to [2,7]", func() {
			So(up.EffectiveSpeed(5, 10), ShouldEqual, 7)
			So(down.EffectiveSpeed(3, -10), ShouldEqual, 2)

			racers := []model.Racer{{ID: 1, BaseSpeed: 3}}
			down.Step(racers, 1)
			So(racers[0].Progress, ShouldEqual, 1)
		})
	})
}

func TestStepProperties(t *testing.T) {
	Convey("Given a full roster and a seeded perturber", t, func() {
		car, _ := catalog.Find(1)
		racers := catalog.Roster(car)
		s, _ := motion.NewStepper(motion.DefaultParams(),
			motion.NewChancePerturber(42, motion.DefaultPerturbationChance, motion.DefaultPerturbationMagnitude))

		Convey("When ticking until everyone finishes", func() {
			finishedTotal := 0
			tick := 0
			for !model.AllFinished(racers) && tick < 1000 {
				tick++
				prev := append([]model.Racer(nil), racers...)
				finishedTotal += s.Step(racers, tick)

				for i := range racers {
					So(racers[i].Progress, ShouldBeGreaterThanOrEqualTo, prev[i].Progress)
					So(racers[i].Progress, ShouldBeLessThanOrEqualTo, 100)
					if prev[i].Finished {
						So(racers[i].Finished, ShouldBeTrue)
					}
				}
			}

			Convey("Then every racer should finish exactly once", func() {
				So(model.AllFinished(racers), ShouldBeTrue)
				So(finishedTotal, ShouldEqual, len(racers))
				for _, r := range racers {
					So(r.FinishTick, ShouldBeGreaterThan, 0)
					So(r.Progress, ShouldBeGreaterThanOrEqualTo, 90)
				}
			})
		})
	})
}

func TestChancePerturber(t *testing.T) {
	Convey("Given two perturbers with the same seed", t, func() {
		a := motion.NewChancePerturber(7, 0.3, 0.3)
		b := motion.NewChancePerturber(7, 0.3, 0.3)

		Convey("Then they should produce the same bounded sequence", func() {
			hits := 0
			for i := 0; i < 500; i++ {
				va, vb := a.Perturb(), b.Perturb()
				So(va, ShouldEqual, vb)
				So(va == 0 || va == 0.3 || va == -0.3, ShouldBeTrue)
				if va != 0 {
					hits++
				}
			}
			So(hits, ShouldBeGreaterThan, 0)
			So(hits, ShouldBeLessThan, 500)
		})
	})

	Convey("Given a zero chance", t, func() {
		p := motion.NewChancePerturber(1, 0, 0.3)
		Convey("Then it should never perturb", func() {
			for i := 0; i < 100; i++ {
				So(p.Perturb(), ShouldEqual, 0)
			}
		})
	})
}
