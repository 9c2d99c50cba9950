package model_test

import (
	"errors"
	"testing"

	"github.com/okian/pixelrace/internal/domain/model"
	"github.com/shopspring/decimal"
	"github.com/smartystreets/goconvey/convey"
)

func TestValidateRoster(t *testing.T) {
	convey.Convey("Given a roster", t, func() {
		racers := []model.Racer{
			{ID: 0, Name: "Red Fury", IsPlayer: true},
			{ID: 1, Name: "Purple Racer"},
			{ID: 2, Name: "Pink Speedster"},
		}

		convey.Convey("When it has one player and unique ids", func() {
			convey.Convey("Then it should be valid", func() {
				convey.So(model.ValidateRoster(racers), convey.ShouldBeNil)
			})
		})

		convey.Convey("When an id is repeated", func() {
			racers[2].ID = 1
			err := model.ValidateRoster(racers)

			convey.Convey("Then it should report an invariant violation", func() {
				convey.So(errors.Is(err, model.ErrInvariant), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "duplicate")
			})
		})

		convey.Convey("When there is no player", func() {
			racers[0].IsPlayer = false
			err := model.ValidateRoster(racers)

			convey.Convey("Then it should report an invariant violation", func() {
				convey.So(errors.Is(err, model.ErrInvariant), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When there are two players", func() {
			racers[1].IsPlayer = true

			convey.Convey("Then it should report an invariant violation", func() {
				convey.So(errors.Is(model.ValidateRoster(racers), model.ErrInvariant), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When it is empty", func() {
			convey.Convey("Then it should report an invariant violation", func() {
				convey.So(errors.Is(model.ValidateRoster(nil), model.ErrInvariant), convey.ShouldBeTrue)
			})
		})
	})
}

func TestRacerReset(t *testing.T) {
	convey.Convey("Given a finished racer", t, func() {
		r := model.Racer{ID: 4, BaseSpeed: 3, Progress: 92.5, Finished: true, FinishTick: 60, Distance: 92.5, LastSpeed: 3.3}

		convey.Convey("When it is reset", func() {
			r.Reset()

			convey.Convey("Then only the race progress should be cleared", func() {
				convey.So(r.Progress, convey.ShouldEqual, 0)
				convey.So(r.Finished, convey.ShouldBeFalse)
				convey.So(r.FinishTick, convey.ShouldEqual, 0)
				convey.So(r.Distance, convey.ShouldEqual, 0)
				convey.So(r.LastSpeed, convey.ShouldEqual, 0)
				convey.So(r.ID, convey.ShouldEqual, 4)
				convey.So(r.BaseSpeed, convey.ShouldEqual, 3)
			})
		})
	})
}

func TestAllFinished(t *testing.T) {
	convey.Convey("Given racers", t, func() {
		convey.So(model.AllFinished(nil), convey.ShouldBeFalse)
		convey.So(model.AllFinished([]model.Racer{{Finished: true}, {Finished: false}}), convey.ShouldBeFalse)
		convey.So(model.AllFinished([]model.Racer{{Finished: true}, {Finished: true}}), convey.ShouldBeTrue)
	})
}

func TestCarIsStarter(t *testing.T) {
	convey.Convey("Given cars with and without a price", t, func() {
		convey.So(model.Car{Name: "Red Fury"}.IsStarter(), convey.ShouldBeTrue)
		convey.So(model.Car{Name: "Shadow", Price: decimal.NewFromInt(20000)}.IsStarter(), convey.ShouldBeFalse)
	})
}
