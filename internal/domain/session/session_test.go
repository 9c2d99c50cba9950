package session_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/okian/pixelrace/internal/domain/catalog"
	"github.com/okian/pixelrace/internal/domain/model"
	"github.com/okian/pixelrace/internal/domain/motion"
	"github.com/okian/pixelrace/internal/domain/ranking"
	"github.com/okian/pixelrace/internal/domain/session"
	. "github.com/smartystreets/goconvey/convey"
)

type transition struct{ from, to session.State }

func newSession(seed uint64, opts ...session.Option) (*session.Session, *[]transition) {
	stepper, err := motion.NewStepper(motion.DefaultParams(),
		motion.NewChancePerturber(seed, motion.DefaultPerturbationChance, motion.DefaultPerturbationMagnitude))
	So(err, ShouldBeNil)

	seen := &[]transition{}
	opts = append([]session.Option{
		session.WithTransitionHook(func(from, to session.State) {
			*seen = append(*seen, transition{from, to})
		}),
		session.WithTickInterval(200 * time.Millisecond),
	}, opts...)
	return session.New(stepper, ranking.New(nil), opts...), seen
}

func runToResults(s *session.Session) int {
	completions := 0
	for i := 0; i < 1000 && s.State() == session.Racing; i++ {
		res, err := s.Tick()
		So(err, ShouldBeNil)
		if res.Completed {
			completions++
		}
	}
	return completions
}

func TestStartWithoutCar(t *testing.T) {
	Convey("Given a fresh session", t, func() {
		s, seen := newSession(1)
		So(s.State(), ShouldEqual, session.Selection)

		Convey("When starting without a car", func() {
			err := s.Start()

			Convey("Then it should be rejected and stay in Selection", func() {
				So(errors.Is(err, session.ErrNoCarSelected), ShouldBeTrue)
				So(s.State(), ShouldEqual, session.Selection)
				So(*seen, ShouldBeEmpty)
				So(s.Generation(), ShouldEqual, 0)
			})
		})
	})
}

func TestFullRace(t *testing.T) {
	Convey("Given a session with a chosen car", t, func() {
		s, seen := newSession(5)
		car, _ := catalog.Find(3)
		So(s.SelectCar(car), ShouldBeNil)

		Convey("When the race is started", func() {
			So(s.Start(), ShouldBeNil)

			Convey("Then seven racers should line up at zero", func() {
				So(s.State(), ShouldEqual, session.Racing)
				So(len(s.Racers()), ShouldEqual, 7)
				So(len(s.Standings()), ShouldEqual, 7)
				So(s.Generation(), ShouldEqual, 1)
				_, err := s.Results()
				So(errors.Is(err, session.ErrResultsNotReady), ShouldBeTrue)
			})

			Convey("Then illegal commands should be rejected without effect", func() {
				So(errors.Is(s.Start(), session.ErrInvalidTransition), ShouldBeTrue)
				So(errors.Is(s.Restart(), session.ErrInvalidTransition), ShouldBeTrue)
				So(errors.Is(s.SelectCar(car), session.ErrInvalidTransition), ShouldBeTrue)
				So(s.State(), ShouldEqual, session.Racing)
			})

			Convey("And it is ticked until every racer finishes", func() {
				completions := runToResults(s)

				Convey("Then exactly one Racing to Results transition should fire", func() {
					So(completions, ShouldEqual, 1)
					So(s.State(), ShouldEqual, session.Results)
					So(*seen, ShouldResemble, []transition{
						{session.Selection, session.Racing},
						{session.Racing, session.Results},
					})
					So(model.AllFinished(s.Racers()), ShouldBeTrue)
				})

				Convey("Then further ticks should be refused without transitions", func() {
					_, err := s.Tick()
					So(errors.Is(err, session.ErrNotRacing), ShouldBeTrue)
					So(len(*seen), ShouldEqual, 2)
				})

				Convey("Then results should match the last standings", func() {
					res, err := s.Results()
					So(err, ShouldBeNil)
					So(len(res), ShouldEqual, 7)
					So(res[0].Rank, ShouldEqual, 1)
					So(res[0].Finished, ShouldBeTrue)

					snap := s.Snapshot()
					So(snap.State, ShouldEqual, session.Results)
					So(snap.ElapsedMS, ShouldEqual, int64(snap.Tick)*200)
					So(snap.Car.ID, ShouldEqual, car.ID)
				})

				Convey("And the session is restarted", func() {
					So(s.Restart(), ShouldBeNil)

					Convey("Then every racer should be back at the start", func() {
						So(s.State(), ShouldEqual, session.Selection)
						for _, r := range s.Racers() {
							So(r.Progress, ShouldEqual, 0)
							So(r.Finished, ShouldBeFalse)
							So(r.FinishTick, ShouldEqual, 0)
						}
						So(s.Standings(), ShouldBeEmpty)
						So(s.Generation(), ShouldEqual, 2)
						kept, ok := s.Car()
						So(ok, ShouldBeTrue)
						So(kept.ID, ShouldEqual, car.ID)
					})

					Convey("Then a new race can be run", func() {
						So(s.Start(), ShouldBeNil)
						So(runToResults(s), ShouldEqual, 1)
						So(s.Generation(), ShouldEqual, 3)
					})
				})
			})
		})
	})
}

func TestStartWithBrokenRoster(t *testing.T) {
	Convey("Given a roster builder that produces two players", t, func() {
		s, _ := newSession(1, session.WithRoster(func(c model.Car) []model.Racer {
			return []model.Racer{{ID: 0, IsPlayer: true}, {ID: 1, IsPlayer: true}}
		}))
		So(s.SelectCar(model.Car{ID: 1, Speed: 5}), ShouldBeNil)

		Convey("Then Start should report an invariant violation", func() {
			err := s.Start()
			So(errors.Is(err, model.ErrInvariant), ShouldBeTrue)
			So(s.State(), ShouldEqual, session.Selection)
		})
	})
}

func TestStateText(t *testing.T) {
	Convey("Given session states", t, func() {
		b, err := json.Marshal(map[string]session.State{"s": session.Racing})
		So(err, ShouldBeNil)
		So(string(b), ShouldEqual, `{"s":"racing"}`)

		var st session.State
		So(st.UnmarshalText([]byte("results")), ShouldBeNil)
		So(st, ShouldEqual, session.Results)
		So(st.UnmarshalText([]byte("pit")), ShouldNotBeNil)
		So(session.State(9).String(), ShouldEqual, "state(9)")
	})
}
