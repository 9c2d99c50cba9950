package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/pixelrace/internal/adapters/http/api"
	app "github.com/okian/pixelrace/internal/app"
	"github.com/okian/pixelrace/internal/config"
	"github.com/okian/pixelrace/internal/domain/catalog"
	"github.com/okian/pixelrace/internal/domain/model"
	"github.com/okian/pixelrace/internal/domain/session"
	"github.com/okian/pixelrace/internal/raceclient"
	"github.com/okian/pixelrace/pkg/logger"
)

func init() {
	_ = logger.Init()
}

func execute(args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSimulate(t *testing.T) {
	convey.Convey("Given the stock configuration", t, func() {
		cfg := config.New()
		car, err := catalog.Find(3)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When a race is simulated", func() {
			standings, err := simulate(cfg, car, 42)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the standings should be complete and consistent", func() {
				convey.So(raceclient.Verify(standings, len(catalog.Opponents())+1), convey.ShouldBeNil)
				convey.So(standings[0].Prize.Equal(decimal.NewFromInt(10000)), convey.ShouldBeTrue)
			})

			convey.Convey("Then the same seed should replay the same race", func() {
				again, err := simulate(cfg, car, 42)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cmp.Diff(standings, again), convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When the motion params are unusable", func() {
			bad := config.New()
			bad.StepScale = 0
			_, err := simulate(bad, car, 1)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestRunCommand(t *testing.T) {
	convey.Convey("Given the run command", t, func() {
		convey.Convey("When running two seeded races", func() {
			out, err := execute("run", "--car", "102", "--seed", "5", "--races", "2")

			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "Race 1: Roadster")
			convey.So(out, convey.ShouldContainSubstring, "Race 2: Roadster")
			convey.So(out, convey.ShouldContainSubstring, "RANK")
			convey.So(out, convey.ShouldContainSubstring, "Roadster *")
		})

		convey.Convey("When the car is unknown", func() {
			_, err := execute("run", "--car", "999")
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When extra arguments are passed", func() {
			_, err := execute("run", "now")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestRemoteCommands(t *testing.T) {
	convey.Convey("Given a running server", t, func() {
		svc := app.New(
			app.WithTickInterval(time.Millisecond),
			app.WithCountdown(0),
			app.WithSeed(9),
		)
		convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(context.Background(), mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		convey.Convey("When racing remotely with a purchased car", func() {
			out, err := execute("remote", "--url", srv.URL, "--buy", "101", "--races", "2")

			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "Bought Speedster for 5000, balance 10000")
			convey.So(out, convey.ShouldContainSubstring, "Race 2 in session")
			convey.So(out, convey.ShouldContainSubstring, "Balance:")

			convey.Convey("Then the session should be closed afterwards", func() {
				views, err := svc.Sessions(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(views, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When the car is not owned", func() {
			_, err := execute("remote", "--url", srv.URL, "--car", "104")
			convey.So(raceclient.IsCode(err, "car_not_owned"), convey.ShouldBeTrue)
		})

		convey.Convey("When watching an unknown session", func() {
			_, err := execute("watch", "--url", srv.URL, "nope")
			convey.So(raceclient.IsCode(err, "not_found"), convey.ShouldBeTrue)
		})

		convey.Convey("When watching without a session id", func() {
			_, err := execute("watch", "--url", srv.URL)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestFrameLine(t *testing.T) {
	convey.Convey("Given stream frames", t, func() {
		convey.Convey("Then an empty grid should show only state and tick", func() {
			f := raceclient.Frame{Snapshot: session.Snapshot{State: session.Selection}}
			convey.So(frameLine(f), convey.ShouldEqual, "selection tick=0")
		})

		convey.Convey("Then a racing frame should show the leader and the player", func() {
			f := raceclient.Frame{Snapshot: session.Snapshot{
				State: session.Racing,
				Tick:  12,
				Standings: []model.Standing{
					{Name: "Gray Ghost", Rank: 1, Progress: 30},
					{Name: "Red Fury", Rank: 2, Progress: 28.5, IsPlayer: true},
				},
			}}
			convey.So(frameLine(f), convey.ShouldEqual, `racing    tick=12 leader="Gray Ghost" 30.0% player=P2 28.5%`)
		})
	})
}
