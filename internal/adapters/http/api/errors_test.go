package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/pixelrace/internal/adapters/mq/worker"
	"github.com/okian/pixelrace/internal/domain/model"
	"github.com/okian/pixelrace/internal/domain/session"
)

func TestOpError(t *testing.T) {
	convey.Convey("Given errors tagged with an operation", t, func() {
		cause := errors.New("boom")

		convey.Convey("Then kind and cause should both match", func() {
			err := WrapKind("api.op", ErrBadRequest, cause)
			convey.So(errors.Is(err, ErrBadRequest), convey.ShouldBeTrue)
			convey.So(errors.Is(err, cause), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldEqual, "api.op: bad request: boom")
		})

		convey.Convey("Then Wrap should keep the cause", func() {
			err := Wrap("api.op", cause)
			convey.So(errors.Is(err, cause), convey.ShouldBeTrue)
			convey.So(errors.Is(err, ErrBadRequest), convey.ShouldBeFalse)
			convey.So(Wrap("api.op", nil), convey.ShouldBeNil)
		})

		convey.Convey("Then NewKind should carry only the kind", func() {
			err := NewKind("api.op", ErrBadRequest)
			convey.So(errors.Is(err, ErrBadRequest), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldEqual, "api.op: bad request")
		})
	})
}

func TestClassify(t *testing.T) {
	convey.Convey("Given domain errors", t, func() {
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{fmt.Errorf("start: %w", session.ErrNoCarSelected), http.StatusConflict, "no_car_selected"},
			{fmt.Errorf("restart while racing: %w", session.ErrInvalidTransition), http.StatusConflict, "invalid_transition"},
			{fmt.Errorf("start: %w", model.ErrInvariant), http.StatusInternalServerError, "invariant"},
			{worker.ErrBusy, http.StatusTooManyRequests, "busy"},
			{worker.ErrStopped, http.StatusGone, "session_closed"},
			{errors.New("unexpected"), http.StatusInternalServerError, "internal_error"},
		}

		convey.Convey("Then each should map to its status and code", func() {
			for _, c := range cases {
				status, code := classify(Wrap("api.op", c.err))
				convey.So(status, convey.ShouldEqual, c.status)
				convey.So(code, convey.ShouldEqual, c.code)
			}
		})
	})
}

func TestErrorHelpers(t *testing.T) {
	convey.Convey("Given status codes", t, func() {
		convey.So(getErrorType(http.StatusConflict), convey.ShouldEqual, "conflict")
		convey.So(getErrorType(http.StatusTooManyRequests), convey.ShouldEqual, "rate_limit")
		convey.So(getErrorType(http.StatusBadGateway), convey.ShouldEqual, "server_error")
		convey.So(getErrorSeverity(http.StatusInternalServerError), convey.ShouldEqual, "high")
		convey.So(getErrorSeverity(http.StatusNotFound), convey.ShouldEqual, "medium")
	})
}
