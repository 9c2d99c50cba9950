package dedupe_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	dedupe "github.com/okian/pixelrace/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

var errBoom = errors.New("boom")

func TestDeduper(t *testing.T) {
	Convey("Given a new Deduper", t, func() {
		d := dedupe.New[int]()
		ctx := context.Background()
		calls := 0
		fn := func() (int, error) {
			calls++
			return calls * 10, nil
		}

		Convey("When a key is used for the first time", func() {
			v, replayed, err := d.Do(ctx, "purchase-1", fn)

			Convey("Then it should run and record the outcome", func() {
				So(err, ShouldBeNil)
				So(replayed, ShouldBeFalse)
				So(v, ShouldEqual, 10)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And the key is used again", func() {
				v, replayed, err := d.Do(ctx, "purchase-1", fn)

				Convey("Then the first outcome should be replayed without running", func() {
					So(err, ShouldBeNil)
					So(replayed, ShouldBeTrue)
					So(v, ShouldEqual, 10)
					So(calls, ShouldEqual, 1)
				})
			})
		})

		Convey("When the call fails", func() {
			_, _, err := d.Do(ctx, "purchase-2", func() (int, error) { return 0, errBoom })

			Convey("Then the key should be unrecorded and retryable", func() {
				So(errors.Is(err, errBoom), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 0)

				v, replayed, err := d.Do(ctx, "purchase-2", fn)
				So(err, ShouldBeNil)
				So(replayed, ShouldBeFalse)
				So(v, ShouldEqual, 10)
			})
		})

		Convey("When the key is empty", func() {
			d.Do(ctx, "", fn)
			d.Do(ctx, "", fn)

			Convey("Then every call should run and nothing should be recorded", func() {
				So(calls, ShouldEqual, 2)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When unrecording a key", func() {
			d.Do(ctx, "k", fn)
			d.Unrecord("k")
			d.Unrecord("missing")

			Convey("Then the next call should run again", func() {
				So(d.Size(), ShouldEqual, 0)
				_, replayed, _ := d.Do(ctx, "k", fn)
				So(replayed, ShouldBeFalse)
				So(calls, ShouldEqual, 2)
			})
		})
	})
}

func TestDeduperBounded(t *testing.T) {
	Convey("Given a deduper bounded to three keys", t, func() {
		d := dedupe.New[string](dedupe.WithMaxSize(3))
		ctx := context.Background()
		for i := 1; i <= 4; i++ {
			key := fmt.Sprintf("k%d", i)
			d.Do(ctx, key, func() (string, error) { return key, nil })
		}

		Convey("Then the oldest key should have been evicted", func() {
			So(d.Size(), ShouldEqual, 3)
			_, replayed, _ := d.Do(ctx, "k1", func() (string, error) { return "again", nil })
			So(replayed, ShouldBeFalse)
			v, replayed, _ := d.Do(ctx, "k4", func() (string, error) { return "again", nil })
			So(replayed, ShouldBeTrue)
			So(v, ShouldEqual, "k4")
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.New[int](dedupe.WithMaxSize(-1))
		for i := 0; i < 200; i++ {
			d.Do(context.Background(), fmt.Sprintf("k%d", i), func() (int, error) { return i, nil })
		}

		Convey("Then nothing should be evicted", func() {
			So(d.Size(), ShouldEqual, 200)
		})
	})
}

func TestDeduperConcurrency(t *testing.T) {
	Convey("Given many goroutines retrying the same key", t, func() {
		d := dedupe.New[int]()
		var runs atomic.Int32
		release := make(chan struct{})
		var wg sync.WaitGroup
		results := make([]int, 20)

		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				v, _, _ := d.Do(context.Background(), "same", func() (int, error) {
					runs.Add(1)
					<-release
					return 42, nil
				})
				results[i] = v
			}(i)
		}
		time.Sleep(10 * time.Millisecond)
		close(release)
		wg.Wait()

		Convey("Then the work should run once and everyone should see its value", func() {
			So(runs.Load(), ShouldEqual, 1)
			for _, v := range results {
				So(v, ShouldEqual, 42)
			}
		})
	})

	Convey("Given a waiter whose context expires", t, func() {
		d := dedupe.New[int]()
		release := make(chan struct{})
		started := make(chan struct{})
		go d.Do(context.Background(), "slow", func() (int, error) {
			close(started)
			<-release
			return 1, nil
		})
		<-started

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		defer cancel()
		_, _, err := d.Do(ctx, "slow", func() (int, error) { return 2, nil })
		close(release)

		Convey("Then it should return the context error", func() {
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
		})
	})
}
