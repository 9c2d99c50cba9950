package garage_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/okian/pixelrace/internal/domain/catalog"
	"github.com/okian/pixelrace/internal/domain/garage"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func mustFind(id int) garage.OwnedCar {
	c, err := catalog.Find(id)
	So(err, ShouldBeNil)
	return garage.OwnedCar{Car: c}
}

func TestGarage_New(t *testing.T) {
	Convey("Given a default garage", t, func() {
		g := garage.New()
		v := g.View()

		Convey("Then it should hold the starters and the opening balance", func() {
			So(v.Balance.Equal(decimal.NewFromInt(15000)), ShouldBeTrue)
			So(v.Used, ShouldEqual, 4)
			So(v.Slots, ShouldEqual, garage.DefaultSlots)
			_, err := g.Owned(1)
			So(err, ShouldBeNil)
		})
	})

	Convey("Given fewer slots than starters", t, func() {
		g := garage.New(garage.WithSlots(2))

		Convey("Then slots should grow to fit the starters", func() {
			So(g.View().Slots, ShouldEqual, 4)
		})
	})
}

func TestGarage_Buy(t *testing.T) {
	Convey("Given a garage with 15000 and one free slot", t, func() {
		g := garage.New(garage.WithSlots(5))

		Convey("When buying the Thunder for 15000", func() {
			owned, err := g.Buy(mustFind(104).Car)

			Convey("Then the wallet should be emptied and the car owned", func() {
				So(err, ShouldBeNil)
				So(owned.Name, ShouldEqual, "Thunder")
				So(g.Balance().IsZero(), ShouldBeTrue)
				So(g.View().Used, ShouldEqual, 5)
			})

			Convey("Then buying it again should fail as already owned", func() {
				_, err := g.Buy(mustFind(104).Car)
				So(errors.Is(err, garage.ErrAlreadyOwned), ShouldBeTrue)
			})

			Convey("Then the next purchase should fail as the garage is full", func() {
				_, err := g.Buy(mustFind(101).Car)
				So(errors.Is(err, garage.ErrGarageFull), ShouldBeTrue)
			})
		})

		Convey("When buying the Shadow for 20000", func() {
			_, err := g.Buy(mustFind(105).Car)

			Convey("Then it should be refused and nothing should change", func() {
				So(errors.Is(err, garage.ErrInsufficientFunds), ShouldBeTrue)
				So(g.Balance().Equal(decimal.NewFromInt(15000)), ShouldBeTrue)
				_, err := g.Owned(105)
				So(errors.Is(err, garage.ErrCarNotOwned), ShouldBeTrue)
			})
		})
	})

	Convey("Given concurrent buyers of the same car", t, func() {
		g := garage.New()
		speedster := mustFind(101).Car
		var wg sync.WaitGroup
		var mu sync.Mutex
		successes := 0
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := g.Buy(speedster); err == nil {
					mu.Lock()
					successes++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		Convey("Then only one purchase should go through", func() {
			So(successes, ShouldEqual, 1)
			So(g.Balance().Equal(decimal.NewFromInt(10000)), ShouldBeTrue)
		})
	})
}

func TestGarage_Customize(t *testing.T) {
	Convey("Given a default garage", t, func() {
		g := garage.New()

		Convey("When renaming an owned car", func() {
			owned, err := g.Rename(2, "  Bolt  ")

			Convey("Then the nickname should be trimmed and used on track", func() {
				So(err, ShouldBeNil)
				So(owned.Nickname, ShouldEqual, "Bolt")
				So(owned.RacingCar().Name, ShouldEqual, "Bolt")
				So(owned.RacingCar().ID, ShouldEqual, 2)
			})

			Convey("Then an empty rename should restore the catalog name", func() {
				owned, err := g.Rename(2, "")
				So(err, ShouldBeNil)
				So(owned.RacingCar().Name, ShouldEqual, "Blue Lightning")
			})
		})

		Convey("When customizing with bad input", func() {
			_, err := g.Rename(2, strings.Repeat("x", 25))
			So(errors.Is(err, garage.ErrInvalidCustomization), ShouldBeTrue)
			_, err = g.SetDecal(2, strings.Repeat("x", 33))
			So(errors.Is(err, garage.ErrInvalidCustomization), ShouldBeTrue)
			_, err = g.SetDecal(105, "flames")
			So(errors.Is(err, garage.ErrCarNotOwned), ShouldBeTrue)
		})

		Convey("When setting a decal", func() {
			owned, err := g.SetDecal(1, "flames")
			So(err, ShouldBeNil)
			So(owned.Decal, ShouldEqual, "flames")
		})
	})
}

func TestGarage_SlotsAndCredit(t *testing.T) {
	Convey("Given a garage with 3000 and slot price 2500", t, func() {
		g := garage.New(garage.WithStartingBalance(decimal.NewFromInt(3000)), garage.WithSlotPrice(decimal.NewFromInt(2500)))

		Convey("Then one slot can be bought and the second is refused", func() {
			slots, err := g.BuySlot()
			So(err, ShouldBeNil)
			So(slots, ShouldEqual, garage.DefaultSlots+1)
			_, err = g.BuySlot()
			So(errors.Is(err, garage.ErrInsufficientFunds), ShouldBeTrue)
			So(g.Balance().Equal(decimal.NewFromInt(500)), ShouldBeTrue)
		})

		Convey("Then credits should only add positive amounts", func() {
			So(g.Credit(decimal.NewFromInt(10000)).Equal(decimal.NewFromInt(13000)), ShouldBeTrue)
			So(g.Credit(decimal.NewFromInt(-5)).Equal(decimal.NewFromInt(13000)), ShouldBeTrue)
		})
	})
}
