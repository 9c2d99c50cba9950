// Package garage keeps a player's wallet and owned cars.
package garage

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/okian/pixelrace/internal/domain/catalog"
	"github.com/okian/pixelrace/internal/domain/model"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Default garage constants.
const (
	DefaultStartingBalance = 15000
	DefaultSlots           = 6
	DefaultSlotPrice       = 2500
	maxNameLength          = 24
	maxDecalLength         = 32
)

// OwnedCar is a car in the garage with its cosmetic customization.
type OwnedCar struct {
	model.Car
	Nickname string `json:"nickname,omitempty"`
	Decal    string `json:"decal,omitempty"`
}

// RacingCar returns the car as it appears on track: the nickname, when
// set, replaces the catalog name.
func (o OwnedCar) RacingCar() model.Car {
	car := o.Car
	if o.Nickname != "" {
		car.Name = o.Nickname
	}
	return car
}

// View is a point-in-time copy of the garage.
type View struct {
	Balance decimal.Decimal `json:"balance"`
	Slots   int             `json:"slots"`
	Used    int             `json:"used"`
	Cars    []OwnedCar      `json:"cars"`
}

// Garage is safe for concurrent use.
type Garage struct {
	mu        sync.Mutex
	balance   decimal.Decimal
	slots     int
	slotPrice decimal.Decimal
	cars      []OwnedCar
}

// New creates a garage holding the starter cars.
func New(opts ...Option) *Garage {
	g := &Garage{
		balance:   decimal.NewFromInt(DefaultStartingBalance),
		slots:     DefaultSlots,
		slotPrice: decimal.NewFromInt(DefaultSlotPrice),
	}
	for _, opt := range opts {
		opt(g)
	}
	for _, c := range catalog.Starters() {
		g.cars = append(g.cars, OwnedCar{Car: c})
	}
	if g.slots < len(g.cars) {
		g.slots = len(g.cars)
	}
	return g
}

// find must be called with g.mu held.
func (g *Garage) find(id int) (int, bool) {
	_, idx, ok := lo.FindIndexOf(g.cars, func(o OwnedCar) bool { return o.ID == id })
	return idx, ok
}

// Balance returns the wallet balance.
func (g *Garage) Balance() decimal.Decimal {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.balance
}

// Owned returns an owned car.
func (g *Garage) Owned(id int) (OwnedCar, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx, ok := g.find(id)
	if !ok {
		return OwnedCar{}, fmt.Errorf("car %d: %w", id, ErrCarNotOwned)
	}
	return g.cars[idx], nil
}

// Buy pays for a catalog car and parks it in the garage.
func (g *Garage) Buy(car model.Car) (OwnedCar, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.find(car.ID); ok {
		return OwnedCar{}, fmt.Errorf("car %d: %w", car.ID, ErrAlreadyOwned)
	}
	if len(g.cars) >= g.slots {
		return OwnedCar{}, fmt.Errorf("%d of %d slots used: %w", len(g.cars), g.slots, ErrGarageFull)
	}
	if g.balance.LessThan(car.Price) {
		return OwnedCar{}, fmt.Errorf("balance %s, price %s: %w", g.balance, car.Price, ErrInsufficientFunds)
	}

	g.balance = g.balance.Sub(car.Price)
	owned := OwnedCar{Car: car}
	g.cars = append(g.cars, owned)
	return owned, nil
}

// BuySlot pays for one more parking slot and returns the new slot count.
func (g *Garage) BuySlot() (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.balance.LessThan(g.slotPrice) {
		return g.slots, fmt.Errorf("balance %s, slot price %s: %w", g.balance, g.slotPrice, ErrInsufficientFunds)
	}
	g.balance = g.balance.Sub(g.slotPrice)
	g.slots++
	return g.slots, nil
}

// Rename sets the nickname of an owned car. An empty name restores the
// catalog name.
func (g *Garage) Rename(id int, name string) (OwnedCar, error) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > maxNameLength {
		return OwnedCar{}, fmt.Errorf("name longer than %d: %w", maxNameLength, ErrInvalidCustomization)
	}
	return g.customize(id, func(o *OwnedCar) { o.Nickname = name })
}

// SetDecal sets the custom decal of an owned car.
func (g *Garage) SetDecal(id int, decal string) (OwnedCar, error) {
	decal = strings.TrimSpace(decal)
	if utf8.RuneCountInString(decal) > maxDecalLength {
		return OwnedCar{}, fmt.Errorf("decal longer than %d: %w", maxDecalLength, ErrInvalidCustomization)
	}
	return g.customize(id, func(o *OwnedCar) { o.Decal = decal })
}

func (g *Garage) customize(id int, apply func(*OwnedCar)) (OwnedCar, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx, ok := g.find(id)
	if !ok {
		return OwnedCar{}, fmt.Errorf("car %d: %w", id, ErrCarNotOwned)
	}
	apply(&g.cars[idx])
	return g.cars[idx], nil
}

// Credit adds winnings to the wallet. Non-positive amounts are ignored.
func (g *Garage) Credit(amount decimal.Decimal) decimal.Decimal {
	g.mu.Lock()
	defer g.mu.Unlock()
	if amount.IsPositive() {
		g.balance = g.balance.Add(amount)
	}
	return g.balance
}

// View returns a copy of the garage.
func (g *Garage) View() View {
	g.mu.Lock()
	defer g.mu.Unlock()
	return View{
		Balance: g.balance,
		Slots:   g.slots,
		Used:    len(g.cars),
		Cars:    append([]OwnedCar(nil), g.cars...),
	}
}
