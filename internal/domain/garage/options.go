package garage

import "github.com/shopspring/decimal"

// Option applies a configuration option to the Garage.
type Option func(*Garage)

// WithStartingBalance sets the opening wallet balance.
func WithStartingBalance(amount decimal.Decimal) Option {
	return func(g *Garage) {
		if !amount.IsNegative() {
			g.balance = amount
		}
	}
}

// WithSlots sets how many cars fit in the garage, starters included.
func WithSlots(n int) Option {
	return func(g *Garage) {
		if n > 0 {
			g.slots = n
		}
	}
}

// WithSlotPrice sets the price of one extra slot.
func WithSlotPrice(amount decimal.Decimal) Option {
	return func(g *Garage) {
		if !amount.IsNegative() {
			g.slotPrice = amount
		}
	}
}
