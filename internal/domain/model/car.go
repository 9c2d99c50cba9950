// Package model contains domain models passed between layers.
package model

import "github.com/shopspring/decimal"

// Car is a selectable vehicle. Colors are cosmetic; Speed becomes the
// player's racer base speed. Acceleration is informational only.
type Car struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	Color        string          `json:"color"`
	Speed        float64         `json:"speed"`
	Acceleration float64         `json:"acceleration"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
}

// IsStarter reports whether the car is handed out for free.
func (c Car) IsStarter() bool {
	return c.Price.IsZero()
}
