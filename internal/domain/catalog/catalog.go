// Package catalog holds the static car list and the opponent roster.
package catalog

import (
	"fmt"

	"github.com/okian/pixelrace/internal/domain/model"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Player racer placement constants.
const (
	PlayerRacerID = 0
	PlayerLane    = 3
)

var starterCars = []model.Car{ //nolint:gochecknoglobals // static catalog
	{ID: 1, Name: "Red Fury", Color: "red", Speed: 6, Acceleration: 9, Description: "Classic red racer with balanced performance"},
	{ID: 2, Name: "Blue Lightning", Color: "blue", Speed: 6, Acceleration: 9, Description: "Sleek blue racer with high top speed"},
	{ID: 3, Name: "Green Beast", Color: "green", Speed: 6, Acceleration: 9, Description: "Eco-friendly racer with quick acceleration"},
	{ID: 4, Name: "Yellow Bullet", Color: "yellow", Speed: 6, Acceleration: 9, Description: "Bright yellow racer with extreme speed"},
}

var dealershipCars = []model.Car{ //nolint:gochecknoglobals // static catalog
	{ID: 101, Name: "Speedster", Color: "#FF5733", Speed: 6.2, Acceleration: 8, Description: "Entry level street machine", Price: decimal.NewFromInt(5000)},
	{ID: 102, Name: "Roadster", Color: "#33FF57", Speed: 6.4, Acceleration: 8, Description: "Open top with a light chassis", Price: decimal.NewFromInt(7000)},
	{ID: 103, Name: "Cruiser", Color: "#3357FF", Speed: 6.6, Acceleration: 9, Description: "Long wheelbase, steady at speed", Price: decimal.NewFromInt(10000)},
	{ID: 104, Name: "Thunder", Color: "#FFD700", Speed: 6.8, Acceleration: 9, Description: "Loud and fast off the line", Price: decimal.NewFromInt(15000)},
	{ID: 105, Name: "Shadow", Color: "#424242", Speed: 7, Acceleration: 10, Description: "Top of the range", Price: decimal.NewFromInt(20000)},
}

var opponents = []model.Racer{ //nolint:gochecknoglobals // static roster
	{ID: 1, Name: "Purple Racer", Color: "purple", Lane: 1, BaseSpeed: 3},
	{ID: 2, Name: "Pink Speedster", Color: "pink", Lane: 2, BaseSpeed: 4},
	{ID: 3, Name: "Orange Flash", Color: "orange", Lane: 4, BaseSpeed: 5},
	{ID: 4, Name: "Teal Tornado", Color: "teal", Lane: 5, BaseSpeed: 3},
	{ID: 5, Name: "Indigo Blaze", Color: "indigo", Lane: 6, BaseSpeed: 4},
	{ID: 6, Name: "Gray Ghost", Color: "gray", Lane: 7, BaseSpeed: 5},
}

// Starters returns the free cars every new garage owns.
func Starters() []model.Car {
	return append([]model.Car(nil), starterCars...)
}

// Dealership returns the cars that can be bought.
func Dealership() []model.Car {
	return append([]model.Car(nil), dealershipCars...)
}

// All returns starters followed by dealership cars.
func All() []model.Car {
	return append(Starters(), dealershipCars...)
}

// Find looks a car up by id.
func Find(id int) (model.Car, error) {
	car, ok := lo.Find(All(), func(c model.Car) bool { return c.ID == id })
	if !ok {
		return model.Car{}, fmt.Errorf("car %d: %w", id, ErrUnknownCar)
	}
	return car, nil
}

// Opponents returns a fresh copy of the AI roster at the start line.
func Opponents() []model.Racer {
	return append([]model.Racer(nil), opponents...)
}

// PlayerRacer builds the player's racer from the chosen car.
func PlayerRacer(car model.Car) model.Racer {
	return model.Racer{
		ID:        PlayerRacerID,
		Name:      car.Name,
		IsPlayer:  true,
		Color:     car.Color,
		Lane:      PlayerLane,
		BaseSpeed: car.Speed,
	}
}

// Roster returns the player followed by every opponent.
func Roster(car model.Car) []model.Racer {
	return append([]model.Racer{PlayerRacer(car)}, opponents...)
}
