package catalog

import "errors"

// ErrUnknownCar is returned when a car id is not in the catalog.
var ErrUnknownCar = errors.New("unknown car")
