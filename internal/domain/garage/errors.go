package garage

import "errors"

// Sentinel errors for garage operations.
var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrAlreadyOwned         = errors.New("car already owned")
	ErrGarageFull           = errors.New("garage is full")
	ErrCarNotOwned          = errors.New("car not owned")
	ErrInvalidCustomization = errors.New("invalid customization")
)
