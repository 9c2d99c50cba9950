package config

import "errors"

// Error kinds returned by Load and Validate.
var (
	// ErrInvalidConfig marks a value outside its accepted range.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig marks an unreadable file or an env value of the wrong type.
	ErrLoadConfig = errors.New("load config failed")
)
