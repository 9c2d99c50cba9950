package worker

import "errors"

// Sentinel kinds for runner errors.
var (
	ErrStopped        = errors.New("session runner stopped")
	ErrBusy           = errors.New("session command queue is full")
	ErrUnknownCommand = errors.New("unknown command")
)
