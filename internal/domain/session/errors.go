package session

import "errors"

// Sentinel errors for rejected commands. None of them change state.
var (
	ErrNoCarSelected     = errors.New("choose a car before starting the race")
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrNotRacing         = errors.New("session is not racing")
	ErrResultsNotReady   = errors.New("race results are not available yet")
)
