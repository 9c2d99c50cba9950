// Package session is the race state machine: Selection, Racing, Results.
package session

import "fmt"

// State is the phase of one play-through.
type State int

// Session states.
const (
	Selection State = iota
	Racing
	Results
)

func (s State) String() string {
	switch s {
	case Selection:
		return "selection"
	case Racing:
		return "racing"
	case Results:
		return "results"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText renders the state by name in JSON payloads.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name.
func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "selection":
		*s = Selection
	case "racing":
		*s = Racing
	case "results":
		*s = Results
	default:
		return fmt.Errorf("unknown session state %q", b)
	}
	return nil
}
