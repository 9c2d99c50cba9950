package model

import "errors"

// Sentinel kinds for model errors.
var (
	// ErrInvariant marks a programming defect such as a malformed roster.
	ErrInvariant = errors.New("race invariant violated")
)
