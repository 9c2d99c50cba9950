package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("session not found")
	ErrAlreadyExists = errors.New("session already exists")
	ErrLimitReached  = errors.New("session limit reached")
)
