package store

import "errors"

// Common store errors that can be tested for
var (
	ErrAccountNotFound = errors.New("linked account not found")
)
