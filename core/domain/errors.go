package domain

import "errors"

var (
	// ErrNotFound is returned by registry reads when the key is absent.
	ErrNotFound = errors.New("key not found")
)
