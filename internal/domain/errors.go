package domain

import (
	"errors"
	"fmt"
)

// ErrStoreUnavailable means the persistence boundary cannot be
// reached at all.
var ErrStoreUnavailable = errors.New("store unavailable")

// ErrNotFound is returned by the store when an id does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError rejects bad input before any store dispatch; it
// never round-trips to the store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StoreError wraps a dispatched command that was rejected or failed.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
