package statex

import (
	"errors"
	"fmt"
)

// ErrEntryNotFound indicates that the requested key was not found in a store.
type ErrEntryNotFound struct{}

func (e *ErrEntryNotFound) Error() string {
	return "entry not found"
}

// IsErrEntryNotFound checks if the error is an ErrEntryNotFound
func IsErrEntryNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *ErrEntryNotFound
	return errors.As(err, &e)
}

// ErrDuplicateOperation signals that an intent was skipped because an
// operation for the same key is already in flight. It is an intentional
// no-op marker, not a failure: callers use it to suppress redundant UI
// feedback, never to surface an error state.
type ErrDuplicateOperation struct {
	Key string
}

func (e *ErrDuplicateOperation) Error() string {
	return fmt.Sprintf("operation already in flight for key: %s", e.Key)
}

// IsErrDuplicateOperation checks if the error is an ErrDuplicateOperation
func IsErrDuplicateOperation(err error) bool {
	if err == nil {
		return false
	}
	var e *ErrDuplicateOperation
	return errors.As(err, &e)
}

// ErrStaleData indicates that the cache was consulted, no usable entry was
// present, and the caller disallowed a network fetch.
type ErrStaleData struct {
	Key string
}

func (e *ErrStaleData) Error() string {
	return fmt.Sprintf("no usable cached data for key: %s", e.Key)
}

// IsErrStaleData checks if the error is an ErrStaleData
func IsErrStaleData(err error) bool {
	if err == nil {
		return false
	}
	var e *ErrStaleData
	return errors.As(err, &e)
}
