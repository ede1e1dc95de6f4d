package pool

import (
	"errors"
	"fmt"
)

var (
	// ErrNoConnection is returned when no connection could be acquired.
	ErrNoConnection = errors.New("pool: no connection available")

	// ErrLeaseReleased is returned when a released lease is used.
	ErrLeaseReleased = errors.New("pool: lease already released")

	// ErrProbeFailed marks a connection that failed its liveness probe.
	ErrProbeFailed = errors.New("pool: liveness probe failed")
)

// AcquireError describes a failed acquisition.
type AcquireError struct {
	// Attempts is the number of connection attempts made.
	Attempts int

	// Class is the classification of the last failure.
	Class FailureClass

	// Cause is the last underlying error.
	Cause error
}

// Error implements the error interface.
func (e *AcquireError) Error() string {
	return fmt.Sprintf("%v after %d attempt(s) (%s): %v", ErrNoConnection, e.Attempts, e.Class, e.Cause)
}

// Unwrap returns ErrNoConnection and the underlying cause.
func (e *AcquireError) Unwrap() []error {
	return []error{ErrNoConnection, e.Cause}
}
