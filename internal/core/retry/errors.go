package retry

import (
	"errors"
	"fmt"
)

var (
	// ErrExhausted is matched by errors returned after the retry budget ran out.
	ErrExhausted = errors.New("retry budget exhausted")

	// ErrCancelled is matched by errors returned when the context ended
	// before the operation succeeded.
	ErrCancelled = errors.New("retry cancelled")
)

// ExhaustedError reports the last failure of an operation that ran out of retries.
type ExhaustedError struct {
	Operation string
	Attempts  int
	Err       error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: %s after %d attempts: %v", e.Operation, ErrExhausted, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrExhausted
}

// CancelledError reports that waiting for the next attempt was interrupted.
// It carries the context error, never the operation's own failure.
type CancelledError struct {
	Operation string
	Attempts  int
	Cause     error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("%s: %s after %d attempts: %v", e.Operation, ErrCancelled, e.Attempts, e.Cause)
}

func (e *CancelledError) Unwrap() error {
	return e.Cause
}

func (e *CancelledError) Is(target error) bool {
	return target == ErrCancelled
}

// IsTerminal reports whether err ended a retry loop, either by exhaustion or cancellation.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrExhausted) || errors.Is(err, ErrCancelled)
}
