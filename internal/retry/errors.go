package retry

import (
	"errors"
	"fmt"
)

// Retry errors
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrRetriesExhausted = errors.New("retries exhausted")
	ErrCancelled        = errors.New("retry cancelled")
)

// RetriesExhaustedError is returned by Execute when every attempt failed.
// It wraps the error of the final attempt.
type RetriesExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("%s after %d attempts: %v", ErrRetriesExhausted, e.Attempts, e.Err)
}

func (e *RetriesExhaustedError) Unwrap() error {
	return e.Err
}

// Is reports a match against ErrRetriesExhausted so callers can use errors.Is
// without caring about the attempt count.
func (e *RetriesExhaustedError) Is(target error) bool {
	return target == ErrRetriesExhausted
}
