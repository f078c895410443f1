package jobs

import (
	"errors"
	"fmt"
)

// Error kinds returned by Service. Match them with errors.Is.
var (
	// ErrValidation means the input was malformed or a precondition on it failed.
	ErrValidation = errors.New("validation failed")
	// ErrConflict means the operation would break a concurrency invariant.
	ErrConflict = errors.New("conflict")
	// ErrInvalidState means the operation is not allowed in the job's current status.
	ErrInvalidState = errors.New("invalid job state")
	// ErrNotFound means the job or work session does not exist.
	ErrNotFound = errors.New("not found")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func invalidStatef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
