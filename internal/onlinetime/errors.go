package onlinetime

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidThreshold is returned when the gap threshold is not positive.
	ErrInvalidThreshold = errors.New("onlinetime: gap threshold must be greater than zero")

	// ErrInvertedRange is returned when the start date is after the end date.
	ErrInvertedRange = errors.New("onlinetime: start date is after end date")

	// ErrFutureEndDate is returned when the end date is not in the past.
	ErrFutureEndDate = errors.New("onlinetime: end date must be before the current time")

	// ErrSubjectNotFound is returned when the identity resolver has no record
	// for the requested subject.
	ErrSubjectNotFound = errors.New("onlinetime: subject not found")

	// ErrCollaboratorFailure matches every *CollaboratorError.
	ErrCollaboratorFailure = errors.New("onlinetime: collaborator failure")
)

// Collaborator names used in CollaboratorError.
const (
	CollaboratorLogSource        = "log_source"
	CollaboratorIdentityResolver = "identity_resolver"
)

// CollaboratorError wraps a failure returned by the log source or the
// identity resolver.
type CollaboratorError struct {
	Collaborator string
	Day          time.Time // zero for identity resolution
	Err          error
}

func (e *CollaboratorError) Error() string {
	if e.Day.IsZero() {
		return fmt.Sprintf("%s failed: %v", e.Collaborator, e.Err)
	}
	return fmt.Sprintf("%s failed for %s: %v", e.Collaborator, e.Day.Format("2006-01-02"), e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrCollaboratorFailure.
func (e *CollaboratorError) Is(target error) bool {
	return target == ErrCollaboratorFailure
}

// IsValidationError reports whether err is one of the input validation kinds.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidThreshold) ||
		errors.Is(err, ErrInvertedRange) ||
		errors.Is(err, ErrFutureEndDate)
}
