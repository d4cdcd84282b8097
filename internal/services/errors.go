package services

import "fmt"

// PolicyViolationError marks an operation rejected by library policy,
// e.g. a borrowing limit or extension rule. Recoverable; the handler
// surfaces the reason to the user.
type PolicyViolationError struct {
	Reason string
}

func (e *PolicyViolationError) Error() string { return e.Reason }

// PolicyViolation builds a PolicyViolationError with a formatted reason
func PolicyViolation(format string, args ...interface{}) error {
	return &PolicyViolationError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError marks a missing referenced record
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// NotFound builds a NotFoundError for the named resource
func NotFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

// StateConflictError marks an operation invalid for the record's current
// state, e.g. returning a loan that is not borrowed or reserving a book
// the user is already queued for.
type StateConflictError struct {
	Reason string
}

func (e *StateConflictError) Error() string { return e.Reason }

// StateConflict builds a StateConflictError with a formatted reason
func StateConflict(format string, args ...interface{}) error {
	return &StateConflictError{Reason: fmt.Sprintf(format, args...)}
}
