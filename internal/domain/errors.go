package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency. The storage layer
// returns them directly; the conversation driver maps them to failure kinds.

var (
	// Task errors
	ErrTaskNotFound   = errors.New("task not found")
	ErrAlreadyDeleted = errors.New("task is already deleted")
	ErrTaskClosed     = errors.New("task is completed or deleted")
	ErrInvalidField   = errors.New("update field is not in the allow-list")

	// TechnicalTask errors
	ErrSpecNotFound = errors.New("technical task not found")
	ErrSpecExists   = errors.New("technical task already exists for this task")
	ErrSpecTaken    = errors.New("technical task is not available for claim")
	ErrNotHolder    = errors.New("caller does not hold this technical task")

	// Validation errors (recovered by re-prompting, never surfaced hard)
	ErrBadDescription = errors.New("description must be at least 10 characters")
	ErrBadContact     = errors.New("contact is neither an email nor a valid phone")
	ErrBadPayment     = errors.New("payment must be a positive integer")
)

// FailureFor maps an engine error to the failure kind surfaced to the user.
func FailureFor(err error) FailureKind {
	switch {
	case errors.Is(err, ErrTaskNotFound), errors.Is(err, ErrSpecNotFound):
		return FailureNotFound
	case errors.Is(err, ErrSpecExists):
		return FailureDuplicate
	case errors.Is(err, ErrSpecTaken):
		return FailureUnavailable
	case errors.Is(err, ErrNotHolder), errors.Is(err, ErrInvalidField), errors.Is(err, ErrTaskClosed):
		return FailureForbidden
	case errors.Is(err, ErrAlreadyDeleted):
		return FailureAlreadyDeleted
	}
	return FailureStorage
}
