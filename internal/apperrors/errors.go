package apperrors

import (
	"errors"
	"fmt"
)

// Error kinds for the ledger core. Callers classify failures with
// errors.Is against these sentinels; messages carry the specifics.
var (
	// ErrValidation marks malformed input rejected before any mutation.
	ErrValidation = errors.New("validation error")
	// ErrConflict marks state conflicts: duplicates, illegal status
	// transitions, optimistic version mismatches. Refresh and retry.
	ErrConflict = errors.New("conflict")
	// ErrNotFound marks a missing account, entry or reconciliation.
	ErrNotFound = errors.New("not found")
	// ErrIntegrity marks a broken accounting invariant detected by an
	// explicit integrity check. Must never surface during posting.
	ErrIntegrity = errors.New("integrity violation")
)

func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func Conflictf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func Integrityf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrIntegrity, fmt.Sprintf(format, args...))
}
