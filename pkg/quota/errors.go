package quota

import (
	"errors"
	"fmt"
)

// ErrStoreUnavailable is the sentinel for counter-store failures.
// All *StoreError values unwrap to it.
var ErrStoreUnavailable = errors.New("quota store unavailable")

// StoreError reports a failure of the counter store during a ledger
// operation. The admission gate converts these to deny decisions;
// quota'd access must never be granted on an ambiguous store state.
type StoreError struct {
	Backend   string // "sqlite", "redis", "memory"
	Operation string // "check_and_increment", "count"
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("quota store error [backend=%s, operation=%s]: %v",
		e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// Is reports ErrStoreUnavailable as a match so callers can test with
// errors.Is without knowing the backend.
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// NewStoreError creates a new StoreError.
func NewStoreError(backend, operation string, cause error) *StoreError {
	return &StoreError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}
