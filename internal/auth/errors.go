// Package auth implements the identity and session layer: credential
// verification, dual-token issuance and rotation, identity resolution
// through the write-through cache, and the one-way role transition.
package auth

import (
	"errors"
	"fmt"
	"strings"
)

// The error taxonomy surfaced to the transport layer. Everything a
// handler needs to pick a status code is expressed through these
// sentinels; raw store and crypto errors stay wrapped underneath and
// are never shown to clients.
var (
	// ErrUnauthenticated covers missing/expired/invalid/reused tokens,
	// unknown principals and corrupted role data. Always a 401 at the
	// boundary; no partial identity is ever returned alongside it.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrValidation marks client input rejected before any state change.
	ErrValidation = errors.New("validation")

	// ErrConflict marks uniqueness violations (duplicate email).
	ErrConflict = errors.New("conflict")

	// ErrDependency marks store or cache infrastructure failures on the
	// critical path. Surfaced as a 5xx, never mistaken for 401.
	ErrDependency = errors.New("dependency failure")
)

// validationf wraps ErrValidation with a client-safe message.
func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// conflictf wraps ErrConflict with a client-safe message.
func conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// dependency wraps an infrastructure error. The underlying error is
// kept for logs, the sentinel for status mapping.
func dependency(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrDependency, op, err)
}

// UserMessage returns the part of a taxonomy error that is safe to
// show to a client. Dependency errors collapse to a generic message.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrDependency):
		return "service temporarily unavailable"
	case errors.Is(err, ErrValidation):
		return strings.TrimPrefix(err.Error(), ErrValidation.Error()+": ")
	case errors.Is(err, ErrConflict):
		return strings.TrimPrefix(err.Error(), ErrConflict.Error()+": ")
	}
	return "internal error"
}
