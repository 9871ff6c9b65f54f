package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for errors.Is() checking.
var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation error")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")

	// ErrUnauthenticated is returned when the identity provider rejects the
	// service's credentials.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Event distribution errors.
var (
	// ErrUnknownDomain marks an event whose domainType is not one of the
	// five known domains. Such events are dropped, never applied.
	ErrUnknownDomain = errors.New("unknown domain")

	// ErrUnknownKind marks an event whose eventKind has no mutation in the
	// receiving store.
	ErrUnknownKind = errors.New("unknown event kind")

	// ErrDomainMismatch is returned when an event is applied to a store that
	// owns a different domain.
	ErrDomainMismatch = errors.New("event domain does not match store")

	// ErrDuplicateListener is returned when more than one listener is bound
	// to the same domain in a single subscription.
	ErrDuplicateListener = errors.New("duplicate listener for domain")

	// ErrAlreadyInitialized is returned when listeners are initialized twice
	// without an intervening teardown.
	ErrAlreadyInitialized = errors.New("listeners already initialized")

	// ErrSessionPending is returned when listeners are initialized before the
	// session has reached a terminal status.
	ErrSessionPending = errors.New("session still pending")
)

// Validation messages shared by entity validators.
const (
	MsgRequired = "required"
)

// ValidationError provides programmatic access to field-level validation failures.
// Use errors.Is(err, ErrValidation) for simple checks, or errors.As(err, &verr) to
// access verr.Fields for per-field error details.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	sort.Strings(parts)
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
