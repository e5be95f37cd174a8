package carrier

import (
	"errors"
	"fmt"
)

// Kind classifies orchestrator errors for propagation and HTTP mapping.
type Kind string

const (
	// KindAuthentication indicates the carrier rejected our credentials or
	// no valid token could be obtained. Fatal for the request, never
	// retried locally.
	KindAuthentication Kind = "authentication"

	// KindValidation indicates missing or malformed caller input. Surfaced
	// before any network call is attempted.
	KindValidation Kind = "validation"

	// KindCarrier indicates the carrier API was reachable but responded
	// with a failure. The carrier's message is preserved verbatim.
	KindCarrier Kind = "carrier"

	// KindNotFound indicates a referenced seller or location does not
	// exist locally.
	KindNotFound Kind = "not_found"
)

// Error is the typed error carried across all orchestrator components.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int // HTTP status from the carrier, when applicable
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// WithStatusCode records the carrier's HTTP status code.
func (e *Error) WithStatusCode(code int) *Error {
	e.StatusCode = code
	return e
}

// NewAuthenticationError creates an authentication error.
func NewAuthenticationError(message string) *Error {
	return &Error{Kind: KindAuthentication, Message: message}
}

// NewValidationError creates a validation error.
func NewValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewCarrierError creates a carrier error carrying the carrier's message.
func NewCarrierError(message string) *Error {
	return &Error{Kind: KindCarrier, Message: message}
}

// NewNotFoundError creates a not-found error.
func NewNotFoundError(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or an empty Kind for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// IsAuthentication reports whether err is an authentication error.
func IsAuthentication(err error) bool {
	return KindOf(err) == KindAuthentication
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsCarrier reports whether err is a carrier-side error.
func IsCarrier(err error) bool {
	return KindOf(err) == KindCarrier
}
