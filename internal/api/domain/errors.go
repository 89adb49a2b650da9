package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies submission and query failures so handlers can map
// them to transport-level responses without string matching.
type ErrorKind string

const (
	KindValidation         ErrorKind = "VALIDATION_ERROR"
	KindQuotaExceeded      ErrorKind = "QUOTA_EXCEEDED"
	KindNotFound           ErrorKind = "NOT_FOUND"
	KindStorageFailure     ErrorKind = "STORAGE_FAILURE"
	KindPersistenceFailure ErrorKind = "PERSISTENCE_FAILURE"
	KindDispatchFailure    ErrorKind = "DISPATCH_FAILURE"
	KindServiceUnavailable ErrorKind = "SERVICE_UNAVAILABLE"
)

// Error carries a machine-readable kind alongside a human-readable message.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a kinded error without an underlying cause.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError creates a kinded error wrapping an underlying cause.
func WrapError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from err, or empty string if err is not kinded.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
