// Package errs defines the typed error kinds the draft predictor core
// propagates to its callers. The HTTP surface (an external collaborator)
// is responsible for mapping a Kind to a status code.
package errs

import (
	"errors"
	"fmt"
)

// Kind is a stable tag identifying a class of failure. Callers should switch
// on Kind, never on the error string.
type Kind string

const (
	InvalidRequest        Kind = "InvalidRequest"
	NoModelAvailable      Kind = "NoModelAvailable"
	NoAssetsAvailable     Kind = "NoAssetsAvailable"
	ArtifactLoadFailed    Kind = "ArtifactLoadFailed"
	FeatureVersionMismatch Kind = "FeatureVersionMismatch"
	DeadlineExceeded      Kind = "DeadlineExceeded"
	Internal              Kind = "Internal"
)

// Error is the single error type used across the core. It carries a stable
// Kind, a correlation id for log joining, and an optional wrapped cause.
type Error struct {
	Kind          Kind
	Message       string
	CorrelationID string
	Cause         error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error of the given kind.
func New(kind Kind, correlationID, message string) *Error {
	return &Error{Kind: kind, Message: message, CorrelationID: correlationID}
}

// Wrap builds an Error of the given kind around an existing cause.
func Wrap(kind Kind, correlationID, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, CorrelationID: correlationID, Cause: cause}
}

// Is allows errors.Is(err, errs.InvalidRequest) style checks by kind. Note
// this compares only the Kind field, not the message or correlation id.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
