// Package verr defines the stable error taxonomy for the verification core.
// Every error crossing the dispatcher boundary carries a machine-readable
// kind and a caller-safe message; raw internal error text never escapes.
package verr

import (
	"errors"
	"fmt"
)

// Kind is a stable machine-readable error category
type Kind string

const (
	// KindValidation covers empty input, out-of-range thresholds and
	// unknown modes or formats. Never retried.
	KindValidation Kind = "ValidationError"
	// KindNotFound covers unresolvable file paths
	KindNotFound Kind = "NotFoundError"
	// KindTimeout covers agent work exceeding the configured deadline
	KindTimeout Kind = "TimeoutError"
	// KindProcessing covers unexpected internal analysis failures
	KindProcessing Kind = "ProcessingError"
)

// FieldIssue describes a single invalid field in a validation error
type FieldIssue struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// Error is a structured, caller-facing error
type Error struct {
	Kind    Kind         `json:"kind"`
	Message string       `json:"message"`
	Details []FieldIssue `json:"details,omitempty"`

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the internal cause for errors.Is/As chains. The cause is
// never serialized.
func (e *Error) Unwrap() error { return e.cause }

// Validation builds a ValidationError with optional field-level details.
func Validation(message string, details ...FieldIssue) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

// NotFound builds a NotFoundError.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Timeout builds a TimeoutError.
func Timeout(message string) *Error {
	return &Error{Kind: KindTimeout, Message: message}
}

// Processing builds a ProcessingError wrapping an internal cause.
func Processing(message string, cause error) *Error {
	return &Error{Kind: KindProcessing, Message: message, cause: cause}
}

// From coerces an arbitrary error into a structured Error. Unknown errors
// become ProcessingErrors with a generic message so internal detail stays
// inside the process.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var verr *Error
	if errors.As(err, &verr) {
		return verr
	}
	return Processing("internal analysis failure", err)
}

// KindOf returns the kind of an error, or empty for nil/unstructured errors.
func KindOf(err error) Kind {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Kind
	}
	return ""
}
