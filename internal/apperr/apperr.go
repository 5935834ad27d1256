// Package apperr defines the structured error taxonomy shared by the
// docstore, storage, identity, and service layers. Every failure that
// crosses a facade boundary is an *apperr.Error carrying a Kind; callers
// branch on kinds with KindOf/IsKind instead of string matching.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure condition.
type Kind string

const (
	// Unknown is the fallback for unclassified failures.
	Unknown Kind = "unknown"

	// Store failures.
	RemoteUnavailable Kind = "remote_unavailable"
	NotFound          Kind = "not_found"
	PermissionDenied  Kind = "permission_denied"
	Decode            Kind = "decode"

	// Identity failures.
	InvalidCredential Kind = "invalid_credential"
	EmailInUse        Kind = "email_in_use"
	WeakPassword      Kind = "weak_password"
	NotConfigured     Kind = "not_configured"

	// Blob storage failures.
	UploadFailed Kind = "upload_failed"

	// Request validation failures.
	InvalidArgument Kind = "invalid_argument"
)

// Error is a classified failure with a human-readable message and an
// optional wrapped cause.
type Error struct {
	Kind    Kind
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

// New creates a classified error without a cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a classified error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error. A nil cause yields a nil error
// so call sites can wrap unconditionally; the return type is error, not
// *Error, precisely so the nil is not a typed nil.
func Wrap(kind Kind, message string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// IsKind reports whether err's chain contains an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Message returns the user-facing message of err if it is classified,
// falling back to a generic description.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "something went wrong, please try again"
}
