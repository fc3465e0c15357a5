// Package apperr defines the failure taxonomy shared by every service
// operation. Each failure is a stable (kind, message) pair; the HTTP
// layer maps kinds to status codes and never inspects message text.
package apperr

import (
	"errors"
	"fmt"
)

// Kind tags an error with its failure class.
type Kind string

const (
	KindNotFound        Kind = "NOT_FOUND"
	KindForbidden       Kind = "FORBIDDEN"
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindInvalidStatus   Kind = "INVALID_STATUS"
	KindConflict        Kind = "CONFLICT"
	KindInternal        Kind = "INTERNAL"
)

// Error is a kind-tagged error. It may wrap an underlying cause.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a kind-tagged error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap tags an underlying error with a kind and message.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: err}
}

func NotFound(message string) *Error        { return New(KindNotFound, message) }
func Forbidden(message string) *Error       { return New(KindForbidden, message) }
func Unauthenticated(message string) *Error { return New(KindUnauthenticated, message) }
func InvalidStatus(message string) *Error   { return New(KindInvalidStatus, message) }
func Conflict(message string) *Error        { return New(KindConflict, message) }
func Internal(err error) *Error {
	return Wrap(err, KindInternal, "internal error")
}

// HasKind reports whether err carries the given kind.
func HasKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// KindOf returns the kind carried by err, or KindInternal when err is
// not kind-tagged.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
