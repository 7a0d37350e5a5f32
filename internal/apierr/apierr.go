// Package apierr defines the registry error taxonomy shared by the HTTP
// handlers, the registry client, and the sync engine.
//
// Every boundary-facing failure is one of a closed set of kinds. Kinds map to
// HTTP status codes in both directions so errors survive a round trip through
// the wire without leaking internal detail beyond a human-readable message.
package apierr

import (
	"errors"
	"net/http"
)

// Kind classifies an error.
type Kind int

const (
	// KindInternal is an unexpected failure. It is the zero value.
	KindInternal Kind = iota
	// KindValidation is a malformed hash, slug, or payload. Never retried.
	KindValidation
	// KindAuth is a missing or invalid credential. Never retried.
	KindAuth
	// KindNotFound is an unknown slug or missing content. A normal outcome.
	KindNotFound
	// KindPublish is a registry-side business rule rejection.
	KindPublish
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindPublish:
		return "publish"
	default:
		return "internal"
	}
}

// Sentinels for errors.Is matching against a kind.
var (
	ErrValidation = &Error{Kind: KindValidation, Message: "validation error"}
	ErrAuth       = &Error{Kind: KindAuth, Message: "unauthorized"}
	ErrNotFound   = &Error{Kind: KindNotFound, Message: "not found"}
	ErrPublish    = &Error{Kind: KindPublish, Message: "publish rejected"}
)

// Error is a classified error with a message safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrAuth) works
// regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Validation returns a validation error with the given message.
func Validation(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

// Auth returns an auth error with the given message.
func Auth(message string) error {
	return &Error{Kind: KindAuth, Message: message}
}

// NotFound returns a not-found error with the given message.
func NotFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Publish returns a publish rejection with the given message.
func Publish(message string) error {
	return &Error{Kind: KindPublish, Message: message}
}

// Wrap classifies err under kind, keeping err as the cause.
// If err is nil, Wrap returns nil.
func Wrap(kind Kind, message string, err error) error {
	if err == nil {
		return nil
	}
	if message == "" {
		message = err.Error()
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Status maps err to the HTTP status a boundary handler should return.
func Status(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch KindOf(err) {
	case KindValidation, KindPublish:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-safe message for err. Internal errors are
// reduced to a generic message.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal error"
}

// FromStatus rebuilds a classified error from an HTTP response. A 400 from a
// mutation endpoint is a publish rejection; elsewhere it is a validation error.
func FromStatus(code int, message string, mutation bool) error {
	if message == "" {
		message = http.StatusText(code)
	}
	switch {
	case code == http.StatusBadRequest && mutation:
		return Publish(message)
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return Validation(message)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return Auth(message)
	case code == http.StatusNotFound:
		return NotFound(message)
	default:
		return &Error{Kind: KindInternal, Message: message}
	}
}
