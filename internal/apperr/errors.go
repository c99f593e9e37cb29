// Package apperr defines the error kinds shared by the store layer and the
// HTTP handlers. Stores return *Error values; the handlers package maps the
// kind to a status code in one place.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for translation at the HTTP edge.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindInvalidCredentials
	KindUnauthorized
	KindNotFound
	KindConflict
)

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindBadRequest, KindInvalidCredentials:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is an error with a kind and a client-safe message.
type Error struct {
	Kind    Kind
	Message string
	// Fields carries per-field validation details for KindBadRequest.
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind, so sentinel values such as
// ErrUnauthorized work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials, Message: "invalid credentials"}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized, Message: "unauthorized"}
	ErrNotFound           = &Error{Kind: KindNotFound, Message: "not found"}
)

// New returns an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap returns an error of the given kind carrying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// NotFound returns a KindNotFound error with a specific message.
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// Validation returns a KindBadRequest error with field details.
func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindBadRequest, Message: "validation failed", Fields: fields}
}

// KindOf reports the kind of err. Errors without a kind are KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
