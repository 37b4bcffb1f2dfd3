// Package apperr defines the error taxonomy shared by the pipeline, the API
// server and its collaborators.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an Error.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindNotFound        Kind = "not_found"
	KindPrecondition    Kind = "precondition"
	KindMediaExtraction Kind = "media_extraction"
	KindProvider        Kind = "provider"
	KindInternal        Kind = "internal"
)

// Sentinels for errors.Is. Any *Error of the same kind matches.
var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrPrecondition    = &Error{Kind: KindPrecondition}
	ErrMediaExtraction = &Error{Kind: KindMediaExtraction}
	ErrProvider        = &Error{Kind: KindProvider}
)

// Error is the application error type.
type Error struct {
	Kind    Kind
	Message string
	// Details carries structured context such as the offending field.
	Details map[string]any
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// WithDetail sets a single detail key and returns the receiver.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func NotFound(resource, id string) *Error {
	return (&Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}).WithDetail("id", id)
}

func Precondition(message string) *Error {
	return &Error{Kind: KindPrecondition, Message: message}
}

func MediaExtraction(message string, cause error) *Error {
	return &Error{Kind: KindMediaExtraction, Message: message, Cause: cause}
}

// Provider wraps a failure reported by an external transcription or
// completion backend.
func Provider(service string, cause error) *Error {
	return (&Error{
		Kind:    KindProvider,
		Message: fmt.Sprintf("%s request failed", service),
		Cause:   cause,
	}).WithDetail("service", service)
}

func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the client-facing message of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "internal error"
}

// HTTPStatus maps err to the status code the API responds with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindPrecondition:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindMediaExtraction:
		return http.StatusUnprocessableEntity
	case KindProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
