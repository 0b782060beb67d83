package engine

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an engine failure so the transport layer can map it to a
// status code.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindUnauthorized
	KindForbidden
	KindValidation
	KindStorage
)

// Error is the failure type returned by every engine operation.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func notFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func unauthorized(format string, args ...interface{}) *Error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func forbidden(format string, args ...interface{}) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func storage(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindStorage, Message: fmt.Sprintf(format, args...), Err: err}
}

// lookupErr translates an entity-store lookup failure.
func lookupErr(err error, what string) *Error {
	if errors.Is(err, ErrNotFound) {
		return notFound("%s not found", what)
	}
	return storage(err, "error loading %s", what)
}

// KindOf returns the classification of err, or 0 for non-engine errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// HTTPStatus maps an engine error to the status code the transport responds
// with. Validation failures map to 500; clients treat them as generic write
// failures.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
