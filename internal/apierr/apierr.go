package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidation      = "validation_failed"
	CodeUnauthenticated = "unauthenticated"
	CodeForbidden       = "forbidden"
	CodeNotFound        = "not_found"
	CodePrecondition    = "precondition_failed"
	CodeUpstream        = "upstream_failed"
)

// Error separates what clients may see from what operators need. Message
// is client-safe; Err carries the underlying cause for logs and errors.As
// chains and must never be rendered into a response body.
type Error struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		if e.Message != "" {
			return e.Message + ": " + e.Err.Error()
		}
		return e.Err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code, message string, err error) *Error {
	return &Error{Status: status, Code: code, Message: message, Err: err}
}

// Validation reports a missing or malformed request field by name.
func Validation(field string) *Error {
	return New(http.StatusBadRequest, CodeValidation, fmt.Sprintf("missing or invalid %s", field), nil)
}

func Unauthenticated() *Error {
	return New(http.StatusUnauthorized, CodeUnauthenticated, "unauthenticated", nil)
}

func Forbidden() *Error {
	return New(http.StatusForbidden, CodeForbidden, "forbidden", nil)
}

func NotFound(what string) *Error {
	return New(http.StatusNotFound, CodeNotFound, what+" not found", nil)
}

// Precondition covers targets that exist but cannot be acted on, e.g. a
// device row with no remote endpoint.
func Precondition(msg string) *Error {
	return New(http.StatusUnprocessableEntity, CodePrecondition, msg, nil)
}

// Upstream wraps a gateway or store failure. The cause stays on Err for
// logging; clients only ever see "<op> failed".
func Upstream(op string, err error) *Error {
	return New(http.StatusBadGateway, CodeUpstream, op+" failed", err)
}

func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// MessageOf returns the client-safe text for an error. Anything without an
// explicit safe message collapses to a generic answer so wrapped provider
// or store detail cannot leak through a response body.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return "internal error"
}

func IsNotFound(err error) bool     { return CodeOf(err) == CodeNotFound }
func IsForbidden(err error) bool    { return CodeOf(err) == CodeForbidden }
func IsPrecondition(err error) bool { return CodeOf(err) == CodePrecondition }

// StatusOf maps an error to the HTTP status handlers should respond with.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}
