// Package domainerrors is the closed set of error kinds surfaced by services.
//
// Stores return sentinel errors (pkg/platform/sentinel); services translate them
// into one of the codes below so transports can map them without inspecting causes.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies an error kind. Values are stable and appear in API responses.
type Code string

const (
	CodeNotFound                  Code = "not_found"
	CodeConflict                  Code = "conflict"
	CodeValidation                Code = "validation_error"
	CodeBadRequest                Code = "bad_request"
	CodeUnauthorized              Code = "unauthorized"
	CodeStatementSubmissionFailed Code = "statement_submission_failed"
	CodeInternalStoreFailure      Code = "internal_store_failure"
	CodeUpstreamFailure           Code = "upstream_failure"
	CodeTimeout                   Code = "timeout"
	CodeInternal                  Code = "internal_error"
)

// Error carries a code, a client-safe message and the underlying cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error without an underlying cause.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to cause.
func Wrap(cause error, code Code, msg string) error {
	return &Error{Code: code, Message: msg, Err: cause}
}

// HasCode reports whether the outermost domain error in err's chain has code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf returns the outermost domain error code, or CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the status used by the HTTP layer.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeValidation, CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeStatementSubmissionFailed, CodeUpstreamFailure:
		return http.StatusBadGateway
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
