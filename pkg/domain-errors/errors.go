// Package domainerrors carries coded errors across layer boundaries. Stores
// and services return these (optionally wrapped) so the HTTP layer can map
// them to status codes without string matching.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies the class of failure independent of transport.
type Code string

const (
	CodeBadRequest             Code = "bad_request"
	CodeNotFound               Code = "not_found"
	CodeIneligibleAge          Code = "ineligible_age"
	CodeConflict               Code = "conflict"
	CodeUpdateFailedAfterPurge Code = "update_failed_after_purge"
	CodeStorageUnavailable     Code = "storage_unavailable"
	CodeInternal               Code = "internal"
)

// Error is a coded domain error with an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a coded error around an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// Is reports whether err (or anything it wraps) carries the given code.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to its transport status. Lives here so every
// handler translates identically.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeIneligibleAge:
		return http.StatusUnprocessableEntity
	case CodeConflict:
		return http.StatusConflict
	case CodeUpdateFailedAfterPurge, CodeStorageUnavailable:
		return http.StatusServiceUnavailable
	case CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
