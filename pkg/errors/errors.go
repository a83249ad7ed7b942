package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation      Code = "VALIDATION_ERROR"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeStateConflict   Code = "STATE_CONFLICT"
	CodeRateLimit       Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal        Code = "INTERNAL_ERROR"
	CodeDependency      Code = "DEPENDENCY_ERROR"
	CodeProtectedColumn Code = "PROTECTED_COLUMN"
	CodeDuplicateColumn Code = "DUPLICATE_COLUMN"
	CodeStorageMissing  Code = "STORAGE_MISSING"
	CodePartialFailure  Code = "PARTIAL_FAILURE"
)

// Metadata describes how a Code is surfaced to API clients.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:      {HTTPStatus: http.StatusBadRequest, PublicMessage: "validation failed", DetailsAllowed: true},
	CodeUnauthorized:    {HTTPStatus: http.StatusUnauthorized, PublicMessage: "authentication required"},
	CodeForbidden:       {HTTPStatus: http.StatusForbidden, PublicMessage: "access denied"},
	CodeNotFound:        {HTTPStatus: http.StatusNotFound, PublicMessage: "resource not found"},
	CodeConflict:        {HTTPStatus: http.StatusConflict, PublicMessage: "conflict detected"},
	CodeStateConflict:   {HTTPStatus: http.StatusUnprocessableEntity, PublicMessage: "state transition disallowed", DetailsAllowed: true},
	CodeRateLimit:       {HTTPStatus: http.StatusTooManyRequests, PublicMessage: "rate limit exceeded"},
	CodeInternal:        {HTTPStatus: http.StatusInternalServerError, Retryable: true, PublicMessage: "internal server error"},
	CodeDependency:      {HTTPStatus: http.StatusServiceUnavailable, Retryable: true, PublicMessage: "dependency unavailable", DetailsAllowed: true},
	CodeProtectedColumn: {HTTPStatus: http.StatusBadRequest, PublicMessage: "column is protected", DetailsAllowed: true},
	CodeDuplicateColumn: {HTTPStatus: http.StatusConflict, PublicMessage: "column already exists", DetailsAllowed: true},
	CodeStorageMissing:  {HTTPStatus: http.StatusNotFound, PublicMessage: "storage file not found", DetailsAllowed: true},
	CodePartialFailure:  {HTTPStatus: http.StatusInternalServerError, PublicMessage: "operation partially applied", DetailsAllowed: true},
}

// clientCodes carry their own message to the caller instead of the public one.
var clientCodes = map[Code]struct{}{
	CodeValidation:      {},
	CodeUnauthorized:    {},
	CodeForbidden:       {},
	CodeNotFound:        {},
	CodeConflict:        {},
	CodeStateConflict:   {},
	CodeRateLimit:       {},
	CodeProtectedColumn: {},
	CodeDuplicateColumn: {},
	CodeStorageMissing:  {},
	CodePartialFailure:  {},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// ExposesMessage reports whether the error's own message may be returned to clients.
func ExposesMessage(code Code) bool {
	_, ok := clientCodes[code]
	return ok
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}

// Ensure passes typed errors through and wraps anything else with the fallback code.
func Ensure(err error, fallback Code, message string) error {
	if err == nil {
		return nil
	}
	if As(err) != nil {
		return err
	}
	return Wrap(fallback, err, message)
}
