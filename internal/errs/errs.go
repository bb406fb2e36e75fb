package errs

import (
	"errors"
	"fmt"
)

// Code is a closed enumeration of the failure kinds the core can report.
type Code string

const (
	CodeInsufficientBalance Code = "INSUFFICIENT_BALANCE"
	CodeBelowMinimum        Code = "BELOW_MINIMUM"
	CodeForbidden           Code = "FORBIDDEN"
	CodeInvalidState        Code = "INVALID_STATE"
	CodeRateLimited         Code = "RATE_LIMITED"
	CodeNotFound            Code = "NOT_FOUND"
	CodeConflict            Code = "CONFLICT"
	CodeUnauthorized        Code = "UNAUTHORIZED"
	CodeInternal            Code = "INTERNAL"
)

// AppError carries a code for the API layer and an optional wrapped cause.
type AppError struct {
	Code    Code
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// Constructors

func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

func Newf(code Code, format string, args ...interface{}) error {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, message string, cause error) error {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func InsufficientBalance(msg string) error {
	return New(CodeInsufficientBalance, msg)
}

func BelowMinimum(msg string) error {
	return New(CodeBelowMinimum, msg)
}

func Forbidden(msg string) error {
	return New(CodeForbidden, msg)
}

func InvalidState(msg string) error {
	return New(CodeInvalidState, msg)
}

func RateLimited(msg string) error {
	return New(CodeRateLimited, msg)
}

func NotFound(msg string) error {
	return New(CodeNotFound, msg)
}

func Conflict(msg string) error {
	return New(CodeConflict, msg)
}

func Unauthorized(msg string) error {
	return New(CodeUnauthorized, msg)
}

func Internal(msg string) error {
	return New(CodeInternal, msg)
}

// CodeOf extracts the code from an error chain, CodeInternal if absent.
func CodeOf(err error) Code {
	var app *AppError
	if errors.As(err, &app) {
		return app.Code
	}
	return CodeInternal
}

// HasCode reports whether the error chain carries the given code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}
