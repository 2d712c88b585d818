// Package apperrors defines the error taxonomy surfaced at the API
// boundary. Every error carries a stable Code; handlers map codes to HTTP
// statuses and never expose the wrapped cause.
package apperrors

import (
	"errors"
	"fmt"
)

type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func Validation(msg string) error {
	return New(CodeValidation, msg)
}

func Unauthorized(msg string) error {
	return New(CodeUnauthorized, msg)
}

func NotFound(msg string) error {
	return New(CodeNotFound, msg)
}

func AlreadyExists(msg string) error {
	return New(CodeAlreadyExists, msg)
}

func AuthenticationFailure(msg string) error {
	return New(CodeAuthenticationFailure, msg)
}

func StorageUnavailable(cause error) error {
	return Wrap(CodeStorageUnavailable, "storage unavailable", cause)
}

func Internal(msg string) error {
	return New(CodeInternal, msg)
}

// CodeOf extracts the taxonomy code from err, or CodeUnknown if err was not
// produced by this package.
func CodeOf(err error) Code {
	var app *AppError
	if errors.As(err, &app) {
		return app.Code
	}
	return CodeUnknown
}

// MessageOf returns the boundary-safe message for err. Unknown errors get a
// generic message so raw causes never leak to clients.
func MessageOf(err error) string {
	var app *AppError
	if errors.As(err, &app) {
		return app.Message
	}
	return "internal server error"
}
