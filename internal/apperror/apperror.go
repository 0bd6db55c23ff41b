// Package apperror defines the application's error taxonomy.
//
// The service layer returns these instead of HTTP status codes — the handler
// layer owns the mapping to HTTP (see handler.writeError). Sentinel errors
// plus a wrapping AppError give callers two tools:
//
//	errors.Is(err, apperror.ErrNotFound)  → "is this a not-found, wherever it
//	                                         is in the chain?"
//	errors.As(err, &appErr)               → "give me the human-readable message"
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// AppError carries a machine-checkable cause (Err) and a message safe to show
// to the client. Internal detail (SQL errors, file paths) never goes in
// Message — it belongs in the wrapped chain, which only reaches the logs.
type AppError struct {
	Err     error  // sentinel cause, for errors.Is
	Message string // client-facing description
	Field   string // optional: the input field at fault
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ValidationFailed reports malformed or missing input. Maps to 400.
func ValidationFailed(field, message string) *AppError {
	return &AppError{Err: ErrValidation, Message: message, Field: field}
}

// Unauthorized reports a missing, invalid, or expired session. Maps to 401.
func Unauthorized(message string) *AppError {
	return &AppError{Err: ErrUnauthorized, Message: message}
}

// Forbidden reports an authenticated caller lacking permission. Maps to 403.
func Forbidden(message string) *AppError {
	return &AppError{Err: ErrForbidden, Message: message}
}

// NotFound reports an absent entity. Maps to 404.
func NotFound(resource string, id int64) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %d", resource, id),
	}
}

// Conflict reports a uniqueness violation, e.g. a taken username.
// Maps to 400 — the API treats it as a rejected input, not a 409.
func Conflict(message string) *AppError {
	return &AppError{Err: ErrConflict, Message: message}
}
