package apperror

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrBadRequest        = errors.New("bad request")
	ErrConflict          = errors.New("conflict")
	ErrInternal          = errors.New("internal server error")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrUnavailable       = errors.New("service unavailable")
)

// FieldError is one entry of an {"errors": [...]} response body.
type FieldError struct {
	Param string `json:"param,omitempty"`
	Msg   string `json:"msg"`
}

// AppError is a custom error type that can hold an HTTP status code
// and the message shown to the client.
type AppError struct {
	Code    int
	Message string
	Err     error
	// Errors switches the response body to the {"errors": [...]} form.
	Errors []FieldError
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewFieldErrors creates an AppError rendered as a list of field errors.
func NewFieldErrors(code int, err error, fields ...FieldError) *AppError {
	msg := ""
	if len(fields) > 0 {
		msg = fields[0].Msg
	}
	return &AppError{
		Code:    code,
		Message: msg,
		Err:     err,
		Errors:  fields,
	}
}

// NotFound is a shortcut for a 404 with the given client message.
func NotFound(message string) *AppError {
	return New(http.StatusNotFound, message, ErrNotFound)
}

// Unauthorized is a shortcut for a 401 with the given client message.
func Unauthorized(message string) *AppError {
	return New(http.StatusUnauthorized, message, ErrUnauthorized)
}

// BadRequest is a shortcut for a 400 with the given client message.
func BadRequest(message string) *AppError {
	return New(http.StatusBadRequest, message, ErrBadRequest)
}

// MapErrorToStatus maps common errors to HTTP status codes
func MapErrorToStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != 0 {
		return appErr.Code
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrConflict) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrRateLimitExceeded) {
		return http.StatusTooManyRequests
	}
	if errors.Is(err, ErrUnavailable) {
		return http.StatusServiceUnavailable
	}
	// Default to internal server error
	return http.StatusInternalServerError
}
