package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType classifies an AppError.
type ErrorType string

const (
	// Client-input class: the uploaded image failed format/size/dimension checks.
	ErrorTypeValidation ErrorType = "validation"

	// Codec class.
	ErrorTypeInvalidImage      ErrorType = "invalid_image"
	ErrorTypeUnsupportedFormat ErrorType = "unsupported_format"

	// Backend class: the active storage backend failed to persist a buffer.
	ErrorTypeUpload ErrorType = "upload"

	// Lookup class.
	ErrorTypeNotFound ErrorType = "not_found"

	// Surrounding application.
	ErrorTypeDatabase     ErrorType = "database"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeInternal     ErrorType = "internal"
)

// AppError is the structured application error carried across package
// boundaries. Details holds machine-readable context, e.g. the full list of
// violated constraints for a validation failure.
type AppError struct {
	Type       ErrorType      `json:"type"`
	Code       string         `json:"code,omitempty"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	InnerError error          `json:"-"`
	HTTPStatus int            `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.InnerError != nil {
		return e.InnerError.Error()
	}
	return string(e.Type)
}

// Unwrap returns the inner error.
func (e *AppError) Unwrap() error {
	return e.InnerError
}

// WithDetail attaches a key/value detail and returns the error for chaining.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCode sets the machine-readable code.
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// Violations returns the constraint-violation list of a validation error,
// or nil for every other error.
func (e *AppError) Violations() []string {
	if e.Type != ErrorTypeValidation || e.Details == nil {
		return nil
	}
	if msgs, ok := e.Details["violations"].([]string); ok {
		return msgs
	}
	return nil
}

func httpStatusFor(errType ErrorType) int {
	switch errType {
	case ErrorTypeValidation, ErrorTypeInvalidImage, ErrorTypeUnsupportedFormat:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case ErrorTypeForbidden:
		return http.StatusForbidden
	case ErrorTypeConflict:
		return http.StatusConflict
	case ErrorTypeUpload:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// New creates an AppError of the given type.
func New(errType ErrorType, message string) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		HTTPStatus: httpStatusFor(errType),
	}
}

// Wrap wraps err into an AppError of the given type. A nil err yields nil.
// An err that is already an AppError is returned unchanged when no new
// message is supplied.
func Wrap(err error, errType ErrorType, message string) *AppError {
	if err == nil {
		return nil
	}
	var app *AppError
	if errors.As(err, &app) && message == "" {
		return app
	}
	return &AppError{
		Type:       errType,
		Message:    message,
		InnerError: err,
		HTTPStatus: httpStatusFor(errType),
	}
}

// NewValidation creates a validation error carrying every violated
// constraint, not just the first.
func NewValidation(violations []string) *AppError {
	e := New(ErrorTypeValidation, "image validation failed: "+strings.Join(violations, "; "))
	return e.WithDetail("violations", violations)
}

// NewInvalidImage reports an undecodable buffer.
func NewInvalidImage(err error) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidImage,
		Message:    "buffer is not a decodable image",
		InnerError: err,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewUnsupportedFormat reports a requested output format outside the
// supported set.
func NewUnsupportedFormat(format string) *AppError {
	return New(ErrorTypeUnsupportedFormat, fmt.Sprintf("unsupported image format: %s", format)).
		WithDetail("format", format)
}

// NewUpload reports a storage backend persistence failure.
func NewUpload(backend string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeUpload,
		Message:    fmt.Sprintf("storage backend %s upload failed", backend),
		InnerError: err,
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"backend": backend},
	}
}

// NewNotFound reports a missing resource.
func NewNotFound(resource string, id any) *AppError {
	return New(ErrorTypeNotFound, fmt.Sprintf("%s %v not found", resource, id)).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

// NewDatabase reports a persistence boundary failure.
func NewDatabase(err error) *AppError {
	return &AppError{
		Type:       ErrorTypeDatabase,
		Message:    "database operation failed",
		InnerError: err,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NewInternal reports an unexpected internal failure.
func NewInternal(message string) *AppError {
	return New(ErrorTypeInternal, message)
}

// IsType reports whether err is (or wraps) an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	var app *AppError
	if errors.As(err, &app) {
		return app.Type == errType
	}
	return false
}

// TypeOf returns the ErrorType of err, or ErrorTypeInternal for plain errors.
func TypeOf(err error) ErrorType {
	var app *AppError
	if errors.As(err, &app) {
		return app.Type
	}
	return ErrorTypeInternal
}

// As re-exports errors.As so callers need only this package.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is re-exports errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
