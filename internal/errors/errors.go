package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a clipper error code.
type ErrorCode string

const (
	ErrInvalidRequest        ErrorCode = "INVALID_REQUEST"         // 400
	ErrNoActiveTab           ErrorCode = "NO_ACTIVE_TAB"           // 404
	ErrNoSelection           ErrorCode = "NO_SELECTION"            // 422
	ErrEndpointNotConfigured ErrorCode = "ENDPOINT_NOT_CONFIGURED" // 500
	ErrInternal              ErrorCode = "INTERNAL"                // 500
	ErrTransport             ErrorCode = "TRANSPORT"               // 502
	ErrBrowserUnavailable    ErrorCode = "BROWSER_UNAVAILABLE"     // 503
)

// ClipError represents a structured error with code, status, and details.
type ClipError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *ClipError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *ClipError {
	return &ClipError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNoActiveTab creates a 404 error when the browser has no page tab to read from.
func NewNoActiveTab() *ClipError {
	return &ClipError{
		Code:    ErrNoActiveTab,
		Status:  404,
		Message: "no active tab",
	}
}

// NewNoSelection creates a 422 error when there is no selected text to clip.
func NewNoSelection() *ClipError {
	return &ClipError{
		Code:    ErrNoSelection,
		Status:  422,
		Message: "Please select some text first!",
	}
}

// NewEndpointNotConfigured creates a 500 error when the clip endpoint is unset or unusable.
// reason is empty when the endpoint is missing entirely.
func NewEndpointNotConfigured(endpoint, reason string) *ClipError {
	msg := "clip endpoint is not configured; set \"endpoint\" in ~/.clipper/config.json or CLIPPER_ENDPOINT"
	if reason != "" {
		msg = fmt.Sprintf("clip endpoint %q is invalid: %s", endpoint, reason)
	}
	return &ClipError{
		Code:    ErrEndpointNotConfigured,
		Status:  500,
		Message: msg,
		Details: map[string]any{"endpoint": endpoint},
	}
}

// NewTransport creates a 502 error for a failed exchange with the clip endpoint.
func NewTransport(msg string) *ClipError {
	return &ClipError{
		Code:    ErrTransport,
		Status:  502,
		Message: msg,
	}
}

// NewBrowserUnavailable creates a 503 error when the browser cannot be reached.
func NewBrowserUnavailable(target string, err error) *ClipError {
	msg := fmt.Sprintf("browser unavailable at %s", target)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &ClipError{
		Code:    ErrBrowserUnavailable,
		Status:  503,
		Message: msg,
		Details: map[string]any{"target": target},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *ClipError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &ClipError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// As extracts a *ClipError from err, following wrapped errors.
func As(err error) (*ClipError, bool) {
	var cErr *ClipError
	if stderrors.As(err, &cErr) {
		return cErr, true
	}
	return nil, false
}

// Is checks if an error is (or wraps) a ClipError with the given code.
func Is(err error, code ErrorCode) bool {
	if cErr, ok := As(err); ok {
		return cErr.Code == code
	}
	return false
}
