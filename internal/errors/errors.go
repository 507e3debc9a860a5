package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a tabscribe error code.
type ErrorCode string

const (
	ErrInvalidRequest      ErrorCode = "INVALID_REQUEST"      // 400
	ErrNotFound            ErrorCode = "NOT_FOUND"            // 404
	ErrProtected           ErrorCode = "PROTECTED"            // 409
	ErrUnresolved          ErrorCode = "UNRESOLVED"           // 422
	ErrProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE" // 502
	ErrOffline             ErrorCode = "OFFLINE"              // 503
	ErrInternal            ErrorCode = "INTERNAL"             // 500
)

// TabError represents a structured error with code, status, and details.
type TabError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	cause   error
}

// Error implements the error interface.
func (e *TabError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *TabError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *TabError {
	return &TabError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for an addressed entity that does not exist.
// Store mutations never return it; only surfaces that address a single id do.
func NewNotFound(kind, id string) *TabError {
	return &TabError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, id),
		Details: map[string]any{"kind": kind, "id": id},
	}
}

// NewProtected creates a 409 error for operations on reserved entities.
func NewProtected(msg string) *TabError {
	return &TabError{
		Code:    ErrProtected,
		Status:  409,
		Message: msg,
	}
}

// NewUnresolved creates a 422 error when no bibliographic work could be resolved.
func NewUnresolved(key string) *TabError {
	return &TabError{
		Code:    ErrUnresolved,
		Status:  422,
		Message: "could not resolve a scholarly work for this card",
		Details: map[string]any{"key": key},
	}
}

// NewProviderUnavailable creates a 502 error for a failed bibliographic API call.
func NewProviderUnavailable(provider string, status int, err error) *TabError {
	msg := fmt.Sprintf("%s unavailable", provider)
	if status > 0 {
		msg = fmt.Sprintf("%s returned status %d", provider, status)
	} else if err != nil {
		msg = fmt.Sprintf("%s request failed: %v", provider, err)
	}
	return &TabError{
		Code:    ErrProviderUnavailable,
		Status:  502,
		Message: msg,
		Details: map[string]any{"provider": provider, "status": status},
		cause:   err,
	}
}

// NewOffline creates a 503 error when a network-backed feature runs in offline mode.
func NewOffline() *TabError {
	return &TabError{
		Code:    ErrOffline,
		Status:  503,
		Message: "literature lens requires hybrid mode",
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The message stays generic; the original error is kept in Details for logging.
func NewInternal(err error) *TabError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &TabError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
		cause:   err,
	}
}

// Is checks if an error (or anything it wraps) is a TabError with the given code.
func Is(err error, code ErrorCode) bool {
	var tErr *TabError
	if stderrors.As(err, &tErr) {
		return tErr.Code == code
	}
	return false
}

// As returns the TabError in err's chain, if any.
func As(err error) (*TabError, bool) {
	var tErr *TabError
	if stderrors.As(err, &tErr) {
		return tErr, true
	}
	return nil, false
}
