package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError represents an application error with additional context
type AppError struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	StatusCode int         `json:"-"`
	Internal   error       `json:"-"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

// Unwrap returns the internal error for errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Common error codes
const (
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeDatabase           = "DATABASE_ERROR"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"

	// Incident processing outcomes
	ErrCodeNoPlaybookMatched = "NO_PLAYBOOK_MATCHED"
	ErrCodeActionFailed      = "ACTION_FAILED"
)

// Kind classifies how an incident-processing failure must be handled.
type Kind string

const (
	// KindNoPlaybookMatched is expected and reportable. The incident is
	// terminal with status FAILED and is never retried.
	KindNoPlaybookMatched Kind = ErrCodeNoPlaybookMatched
	// KindActionFailed is captured on the action's log entry and never
	// aborts sibling actions.
	KindActionFailed Kind = ErrCodeActionFailed
	// KindInternal propagates to the caller as a hard failure.
	KindInternal Kind = ErrCodeInternal
)

// New creates a new AppError
func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with an AppError
func Wrap(err error, code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Internal:   err,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// Kind returns the processing kind carried by the error code.
// Codes outside the processing taxonomy report KindInternal.
func (e *AppError) Kind() Kind {
	switch e.Code {
	case ErrCodeNoPlaybookMatched:
		return KindNoPlaybookMatched
	case ErrCodeActionFailed:
		return KindActionFailed
	default:
		return KindInternal
	}
}

// As finds the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf reports the processing kind of err. Errors that are not AppErrors
// are internal.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind()
	}
	return KindInternal
}

// IsKind reports whether err carries the given processing kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Common error constructors

// Internal creates an internal server error
func Internal(message string, err error) *AppError {
	return Wrap(err, ErrCodeInternal, message, http.StatusInternalServerError)
}

// BadRequest creates a bad request error
func BadRequest(message string) *AppError {
	return New(ErrCodeBadRequest, message, http.StatusBadRequest)
}

// Unauthorized creates an unauthorized error
func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

// NotFound creates a not found error
func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// ValidationError creates a validation error
func ValidationError(message string, details interface{}) *AppError {
	return New(ErrCodeValidation, message, http.StatusBadRequest).WithDetails(details)
}

// DatabaseError creates a database error
func DatabaseError(message string, err error) *AppError {
	return Wrap(err, ErrCodeDatabase, message, http.StatusInternalServerError)
}

// RateLimited creates a rate limited error
func RateLimited(message string) *AppError {
	return New(ErrCodeRateLimited, message, http.StatusTooManyRequests)
}

// ServiceUnavailable creates a service unavailable error
func ServiceUnavailable(message string) *AppError {
	return New(ErrCodeServiceUnavailable, message, http.StatusServiceUnavailable)
}

// NoPlaybookMatched reports that no catalog playbook scored above zero
func NoPlaybookMatched(incidentID string) *AppError {
	return New(ErrCodeNoPlaybookMatched,
		fmt.Sprintf("no playbook matched incident %s", incidentID),
		http.StatusUnprocessableEntity)
}

// ActionFailed reports a failed playbook action
func ActionFailed(action string, err error) *AppError {
	return Wrap(err, ErrCodeActionFailed,
		fmt.Sprintf("action %s failed", action),
		http.StatusInternalServerError)
}
