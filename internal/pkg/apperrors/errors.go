package apperrors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// Resource errors
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	// ErrConflict covers state conflicts: illegal transitions, duplicate
	// active applications, stale versions, exhausted recipient caps.
	ErrConflict = errors.New("conflict")

	// Authentication errors
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrAccountDisabled    = errors.New("account is disabled")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrBadRequest       = errors.New("bad request")

	// External collaborators (SMTP, storage) failed
	ErrUpstream = errors.New("upstream service failure")
)

// Resource-specific errors wrap the generic categories so callers and the
// HTTP layer can match on either.
var (
	ErrUserNotFound           = fmt.Errorf("user %w", ErrResourceNotFound)
	ErrRoleNotFound           = fmt.Errorf("role %w", ErrResourceNotFound)
	ErrStudentProfileMissing  = fmt.Errorf("student profile %w", ErrResourceNotFound)
	ErrScholarshipNotFound    = fmt.Errorf("scholarship %w", ErrResourceNotFound)
	ErrApplicationNotFound    = fmt.Errorf("application %w", ErrResourceNotFound)
	ErrPaymentNotFound        = fmt.Errorf("payment %w", ErrResourceNotFound)
	ErrNotificationNotFound   = fmt.Errorf("notification %w", ErrResourceNotFound)
	ErrDocumentNotFound       = fmt.Errorf("document %w", ErrResourceNotFound)
	ErrSettingNotFound        = fmt.Errorf("setting %w", ErrResourceNotFound)
	ErrEmailAlreadyExists     = fmt.Errorf("%w: email already exists", ErrResourceAlreadyExists)
	ErrStudentIDAlreadyExists = fmt.Errorf("%w: student ID already exists", ErrResourceAlreadyExists)
	ErrDuplicateApplication   = fmt.Errorf("%w: an active application for this scholarship already exists", ErrConflict)
	ErrStaleVersion           = fmt.Errorf("%w: application was modified by someone else", ErrConflict)
	ErrRecipientCapReached    = fmt.Errorf("%w: scholarship has reached its maximum number of recipients", ErrConflict)
)

// One-time token errors
var (
	ErrInvalidEmailToken         = errors.New("invalid or expired email verification token")
	ErrInvalidPasswordResetToken = errors.New("invalid or expired password reset token")
)

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) *CustomError {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) *CustomError {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) *CustomError {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// NewValidationError creates a validation failure; attach field problems with WithDetails.
func NewValidationError(message string) *CustomError {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
	}
}

// NewUpstreamError wraps a failure reported by an external collaborator.
func NewUpstreamError(message string, cause error) *CustomError {
	return &CustomError{
		Err:     errors.Join(ErrUpstream, cause),
		Message: message,
	}
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

// As extracts the CustomError carried by err, if any.
func As(err error) (*CustomError, bool) {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
