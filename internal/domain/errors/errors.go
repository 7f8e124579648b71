package errors

import (
	"fmt"
	"net/http"
	"strings"

	"etuition/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error types
var (
	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"Input validation failed",
		"",
	)

	ErrOAuthStateInvalid = NewBaseError(
		http.StatusBadRequest,
		"OAUTH_STATE_INVALID",
		"Sign-in session expired, please try again",
		"",
	)

	ErrSocialSignInUnavailable = NewBaseError(
		http.StatusServiceUnavailable,
		"SOCIAL_SIGN_IN_UNAVAILABLE",
		"Social sign-in is not configured",
		"",
	)

	ErrBackendUnavailable = NewBaseError(
		http.StatusBadGateway,
		"BACKEND_UNAVAILABLE",
		"The marketplace service is unavailable",
		"",
	)

	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"Internal server error",
		"",
	)

	ErrForbidden = NewBaseError(
		http.StatusForbidden,
		"FORBIDDEN",
		"Access denied",
		"",
	)

	ErrNotFound = NewBaseError(
		http.StatusNotFound,
		"NOT_FOUND",
		"Resource not found",
		"",
	)
)

// IdentityErrorKind classifies identity provider failures.
type IdentityErrorKind string

const (
	KindInvalidCredential  IdentityErrorKind = "invalid-credential"
	KindUserNotFound       IdentityErrorKind = "user-not-found"
	KindEmailAlreadyInUse  IdentityErrorKind = "email-already-in-use"
	KindWeakPassword       IdentityErrorKind = "weak-password"
	KindSocialSignInFailed IdentityErrorKind = "social-sign-in-failed"
	KindNetworkUnavailable IdentityErrorKind = "network-unavailable"
	KindNotSignedIn        IdentityErrorKind = "not-signed-in"
	KindUnknown            IdentityErrorKind = "unknown"
)

// IdentityError is returned by session store operations. It is rendered inline
// on the form that triggered it and never reaches the guards.
type IdentityError struct {
	Kind  IdentityErrorKind
	Cause error
}

// NewIdentityError creates an identity error of the given kind
func NewIdentityError(kind IdentityErrorKind, cause error) *IdentityError {
	return &IdentityError{Kind: kind, Cause: cause}
}

// Error implements the error interface
func (e *IdentityError) Error() string {
	if e.Cause == nil {
		return "identity: " + string(e.Kind)
	}

	return fmt.Sprintf("identity: %s: %v", e.Kind, e.Cause)
}

// Unwrap returns the provider error
func (e *IdentityError) Unwrap() error {
	return e.Cause
}

// HTTPCode returns the HTTP status code
func (e *IdentityError) HTTPCode() int {
	switch e.Kind {
	case KindInvalidCredential, KindUserNotFound, KindNotSignedIn, KindSocialSignInFailed:
		return http.StatusUnauthorized
	case KindEmailAlreadyInUse:
		return http.StatusConflict
	case KindWeakPassword:
		return http.StatusBadRequest
	case KindNetworkUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode returns the business error code, e.g. EMAIL_ALREADY_IN_USE
func (e *IdentityError) ErrorCode() string {
	return strings.ToUpper(strings.ReplaceAll(string(e.Kind), "-", "_"))
}

// Message returns the user-friendly error message
func (e *IdentityError) Message() string {
	switch e.Kind {
	case KindInvalidCredential:
		return "Email or password is incorrect"
	case KindUserNotFound:
		return "No account exists for this email"
	case KindEmailAlreadyInUse:
		return "This email is already registered"
	case KindWeakPassword:
		return "Password is too weak"
	case KindSocialSignInFailed:
		return "Social sign-in was cancelled or failed"
	case KindNetworkUnavailable:
		return "The sign-in service is unreachable"
	case KindNotSignedIn:
		return "You are not signed in"
	default:
		return "Sign-in failed"
	}
}

// Details returns the provider error text
func (e *IdentityError) Details() string {
	if e.Cause == nil {
		return ""
	}

	return e.Cause.Error()
}

// IsIdentityKind reports whether err carries an IdentityError of the given kind
func IsIdentityKind(err error, kind IdentityErrorKind) bool {
	identityErr, ok := errors.AsTarget[*IdentityError](err)

	return ok && identityErr.Kind == kind
}

// AuthorizationError is returned by the authenticated client after the backend
// rejected the credential with 401 or 403. The forced logout has already run.
type AuthorizationError struct {
	Status int
	Cause  error
}

// NewAuthorizationError wraps the rejected response error
func NewAuthorizationError(status int, cause error) *AuthorizationError {
	return &AuthorizationError{Status: status, Cause: cause}
}

// Error implements the error interface
func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("authorization rejected with status %d: %v", e.Status, e.Cause)
}

// Unwrap returns the original response error
func (e *AuthorizationError) Unwrap() error {
	return e.Cause
}

// HTTPCode returns the HTTP status code
func (e *AuthorizationError) HTTPCode() int {
	return http.StatusUnauthorized
}

// ErrorCode returns the business error code
func (e *AuthorizationError) ErrorCode() string {
	return "SESSION_REJECTED"
}

// Message returns the user-friendly error message
func (e *AuthorizationError) Message() string {
	return "Your session has expired, please sign in again"
}

// Details returns detailed error information
func (e *AuthorizationError) Details() string {
	return e.Error()
}
