// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the centralized error handling framework for Tutora.

It provides a rich error type that bridges the gap between low-level Domain/Storage
errors and high-level HTTP responses.

Architecture:

  - AppError: A struct containing machine-readable ErrorCode and user-friendly messages.
  - Taxonomy: One constructor per auth failure class so clients can branch on Code.
  - Mapping: Explicit mapping from AppError to standard HTTP Status Codes.

Every error that leaves the service layer should be wrapped as an [AppError] to ensure
consistent API responses.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// # Error Codes

const (
	CodeNotFound            = "NOT_FOUND"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeValidation          = "VALIDATION_ERROR"
	CodeMissingInput        = "MISSING_INPUT"
	CodeDuplicateCredential = "DUPLICATE_CREDENTIAL"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeAuthHeaderMissing   = "AUTH_HEADER_MISSING"
	CodeTokenExpired        = "TOKEN_EXPIRED"
	CodeTokenInvalid        = "TOKEN_INVALID"
	CodeRefreshTokenRevoked = "REFRESH_TOKEN_REVOKED"
	CodePrincipalNotFound   = "PRINCIPAL_NOT_FOUND"
	CodeRateLimited         = "RATE_LIMITED"
	CodeInternal            = "INTERNAL_ERROR"
	CodeUnavailable         = "SERVICE_UNAVAILABLE"
)

// AppError is the canonical error type for the Tutora API.
//
// It carries an HTTP status code, a machine-readable code, a client-safe
// message, and an optional slice of field-level validation errors.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details (e.g., SQL queries).
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "NOT_FOUND", "TOKEN_EXPIRED").
	Code string `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"error"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR responses.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// # Client Errors (4xx)

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("Registration draft") // Returns "Registration draft not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// Unauthorized creates a 401 [AppError].
func Unauthorized(msg string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Forbidden creates a 403 [AppError].
func Forbidden(msg string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    msg,
		HTTPStatus: http.StatusForbidden,
	}
}

// ValidationError creates a 400 [AppError] with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// MissingInput creates a 400 [AppError] for a required field that was absent.
func MissingInput(field string) *AppError {
	return &AppError{
		Code:       CodeMissingInput,
		Message:    field + " is required",
		HTTPStatus: http.StatusBadRequest,
		Details:    []FieldError{{Field: field, Message: "This field is required"}},
	}
}

// RateLimited creates a 429 [AppError].
func RateLimited(retryAfterSeconds int) *AppError {
	return &AppError{
		Code:       CodeRateLimited,
		Message:    fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds),
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// # Authentication Errors

// DuplicateCredential creates a 409 [AppError] for a credential key already taken
// within its principal kind.
func DuplicateCredential(field string) *AppError {
	return &AppError{
		Code:       CodeDuplicateCredential,
		Message:    "An account with this " + field + " already exists",
		HTTPStatus: http.StatusConflict,
		Details:    []FieldError{{Field: field, Message: "Already registered"}},
	}
}

// InvalidCredentials creates a 401 [AppError].
//
// The message is the same for an unknown account and a wrong password so that
// callers cannot enumerate registered credential keys.
func InvalidCredentials() *AppError {
	return &AppError{
		Code:       CodeInvalidCredentials,
		Message:    "Invalid username or password",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// AuthHeaderMissing creates a 401 [AppError] for an absent or malformed
// Authorization header.
func AuthHeaderMissing() *AppError {
	return &AppError{
		Code:       CodeAuthHeaderMissing,
		Message:    "Authorization header missing or invalid",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// TokenExpired creates a 401 [AppError]. Clients react by calling refresh.
func TokenExpired(cause error) *AppError {
	return &AppError{
		Code:       CodeTokenExpired,
		Message:    "Token expired",
		HTTPStatus: http.StatusUnauthorized,
		Cause:      cause,
	}
}

// TokenInvalid creates a 403 [AppError] for a token with a bad signature or structure.
func TokenInvalid(cause error) *AppError {
	return &AppError{
		Code:       CodeTokenInvalid,
		Message:    "Invalid token",
		HTTPStatus: http.StatusForbidden,
		Cause:      cause,
	}
}

// RefreshTokenRevoked creates a 403 [AppError] for a well-formed refresh token
// that no longer matches the one stored on the principal.
func RefreshTokenRevoked() *AppError {
	return &AppError{
		Code:       CodeRefreshTokenRevoked,
		Message:    "Invalid refresh token",
		HTTPStatus: http.StatusForbidden,
	}
}

// PrincipalNotFound creates a 404 [AppError] for a stale principal reference.
func PrincipalNotFound(kind string) *AppError {
	return &AppError{
		Code:       CodePrincipalNotFound,
		Message:    kind + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// # Server Errors (5xx)

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// ServiceUnavailable creates a 503 [AppError]. Details name the failing
// dependencies.
func ServiceUnavailable(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       CodeUnavailable,
		Message:    msg,
		HTTPStatus: http.StatusServiceUnavailable,
		Details:    details,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// HasCode reports whether err carries an [*AppError] with the given code.
func HasCode(err error, code string) bool {
	ae := As(err)
	return ae != nil && ae.Code == code
}
