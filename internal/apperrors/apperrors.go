// Package apperrors defines the typed error taxonomy shared by the service and
// HTTP layers. Services return *AppError values describing what went wrong in
// domain terms; the HTTP boundary maps them to status codes via Respond without
// inspecting error strings. Storage-level failures that carry no domain meaning
// are wrapped as Internal so handlers never leak driver details to clients.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an application error.
type Code string

const (
	CodeValidation     Code = "VALIDATION_FAILED"
	CodeNotFound       Code = "NOT_FOUND"
	CodeAuthentication Code = "AUTHENTICATION_FAILED"
	CodeExpiredToken   Code = "TOKEN_EXPIRED"
	CodeAuthorization  Code = "FORBIDDEN"
	CodeInvalidState   Code = "INVALID_STATE"
	CodeConflict       Code = "CONFLICT"
	CodeInternal       Code = "INTERNAL_ERROR"
)

// AppError is the application error type. Domain names the subsystem the error
// originated in (e.g. "resources", "auth") for log correlation.
type AppError struct {
	Code    Code   `json:"code"`
	Domain  string `json:"domain"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Domain, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Domain, e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error code to an HTTP response status.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAuthentication, CodeExpiredToken:
		return http.StatusUnauthorized
	case CodeAuthorization:
		return http.StatusForbidden
	case CodeInvalidState, CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func newError(code Code, domain, message string) *AppError {
	return &AppError{Code: code, Domain: domain, Message: message}
}

// Validation reports malformed or missing input.
func Validation(domain, message string) *AppError {
	return newError(CodeValidation, domain, message)
}

// NotFound reports a missing entity.
func NotFound(domain, message string) *AppError {
	return newError(CodeNotFound, domain, message)
}

// Authentication reports a failed identity check (bad credentials, malformed
// or forged token).
func Authentication(domain, message string) *AppError {
	return newError(CodeAuthentication, domain, message)
}

// ExpiredToken reports a token whose signature checked out but whose validity
// window has passed. Kept distinct from Authentication so clients can prompt a
// re-login instead of treating the token as forged.
func ExpiredToken(domain, message string) *AppError {
	return newError(CodeExpiredToken, domain, message)
}

// Authorization reports an authenticated identity lacking permission.
func Authorization(domain, message string) *AppError {
	return newError(CodeAuthorization, domain, message)
}

// InvalidState reports an operation that is illegal in the entity's current
// lifecycle state, e.g. approving an already-rejected resource.
func InvalidState(domain, message string) *AppError {
	return newError(CodeInvalidState, domain, message)
}

// Conflict reports a uniqueness violation such as a duplicate email.
func Conflict(domain, message string) *AppError {
	return newError(CodeConflict, domain, message)
}

// Internal wraps an unexpected failure, typically from storage.
func Internal(domain string, err error) *AppError {
	return &AppError{Code: CodeInternal, Domain: domain, Message: "internal error", Err: err}
}

// As unwraps err into an *AppError if one is present anywhere in the chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}
