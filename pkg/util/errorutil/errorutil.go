package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Error codes surfaced to API clients.
const (
	CodeValidationFailed         = "VALIDATION_FAILED"
	CodeNotFound                 = "NOT_FOUND"
	CodeUnauthorized             = "UNAUTHORIZED"
	CodeForbidden                = "FORBIDDEN"
	CodeConflict                 = "CONFLICT"
	CodeInternal                 = "INTERNAL_ERROR"
	CodeDuplicateEmpID           = "DUPLICATE_EMP_ID"
	CodeRegistrationFailed       = "REGISTRATION_FAILED"
	CodeInvalidCredentials       = "INVALID_CREDENTIALS"
	CodeEmployeeRecordMissing    = "EMPLOYEE_RECORD_MISSING"
	CodeNotAuthenticated         = "NOT_AUTHENTICATED"
	CodeReauthenticationRequired = "REAUTHENTICATION_REQUIRED"
	CodeReauthenticationFailed   = "REAUTHENTICATION_FAILED"
	CodeProviderError            = "PROVIDER_ERROR"
	CodeTooManyAttempts          = "TOO_MANY_ATTEMPTS"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewDuplicateEmpID reports an employee ID already held by another record.
func NewDuplicateEmpID(empID string) error {
	return NewDomainError(CodeDuplicateEmpID, "Employee ID already exists", http.StatusConflict,
		map[string]any{"emp_id": empID})
}

// NewRegistrationFailed carries the identity provider's reason for rejecting a sign-up.
func NewRegistrationFailed(message string, err error) error {
	if message == "" {
		message = "Registration failed"
	}
	return &DomainError{
		Code:       CodeRegistrationFailed,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

func NewInvalidCredentials() error {
	return NewDomainError(CodeInvalidCredentials, "invalid email or password", http.StatusUnauthorized, nil)
}

func NewEmployeeRecordMissing(uid string) error {
	return NewDomainError(CodeEmployeeRecordMissing, "Employee data not found", http.StatusNotFound,
		map[string]any{"uid": uid})
}

func NewNotAuthenticated() error {
	return NewDomainError(CodeNotAuthenticated, "No authenticated user", http.StatusUnauthorized, nil)
}

func NewReauthenticationRequired() error {
	return NewDomainError(CodeReauthenticationRequired,
		"Please log out and log back in before updating your email address",
		http.StatusUnauthorized, nil)
}

func NewReauthenticationFailed() error {
	return NewDomainError(CodeReauthenticationFailed, "password confirmation failed", http.StatusUnauthorized, nil)
}

func NewTooManyAttempts() error {
	return NewDomainError(CodeTooManyAttempts, "too many failed attempts, try again later", http.StatusTooManyRequests, nil)
}

// NewProviderError wraps a failure of the identity provider or document store.
func NewProviderError(err error) error {
	return &DomainError{
		Code:       CodeProviderError,
		Message:    "identity backend unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// HasCode reports whether err is a DomainError carrying code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fromFiberError(fiberErr)
	}
	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func fromFiberError(err *fiber.Error) *DomainError {
	code := CodeInternal
	switch err.Code {
	case http.StatusBadRequest:
		code = CodeValidationFailed
	case http.StatusUnauthorized:
		code = CodeUnauthorized
	case http.StatusForbidden:
		code = CodeForbidden
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		code = CodeNotFound
	case http.StatusConflict:
		code = CodeConflict
	case http.StatusTooManyRequests:
		code = CodeTooManyAttempts
	}
	return &DomainError{Code: code, Message: err.Message, HTTPStatus: err.Code}
}
