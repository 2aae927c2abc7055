// Package errors provides standardized error handling for the lead intake flows.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Local validation, caught before any network call.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidEmail     ErrorCode = "INVALID_EMAIL"
	ErrCodeInvalidOTPFormat ErrorCode = "INVALID_OTP_FORMAT"

	// Authentication state.
	ErrCodeAuthTokenMissing ErrorCode = "AUTH_TOKEN_MISSING"
	ErrCodeAuthTokenExpired ErrorCode = "AUTH_TOKEN_EXPIRED"
	ErrCodeOTPMismatch      ErrorCode = "OTP_MISMATCH"
	ErrCodeNoPendingAuth    ErrorCode = "NO_PENDING_AUTH"
	ErrCodeSessionExpired   ErrorCode = "SESSION_EXPIRED"

	// Transport / backend.
	ErrCodeBackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"
	ErrCodeBackendRejected    ErrorCode = "BACKEND_REJECTED"
	ErrCodeResponseMalformed  ErrorCode = "RESPONSE_MALFORMED"

	// Lead store.
	ErrCodeLeadNotFound ErrorCode = "LEAD_NOT_FOUND"
	ErrCodeStoreFailure ErrorCode = "STORE_FAILURE"

	// Wizard navigation.
	ErrCodeStepGateFailed    ErrorCode = "STEP_GATE_FAILED"
	ErrCodeUnknownStep       ErrorCode = "UNKNOWN_STEP"
	ErrCodeNoCurrentLead     ErrorCode = "NO_CURRENT_LEAD"
	ErrCodeSequenceViolation ErrorCode = "SEQUENCE_VIOLATION"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is allows errors.Is matching on the error code.
func (e *StandardError) Is(target error) bool {
	var std *StandardError
	if errors.As(target, &std) {
		return e.Code == std.Code
	}
	return false
}

// CodeOf extracts the error code from any error, or empty when it is not
// a StandardError.
func CodeOf(err error) ErrorCode {
	var std *StandardError
	if errors.As(err, &std) {
		return std.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationFailedError creates a non-retryable local validation error.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Required field validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidEmailError creates a non-retryable email format error.
func NewInvalidEmailError(email string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidEmail,
		Message:   "Email address is not syntactically valid",
		Details:   fmt.Sprintf("email: %s", email),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidOTPFormatError creates a non-retryable OTP format error.
func NewInvalidOTPFormatError() *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidOTPFormat,
		Message:   "OTP must be a 6-digit code",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuthTokenMissingError signals a save attempted without a signed-in session.
func NewAuthTokenMissingError() *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthTokenMissing,
		Message:   "No access token in session, please sign in again",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuthTokenExpiredError signals an expired access token.
func NewAuthTokenExpiredError() *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthTokenExpired,
		Message:   "Access token has expired, please sign in again",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewOTPMismatchError creates a recoverable OTP verification error. The
// caller may clear the entered code and prompt an immediate retry.
func NewOTPMismatchError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeOTPMismatch,
		Message:   "OTP verification failed",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoPendingAuthError signals a verify call with no OTP request in flight.
func NewNoPendingAuthError(email string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoPendingAuth,
		Message:   "No pending OTP request for this email",
		Details:   fmt.Sprintf("email: %s", email),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionExpiredError signals that the session state is gone.
func NewSessionExpiredError() *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionExpired,
		Message:   "Session has expired",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBackendUnavailableError creates a retryable transport error.
func NewBackendUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBackendUnavailable,
		Message:   "Could not reach the lead collection backend",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBackendRejectedError creates a non-retryable logical backend error,
// carrying the message extracted from the response body when present.
func NewBackendRejectedError(message, details string) *StandardError {
	if message == "" {
		message = "Request rejected by the backend"
	}
	return &StandardError{
		Code:      ErrCodeBackendRejected,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewResponseMalformedError creates a non-retryable decode error.
func NewResponseMalformedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeResponseMalformed,
		Message:   "Backend response could not be decoded",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewLeadNotFoundError creates a non-retryable lookup error.
func NewLeadNotFoundError(leadID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeLeadNotFound,
		Message:   "Lead not found",
		Details:   fmt.Sprintf("leadId: %s", leadID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreFailureError creates a retryable storage error.
func NewStoreFailureError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreFailure,
		Message:   "Lead store operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStepGateFailedError creates a non-retryable advance-gate error.
func NewStepGateFailedError(stepKey, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeStepGateFailed,
		Message:   "Step required fields are not satisfied",
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"stepKey": stepKey},
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownStepError creates a non-retryable navigation error.
func NewUnknownStepError(step int) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownStep,
		Message:   "Step is not part of the wizard sequence",
		Details:   fmt.Sprintf("step: %d", step),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoCurrentLeadError signals navigation with no lead selected.
func NewNoCurrentLeadError() *StandardError {
	return &StandardError{
		Code:      ErrCodeNoCurrentLead,
		Message:   "No current lead to resume",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSequenceViolationError signals a jump outside the allowed transitions.
func NewSequenceViolationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSequenceViolation,
		Message:   "Wizard transition not allowed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
