package errors

import (
	"encoding/json"
	"net/http"
	"time"
)

// ErrorResponder converts errors into the intake API's error envelope.
type ErrorResponder struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorResponder(logger Logger) *ErrorResponder {
	return &ErrorResponder{logger: logger}
}

// ErrorEnvelope mirrors the backend's error envelope shape so clients see
// one discriminated format everywhere.
type ErrorEnvelope struct {
	Success       bool   `json:"success"`
	Error         string `json:"error"`
	ErrorType     string `json:"error_type"`
	Details       string `json:"details,omitempty"`
	ApplicationID string `json:"application_id,omitempty"`
}

// Respond writes err as a JSON error envelope with a status derived from
// its error code.
func (h *ErrorResponder) Respond(w http.ResponseWriter, err error) {
	std := h.normalizeError(err)

	h.logger.Error("request failed", map[string]interface{}{
		"errorCode": string(std.Code),
		"message":   std.Message,
		"details":   std.Details,
		"retryable": std.Retryable,
	})

	env := ErrorEnvelope{
		Success:   false,
		Error:     std.Message,
		ErrorType: string(std.Code),
		Details:   std.Details,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(std.Code))
	_ = json.NewEncoder(w).Encode(env)
}

// normalizeError ensures we always have a StandardError.
func (h *ErrorResponder) normalizeError(err error) *StandardError {
	if std, ok := err.(*StandardError); ok {
		return std
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func statusFor(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed, ErrCodeInvalidEmail, ErrCodeInvalidOTPFormat,
		ErrCodeStepGateFailed, ErrCodeUnknownStep, ErrCodeSequenceViolation:
		return http.StatusBadRequest
	case ErrCodeAuthTokenMissing, ErrCodeAuthTokenExpired, ErrCodeOTPMismatch,
		ErrCodeNoPendingAuth, ErrCodeSessionExpired:
		return http.StatusUnauthorized
	case ErrCodeLeadNotFound, ErrCodeNoCurrentLead:
		return http.StatusNotFound
	case ErrCodeBackendUnavailable:
		return http.StatusBadGateway
	case ErrCodeBackendRejected:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
