package errors

import (
	"encoding/json"
	"net/http"
)

type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

// FailureResponse is the recoverable outcome of a procedure: the request was
// well formed but nothing changed, and the caller may retry.
type FailureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

const (
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrCodeUpstream          = "UPSTREAM_ERROR"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// MsgRetry is shown when a mutation matched no row, either because the
// target does not exist in the caller's organization or because the caller
// may not change it.
const MsgRetry = "Something went wrong, please retry. Contact our team if it persists"

func WriteError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    code,
		Details: details,
	})
}

// WriteFieldErrors rejects a request whose input failed validation. details
// maps field names to messages.
func WriteFieldErrors(w http.ResponseWriter, details interface{}) {
	WriteError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid input", details)
}

func WriteFailure(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusOK, FailureResponse{Success: false, Error: message})
}

func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
