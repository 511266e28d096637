package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/evacdesk/rollcall/internal/domain"
	"github.com/evacdesk/rollcall/pkg/logger"
)

// ErrorResponse represents a structured JSON error response
type ErrorResponse struct {
	Error string            `json:"error"`
	Code  string            `json:"code,omitempty"`
	Rows  []domain.RowError `json:"rows,omitempty"`
}

// Common error codes
const (
	CodeInvalidInput  = "INVALID_INPUT"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
	CodeNotFound      = "NOT_FOUND"
	CodeRateLimit     = "RATE_LIMIT_EXCEEDED"
	CodeInternalError = "INTERNAL_ERROR"
)

// WriteError writes a structured JSON error response
func WriteError(w http.ResponseWriter, statusCode int, message string, code string) {
	writeJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

func writeJSON(w http.ResponseWriter, statusCode int, body ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode error response", "error", err)
	}
}

// Domain maps a typed domain error onto the wire: validation and unknown
// codes are the caller's fault (400), anything else is ours (500, logged).
func Domain(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: ve.Error(),
			Code:  CodeInvalidInput,
			Rows:  ve.Rows,
		})
		return
	}

	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: nf.Error(),
			Code:  CodeNotFound,
		})
		return
	}

	logger.ErrorContext(r.Context(), "request failed", "error", err, "path", r.URL.Path)
	WriteError(w, http.StatusInternalServerError, "internal error", CodeInternalError)
}

// Convenience functions for common errors
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message, CodeForbidden)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, CodeNotFound)
}

func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message, CodeInternalError)
}

func RateLimit(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message, CodeRateLimit)
}
