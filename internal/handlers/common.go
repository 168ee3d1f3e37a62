package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"medcamp-backend/internal/models"

	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondJSON sends v as a JSON body
func respondJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}

var reasonStatus = map[string]int{
	"auth_required":       http.StatusUnauthorized,
	"forbidden":           http.StatusForbidden,
	"not_found":           http.StatusNotFound,
	"already_registered":  http.StatusConflict,
	"camp_full":           http.StatusConflict,
	"conflict":            http.StatusConflict,
	"invalid":             http.StatusBadRequest,
	"invalid_credentials": http.StatusUnauthorized,
	"remote_failure":      http.StatusBadGateway,
	"internal":            http.StatusInternalServerError,
}

// statusFor maps a service error to its HTTP status and reason code.
func statusFor(err error) (int, string) {
	reason := models.Reason(err)
	status, ok := reasonStatus[reason]
	if !ok {
		status = http.StatusInternalServerError
	}
	return status, reason
}

// respondServiceError logs err and sends it with the status its class maps to.
func respondServiceError(w http.ResponseWriter, err error, msg string) {
	status, reason := statusFor(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("reason", reason).Msg(msg)
		if status == http.StatusInternalServerError {
			message = "Internal server error"
		}
	} else {
		log.Debug().Err(err).Str("reason", reason).Msg(msg)
	}
	respondJSON(w, status, ErrorResponse{Error: message, Reason: reason})
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w: request body too large", models.ErrValidation)
		}
		return fmt.Errorf("%w: invalid request body", models.ErrValidation)
	}
	return nil
}
