package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/benvon/handbook/internal/handbook"
	"github.com/benvon/handbook/internal/ingest"
	"github.com/benvon/handbook/internal/logger"
	"github.com/benvon/handbook/internal/store"
)

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	respondEnvelope(w, status, data, "")
}

// respondJSONWarning sends a successful response that carries a storage warning
func respondJSONWarning(w http.ResponseWriter, status int, data any, warning error) {
	message := ""
	if warning != nil {
		message = sanitizeErrorMessage(warning.Error())
	}
	respondEnvelope(w, status, data, message)
}

func respondEnvelope(w http.ResponseWriter, status int, data any, warning string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if warning != "" {
		response["warning"] = warning
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// maxClientErrorLength caps error text returned to clients
const maxClientErrorLength = 200

// sanitizeErrorMessage removes internal details from error messages
func sanitizeErrorMessage(message string) string {
	return logger.SanitizeString(message, maxClientErrorLength)
}

// respondJSONError sends an error JSON response with sanitized error messages
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// Sanitize error message to prevent information disclosure
	sanitizedMessage := sanitizeErrorMessage(message)

	response := map[string]any{
		"success":   false,
		"error":     errorType,
		"message":   sanitizedMessage,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// decodeJSON reads the request body into dst, answering 400/413 itself on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		// Check if error is due to request size limit
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return false
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return false
	}
	return true
}

// respondResult answers with data, attaching a warning for recoverable store errors
func respondResult(w http.ResponseWriter, status int, data any, err error, what string) {
	if err == nil {
		respondJSON(w, status, data)
		return
	}
	if store.IsRecoverable(err) {
		respondJSONWarning(w, status, data, err)
		return
	}
	respondError(w, err, what)
}

// respondNoContent answers 204, or 200 with a warning envelope for recoverable store errors
func respondNoContent(w http.ResponseWriter, err error, what string) {
	if err == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if store.IsRecoverable(err) {
		respondJSONWarning(w, http.StatusOK, nil, err)
		return
	}
	respondError(w, err, what)
}

// respondError maps domain errors to HTTP status codes
func respondError(w http.ResponseWriter, err error, what string) {
	var validationErr *handbook.ValidationError
	switch {
	case errors.As(err, &validationErr):
		respondJSONError(w, http.StatusBadRequest, "Bad Request", validationMessage(validationErr.Err))
	case errors.Is(err, store.ErrNotFound):
		respondJSONError(w, http.StatusNotFound, "Not Found", what+" not found")
	case errors.Is(err, ingest.ErrExtractionUnavailable):
		respondJSONError(w, http.StatusServiceUnavailable, "Extraction Unavailable", err.Error())
	default:
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to process "+what)
	}
}

func validationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		return fmt.Sprintf("Validation failed: %s", validationErrors[0].Error())
	}
	return "Validation failed"
}
