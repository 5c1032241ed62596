package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/biogate/biogate/internal/auth"
	"github.com/biogate/biogate/internal/embedding"
	"github.com/biogate/biogate/internal/store"
)

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors onto HTTP status codes.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidUsername):
		respondError(w, http.StatusBadRequest, "invalid username")
	case errors.Is(err, auth.ErrEmptySample):
		respondError(w, http.StatusBadRequest, "biometric sample is empty")
	case errors.Is(err, auth.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, "invalid enrollment grant")
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, store.ErrAlreadyExists):
		respondError(w, http.StatusConflict, "user already enrolled")
	case errors.Is(err, auth.ErrAlreadyBootstrapped):
		respondError(w, http.StatusConflict, "an admin user already exists")
	case errors.Is(err, embedding.ErrNoFaceDetected):
		respondError(w, http.StatusUnprocessableEntity, "no face detected in image")
	case errors.Is(err, embedding.ErrVoiceExtraction):
		respondError(w, http.StatusUnprocessableEntity, "voice embedding extraction failed")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "embedding extraction timed out")
	case errors.Is(err, store.ErrCorruptTemplate):
		respondError(w, http.StatusInternalServerError, "stored template is corrupt")
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// readSampleFile reads one uploaded sample file fully into memory.
func readSampleFile(r *http.Request, field string) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
