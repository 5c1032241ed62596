package handlers

import (
	"net/http"

	"github.com/biogate/biogate/internal/auth"
	"github.com/biogate/biogate/internal/constants"
	"github.com/biogate/biogate/internal/web/middleware"
)

// EnrollHandler handles the bootstrap and enrollment endpoints.
type EnrollHandler struct {
	svc *auth.Service
}

// NewEnrollHandler creates a new enrollment handler.
func NewEnrollHandler(svc *auth.Service) *EnrollHandler {
	return &EnrollHandler{svc: svc}
}

// enrollRequest holds the parsed multipart fields shared by bootstrap
// and enroll.
type enrollRequest struct {
	username string
	image    []byte
	audio    []byte
}

// parseEnrollRequest parses the multipart form carrying a username and
// the two sample files. Returns an error message suitable for the
// client when the request is invalid.
func parseEnrollRequest(r *http.Request) (enrollRequest, string) {
	var req enrollRequest

	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		return req, "failed to parse multipart form"
	}

	req.username = r.FormValue("username")
	if req.username == "" {
		return req, "username is required"
	}

	image, err := readSampleFile(r, "face")
	if err != nil {
		return req, "face sample is required"
	}
	req.image = image

	audio, err := readSampleFile(r, "voice")
	if err != nil {
		return req, "voice sample is required"
	}
	req.audio = audio

	return req, ""
}

// Bootstrap enrolls the very first user with the admin role. Available
// only while the store is empty.
func (h *EnrollHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	req, errMsg := parseEnrollRequest(r)
	if errMsg != "" {
		respondError(w, http.StatusBadRequest, errMsg)
		return
	}

	meta, err := h.svc.BootstrapAdmin(r.Context(), req.username, req.image, req.audio)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, meta)
}

// Enroll stores a template for a new user. Requires an enrollment
// grant from a recent successful verification.
func (h *EnrollHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	token := middleware.GrantTokenFromContext(r.Context())
	if token == "" {
		respondError(w, http.StatusUnauthorized, "enrollment grant required")
		return
	}

	req, errMsg := parseEnrollRequest(r)
	if errMsg != "" {
		respondError(w, http.StatusBadRequest, errMsg)
		return
	}

	meta, err := h.svc.Enroll(r.Context(), token, req.username, req.image, req.audio)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, meta)
}
