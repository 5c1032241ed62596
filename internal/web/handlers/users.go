package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/biogate/biogate/internal/auth"
)

// UsersHandler handles user listing and metadata endpoints.
type UsersHandler struct {
	svc *auth.Service
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(svc *auth.Service) *UsersHandler {
	return &UsersHandler{svc: svc}
}

// ListResponse wraps the enrolled usernames.
type ListResponse struct {
	Users []string `json:"users"`
	Count int      `json:"count"`
}

// List returns all enrolled usernames in sorted order.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ListResponse{Users: users, Count: len(users)})
}

// Get returns the enrollment metadata of one user.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if username == "" {
		respondError(w, http.StatusBadRequest, "username is required")
		return
	}

	meta, err := h.svc.Metadata(r.Context(), username)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, meta)
}
