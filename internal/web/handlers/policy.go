package handlers

import (
	"net/http"

	"github.com/biogate/biogate/internal/config"
)

// PolicyHandler handles policy introspection endpoints
type PolicyHandler struct {
	config *config.Config
}

// NewPolicyHandler creates a new policy handler
func NewPolicyHandler(cfg *config.Config) *PolicyHandler {
	return &PolicyHandler{
		config: cfg,
	}
}

// PolicyResponse describes the active decision policy. The grant secret
// is never included.
type PolicyResponse struct {
	FaceThreshold    float64 `json:"face_threshold"`
	VoiceThreshold   float64 `json:"voice_threshold"`
	FaceDim          int     `json:"face_dim"`
	VoiceDim         int     `json:"voice_dim"`
	GrantTTL         string  `json:"grant_ttl"`
	RequireAdminRole bool    `json:"require_admin_role"`
	StoreBackend     string  `json:"store_backend"`
}

// Get returns the active verification policy
func (h *PolicyHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, PolicyResponse{
		FaceThreshold:    h.config.Face.Threshold,
		VoiceThreshold:   h.config.Voice.Threshold,
		FaceDim:          h.config.Face.Dim,
		VoiceDim:         h.config.Voice.Dim,
		GrantTTL:         h.config.Grant.TTL.String(),
		RequireAdminRole: h.config.Grant.RequireAdminRole,
		StoreBackend:     h.config.Store.Backend,
	})
}
