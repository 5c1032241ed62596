package handlers

import (
	"net/http"

	"github.com/biogate/biogate/internal/auth"
)

// VerifyHandler handles the verification endpoint.
type VerifyHandler struct {
	svc *auth.Service
}

// NewVerifyHandler creates a new verification handler.
func NewVerifyHandler(svc *auth.Service) *VerifyHandler {
	return &VerifyHandler{svc: svc}
}

// VerifyResponse is the verification decision returned to the client.
// Grant is present only when access was granted.
type VerifyResponse struct {
	Username   string  `json:"username"`
	Granted    bool    `json:"granted"`
	FaceOK     bool    `json:"face_ok"`
	FaceScore  float64 `json:"face_score"`
	VoiceOK    bool    `json:"voice_ok"`
	VoiceScore float64 `json:"voice_score"`
	Grant      string  `json:"grant,omitempty"`
}

// Verify checks the uploaded face and voice samples against the stored
// template of the named user. A denied attempt is still a 200: the
// decision is the payload.
func (h *VerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	req, errMsg := parseEnrollRequest(r)
	if errMsg != "" {
		respondError(w, http.StatusBadRequest, errMsg)
		return
	}

	res, err := h.svc.Verify(r.Context(), req.username, req.image, req.audio)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, VerifyResponse{
		Username:   res.Username,
		Granted:    res.Granted,
		FaceOK:     res.FaceOK,
		FaceScore:  res.FaceScore,
		VoiceOK:    res.VoiceOK,
		VoiceScore: res.VoiceScore,
		Grant:      res.Grant,
	})
}
