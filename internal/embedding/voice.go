package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const defaultVoiceServiceURL = "http://localhost:8002"

// VoiceClient computes speaker embeddings using the speaker embedding
// service.
type VoiceClient struct {
	client
}

// NewVoiceClient creates a client for the speaker embedding service.
func NewVoiceClient(baseURL string) *VoiceClient {
	return &VoiceClient{client: newClient(baseURL, defaultVoiceServiceURL)}
}

// speakerResponse represents the response from the speaker embedding service.
type speakerResponse struct {
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
	Model     string    `json:"model"`
	Duration  float64   `json:"duration"`
}

// Extract computes the speaker embedding for an audio sample. Returns
// ErrVoiceExtraction when the service rejects the audio or cannot
// produce an embedding from it.
func (c *VoiceClient) Extract(ctx context.Context, audioData []byte) ([]float32, error) {
	filename := "sample" + audioExtension(audioData)

	body, status, err := c.postMultipart(ctx, "/embed/speaker", filename, detectAudioMIME(audioData), audioData)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusOK:
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		// The service decodes the audio itself; a 4xx means the sample
		// was unusable, not that the service is down.
		return nil, fmt.Errorf("%w: %s", ErrVoiceExtraction, string(body))
	default:
		return nil, fmt.Errorf("speaker service error (status %d): %s", status, string(body))
	}

	var spkResp speakerResponse
	if err := json.Unmarshal(body, &spkResp); err != nil {
		return nil, fmt.Errorf("failed to parse speaker response: %w", err)
	}

	if len(spkResp.Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding returned", ErrVoiceExtraction)
	}

	return spkResp.Embedding, nil
}
