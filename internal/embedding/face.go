package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	defaultFaceServiceURL = "http://localhost:8001"

	// maxImageDim bounds the longer edge of uploaded images. Phone
	// photos are routinely 4000px and the detector gains nothing from
	// the extra resolution, it only slows inference down.
	maxImageDim = 1600
)

// FaceClient computes face embeddings using the face embedding service.
type FaceClient struct {
	client
}

// NewFaceClient creates a client for the face embedding service.
func NewFaceClient(baseURL string) *FaceClient {
	return &FaceClient{client: newClient(baseURL, defaultFaceServiceURL)}
}

// faceDetection represents a single detected face.
type faceDetection struct {
	FaceIndex int       `json:"face_index"`
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
	BBox      []float64 `json:"bbox"` // [x1, y1, x2, y2]
	DetScore  float64   `json:"det_score"`
}

// faceResponse represents the response from the face embedding service.
type faceResponse struct {
	FacesCount int             `json:"faces_count"`
	Faces      []faceDetection `json:"faces"`
	Model      string          `json:"model"`
}

// Extract detects faces in the image and returns the embedding of the
// first one. Returns ErrNoFaceDetected when the service finds no face.
func (c *FaceClient) Extract(ctx context.Context, imageData []byte) ([]float32, error) {
	// Oversized images are downscaled before upload. If the data does
	// not decode locally it is sent as-is and the service decides.
	if scaled, err := Downscale(imageData, maxImageDim); err == nil {
		imageData = scaled
	}

	body, status, err := c.postMultipart(ctx, "/embed/face", "image.jpg", detectImageMIME(imageData), imageData)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("face service error (status %d): %s", status, string(body))
	}

	var faceResp faceResponse
	if err := json.Unmarshal(body, &faceResp); err != nil {
		return nil, fmt.Errorf("failed to parse face response: %w", err)
	}

	if faceResp.FacesCount == 0 || len(faceResp.Faces) == 0 {
		return nil, ErrNoFaceDetected
	}

	// Multiple faces in frame: the first detection wins.
	embedding := faceResp.Faces[0].Embedding
	if len(embedding) == 0 {
		return nil, fmt.Errorf("face service returned an empty embedding")
	}

	return embedding, nil
}
