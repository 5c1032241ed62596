// Package embedding talks to the external face and speaker embedding
// services. Both services accept a multipart file upload and answer
// with JSON carrying one or more embedding vectors.
package embedding

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

var (
	// ErrNoFaceDetected means the face service found no face in the image.
	ErrNoFaceDetected = errors.New("no face detected in image")
	// ErrVoiceExtraction means the speaker service could not produce an
	// embedding from the audio.
	ErrVoiceExtraction = errors.New("voice embedding extraction failed")
)

// client is the shared HTTP plumbing for both embedding services.
type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL, defaultURL string) client {
	if baseURL == "" {
		baseURL = defaultURL
	}
	return client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{},
	}
}

// postMultipart uploads data as a single multipart file part to the given
// endpoint. The part carries an explicit Content-Type from magic byte
// detection so the service does not have to sniff the payload again.
func (c *client) postMultipart(ctx context.Context, endpoint, filename, mimeType string, data []byte) ([]byte, int, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := part.Write(data); err != nil {
		return nil, 0, fmt.Errorf("failed to write upload data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, 0, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}

	return body, resp.StatusCode, nil
}
