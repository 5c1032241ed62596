package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/biogate/biogate/internal/auth"
	"github.com/biogate/biogate/internal/logging"
	"github.com/biogate/biogate/internal/store"
	"github.com/biogate/biogate/internal/store/memstore"
)

// Canned embeddings: cosine similarity against tplVec is the first
// component because tplVec is the unit x vector.
var (
	tplVec   = []float32{1, 0}
	matchVec = []float32{1, 0}
	weakVec  = []float32{0.5, 0.8660254}
)

// fakeExtractor returns canned embeddings keyed by sample payload,
// falling back to the static vec.
type fakeExtractor struct {
	vec  []float32
	vecs map[string][]float32
	err  error
}

func (f *fakeExtractor) Extract(ctx context.Context, data []byte) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vecs[string(data)]; ok {
		return v, nil
	}
	return f.vec, nil
}

// newTestService builds an auth.Service over an in-memory store with
// the given extractors and default thresholds.
func newTestService(t *testing.T, face, voice auth.Extractor) (*auth.Service, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	issuer := auth.NewGrantIssuer("test-secret", time.Minute)
	policy := auth.Policy{FaceThreshold: 0.55, VoiceThreshold: 0.60}
	log := logging.NewJSON(io.Discard, slog.LevelError)
	return auth.NewService(st, face, voice, issuer, policy, log), st
}

// matchingService builds a service whose extractors always match the
// seeded template.
func matchingService(t *testing.T) (*auth.Service, *memstore.Store) {
	t.Helper()
	return newTestService(t, &fakeExtractor{vec: matchVec}, &fakeExtractor{vec: matchVec})
}

// seedUser plants a template directly in the store.
func seedUser(t *testing.T, st *memstore.Store, username, role string) {
	t.Helper()
	err := st.Create(context.Background(), &store.Template{
		Username: username,
		FaceVec:  tplVec,
		VoiceVec: tplVec,
		Meta: map[string]string{
			store.MetaUsername: username,
			store.MetaRole:     role,
		},
	})
	if err != nil {
		t.Fatalf("failed to seed user %s: %v", username, err)
	}
}

// testGrant mints an enrollment grant accepted by services built with
// newTestService.
func testGrant(t *testing.T, username, role string) string {
	t.Helper()
	token, err := auth.NewGrantIssuer("test-secret", time.Minute).Issue(username, role)
	if err != nil {
		t.Fatalf("failed to issue grant: %v", err)
	}
	return token
}

// sampleForm builds a multipart body with the username field and the
// face and voice sample files. Nil samples are omitted.
func sampleForm(t *testing.T, username string, face, voice []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if username != "" {
		if err := writer.WriteField("username", username); err != nil {
			t.Fatalf("failed to write username field: %v", err)
		}
	}
	if face != nil {
		part, err := writer.CreateFormFile("face", "face.jpg")
		if err != nil {
			t.Fatalf("failed to create face part: %v", err)
		}
		part.Write(face)
	}
	if voice != nil {
		part, err := writer.CreateFormFile("voice", "voice.wav")
		if err != nil {
			t.Fatalf("failed to create voice part: %v", err)
		}
		part.Write(voice)
	}
	writer.Close()

	return body, writer.FormDataContentType()
}

// requestWithChiParams creates a request with chi URL parameters.
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type.
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code.
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertJSONError checks if the response is a JSON error with the expected message.
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
