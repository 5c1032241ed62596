package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/biogate/biogate/internal/auth"
	"github.com/biogate/biogate/internal/embedding"
	"github.com/biogate/biogate/internal/web/middleware"
)

func bootstrapRequest(t *testing.T, username string, face, voice []byte) *http.Request {
	t.Helper()
	body, contentType := sampleForm(t, username, face, voice)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bootstrap", body)
	req.Header.Set("Content-Type", contentType)
	return req
}

func TestBootstrapCreatesAdmin(t *testing.T) {
	svc, _ := matchingService(t)
	handler := NewEnrollHandler(svc)

	recorder := httptest.NewRecorder()
	handler.Bootstrap(recorder, bootstrapRequest(t, "root", []byte("img"), []byte("wav")))

	assertStatusCode(t, recorder, http.StatusCreated)

	var meta map[string]string
	parseJSONResponse(t, recorder, &meta)
	if meta["username"] != "root" {
		t.Errorf("expected username 'root', got '%s'", meta["username"])
	}
	if meta["role"] != "admin" {
		t.Errorf("expected role 'admin', got '%s'", meta["role"])
	}
	if meta["created_at"] == "" {
		t.Error("expected created_at to be set")
	}
}

func TestBootstrapAlreadyInitialized(t *testing.T) {
	svc, st := matchingService(t)
	seedUser(t, st, "root", "admin")
	handler := NewEnrollHandler(svc)

	recorder := httptest.NewRecorder()
	handler.Bootstrap(recorder, bootstrapRequest(t, "second", []byte("img"), []byte("wav")))

	assertStatusCode(t, recorder, http.StatusConflict)
	assertJSONError(t, recorder, "an admin user already exists")
}

func TestBootstrapMissingUsername(t *testing.T) {
	svc, _ := matchingService(t)
	handler := NewEnrollHandler(svc)

	recorder := httptest.NewRecorder()
	handler.Bootstrap(recorder, bootstrapRequest(t, "", []byte("img"), []byte("wav")))

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "username is required")
}

func TestBootstrapMissingSamples(t *testing.T) {
	tests := []struct {
		name          string
		face          []byte
		voice         []byte
		expectedError string
	}{
		{"missing face", nil, []byte("wav"), "face sample is required"},
		{"missing voice", []byte("img"), nil, "voice sample is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := matchingService(t)
			handler := NewEnrollHandler(svc)

			recorder := httptest.NewRecorder()
			handler.Bootstrap(recorder, bootstrapRequest(t, "root", tt.face, tt.voice))

			assertStatusCode(t, recorder, http.StatusBadRequest)
			assertJSONError(t, recorder, tt.expectedError)
		})
	}
}

func TestBootstrapInvalidBody(t *testing.T) {
	svc, _ := matchingService(t)
	handler := NewEnrollHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bootstrap", strings.NewReader("not a form"))
	req.Header.Set("Content-Type", "text/plain")
	recorder := httptest.NewRecorder()

	handler.Bootstrap(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "failed to parse multipart form")
}

func TestBootstrapRejectsTraversalUsername(t *testing.T) {
	svc, _ := matchingService(t)
	handler := NewEnrollHandler(svc)

	recorder := httptest.NewRecorder()
	handler.Bootstrap(recorder, bootstrapRequest(t, "../evil", []byte("img"), []byte("wav")))

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "invalid username")
}

func TestBootstrapNoFaceDetected(t *testing.T) {
	svc, _ := newTestService(t,
		&fakeExtractor{err: embedding.ErrNoFaceDetected},
		&fakeExtractor{vec: matchVec},
	)
	handler := NewEnrollHandler(svc)

	recorder := httptest.NewRecorder()
	handler.Bootstrap(recorder, bootstrapRequest(t, "root", []byte("img"), []byte("wav")))

	assertStatusCode(t, recorder, http.StatusUnprocessableEntity)
	assertJSONError(t, recorder, "no face detected in image")
}

func enrollRequestWithGrant(t *testing.T, token, username string, face, voice []byte) *http.Request {
	t.Helper()
	body, contentType := sampleForm(t, username, face, voice)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/enroll", body)
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		ctx := middleware.SetGrantInContext(req.Context(), &auth.Grant{Username: "root", Role: "admin"}, token)
		req = req.WithContext(ctx)
	}
	return req
}

func TestEnrollCreatesUser(t *testing.T) {
	svc, st := matchingService(t)
	seedUser(t, st, "root", "admin")
	handler := NewEnrollHandler(svc)

	token := testGrant(t, "root", "admin")
	recorder := httptest.NewRecorder()
	handler.Enroll(recorder, enrollRequestWithGrant(t, token, "bob", []byte("img"), []byte("wav")))

	assertStatusCode(t, recorder, http.StatusCreated)

	var meta map[string]string
	parseJSONResponse(t, recorder, &meta)
	if meta["username"] != "bob" {
		t.Errorf("expected username 'bob', got '%s'", meta["username"])
	}
	if meta["role"] != "user" {
		t.Errorf("expected role 'user', got '%s'", meta["role"])
	}
	if meta["created_by"] != "root" {
		t.Errorf("expected created_by 'root', got '%s'", meta["created_by"])
	}
}

func TestEnrollWithoutGrant(t *testing.T) {
	svc, st := matchingService(t)
	seedUser(t, st, "root", "admin")
	handler := NewEnrollHandler(svc)

	recorder := httptest.NewRecorder()
	handler.Enroll(recorder, enrollRequestWithGrant(t, "", "bob", []byte("img"), []byte("wav")))

	assertStatusCode(t, recorder, http.StatusUnauthorized)
	assertJSONError(t, recorder, "enrollment grant required")
}

func TestEnrollForgedGrant(t *testing.T) {
	svc, st := matchingService(t)
	seedUser(t, st, "root", "admin")
	handler := NewEnrollHandler(svc)

	forged, err := auth.NewGrantIssuer("other-secret", time.Minute).Issue("root", "admin")
	if err != nil {
		t.Fatalf("failed to issue forged grant: %v", err)
	}

	recorder := httptest.NewRecorder()
	handler.Enroll(recorder, enrollRequestWithGrant(t, forged, "bob", []byte("img"), []byte("wav")))

	assertStatusCode(t, recorder, http.StatusUnauthorized)
	assertJSONError(t, recorder, "invalid enrollment grant")
}

func TestEnrollDuplicateUser(t *testing.T) {
	svc, st := matchingService(t)
	seedUser(t, st, "root", "admin")
	seedUser(t, st, "bob", "user")
	handler := NewEnrollHandler(svc)

	token := testGrant(t, "root", "admin")
	recorder := httptest.NewRecorder()
	handler.Enroll(recorder, enrollRequestWithGrant(t, token, "bob", []byte("img"), []byte("wav")))

	assertStatusCode(t, recorder, http.StatusConflict)
	assertJSONError(t, recorder, "user already enrolled")
}

func TestEnrollRejectsTraversalUsername(t *testing.T) {
	svc, st := matchingService(t)
	seedUser(t, st, "root", "admin")
	handler := NewEnrollHandler(svc)

	token := testGrant(t, "root", "admin")
	for _, username := range []string{"../evil", "a/b", ".hidden"} {
		recorder := httptest.NewRecorder()
		handler.Enroll(recorder, enrollRequestWithGrant(t, token, username, []byte("img"), []byte("wav")))

		assertStatusCode(t, recorder, http.StatusBadRequest)
		assertJSONError(t, recorder, "invalid username")
	}
}
