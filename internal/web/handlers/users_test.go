package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListUsers(t *testing.T) {
	svc, st := matchingService(t)
	seedUser(t, st, "alice", "admin")
	seedUser(t, st, "bob", "user")
	handler := NewUsersHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	recorder := httptest.NewRecorder()

	handler.List(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var res ListResponse
	parseJSONResponse(t, recorder, &res)
	if res.Count != 2 {
		t.Errorf("expected count 2, got %d", res.Count)
	}
	if len(res.Users) != 2 || res.Users[0] != "alice" || res.Users[1] != "bob" {
		t.Errorf("expected sorted usernames [alice bob], got %v", res.Users)
	}
}

func TestListUsersEmpty(t *testing.T) {
	svc, _ := matchingService(t)
	handler := NewUsersHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	recorder := httptest.NewRecorder()

	handler.List(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var res ListResponse
	parseJSONResponse(t, recorder, &res)
	if res.Count != 0 {
		t.Errorf("expected count 0, got %d", res.Count)
	}
	if res.Users == nil {
		t.Error("expected an empty list, got null")
	}
}

func TestGetUserMetadata(t *testing.T) {
	svc, st := matchingService(t)
	seedUser(t, st, "alice", "admin")
	handler := NewUsersHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/alice", nil)
	req = requestWithChiParams(req, map[string]string{"username": "alice"})
	recorder := httptest.NewRecorder()

	handler.Get(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var meta map[string]string
	parseJSONResponse(t, recorder, &meta)
	if meta["username"] != "alice" {
		t.Errorf("expected username 'alice', got '%s'", meta["username"])
	}
	if meta["role"] != "admin" {
		t.Errorf("expected role 'admin', got '%s'", meta["role"])
	}
}

func TestGetUnknownUser(t *testing.T) {
	svc, _ := matchingService(t)
	handler := NewUsersHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/ghost", nil)
	req = requestWithChiParams(req, map[string]string{"username": "ghost"})
	recorder := httptest.NewRecorder()

	handler.Get(recorder, req)

	assertStatusCode(t, recorder, http.StatusNotFound)
	assertJSONError(t, recorder, "user not found")
}

func TestGetUserInvalidUsername(t *testing.T) {
	svc, _ := matchingService(t)
	handler := NewUsersHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/..", nil)
	req = requestWithChiParams(req, map[string]string{"username": ".."})
	recorder := httptest.NewRecorder()

	handler.Get(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "invalid username")
}

func TestGetUserMissingParam(t *testing.T) {
	svc, _ := matchingService(t)
	handler := NewUsersHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/", nil)
	recorder := httptest.NewRecorder()

	handler.Get(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "username is required")
}
