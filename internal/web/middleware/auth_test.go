package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/biogate/biogate/internal/auth"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{"valid", "Bearer abc.def.ghi", "abc.def.ghi"},
		{"lowercase scheme", "bearer abc", "abc"},
		{"missing header", "", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz", ""},
		{"scheme only", "Bearer", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if got := bearerToken(req); got != tc.expected {
				t.Errorf("bearerToken() = %q, want %q", got, tc.expected)
			}
		})
	}
}

func TestRequireGrant(t *testing.T) {
	grants := auth.NewGrantIssuer("test-secret", time.Minute)
	token, err := grants.Issue("alice", "admin")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	handlerCalled := false
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		grant := GrantFromContext(r.Context())
		if grant == nil {
			t.Error("Grant not found in context")
		} else if grant.Username != "alice" {
			t.Errorf("Grant username = %s, want alice", grant.Username)
		}
		if GrantTokenFromContext(r.Context()) != token {
			t.Error("Raw token not found in context")
		}
		w.WriteHeader(http.StatusOK)
	})

	protectedHandler := RequireGrant(grants)(testHandler)

	t.Run("valid grant", func(t *testing.T) {
		handlerCalled = false
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		protectedHandler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		if !handlerCalled {
			t.Error("Handler was not called")
		}
	})

	t.Run("missing grant", func(t *testing.T) {
		handlerCalled = false
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/protected", nil)

		protectedHandler.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
		if handlerCalled {
			t.Error("Handler should not be called for unauthorized request")
		}
	})

	t.Run("forged grant", func(t *testing.T) {
		other := auth.NewGrantIssuer("other-secret", time.Minute)
		forged, err := other.Issue("mallory", "admin")
		if err != nil {
			t.Fatalf("Issue() error = %v", err)
		}

		handlerCalled = false
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+forged)

		protectedHandler.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
		if handlerCalled {
			t.Error("Handler should not be called for a forged grant")
		}
	})

	t.Run("expired grant", func(t *testing.T) {
		expired := auth.NewGrantIssuer("test-secret", -time.Minute)
		old, err := expired.Issue("alice", "admin")
		if err != nil {
			t.Fatalf("Issue() error = %v", err)
		}

		handlerCalled = false
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+old)

		protectedHandler.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})
}

func TestGrantFromContext(t *testing.T) {
	grant := &auth.Grant{Username: "alice", Role: "admin"}
	ctx := SetGrantInContext(context.Background(), grant, "raw-token")

	retrieved := GrantFromContext(ctx)
	if retrieved == nil {
		t.Fatal("GrantFromContext() returned nil")
	}
	if retrieved.Username != "alice" {
		t.Errorf("Username = %s, want alice", retrieved.Username)
	}
	if GrantTokenFromContext(ctx) != "raw-token" {
		t.Error("GrantTokenFromContext() did not return the stored token")
	}

	if GrantFromContext(context.Background()) != nil {
		t.Error("GrantFromContext() should return nil for empty context")
	}
	if GrantTokenFromContext(context.Background()) != "" {
		t.Error("GrantTokenFromContext() should return empty for empty context")
	}
}
