package provider

import (
	"context"
	"testing"

	"github.com/biogate/biogate/internal/config"
)

func TestOpenFS(t *testing.T) {
	cfg := &config.Config{}
	cfg.Store.Backend = "fs"
	cfg.Store.Dir = t.TempDir()

	st, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	users, err := st.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(users) != 0 {
		t.Errorf("expected empty store, got %v", users)
	}
}

func TestOpenDefaultsToFS(t *testing.T) {
	cfg := &config.Config{}
	cfg.Store.Backend = ""
	cfg.Store.Dir = t.TempDir()

	st, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	st.Close()
}

func TestOpenMemory(t *testing.T) {
	cfg := &config.Config{}
	cfg.Store.Backend = "memory"

	st, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	st.Close()
}

func TestOpenPostgresRequiresURL(t *testing.T) {
	cfg := &config.Config{}
	cfg.Store.Backend = "postgres"

	if _, err := Open(cfg); err == nil {
		t.Error("Open should fail without DATABASE_URL")
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	cfg := &config.Config{}
	cfg.Store.Backend = "redis"

	if _, err := Open(cfg); err == nil {
		t.Error("Open should fail for an unknown backend")
	}
}
