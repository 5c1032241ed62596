// Package provider opens the template store backend selected by the
// configuration. It exists separately from package store so the
// backend packages can depend on the store interfaces without a cycle.
package provider

import (
	"fmt"

	"github.com/biogate/biogate/internal/config"
	"github.com/biogate/biogate/internal/store"
	"github.com/biogate/biogate/internal/store/fsstore"
	"github.com/biogate/biogate/internal/store/memstore"
	"github.com/biogate/biogate/internal/store/postgres"
)

// Open creates the configured TemplateStore. Supported backends are
// "fs" (default), "postgres" and "memory".
func Open(cfg *config.Config) (store.TemplateStore, error) {
	switch cfg.Store.Backend {
	case "", "fs":
		return fsstore.New(cfg.Store.Dir)
	case "postgres":
		if cfg.Store.Database.URL == "" {
			return nil, fmt.Errorf("postgres backend requires DATABASE_URL")
		}
		return postgres.New(postgres.Config{
			URL:          cfg.Store.Database.URL,
			MaxOpenConns: cfg.Store.Database.MaxOpenConns,
			MaxIdleConns: cfg.Store.Database.MaxIdleConns,
			FaceDim:      cfg.Face.Dim,
			VoiceDim:     cfg.Voice.Dim,
		})
	case "memory":
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
