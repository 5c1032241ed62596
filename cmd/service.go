package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/biogate/biogate/internal/auth"
	"github.com/biogate/biogate/internal/config"
	"github.com/biogate/biogate/internal/embedding"
	"github.com/biogate/biogate/internal/logging"
	"github.com/biogate/biogate/internal/store"
	"github.com/biogate/biogate/internal/store/provider"
)

// buildService wires the auth service from configuration. The caller
// owns the returned store and must close it.
func buildService(cfg *config.Config, log logging.Logger) (*auth.Service, store.TemplateStore, *auth.GrantIssuer, error) {
	if cfg.Grant.Secret == "" {
		return nil, nil, nil, errors.New("GRANT_SECRET environment variable is required")
	}

	st, err := provider.Open(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening template store: %w", err)
	}

	issuer := auth.NewGrantIssuer(cfg.Grant.Secret, cfg.Grant.TTL)
	svc := auth.NewService(
		st,
		embedding.NewFaceClient(cfg.Face.ServiceURL),
		embedding.NewVoiceClient(cfg.Voice.ServiceURL),
		issuer,
		auth.Policy{
			FaceThreshold:    cfg.Face.Threshold,
			VoiceThreshold:   cfg.Voice.Threshold,
			RequireAdminRole: cfg.Grant.RequireAdminRole,
			ExtractTimeout:   cfg.Extract.Timeout,
		},
		log,
	)
	return svc, st, issuer, nil
}

// readSample reads one biometric sample file fully into memory.
func readSample(path, kind string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("--%s flag is required", kind)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s sample: %w", kind, err)
	}
	return data, nil
}
