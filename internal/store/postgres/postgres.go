// Package postgres implements the template store on PostgreSQL with the
// pgvector extension. Embeddings live in vector columns, metadata in
// JSONB, and the username primary key makes duplicate enrollment a
// database-level impossibility.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/biogate/biogate/internal/store"
)

// uniqueViolation is the PostgreSQL error code for duplicate keys.
const uniqueViolation = "23505"

// Config holds connection settings and the embedding dimensions the
// schema is created with.
type Config struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	FaceDim      int
	VoiceDim     int
}

// Store is a PostgreSQL-backed template store.
type Store struct {
	db       *sql.DB
	faceDim  int
	voiceDim int
}

// New opens a connection pool, verifies connectivity and ensures the
// schema exists.
func New(cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, errors.New("database URL is required")
	}
	if cfg.FaceDim <= 0 || cfg.VoiceDim <= 0 {
		return nil, errors.New("embedding dimensions must be positive")
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, faceDim: cfg.FaceDim, voiceDim: cfg.VoiceDim}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// migrate creates the pgvector extension and the templates table. The
// vector column dimensions come from the configuration, so the schema
// cannot be shipped as static SQL files.
func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}

	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS templates (
			username   TEXT PRIMARY KEY,
			face_enc   vector(%d) NOT NULL,
			voice_enc  vector(%d) NOT NULL,
			meta       JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`, s.faceDim, s.voiceDim)

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create templates table: %w", err)
	}

	return nil
}

// Create stores a new template.
func (s *Store) Create(ctx context.Context, tpl *store.Template) error {
	username, err := store.CleanUsername(tpl.Username)
	if err != nil {
		return err
	}
	if len(tpl.FaceVec) != s.faceDim {
		return fmt.Errorf("face embedding has %d dimensions, store expects %d", len(tpl.FaceVec), s.faceDim)
	}
	if len(tpl.VoiceVec) != s.voiceDim {
		return fmt.Errorf("voice embedding has %d dimensions, store expects %d", len(tpl.VoiceVec), s.voiceDim)
	}

	meta := make(map[string]string, len(tpl.Meta)+1)
	for k, v := range tpl.Meta {
		meta[k] = v
	}
	meta[store.MetaUsername] = username

	metaData, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	query := `
		INSERT INTO templates (username, face_enc, voice_enc, meta)
		VALUES ($1, $2, $3, $4)
	`
	_, err = s.db.ExecContext(ctx, query,
		username,
		pgvector.NewVector(tpl.FaceVec),
		pgvector.NewVector(tpl.VoiceVec),
		metaData,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", store.ErrAlreadyExists, username)
		}
		return fmt.Errorf("insert template: %w", err)
	}

	return nil
}

// Read loads the complete template for a username.
func (s *Store) Read(ctx context.Context, username string) (*store.Template, error) {
	username, err := store.CleanUsername(username)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT face_enc, voice_enc, meta
		FROM templates
		WHERE username = $1
	`

	var faceVec, voiceVec pgvector.Vector
	var metaData []byte

	err = s.db.QueryRowContext(ctx, query, username).Scan(&faceVec, &voiceVec, &metaData)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, username)
	}
	if err != nil {
		return nil, fmt.Errorf("query template: %w", err)
	}

	meta, err := decodeMeta(metaData, username)
	if err != nil {
		return nil, err
	}

	return &store.Template{
		Username: username,
		FaceVec:  faceVec.Slice(),
		VoiceVec: voiceVec.Slice(),
		Meta:     meta,
	}, nil
}

// List returns all enrolled usernames in sorted order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT username FROM templates ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("query usernames: %w", err)
	}
	defer rows.Close()

	users := []string{}
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, fmt.Errorf("scan username: %w", err)
		}
		users = append(users, username)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usernames: %w", err)
	}

	return users, nil
}

// Metadata loads only the enrollment metadata for a username.
func (s *Store) Metadata(ctx context.Context, username string) (map[string]string, error) {
	username, err := store.CleanUsername(username)
	if err != nil {
		return nil, err
	}

	var metaData []byte
	err = s.db.QueryRowContext(ctx, "SELECT meta FROM templates WHERE username = $1", username).Scan(&metaData)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, username)
	}
	if err != nil {
		return nil, fmt.Errorf("query metadata: %w", err)
	}

	return decodeMeta(metaData, username)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}

func decodeMeta(data []byte, username string) (map[string]string, error) {
	meta := make(map[string]string)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &meta); err != nil {
			return nil, fmt.Errorf("%w: metadata for %s: %v", store.ErrCorruptTemplate, username, err)
		}
	}
	if _, ok := meta[store.MetaUsername]; !ok {
		meta[store.MetaUsername] = username
	}

	return meta, nil
}

// Verify interface compliance
var _ store.TemplateStore = (*Store)(nil)
