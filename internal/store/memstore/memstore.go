// Package memstore implements the template store in process memory.
// It backs tests and throwaway development setups; nothing survives a
// restart.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/biogate/biogate/internal/store"
)

// Store is an in-memory template store.
type Store struct {
	mu        sync.RWMutex
	templates map[string]*store.Template

	// Error injection for tests
	CreateError   error
	ReadError     error
	ListError     error
	MetadataError error
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		templates: make(map[string]*store.Template),
	}
}

// Create stores a new template.
func (s *Store) Create(ctx context.Context, tpl *store.Template) error {
	if s.CreateError != nil {
		return s.CreateError
	}

	username, err := store.CleanUsername(tpl.Username)
	if err != nil {
		return err
	}
	if len(tpl.FaceVec) == 0 {
		return fmt.Errorf("face embedding is empty")
	}
	if len(tpl.VoiceVec) == 0 {
		return fmt.Errorf("voice embedding is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.templates[username]; ok {
		return fmt.Errorf("%w: %s", store.ErrAlreadyExists, username)
	}
	s.templates[username] = clone(tpl, username)

	return nil
}

// Read loads the template for a username.
func (s *Store) Read(ctx context.Context, username string) (*store.Template, error) {
	if s.ReadError != nil {
		return nil, s.ReadError
	}

	username, err := store.CleanUsername(username)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	tpl, ok := s.templates[username]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, username)
	}

	return clone(tpl, username), nil
}

// List returns all enrolled usernames in sorted order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if s.ListError != nil {
		return nil, s.ListError
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]string, 0, len(s.templates))
	for username := range s.templates {
		users = append(users, username)
	}
	sort.Strings(users)

	return users, nil
}

// Metadata loads the enrollment metadata for a username.
func (s *Store) Metadata(ctx context.Context, username string) (map[string]string, error) {
	if s.MetadataError != nil {
		return nil, s.MetadataError
	}

	tpl, err := s.Read(ctx, username)
	if err != nil {
		return nil, err
	}

	return tpl.Meta, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// clone deep-copies a template so callers can never mutate stored state.
func clone(tpl *store.Template, username string) *store.Template {
	out := &store.Template{
		Username: username,
		FaceVec:  append([]float32(nil), tpl.FaceVec...),
		VoiceVec: append([]float32(nil), tpl.VoiceVec...),
		Meta:     make(map[string]string, len(tpl.Meta)+1),
	}
	for k, v := range tpl.Meta {
		out.Meta[k] = v
	}
	out.Meta[store.MetaUsername] = username

	return out
}

// Verify interface compliance
var _ store.TemplateStore = (*Store)(nil)
