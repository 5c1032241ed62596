// Package fsstore implements the template store on the local filesystem.
//
// Each user owns one directory under the store root:
//
//	<root>/<username>/face_enc.cbor   CBOR-encoded face embedding
//	<root>/<username>/voice_enc.cbor  CBOR-encoded voice embedding
//	<root>/<username>/meta.json       enrollment metadata
//
// New templates are assembled in a hidden staging directory and renamed
// into place, so readers never observe a half-written user directory.
package fsstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/biogate/biogate/internal/store"
)

const (
	faceFile  = "face_enc.cbor"
	voiceFile = "voice_enc.cbor"
	metaFile  = "meta.json"

	stagingDir = ".staging"

	dirPerm  = 0o755
	filePerm = 0o644
)

// Store is a file-backed template store rooted at a single directory.
type Store struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates the store root if needed and returns a store over it.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("store root must not be empty")
	}
	if err := os.MkdirAll(root, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create store root: %w", err)
	}

	return &Store{
		root:  root,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

// userLock returns the creation lock for a username, allocating it on
// first use. Serializing creates per username closes the window between
// the existence check and the final rename.
func (s *Store) userLock(username string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[username]
	if !ok {
		l = &sync.Mutex{}
		s.locks[username] = l
	}
	return l
}

func (s *Store) userDir(username string) string {
	return filepath.Join(s.root, username)
}

// Create stores a new template. The template directory appears atomically:
// all three files are written to a staging directory first and the
// directory is renamed into place as the last step.
func (s *Store) Create(ctx context.Context, tpl *store.Template) error {
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
	if err := ctx.Err(); err != nil {
		return err
	}

	lock := s.userLock(username)
	lock.Lock()
	defer lock.Unlock()

	if _, err := os.Stat(s.userDir(username)); err == nil {
		return fmt.Errorf("%w: %s", store.ErrAlreadyExists, username)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to check user directory: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(s.root, stagingDir), dirPerm); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	staging, err := os.MkdirTemp(filepath.Join(s.root, stagingDir), username+"-*")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging) // no-op after a successful rename

	if err := writeVector(filepath.Join(staging, faceFile), tpl.FaceVec); err != nil {
		return fmt.Errorf("failed to write face embedding: %w", err)
	}
	if err := writeVector(filepath.Join(staging, voiceFile), tpl.VoiceVec); err != nil {
		return fmt.Errorf("failed to write voice embedding: %w", err)
	}

	meta := make(map[string]string, len(tpl.Meta)+1)
	for k, v := range tpl.Meta {
		meta[k] = v
	}
	meta[store.MetaUsername] = username

	metaData, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(staging, metaFile), metaData, filePerm); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	if err := os.Rename(staging, s.userDir(username)); err != nil {
		// Another process may have claimed the directory between the
		// stat above and this rename.
		if errors.Is(err, fs.ErrExist) || isDirNotEmpty(err) {
			return fmt.Errorf("%w: %s", store.ErrAlreadyExists, username)
		}
		return fmt.Errorf("failed to finalize template: %w", err)
	}

	return nil
}

// Read loads the complete template for a username.
func (s *Store) Read(ctx context.Context, username string) (*store.Template, error) {
	username, err := store.CleanUsername(username)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := s.userDir(username)
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, username)
	} else if err != nil {
		return nil, fmt.Errorf("failed to check user directory: %w", err)
	}

	faceVec, err := readVector(filepath.Join(dir, faceFile))
	if err != nil {
		return nil, fmt.Errorf("%w: face embedding for %s: %v", store.ErrCorruptTemplate, username, err)
	}
	voiceVec, err := readVector(filepath.Join(dir, voiceFile))
	if err != nil {
		return nil, fmt.Errorf("%w: voice embedding for %s: %v", store.ErrCorruptTemplate, username, err)
	}

	meta, err := s.readMeta(username)
	if err != nil {
		return nil, err
	}

	return &store.Template{
		Username: username,
		FaceVec:  faceVec,
		VoiceVec: voiceVec,
		Meta:     meta,
	}, nil
}

// List returns all enrolled usernames in sorted order. A missing store
// root means nothing was ever enrolled.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.root)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read store root: %w", err)
	}

	users := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		users = append(users, entry.Name())
	}
	sort.Strings(users)

	return users, nil
}

// Metadata loads only the enrollment metadata for a username.
func (s *Store) Metadata(ctx context.Context, username string) (map[string]string, error) {
	username, err := store.CleanUsername(username)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(s.userDir(username)); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, username)
	} else if err != nil {
		return nil, fmt.Errorf("failed to check user directory: %w", err)
	}

	return s.readMeta(username)
}

// Close is a no-op for the file-backed store.
func (s *Store) Close() error {
	return nil
}

// readMeta reads meta.json for an existing user. A missing file is
// tolerated for templates written by older tooling and yields metadata
// holding only the username.
func (s *Store) readMeta(username string) (map[string]string, error) {
	data, err := os.ReadFile(filepath.Join(s.userDir(username), metaFile))
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{store.MetaUsername: username}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	meta := make(map[string]string)
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: metadata for %s: %v", store.ErrCorruptTemplate, username, err)
	}
	if _, ok := meta[store.MetaUsername]; !ok {
		meta[store.MetaUsername] = username
	}

	return meta, nil
}

func writeVector(path string, vec []float32) error {
	data, err := cbor.Marshal(vec)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, filePerm)
}

func readVector(path string) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var vec []float32
	if err := cbor.Unmarshal(data, &vec); err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("embedding is empty")
	}

	return vec, nil
}

// isDirNotEmpty reports whether a rename failed because the target
// directory already exists with content (ENOTEMPTY on Linux).
func isDirNotEmpty(err error) bool {
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) {
		return false
	}
	return strings.Contains(linkErr.Err.Error(), "not empty")
}
