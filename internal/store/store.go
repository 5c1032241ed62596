// Package store defines persistent storage for enrolled biometric templates.
//
// A template bundles the face embedding, the voice embedding and the
// enrollment metadata of a single user. Backends are interchangeable:
// the file-backed store is the default, postgres and an in-memory store
// are selected through the provider package.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means no template exists for the requested username.
	ErrNotFound = errors.New("template not found")
	// ErrAlreadyExists means a template for the username is already enrolled.
	ErrAlreadyExists = errors.New("template already exists")
	// ErrCorruptTemplate means stored template data exists but cannot be decoded.
	ErrCorruptTemplate = errors.New("template data is corrupt")
	// ErrInvalidUsername means the username fails validation and was never stored.
	ErrInvalidUsername = errors.New("invalid username")
)

// Metadata keys written during enrollment.
const (
	MetaUsername  = "username"
	MetaRole      = "role"
	MetaCreatedBy = "created_by"
	MetaCreatedAt = "created_at"

	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Template is one user's enrolled biometric record.
type Template struct {
	Username string
	FaceVec  []float32
	VoiceVec []float32
	Meta     map[string]string
}

// TemplateStore persists enrolled templates keyed by username.
type TemplateStore interface {
	// Create stores a new template. Returns ErrAlreadyExists if the
	// username is taken. The write is atomic: either the complete
	// template becomes readable or nothing does.
	Create(ctx context.Context, tpl *Template) error

	// Read loads the complete template for a username. Returns
	// ErrNotFound for unknown users and ErrCorruptTemplate when the
	// stored data cannot be decoded. A missing metadata record is
	// tolerated and yields metadata holding only the username.
	Read(ctx context.Context, username string) (*Template, error)

	// List returns the usernames of all enrolled users. An empty store
	// yields an empty slice, never an error.
	List(ctx context.Context) ([]string, error)

	// Metadata loads only the enrollment metadata for a username
	// without decoding the embedding vectors.
	Metadata(ctx context.Context, username string) (map[string]string, error)

	// Close releases backend resources.
	Close() error
}
