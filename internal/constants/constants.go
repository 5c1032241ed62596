// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Upload constants
const (
	// MaxUploadSize is the maximum size of a verification or enrollment
	// request body in bytes (20MB). A request carries one image and one
	// short audio clip.
	MaxUploadSize = 20 << 20
)

// Integrity scan constants
const (
	// CheckWorkers is the number of templates read in parallel by the
	// check command.
	CheckWorkers = 4
)
