// Package apperr holds the sentinel errors shared between the note service
// and its transports.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	// ErrNameEscapes is returned when name confinement is enabled and a note
	// name resolves outside the cache directory.
	ErrNameEscapes = errors.New("name escapes cache directory")
)
