// Package storage defines the cache-directory abstraction notes are kept in.
package storage

import "github.com/starford/notecache/internal/models"

// Provider is the interface for note file operations. Names are note names
// without the .txt extension; implementations append it.
type Provider interface {
	// Root returns the absolute path of the cache directory.
	Root() string
	// Exists reports whether a file backs the named note.
	Exists(name string) (bool, error)
	// Read returns the full contents of the named note.
	Read(name string) ([]byte, error)
	// Write atomically replaces the contents of the named note.
	Write(name string, content []byte) error
	// Create writes a new note and fails with an error matching os.ErrExist
	// if one is already present.
	Create(name string, content []byte) error
	// Delete removes the named note.
	Delete(name string) error
	// List returns every regular file in the cache directory, named by its
	// base file name (extension included).
	List() ([]models.Note, error)
}
