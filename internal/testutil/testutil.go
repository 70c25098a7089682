// Package testutil provides shared test helpers for setting up note caches and journals.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/starford/notecache/internal/journal"
	"github.com/starford/notecache/internal/storage"
)

// TestJournal creates a SQLite activity journal in a temp dir that is
// automatically closed.
func TestJournal(t *testing.T) *journal.DB {
	t.Helper()
	db, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestCache creates a temporary cache directory with a storage.Provider.
func TestCache(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}
