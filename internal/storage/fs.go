package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/starford/notecache/internal/apperr"
	"github.com/starford/notecache/internal/models"
)

const (
	// Ext is appended to every note name to form its file name.
	Ext = ".txt"

	// Temp files end in tmpSuffix, so no <name>.txt note can match.
	tmpPrefix = ".notecache-"
	tmpSuffix = ".tmp"
)

// link is os.Link, swapped out in tests.
var link = os.Link

// FS implements Provider backed by a flat directory on the local file system.
type FS struct {
	root    string // absolute path to the cache directory
	confine bool
}

// FSOption tunes an FS.
type FSOption func(*FS)

// WithConfinedNames makes every operation reject names whose file would
// land outside the cache directory (for example "../etc/passwd").
func WithConfinedNames(on bool) FSOption {
	return func(f *FS) {
		f.confine = on
	}
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string, opts ...FSOption) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	f := &FS{root: abs}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Root returns the absolute cache directory.
func (f *FS) Root() string {
	return f.root
}

// notePath maps a note name to <root>/<name>.txt. The name is joined
// verbatim; only when confinement is on is the result checked against root.
func (f *FS) notePath(name string) (string, error) {
	p := filepath.Join(f.root, name+Ext)
	if !f.confine {
		return p, nil
	}
	if filepath.IsAbs(name) || !strings.HasPrefix(p, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: %q: %w", name, apperr.ErrNameEscapes)
	}
	return p, nil
}

// Exists reports whether anything is present at the note's path.
func (f *FS) Exists(name string) (bool, error) {
	p, err := f.notePath(name)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("storage: stat %s: %w", name, err)
	}
	return true, nil
}

// Read returns the raw bytes of a note file.
func (f *FS) Read(name string) ([]byte, error) {
	p, err := f.notePath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", name, err)
	}
	return data, nil
}

// Write atomically writes content: tmp file → fsync → rename. A symlinked
// note is written through: the rename lands on the link's target.
func (f *FS) Write(name string, content []byte) error {
	p, err := f.notePath(name)
	if err != nil {
		return err
	}
	if target, err := filepath.EvalSymlinks(p); err == nil {
		p = target
	}
	tmpName, err := writeTemp(filepath.Dir(p), content)
	if err != nil {
		return err
	}
	if err := os.Rename(tmpName, p); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("storage: rename: %w", err)
	}
	return nil
}

// Create writes a fully synced temp file and hard-links it into place.
// link(2) refuses to replace an existing file, so of two racing creates
// exactly one succeeds and readers never see a partial note.
func (f *FS) Create(name string, content []byte) error {
	p, err := f.notePath(name)
	if err != nil {
		return err
	}
	tmpName, err := writeTemp(filepath.Dir(p), content)
	if err != nil {
		return err
	}
	defer os.Remove(tmpName)

	err = link(tmpName, p)
	if linkUnsupported(err) {
		err = createExclusive(p, content)
	}
	if err != nil {
		return fmt.Errorf("storage: create %s: %w", name, err)
	}
	return nil
}

// linkUnsupported reports whether err means the file system has no hard links.
func linkUnsupported(err error) bool {
	return errors.Is(err, syscall.EPERM) ||
		errors.Is(err, syscall.ENOTSUP) ||
		errors.Is(err, syscall.EOPNOTSUPP)
}

// createExclusive is the O_EXCL fallback for Create. It is still
// create-if-absent, but a concurrent reader may see a partial note.
func createExclusive(p string, content []byte) error {
	file, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := file.Write(content); err != nil {
		_ = file.Close()
		_ = os.Remove(p)
		return err
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		_ = os.Remove(p)
		return err
	}
	return file.Close()
}

// Delete removes a note file.
func (f *FS) Delete(name string) error {
	p, err := f.notePath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		return fmt.Errorf("storage: delete %s: %w", name, err)
	}
	return nil
}

// List reads the cache directory in directory order. Subdirectories and
// in-flight temp files are skipped; every other entry is read in full.
func (f *FS) List() ([]models.Note, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	out := make([]models.Note, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || isTemp(e.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(f.root, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("storage: list: read %s: %w", e.Name(), err)
		}
		out = append(out, models.Note{
			Name: filepath.Base(e.Name()),
			Text: string(data),
		})
	}
	return out, nil
}

func isTemp(name string) bool {
	return strings.HasPrefix(name, tmpPrefix) && strings.HasSuffix(name, tmpSuffix)
}

// writeTemp writes content to a new temp file in dir and returns its name.
func writeTemp(dir string, content []byte) (string, error) {
	tmp, err := os.CreateTemp(dir, tmpPrefix+"*"+tmpSuffix)
	if err != nil {
		return "", fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return "", fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return "", fmt.Errorf("storage: chmod temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return "", fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("storage: close temp: %w", err)
	}
	success = true
	return tmpName, nil
}
