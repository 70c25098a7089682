// Package watcher turns fsnotify events in the cache directory into note
// change callbacks, so edits made behind the service's back are announced
// the same way as its own.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/notecache/internal/storage"
)

// Change kinds passed to Callback.
const (
	Created = "created"
	Updated = "updated"
	Deleted = "deleted"
)

// Callback receives a change kind and the note name (extension stripped).
type Callback func(kind, name string)

// Watch watches root until ctx is cancelled. The layout is flat, so only
// root itself is watched.
//
// Writes go through temp file + rename, which fsnotify reports as Create on
// the target. Watch keeps the set of names it has seen so a Create for a
// known name is reported as an update.
func Watch(ctx context.Context, root string, logger *slog.Logger, cb Callback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(root); err != nil {
		return err
	}

	known, err := scan(root)
	if err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root), slog.Int("notes", len(known)))

	emit := func(kind, name string) {
		logger.Debug("watcher: change", slog.String("op", kind), slog.String("name", name))
		if cb != nil {
			cb(kind, name)
		}
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name, ok := noteName(ev.Name)
			if !ok {
				continue
			}

			switch {
			case ev.Op&fsnotify.Create != 0:
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					continue
				}
				if _, seen := known[name]; seen {
					emit(Updated, name)
				} else {
					known[name] = struct{}{}
					emit(Created, name)
				}

			case ev.Op&fsnotify.Write != 0:
				known[name] = struct{}{}
				emit(Updated, name)

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// Rename fires on the old path only; a move inside root
				// arrives separately as Create on the new one.
				if _, seen := known[name]; !seen {
					continue
				}
				delete(known, name)
				emit(Deleted, name)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// noteName returns the note name for a .txt path directly inside root.
func noteName(path string) (string, bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, storage.Ext) {
		return "", false
	}
	return strings.TrimSuffix(base, storage.Ext), true
}

// scan returns the names of the notes already present in root.
func scan(root string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if name, ok := noteName(e.Name()); ok {
			known[name] = struct{}{}
		}
	}
	return known, nil
}
