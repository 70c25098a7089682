// Package noteservice implements the note store: five operations mapped
// directly onto the cache directory, with no state of its own.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/notecache/internal/apperr"
	"github.com/starford/notecache/internal/journal"
	"github.com/starford/notecache/internal/models"
	"github.com/starford/notecache/internal/storage"
)

// Service coordinates storage and the activity journal.
type Service struct {
	store   storage.Provider
	journal journal.Recorder
	logger  *slog.Logger
}

// NewService creates a new note service. rec may be nil.
func NewService(store storage.Provider, rec journal.Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, journal: rec, logger: logger}
}

// GetNote returns the text of the named note.
func (s *Service) GetNote(_ context.Context, name string) ([]byte, error) {
	data, err := s.store.Read(name)
	if err != nil {
		return nil, translate(err)
	}
	return data, nil
}

// UpdateNote replaces the whole content of an existing note.
func (s *Service) UpdateNote(ctx context.Context, name, text string) error {
	if err := s.mustExist(name); err != nil {
		return err
	}
	if err := s.store.Write(name, []byte(text)); err != nil {
		return translate(err)
	}
	s.record(ctx, models.OpUpdate, name, len(text))
	return nil
}

// DeleteNote removes an existing note.
func (s *Service) DeleteNote(ctx context.Context, name string) error {
	if err := s.store.Delete(name); err != nil {
		return translate(err)
	}
	s.record(ctx, models.OpDelete, name, 0)
	return nil
}

// ListNotes returns every file in the cache directory with its content.
func (s *Service) ListNotes(_ context.Context) ([]models.Note, error) {
	notes, err := s.store.List()
	if err != nil {
		return nil, err
	}
	return notes, nil
}

// CreateNote writes a new note. It fails with apperr.ErrAlreadyExists if a
// file is already present under that name.
func (s *Service) CreateNote(ctx context.Context, name, text string) error {
	if err := s.store.Create(name, []byte(text)); err != nil {
		// A missing parent is an I/O failure here, not a missing note.
		if errors.Is(err, os.ErrExist) {
			return errors.Join(apperr.ErrAlreadyExists, err)
		}
		return err
	}
	s.record(ctx, models.OpCreate, name, len(text))
	return nil
}

func (s *Service) mustExist(name string) error {
	ok, err := s.store.Exists(name)
	if err != nil {
		return translate(err)
	}
	if !ok {
		return fmt.Errorf("note %q: %w", name, apperr.ErrNotFound)
	}
	return nil
}

// record journals a successful mutation. Journal failures never fail the
// note operation.
func (s *Service) record(ctx context.Context, op models.Op, name string, size int) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Record(ctx, op, name, size); err != nil {
		s.logger.Warn("journal record failed",
			slog.String("op", string(op)),
			slog.String("name", name),
			slog.String("error", err.Error()))
	}
}

// translate maps file-system errors onto apperr sentinels, keeping the
// original error in the chain.
func translate(err error) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return errors.Join(apperr.ErrNotFound, err)
	default:
		return err
	}
}
