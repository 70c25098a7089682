package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/notecache/internal/models"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Recorder is what the note service needs from a journal.
type Recorder interface {
	Record(ctx context.Context, op models.Op, name string, size int) error
}

// Verify *DB satisfies Recorder at compile time.
var _ Recorder = (*DB)(nil)

// Record appends one entry stamped with a fresh ID and the current UTC time.
func (db *DB) Record(ctx context.Context, op models.Op, name string, size int) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO activity (id, op, name, size, at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), string(op), name, size, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("journal: record %s %s: %w", op, name, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. Non-positive limits use
// DefaultLimit; limits above MaxLimit are clamped.
func (db *DB) Recent(ctx context.Context, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, op, name, size, at
		FROM activity
		ORDER BY rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: recent: %w", err)
	}
	defer rows.Close()

	out := []models.Activity{}
	for rows.Next() {
		var a models.Activity
		var op string
		if err := rows.Scan(&a.ID, &op, &a.Name, &a.Size, &a.At); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		a.Op = models.Op(op)
		out = append(out, a)
	}
	return out, rows.Err()
}
