package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nhle/jira-dashboard/internal/model"
)

// Load returns the stored connection id.
func (s *SQLiteStore) Load(ctx context.Context) (string, bool, error) {
	var id string
	err := s.db.GetContext(ctx, &id,
		"SELECT value FROM session WHERE key = ?", model.SessionKey)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("loading session: %w", err)
	}
	return id, true, nil
}

// Save stores id under the session key, replacing any previous value.
func (s *SQLiteStore) Save(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		model.SessionKey, id, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Clear removes the session key.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM session WHERE key = ?", model.SessionKey)
	if err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}
