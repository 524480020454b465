package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/jira-dashboard/internal/model"
)

// RecordCreatedIssue appends an issue creation to the local history.
func (s *SQLiteStore) RecordCreatedIssue(
	ctx context.Context,
	entry model.IssueHistoryEntry,
) error {
	if strings.TrimSpace(entry.ConnectionID) == "" {
		return fmt.Errorf("history entry needs a connection id")
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO issue_history (
			id, connection_id, issue_id, issue_key, project_key, summary, created_at
		) VALUES (
			:id, :connection_id, :issue_id, :issue_key, :project_key, :summary, :created_at
		)`,
		map[string]any{
			"id":            entry.ID,
			"connection_id": entry.ConnectionID,
			"issue_id":      entry.IssueID,
			"issue_key":     entry.IssueKey,
			"project_key":   entry.ProjectKey,
			"summary":       entry.Summary,
			"created_at":    entry.CreatedAt.UTC(),
		},
	)
	if err != nil {
		return fmt.Errorf("recording issue %s: %w", entry.IssueKey, err)
	}
	return nil
}

// GetIssueHistory returns the issues created with a connection, newest
// first. A limit of zero returns every row.
func (s *SQLiteStore) GetIssueHistory(
	ctx context.Context,
	connectionID string,
	limit int,
) ([]model.IssueHistoryEntry, error) {
	query := `
		SELECT id, connection_id, issue_id, issue_key, project_key, summary, created_at
		FROM issue_history
		WHERE connection_id = ?
		ORDER BY created_at DESC, issue_key DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	var entries []model.IssueHistoryEntry
	if err := s.db.SelectContext(ctx, &entries, query, connectionID); err != nil {
		return nil, fmt.Errorf("querying issue history: %w", err)
	}
	return entries, nil
}
