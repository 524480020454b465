package store

import (
	"context"

	"github.com/nhle/jira-dashboard/internal/model"
)

// SessionStore persists the identifier of the active Nango connection
// under a single fixed key. It performs no validation of the value.
type SessionStore interface {
	// Load returns the stored connection id. ok is false when nothing
	// has been saved.
	Load(ctx context.Context) (id string, ok bool, err error)
	// Save overwrites the stored connection id.
	Save(ctx context.Context, id string) error
	// Clear removes the stored connection id. Clearing an empty store
	// is not an error.
	Clear(ctx context.Context) error
}

// HistoryStore records issues created from this machine.
type HistoryStore interface {
	RecordCreatedIssue(ctx context.Context, entry model.IssueHistoryEntry) error
	GetIssueHistory(ctx context.Context, connectionID string, limit int) ([]model.IssueHistoryEntry, error)
}
