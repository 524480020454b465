package dashboard

import (
	"context"

	"github.com/nhle/jira-dashboard/internal/backend"
	"github.com/nhle/jira-dashboard/internal/model"
)

// CreateIssueFallback is shown when the backend gives no reason for a
// failed create.
const CreateIssueFallback = "Failed to create issue"

// ValidateCreateIssue checks the required fields of req after trimming.
func ValidateCreateIssue(req model.CreateIssueRequest) error {
	const op = "create issue"
	req = req.Normalize()
	switch {
	case req.ProjectKey == "":
		return backend.NewValidationError(op, "Project is required")
	case req.Summary == "":
		return backend.NewValidationError(op, "Summary is required")
	case req.IssueType == "":
		return backend.NewValidationError(op, "Issue type is required")
	}
	return nil
}

// CreateIssue validates req, submits it and refetches issues for the
// current selection. The created issue is never merged into the list
// locally. Failures leave the session untouched.
func (o *Orchestrator) CreateIssue(
	ctx context.Context,
	req model.CreateIssueRequest,
) (*model.Issue, error) {
	req = req.Normalize()
	if err := ValidateCreateIssue(req); err != nil {
		return nil, err
	}

	o.mu.Lock()
	if o.state != Connected {
		o.mu.Unlock()
		return nil, backend.ErrNotConnected
	}
	id := o.conn.ID
	o.mu.Unlock()

	created, err := o.backend.CreateIssue(ctx, id, req)
	if err != nil {
		o.logger.Error("creating issue",
			"project", req.ProjectKey, "type", req.IssueType, "error", err)
		return nil, err
	}
	o.logger.Info("issue created", "key", created.Key, "project", req.ProjectKey)

	if o.history != nil {
		err := o.history.RecordCreatedIssue(ctx, model.IssueHistoryEntry{
			ConnectionID: id,
			IssueID:      created.ID,
			IssueKey:     created.Key,
			ProjectKey:   req.ProjectKey,
			Summary:      req.Summary,
		})
		if err != nil {
			o.logger.Warn("recording issue history", "key", created.Key, "error", err)
		}
	}

	// A failed refetch is recorded in the snapshot; the create succeeded.
	_ = o.loadIssues(ctx)
	return created, nil
}

// IssueTypes lists the issue types of a project. When the backend fails
// or returns nothing, the standard Jira types are returned instead.
func (o *Orchestrator) IssueTypes(ctx context.Context, projectID string) []model.IssueType {
	o.mu.Lock()
	if o.state != Connected || projectID == "" {
		o.mu.Unlock()
		return model.FallbackIssueTypes
	}
	id := o.conn.ID
	o.mu.Unlock()

	types, err := o.backend.ListIssueTypes(ctx, id, projectID)
	if err != nil {
		o.logger.Warn("fetching issue types", "project_id", projectID, "error", err)
		return model.FallbackIssueTypes
	}

	out := make([]model.IssueType, 0, len(types))
	for _, t := range types {
		if !t.Subtask {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return model.FallbackIssueTypes
	}
	return out
}

// History returns the issues created with the active connection.
func (o *Orchestrator) History(ctx context.Context, limit int) ([]model.IssueHistoryEntry, error) {
	if o.history == nil {
		return nil, nil
	}
	o.mu.Lock()
	if o.conn == nil {
		o.mu.Unlock()
		return nil, backend.ErrNotConnected
	}
	id := o.conn.ID
	o.mu.Unlock()

	return o.history.GetIssueHistory(ctx, id, limit)
}
