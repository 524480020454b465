package model

import (
	"strings"
	"time"
)

// Issue is a Jira issue as returned by the backend-of-record.
type Issue struct {
	// ID is Jira's numeric issue ID.
	ID string `json:"id"`

	// Key is the human-facing issue key (e.g. "OPS-12").
	Key string `json:"key"`

	// Summary is the one-line issue title.
	Summary string `json:"summary"`

	// Status is the free-text workflow status label. It is only used for
	// display and colour classification (see ClassifyStatus).
	Status string `json:"status"`

	// IssueType is the issue type name (Bug, Task, ...).
	IssueType string `json:"issueType"`

	// Assignee is the assignee display name, empty when unassigned.
	Assignee string `json:"assignee,omitempty"`

	// CreatedAt is when the issue was created in Jira.
	CreatedAt time.Time `json:"createdAt"`

	// WebURL links to the issue in the Jira web UI.
	WebURL string `json:"webUrl"`

	// ProjectKey is the key of the owning project, when known.
	ProjectKey string `json:"projectKey,omitempty"`
}

// AssigneeOrDefault returns the assignee, or "Unassigned".
func (i Issue) AssigneeOrDefault() string {
	if i.Assignee == "" {
		return "Unassigned"
	}
	return i.Assignee
}

// IssueQuery holds the optional filters for an issues fetch.
type IssueQuery struct {
	// ProjectKey scopes results to one project when set.
	ProjectKey string

	// SearchText is matched as a substring of the issue summary.
	SearchText string
}

// IsZero reports whether no filter is set, in which case the backend
// returns its default set of recent issues.
func (q IssueQuery) IsZero() bool {
	return q.ProjectKey == "" && q.SearchText == ""
}

// CreateIssueRequest is the payload for creating a new issue.
type CreateIssueRequest struct {
	ProjectKey  string `json:"projectKey"`
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
	IssueType   string `json:"issueType"`
}

// Normalize trims surrounding whitespace from every field.
func (r CreateIssueRequest) Normalize() CreateIssueRequest {
	return CreateIssueRequest{
		ProjectKey:  strings.TrimSpace(r.ProjectKey),
		Summary:     strings.TrimSpace(r.Summary),
		Description: strings.TrimSpace(r.Description),
		IssueType:   strings.TrimSpace(r.IssueType),
	}
}

// StatusClass is a coarse display bucket for a free-text status label.
type StatusClass int

const (
	StatusOther StatusClass = iota
	StatusTodo
	StatusInProgress
	StatusDone
)

// ClassifyStatus maps a Jira status label to a StatusClass using
// case-insensitive substring checks.
func ClassifyStatus(status string) StatusClass {
	s := strings.ToLower(status)
	switch {
	case strings.Contains(s, "done"), strings.Contains(s, "resolved"):
		return StatusDone
	case strings.Contains(s, "progress"):
		return StatusInProgress
	case strings.Contains(s, "todo"), strings.Contains(s, "to do"),
		strings.Contains(s, "open"):
		return StatusTodo
	default:
		return StatusOther
	}
}

// IssueHistoryEntry records an issue created from this machine.
type IssueHistoryEntry struct {
	ID           string    `db:"id"`
	ConnectionID string    `db:"connection_id"`
	IssueID      string    `db:"issue_id"`
	IssueKey     string    `db:"issue_key"`
	ProjectKey   string    `db:"project_key"`
	Summary      string    `db:"summary"`
	CreatedAt    time.Time `db:"created_at"`
}
