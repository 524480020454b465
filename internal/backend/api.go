package backend

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nhle/jira-dashboard/internal/model"
)

// SaveConnection registers a Nango connection with the backend, which
// verifies it against Nango and records it.
func (c *Client) SaveConnection(
	ctx context.Context,
	connectionID string,
) (*model.Connection, error) {
	const op = "save connection"
	if strings.TrimSpace(connectionID) == "" {
		return nil, NewValidationError(op, "connection ID is required")
	}

	var status connectionStatus
	err := c.post(ctx, op, "/connection",
		saveConnectionRequest{ConnectionID: connectionID}, &status)
	if err != nil {
		return nil, err
	}

	conn := toConnection(connectionID, status)
	return &conn, nil
}

// CheckStatus asks the backend whether a connection is currently
// authorized and active. It does not modify anything.
func (c *Client) CheckStatus(
	ctx context.Context,
	connectionID string,
) (*model.Connection, error) {
	const op = "check status"
	if strings.TrimSpace(connectionID) == "" {
		return nil, NewValidationError(op, "connection ID is required")
	}

	var status connectionStatus
	path := "/connection/" + url.PathEscape(connectionID)
	if err := c.get(ctx, op, path, nil, &status); err != nil {
		return nil, err
	}

	if !status.Connected && status.Error != "" {
		c.logger.Info("connection reported inactive",
			"connection_id", connectionID, "reason", status.Error)
	}

	conn := toConnection(connectionID, status)
	return &conn, nil
}

// ListProjects returns every project visible to the connection. The
// result is treated as the complete set.
func (c *Client) ListProjects(
	ctx context.Context,
	connectionID string,
) ([]model.Project, error) {
	var raw []project
	path := "/projects/" + url.PathEscape(connectionID)
	if err := c.get(ctx, "list projects", path, nil, &raw); err != nil {
		return nil, err
	}

	projects := make([]model.Project, 0, len(raw))
	for _, p := range raw {
		projects = append(projects, model.Project{
			ID:   p.ID,
			Key:  p.Key,
			Name: p.Name,
		})
	}
	return projects, nil
}

// ListIssues returns issues for the connection. A project key scopes
// the results to that project; search text becomes a summary substring
// predicate. Both travel in the same request and the backend ANDs them.
func (c *Client) ListIssues(
	ctx context.Context,
	connectionID string,
	q model.IssueQuery,
) ([]model.Issue, error) {
	var raw []issue
	path := "/issues/" + url.PathEscape(connectionID)
	if err := c.get(ctx, "list issues", path, c.issueParams(q), &raw); err != nil {
		return nil, err
	}

	issues := make([]model.Issue, 0, len(raw))
	for _, i := range raw {
		issues = append(issues, toIssue(i))
	}
	return issues, nil
}

// issueParams builds the query string for an issues fetch.
func (c *Client) issueParams(q model.IssueQuery) url.Values {
	params := url.Values{}
	if q.ProjectKey != "" {
		params.Set("project_key", q.ProjectKey)
	}
	if jql := SummaryContains(q.SearchText); jql != "" {
		params.Set("jql", jql)
	}
	if c.maxResults > 0 {
		params.Set("max_results", strconv.Itoa(c.maxResults))
	}
	return params
}

// CreateIssue submits a new issue. The returned issue is whatever the
// backend echoes back, completed with the request fields it omits.
func (c *Client) CreateIssue(
	ctx context.Context,
	connectionID string,
	req model.CreateIssueRequest,
) (*model.Issue, error) {
	var raw issue
	path := "/issues/" + url.PathEscape(connectionID)
	if err := c.post(ctx, "create issue", path, req, &raw); err != nil {
		return nil, err
	}

	created := toIssue(raw)
	if created.Summary == "" {
		created.Summary = req.Summary
	}
	if created.IssueType == "" {
		created.IssueType = req.IssueType
	}
	if created.ProjectKey == "" {
		created.ProjectKey = req.ProjectKey
	}
	return &created, nil
}

// ListIssueTypes returns the issue types available in a project.
func (c *Client) ListIssueTypes(
	ctx context.Context,
	connectionID string,
	projectID string,
) ([]model.IssueType, error) {
	var raw []issueType
	path := fmt.Sprintf("/issue-types/%s/%s",
		url.PathEscape(connectionID), url.PathEscape(projectID))
	if err := c.get(ctx, "list issue types", path, nil, &raw); err != nil {
		return nil, err
	}

	types := make([]model.IssueType, 0, len(raw))
	for _, t := range raw {
		types = append(types, model.IssueType{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			Subtask:     t.Subtask,
		})
	}
	return types, nil
}

// SummaryContains returns the JQL predicate matching issues whose
// summary contains text, or "" when text is blank.
func SummaryContains(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return fmt.Sprintf(`summary ~ "%s"`, escapeJQL(text))
}

// escapeJQL escapes special characters in a JQL text search query value.
func escapeJQL(s string) string {
	// Escape backslashes first, then double-quotes.
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

func toConnection(id string, s connectionStatus) model.Connection {
	if s.ConnectionID != "" {
		id = s.ConnectionID
	}
	return model.Connection{
		ID:        id,
		Connected: s.Connected,
		UserName:  s.UserName,
		UserEmail: s.UserEmail,
		CloudID:   s.CloudID,
		AccountID: s.AccountID,
	}
}

func toIssue(i issue) model.Issue {
	return model.Issue{
		ID:         i.ID,
		Key:        i.Key,
		Summary:    i.Summary,
		Status:     i.Status,
		IssueType:  i.IssueType,
		Assignee:   i.Assignee,
		CreatedAt:  parseJiraTime(i.CreatedAt),
		WebURL:     i.WebURL,
		ProjectKey: i.ProjectKey,
	}
}

// parseJiraTime parses a Jira timestamp string. Jira uses the format
// "2006-01-02T15:04:05.000+0000".
func parseJiraTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}

	layouts := []string{
		"2006-01-02T15:04:05.000-0700",
		"2006-01-02T15:04:05-0700",
		time.RFC3339Nano,
		time.RFC3339,
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}

	return time.Time{}
}
