package dashboard

import (
	"context"
	"strings"

	"github.com/nhle/jira-dashboard/internal/backend"
	"github.com/nhle/jira-dashboard/internal/model"
)

// SelectProject changes the project filter and refetches issues. An empty
// key clears the filter. Outside the Connected state it does nothing.
func (o *Orchestrator) SelectProject(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)

	o.mu.Lock()
	if o.state != Connected {
		o.mu.Unlock()
		return nil
	}
	o.selected = key
	o.emitLocked()
	o.mu.Unlock()

	return o.loadIssues(ctx)
}

// Search changes the summary search text and refetches issues. Outside
// the Connected state it does nothing.
func (o *Orchestrator) Search(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)

	o.mu.Lock()
	if o.state != Connected {
		o.mu.Unlock()
		return nil
	}
	o.search = text
	o.emitLocked()
	o.mu.Unlock()

	return o.loadIssues(ctx)
}

// RefreshIssues refetches issues for the current selection.
func (o *Orchestrator) RefreshIssues(ctx context.Context) error {
	return o.loadIssues(ctx)
}

// RefreshProjects refetches the project list. The current selection is
// kept even if the project disappeared.
func (o *Orchestrator) RefreshProjects(ctx context.Context) error {
	return o.loadProjects(ctx)
}

// loadProjects fetches projects for the active connection. On failure the
// previous list stays in place and the error is recorded and returned.
// The first load to commit in a session picks the default project and
// runs any issues fetch deferred to it.
func (o *Orchestrator) loadProjects(ctx context.Context) error {
	fetchIssues, err := o.fetchProjects(ctx)
	if fetchIssues {
		_ = o.loadIssues(ctx)
	}
	return err
}

func (o *Orchestrator) fetchProjects(ctx context.Context) (bool, error) {
	o.mu.Lock()
	if o.state != Connected {
		o.mu.Unlock()
		return false, nil
	}
	o.projGen++
	gen, epoch := o.projGen, o.epoch
	id := o.conn.ID
	o.loadingP = true
	o.emitLocked()
	o.mu.Unlock()

	projects, err := o.backend.ListProjects(ctx, id)

	o.mu.Lock()
	defer o.mu.Unlock()

	if gen != o.projGen || epoch != o.epoch {
		o.logger.Debug("discarding superseded projects response")
		return false, nil
	}
	o.loadingP = false

	pickDefault := o.needsDefault
	o.needsDefault = false
	fetchIssues := o.deferIssues
	o.deferIssues = false

	if err != nil {
		o.logger.Error("fetching projects", "connection_id", id, "error", err)
		o.projErr = backend.Message(err, "Failed to load projects")
		o.emitLocked()
		return fetchIssues, err
	}

	o.projects = o.uniqueProjects(projects)
	o.projErr = ""
	if pickDefault && o.selected == "" && len(o.projects) > 0 {
		o.selected = o.projects[0].Key
	}
	o.logger.Info("projects loaded", "count", len(o.projects))
	o.emitLocked()
	return fetchIssues, nil
}

// uniqueProjects keeps the first project for each key.
func (o *Orchestrator) uniqueProjects(projects []model.Project) []model.Project {
	seen := make(map[string]bool, len(projects))
	out := make([]model.Project, 0, len(projects))
	for _, p := range projects {
		if seen[p.Key] {
			o.logger.Warn("duplicate project key in response", "key", p.Key, "id", p.ID)
			continue
		}
		seen[p.Key] = true
		out = append(out, p)
	}
	return out
}

// loadIssues fetches issues for the current selection and search text.
// Each call takes a new generation; a response is committed only if its
// generation is still the newest when it arrives.
func (o *Orchestrator) loadIssues(ctx context.Context) error {
	o.mu.Lock()
	if o.state != Connected {
		o.mu.Unlock()
		return nil
	}
	o.issueGen++
	gen, epoch := o.issueGen, o.epoch
	id := o.conn.ID
	q := model.IssueQuery{ProjectKey: o.selected, SearchText: o.search}
	o.loadingI = true
	o.emitLocked()
	o.mu.Unlock()

	issues, err := o.backend.ListIssues(ctx, id, q)

	o.mu.Lock()
	defer o.mu.Unlock()

	if gen != o.issueGen || epoch != o.epoch {
		o.logger.Debug("discarding superseded issues response",
			"project", q.ProjectKey, "search", q.SearchText)
		return nil
	}
	o.loadingI = false

	if err != nil {
		o.logger.Error("fetching issues",
			"connection_id", id, "project", q.ProjectKey, "error", err)
		o.issuesErr = backend.Message(err, "Failed to load issues")
		o.emitLocked()
		return err
	}

	o.issues = issues
	o.issuesErr = ""
	o.logger.Info("issues loaded",
		"count", len(issues), "project", q.ProjectKey, "search", q.SearchText)
	o.emitLocked()
	return nil
}
