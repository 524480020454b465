package app

import (
	"errors"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/jira-dashboard/internal/backend"
	"github.com/nhle/jira-dashboard/internal/dashboard"
	"github.com/nhle/jira-dashboard/internal/model"
)

// snapshotMsg carries an orchestrator snapshot to the UI.
type snapshotMsg dashboard.Snapshot

type startDoneMsg struct{ err error }

type connectDoneMsg struct{ err error }

type createDoneMsg struct {
	issue *model.Issue
	err   error
}

type issueTypesMsg struct {
	projectKey string
	types      []model.IssueType
}

type copiedMsg struct {
	url string
	err error
}

// waitForSnapshot blocks until the orchestrator publishes the next
// snapshot. It returns nil once the subscription is closed.
func waitForSnapshot(sub *dashboard.Subscription) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-sub.C()
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

func (m Model) start() tea.Cmd {
	ctx, o := m.ctx, m.orch
	return func() tea.Msg {
		return startDoneMsg{err: o.Start(ctx)}
	}
}

func (m Model) connect(id string, register bool) tea.Cmd {
	ctx, o := m.ctx, m.orch
	return func() tea.Msg {
		if register {
			return connectDoneMsg{err: o.Register(ctx, id)}
		}
		return connectDoneMsg{err: o.Login(ctx, id)}
	}
}

func (m Model) logout() tea.Cmd {
	ctx, o, logger := m.ctx, m.orch, m.logger
	return func() tea.Msg {
		if err := o.Logout(ctx); err != nil {
			logger.Error("logout failed", "error", err)
		}
		return nil
	}
}

// selectProject, search and refresh report failures through the next
// snapshot, so their results are dropped here.
func (m Model) selectProject(key string) tea.Cmd {
	ctx, o := m.ctx, m.orch
	return func() tea.Msg {
		_ = o.SelectProject(ctx, key)
		return nil
	}
}

func (m Model) search(text string) tea.Cmd {
	ctx, o := m.ctx, m.orch
	return func() tea.Msg {
		_ = o.Search(ctx, text)
		return nil
	}
}

func (m Model) refresh() tea.Cmd {
	ctx, o := m.ctx, m.orch
	return func() tea.Msg {
		_ = o.RefreshProjects(ctx)
		_ = o.RefreshIssues(ctx)
		return nil
	}
}

func (m Model) loadIssueTypes(projectKey string) tea.Cmd {
	ctx, o := m.ctx, m.orch
	project, _ := model.FindProject(m.snap.Projects, projectKey)
	return func() tea.Msg {
		types := model.FallbackIssueTypes
		if project.ID != "" {
			types = o.IssueTypes(ctx, project.ID)
		}
		return issueTypesMsg{projectKey: projectKey, types: types}
	}
}

func (m Model) createIssue(req model.CreateIssueRequest) tea.Cmd {
	ctx, o := m.ctx, m.orch
	return func() tea.Msg {
		issue, err := o.CreateIssue(ctx, req)
		return createDoneMsg{issue: issue, err: err}
	}
}

// copySelectedURL copies the web URL of the issue under the cursor, or
// of the issue shown in the detail view.
func (m Model) copySelectedURL() tea.Cmd {
	var (
		issue model.Issue
		ok    bool
	)
	if m.currentView == ViewDetail {
		issue, ok = m.detail.Issue()
	} else {
		issue, ok = m.issueList.SelectedIssue()
	}
	if !ok || issue.WebURL == "" {
		return nil
	}

	url := issue.WebURL
	return func() tea.Msg {
		return copiedMsg{url: url, err: clipboard.WriteAll(url)}
	}
}

// connectFailure is the auth screen message for a failed login or
// registration.
func connectFailure(err error) string {
	switch {
	case errors.Is(err, backend.ErrNotConnected):
		return dashboard.ReasonInactive
	case backend.IsNotFound(err):
		return dashboard.ReasonNotFound
	default:
		return backend.Message(err, "Could not connect. Please try again.")
	}
}

// createFailure is the form message for a failed create.
func createFailure(err error) string {
	if errors.Is(err, backend.ErrNotConnected) {
		return "Not connected to Jira"
	}
	return backend.Message(err, dashboard.CreateIssueFallback)
}
