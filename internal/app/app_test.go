package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/jira-dashboard/internal/backend"
	"github.com/nhle/jira-dashboard/internal/dashboard"
	"github.com/nhle/jira-dashboard/internal/model"
	"github.com/nhle/jira-dashboard/internal/ui/command"
	"github.com/nhle/jira-dashboard/tests/testutil"
)

type stubBackend struct {
	connected bool
}

func (s *stubBackend) SaveConnection(_ context.Context, id string) (*model.Connection, error) {
	return &model.Connection{ID: id, Connected: s.connected}, nil
}

func (s *stubBackend) CheckStatus(_ context.Context, id string) (*model.Connection, error) {
	return &model.Connection{ID: id, Connected: s.connected, UserName: "Ada", UserEmail: "ada@example.com"}, nil
}

func (s *stubBackend) ListProjects(context.Context, string) ([]model.Project, error) {
	return []model.Project{{ID: "10000", Key: "OPS", Name: "Operations"}}, nil
}

func (s *stubBackend) ListIssues(_ context.Context, _ string, q model.IssueQuery) ([]model.Issue, error) {
	return []model.Issue{{Key: "OPS-1", Summary: "Fix login", ProjectKey: "OPS",
		WebURL: "https://example.atlassian.net/browse/OPS-1"}}, nil
}

func (s *stubBackend) CreateIssue(_ context.Context, _ string, req model.CreateIssueRequest) (*model.Issue, error) {
	return &model.Issue{Key: req.ProjectKey + "-2", Summary: req.Summary}, nil
}

func (s *stubBackend) ListIssueTypes(context.Context, string, string) ([]model.IssueType, error) {
	return nil, nil
}

// newTestModel builds a sized root model. storedID, when set, is saved
// before the orchestrator starts.
func newTestModel(t *testing.T, b *stubBackend, storedID string) (Model, *dashboard.Orchestrator) {
	t.Helper()
	ctx := context.Background()
	s := testutil.NewTestStore(t)
	if storedID != "" {
		require.NoError(t, s.Save(ctx, storedID))
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	o := dashboard.New(b, s, dashboard.WithLogger(logger))
	m := New(ctx, o, logger)
	t.Cleanup(m.sub.Close)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model), o
}

// pump feeds every pending snapshot into the model.
func pump(m Model) Model {
	for {
		select {
		case snap, ok := <-m.sub.C():
			if !ok {
				return m
			}
			next, _ := m.Update(snapshotMsg(snap))
			m = next.(Model)
		default:
			return m
		}
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestRestoredSessionShowsDashboard(t *testing.T) {
	m, o := newTestModel(t, &stubBackend{connected: true}, "user-1")
	assert.Equal(t, ViewRestoring, m.currentView)

	require.NoError(t, o.Start(context.Background()))
	m = pump(m)

	assert.Equal(t, ViewList, m.currentView)
	assert.Contains(t, m.connectionBadge(), "Jira Connected")
	assert.Contains(t, m.connectionBadge(), "ada@example.com")

	issue, ok := m.issueList.SelectedIssue()
	require.True(t, ok)
	assert.Equal(t, "OPS-1", issue.Key)
}

func TestNoStoredSessionShowsAuth(t *testing.T) {
	m, o := newTestModel(t, &stubBackend{connected: true}, "")

	require.NoError(t, o.Start(context.Background()))
	m = pump(m)

	assert.Equal(t, ViewAuth, m.currentView)
	assert.Contains(t, m.connectionBadge(), "Not Connected")
}

func TestInactiveStoredSessionShowsAuthWithReason(t *testing.T) {
	m, o := newTestModel(t, &stubBackend{connected: false}, "user-gone")

	err := o.Start(context.Background())
	require.ErrorIs(t, err, backend.ErrNotConnected)
	m = pump(m)

	assert.Equal(t, ViewAuth, m.currentView)
	assert.Equal(t, dashboard.ReasonInactive, m.snap.Reason)
}

func TestDisconnectKeyReturnsToAuth(t *testing.T) {
	m, o := newTestModel(t, &stubBackend{connected: true}, "user-1")
	require.NoError(t, o.Start(context.Background()))
	m = pump(m)
	require.Equal(t, ViewList, m.currentView)

	next, cmd := m.Update(runes("L"))
	m = next.(Model)
	require.NotNil(t, cmd)
	cmd()
	m = pump(m)

	assert.Equal(t, ViewAuth, m.currentView)
	assert.Equal(t, dashboard.Unauthenticated, m.snap.State)
	assert.Contains(t, m.connectionBadge(), "Not Connected")
}

func TestShortcutsOpenViews(t *testing.T) {
	m, o := newTestModel(t, &stubBackend{connected: true}, "user-1")
	require.NoError(t, o.Start(context.Background()))
	m = pump(m)

	next, _ := m.Update(runes("?"))
	m = next.(Model)
	assert.Equal(t, ViewHelp, m.currentView)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	require.NotNil(t, cmd)
	next, _ = m.Update(cmd())
	m = next.(Model)
	assert.Equal(t, ViewList, m.currentView)

	next, _ = m.Update(runes("p"))
	m = next.(Model)
	assert.Equal(t, ViewProjectPicker, m.currentView)
}

func TestNewIssueLoadsTypesThenForm(t *testing.T) {
	m, o := newTestModel(t, &stubBackend{connected: true}, "user-1")
	require.NoError(t, o.Start(context.Background()))
	m = pump(m)

	next, cmd := m.Update(runes("n"))
	m = next.(Model)
	assert.Equal(t, ViewCreate, m.currentView)
	assert.Contains(t, m.issueForm.View(), "Loading issue types")

	require.NotNil(t, cmd)
	msg, ok := cmd().(issueTypesMsg)
	require.True(t, ok)
	assert.Equal(t, "OPS", msg.projectKey)
	assert.Equal(t, model.FallbackIssueTypes, msg.types)
}

func TestCreateDoneReturnsToList(t *testing.T) {
	m, o := newTestModel(t, &stubBackend{connected: true}, "user-1")
	require.NoError(t, o.Start(context.Background()))
	m = pump(m)
	m.currentView = ViewCreate

	next, _ := m.Update(createDoneMsg{issue: &model.Issue{Key: "OPS-2"}})
	m = next.(Model)

	assert.Equal(t, ViewList, m.currentView)
	assert.Equal(t, "Created OPS-2", m.flash)
}

func TestExecuteCommand(t *testing.T) {
	m, o := newTestModel(t, &stubBackend{connected: true}, "user-1")
	require.NoError(t, o.Start(context.Background()))
	m = pump(m)

	assert.Nil(t, m.executeCommand(command.CommandMsg{Name: "bogus"}))
	assert.Equal(t, "Unknown command: bogus", m.flash)

	cmd := m.executeCommand(command.CommandMsg{Name: "project", Arg: "OPS"})
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, "OPS", o.Snapshot().SelectedProject)
}

func TestConnectFailure(t *testing.T) {
	assert.Equal(t, dashboard.ReasonInactive, connectFailure(backend.ErrNotConnected))
	assert.Equal(t, dashboard.ReasonNotFound,
		connectFailure(&backend.Error{Kind: backend.KindNotFound, Op: "check status"}))
	assert.Equal(t, "Could not connect. Please try again.", connectFailure(errors.New("boom")))
}

func TestKeyHintsFollowView(t *testing.T) {
	m, _ := newTestModel(t, &stubBackend{connected: true}, "")
	m.currentView = ViewList
	assert.True(t, strings.HasPrefix(m.keyHints(), "q quit"))
	m.currentView = ViewDetail
	assert.Contains(t, m.keyHints(), "y copy URL")
}
