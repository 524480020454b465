package app

import (
	"context"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/jira-dashboard/internal/dashboard"
	"github.com/nhle/jira-dashboard/internal/keys"
	"github.com/nhle/jira-dashboard/internal/model"
	"github.com/nhle/jira-dashboard/internal/theme"
	"github.com/nhle/jira-dashboard/internal/ui"
	"github.com/nhle/jira-dashboard/internal/ui/auth"
	"github.com/nhle/jira-dashboard/internal/ui/command"
	"github.com/nhle/jira-dashboard/internal/ui/detail"
	helpview "github.com/nhle/jira-dashboard/internal/ui/help"
	"github.com/nhle/jira-dashboard/internal/ui/issueform"
	"github.com/nhle/jira-dashboard/internal/ui/issuelist"
	"github.com/nhle/jira-dashboard/internal/ui/projectpicker"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewRestoring ViewState = iota
	ViewAuth
	ViewList
	ViewDetail
	ViewCreate
	ViewProjectPicker
	ViewHelp
	ViewCommand
)

// Model is the root Bubble Tea model. It routes between views and
// mirrors the orchestrator's snapshots into them.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	ctx          context.Context
	orch         *dashboard.Orchestrator
	sub          *dashboard.Subscription
	logger       *slog.Logger
	keys         *keys.KeyMap
	snap         dashboard.Snapshot
	spinner      spinner.Model
	issueList    issuelist.Model
	detail       detail.Model
	issueForm    issueform.Model
	picker       projectpicker.Model
	authView     auth.Model
	helpView     helpview.Model
	commandView  command.Model
	ready        bool
	flash        string
}

// New creates the root model around an orchestrator. The orchestrator
// is started by Init.
func New(ctx context.Context, orch *dashboard.Orchestrator, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}
	k := keys.DefaultKeyMap()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.HeaderStyle.UnsetPadding()

	return Model{
		currentView: ViewRestoring,
		ctx:         ctx,
		orch:        orch,
		sub:         orch.Subscribe(),
		logger:      logger,
		keys:        k,
		spinner:     sp,
		issueList:   issuelist.New(k, 80, 24),
		detail:      detail.New(k, 80, 24),
		issueForm:   issueform.New(80, 24),
		picker:      projectpicker.New(80, 24),
		authView:    auth.New(80, 24),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
	}
}

// Init subscribes to the orchestrator and restores the stored session.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForSnapshot(m.sub),
		m.start(),
		m.spinner.Tick,
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.issueList.SetSize(contentWidth, contentHeight)
		m.detail.SetSize(contentWidth, contentHeight)
		m.issueForm.SetSize(contentWidth, contentHeight)
		m.picker.SetSize(contentWidth, contentHeight)
		m.authView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case snapshotMsg:
		cmd := m.applySnapshot(dashboard.Snapshot(msg))
		return m, tea.Batch(cmd, waitForSnapshot(m.sub))

	case startDoneMsg:
		if msg.err != nil {
			m.logger.Warn("session restore failed", "error", msg.err)
		}
		return m, nil

	case connectDoneMsg:
		if msg.err != nil && m.currentView == ViewAuth {
			return m, m.authView.Failed(connectFailure(msg.err))
		}
		return m, nil

	case auth.SubmitMsg:
		return m, m.connect(msg.ConnectionID, msg.Register)

	case issuelist.SearchMsg:
		return m, m.search(msg.Text)

	case issuelist.SelectedIssueMsg:
		project, _ := model.FindProject(m.snap.Projects, msg.Issue.ProjectKey)
		m.detail.SetIssue(msg.Issue, project)
		m.previousView = m.currentView
		m.currentView = ViewDetail
		return m, nil

	case detail.BackMsg:
		m.currentView = ViewList
		return m, nil

	case projectpicker.PickedMsg:
		m.currentView = ViewList
		return m, m.selectProject(msg.Key)

	case projectpicker.CancelMsg:
		m.currentView = ViewList
		return m, nil

	case issueTypesMsg:
		if m.currentView != ViewCreate {
			return m, nil
		}
		return m, m.issueForm.Start(m.snap.Projects, msg.projectKey, msg.types)

	case issueform.SubmitMsg:
		return m, m.createIssue(msg.Request)

	case issueform.CancelMsg:
		m.currentView = ViewList
		return m, nil

	case createDoneMsg:
		if msg.err != nil {
			if m.currentView == ViewCreate {
				return m, m.issueForm.Failed(createFailure(msg.err))
			}
			return m, nil
		}
		m.flash = "Created " + msg.issue.Key
		if m.currentView == ViewCreate {
			m.currentView = ViewList
		}
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.flash = "Copy failed: " + msg.err.Error()
		} else {
			m.flash = "Copied " + msg.url
		}
		return m, nil

	case helpview.CloseMsg:
		m.currentView = m.previousView
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(msg)

	case command.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		if m.acceptsShortcuts() {
			if cmd, handled := m.handleShortcut(msg); handled {
				return m, cmd
			}
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// acceptsShortcuts reports whether single-key shortcuts apply. Views
// with text input keep their keys.
func (m Model) acceptsShortcuts() bool {
	switch m.currentView {
	case ViewList:
		return !m.issueList.Searching()
	case ViewDetail:
		return true
	default:
		return false
	}
}

// handleShortcut runs the global key bindings for the list and detail
// views.
func (m *Model) handleShortcut(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit(), true

	case key.Matches(msg, m.keys.Help):
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return nil, true

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m.commandView.Focus(), true

	case key.Matches(msg, m.keys.CopyURL):
		return m.copySelectedURL(), true

	case key.Matches(msg, m.keys.Disconnect):
		m.flash = ""
		return m.logout(), true
	}

	if m.currentView != ViewList {
		return nil, false
	}

	switch {
	case key.Matches(msg, m.keys.PickProject):
		return m.openPicker(), true

	case key.Matches(msg, m.keys.AllProjects):
		return m.selectProject(""), true

	case key.Matches(msg, m.keys.Refresh):
		m.flash = ""
		return m.refresh(), true

	case key.Matches(msg, m.keys.NewIssue):
		return m.openCreateForm(), true
	}

	return nil, false
}

// applySnapshot mirrors a snapshot into the views and moves between the
// restoring, auth and dashboard screens as the connection state changes.
func (m *Model) applySnapshot(snap dashboard.Snapshot) tea.Cmd {
	m.snap = snap
	cmds := []tea.Cmd{m.issueList.SetIssues(snap.Issues, snap.Query(), snap.LoadingIssues)}

	// Seq 0 is the state before Start has run.
	if snap.Seq == 0 {
		return tea.Batch(cmds...)
	}

	switch snap.State {
	case dashboard.Checking:
		if m.currentView != ViewAuth {
			m.currentView = ViewRestoring
		}

	case dashboard.Unauthenticated:
		if m.currentView != ViewAuth {
			m.currentView = ViewAuth
			m.flash = ""
			cmds = append(cmds, m.authView.Start(snap.Reason))
		}

	case dashboard.Connected:
		if m.currentView == ViewRestoring || m.currentView == ViewAuth {
			m.currentView = ViewList
		}
	}

	return tea.Batch(cmds...)
}

// openPicker shows the project picker over the current project list.
func (m *Model) openPicker() tea.Cmd {
	m.previousView = m.currentView
	m.currentView = ViewProjectPicker
	return m.picker.Start(m.snap.Projects, m.snap.SelectedProject)
}

// openCreateForm switches to the create form and loads the issue types
// of the selected project before the form is built.
func (m *Model) openCreateForm() tea.Cmd {
	m.previousView = m.currentView
	m.currentView = ViewCreate
	m.issueForm = issueform.New(m.layout.ContentWidth(), m.layout.ContentHeight())

	projectKey := m.snap.SelectedProject
	if projectKey == "" && len(m.snap.Projects) > 0 {
		projectKey = m.snap.Projects[0].Key
	}
	return m.loadIssueTypes(projectKey)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewAuth:
		m.authView, cmd = m.authView.Update(msg)
	case ViewList:
		m.issueList, cmd = m.issueList.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewCreate:
		m.issueForm, cmd = m.issueForm.Update(msg)
	case ViewProjectPicker:
		m.picker, cmd = m.picker.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// executeCommand handles a command from the command palette.
func (m *Model) executeCommand(c command.CommandMsg) tea.Cmd {
	if m.snap.State != dashboard.Connected {
		if c.Name == "quit" || c.Name == "q" {
			return m.quit()
		}
		return nil
	}

	switch c.Name {
	case "refresh", "r":
		return m.refresh()
	case "project", "projects":
		if c.Arg == "" {
			return m.openPicker()
		}
		return m.selectProject(c.Arg)
	case "all":
		return m.selectProject("")
	case "search", "s":
		return m.search(c.Arg)
	case "new", "create":
		return m.openCreateForm()
	case "logout", "disconnect":
		return m.logout()
	case "quit", "q":
		return m.quit()
	default:
		m.flash = "Unknown command: " + c.Name
		return nil
	}
}

// quit closes the subscription and exits.
func (m Model) quit() tea.Cmd {
	m.sub.Close()
	return tea.Quit
}
