package app

import (
	"fmt"

	"github.com/nhle/jira-dashboard/internal/dashboard"
	"github.com/nhle/jira-dashboard/internal/theme"
	"github.com/nhle/jira-dashboard/internal/ui"
)

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Jira Dashboard", m.connectionBadge())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.statusMessage())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewRestoring:
		return ui.Centered(m.layout.ContentWidth(), m.layout.ContentHeight(),
			m.spinner.View()+" Restoring your session...")
	case ViewAuth:
		return m.authView.View()
	case ViewList:
		return m.issueList.View()
	case ViewDetail:
		return m.detail.View()
	case ViewCreate:
		return m.issueForm.View()
	case ViewProjectPicker:
		return m.picker.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// connectionBadge shows who is connected, or that nobody is.
func (m Model) connectionBadge() string {
	conn := m.snap.Connection
	if m.snap.State != dashboard.Connected || conn == nil {
		return theme.DisconnectedBadgeStyle.Render("Not Connected")
	}

	label := "Jira Connected"
	switch {
	case conn.UserName != "" && conn.UserEmail != "":
		label = fmt.Sprintf("%s · %s <%s>", label, conn.UserName, conn.UserEmail)
	case conn.HasIdentity():
		label = fmt.Sprintf("%s · %s%s", label, conn.UserName, conn.UserEmail)
	}
	return theme.ConnectedBadgeStyle.Render(label)
}

// statusMessage is shown on the right of the status bar. Fetch errors
// win over transient notices.
func (m Model) statusMessage() string {
	if m.snap.State == dashboard.Connected {
		if e := m.snap.Err(); e != "" {
			return theme.ErrorStyle.Render(e)
		}
		if m.snap.Busy() {
			return m.spinner.View() + " loading"
		}
	}
	return m.flash
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewRestoring:
		return "ctrl+c quit"
	case ViewAuth:
		return "enter connect | esc quit"
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc back"
	case ViewDetail:
		return "esc back | y copy URL | j/k scroll"
	case ViewCreate:
		return "enter submit | esc cancel"
	case ViewProjectPicker:
		return "/ filter | enter select | esc cancel"
	default:
		if m.issueList.Searching() {
			return "enter search | esc clear"
		}
		return "q quit | ? help | / search | p project | 0 all | n new | r refresh | L disconnect"
	}
}
