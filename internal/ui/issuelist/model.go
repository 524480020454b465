package issuelist

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/jira-dashboard/internal/keys"
	"github.com/nhle/jira-dashboard/internal/model"
	"github.com/nhle/jira-dashboard/internal/theme"
)

// SearchMsg is sent when the user submits or clears the summary search.
type SearchMsg struct {
	Text string
}

// SelectedIssueMsg is sent when a user selects an issue to view details.
type SelectedIssueMsg struct {
	Issue model.Issue
}

// Model is the issue list view component.
type Model struct {
	list        list.Model
	keys        *keys.KeyMap
	query       model.IssueQuery
	loading     bool
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new issue list model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Issues"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search issue summaries..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		keys:        k,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Update handles messages for the issue list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.searchInput.Blur()
		text := strings.TrimSpace(m.searchInput.Value())
		return m, func() tea.Msg { return SearchMsg{Text: text} }

	case "esc":
		m.searchMode = false
		m.searchInput.Blur()
		m.searchInput.Reset()
		if m.query.SearchText == "" {
			return m, nil
		}
		return m, func() tea.Msg { return SearchMsg{Text: ""} }
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		issue, ok := m.SelectedIssue()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedIssueMsg{Issue: issue}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.SetValue(m.query.SearchText)
		m.searchInput.CursorEnd()
		return m, m.searchInput.Focus()
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// SetIssues replaces the displayed issues and records the query that
// produced them.
func (m *Model) SetIssues(issues []model.Issue, q model.IssueQuery, loading bool) tea.Cmd {
	m.query = q
	m.loading = loading
	m.list.Title = listTitle(q)

	items := make([]list.Item, len(issues))
	for i, issue := range issues {
		items[i] = IssueItem{Issue: issue}
	}
	return m.list.SetItems(items)
}

func listTitle(q model.IssueQuery) string {
	title := "Issues"
	if q.ProjectKey != "" {
		title += " · " + q.ProjectKey
	} else {
		title += " · all projects"
	}
	if q.SearchText != "" {
		title += " · \"" + q.SearchText + "\""
	}
	return title
}

// SelectedIssue returns the issue under the cursor.
func (m Model) SelectedIssue() (model.Issue, bool) {
	item, ok := m.list.SelectedItem().(IssueItem)
	if !ok {
		return model.Issue{}, false
	}
	return item.Issue, true
}

// Searching reports whether the search input has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// View renders the issue list view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

// renderEmptyState shows guidance text when no issues are available.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.loading {
		return style.Render("Loading issues...")
	}
	if !m.query.IsZero() {
		return style.Render("No matching issues.\nPress 0 for all projects or / to change the search.")
	}
	return style.Render("No issues found.\n\nPress n to create one.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
