package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/jira-dashboard/internal/keys"
	"github.com/nhle/jira-dashboard/internal/model"
	"github.com/nhle/jira-dashboard/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// Model is the issue detail view component.
type Model struct {
	issue    *model.Issue
	project  model.Project
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Back) {
		return m, func() tea.Msg {
			return BackMsg{}
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.issue == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No issue selected")
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.issue == nil {
		return ""
	}

	issue := m.issue
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, theme.KeyStyle.Render(issue.Key)+"  "+titleStyle.Render(issue.Summary))

	badgeLine := lipgloss.JoinHorizontal(
		lipgloss.Top,
		theme.StatusStyle(issue.Status).Render(issue.Status),
		"  ",
		theme.DimmedStyle.Render(issue.IssueType),
	)
	sections = append(sections, badgeLine, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(10)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	row := func(label, value string) string {
		return fmt.Sprintf("%s %s", metaStyle.Render(label+":"), valStyle.Render(value))
	}

	projectKey := issue.ProjectKey
	if projectKey == "" {
		projectKey = m.project.Key
	}
	if projectKey != "" {
		name := projectKey
		if m.project.Key == projectKey {
			name = m.project.DisplayName()
		}
		sections = append(sections, row("Project", name))
	}
	sections = append(sections, row("Assignee", issue.AssigneeOrDefault()))
	if !issue.CreatedAt.IsZero() {
		sections = append(sections, row("Created", issue.CreatedAt.Local().Format("2006-01-02 15:04")))
	}
	if issue.WebURL != "" {
		sections = append(sections, row("URL", issue.WebURL))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(0, min(m.width-4, 80))))
	sections = append(sections, "", separator, "")
	sections = append(sections, theme.HelpStyle.Render("y copy URL · esc back"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetIssue updates the issue being displayed and re-renders the content.
func (m *Model) SetIssue(issue model.Issue, project model.Project) {
	m.issue = &issue
	m.project = project
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Issue returns the displayed issue.
func (m Model) Issue() (model.Issue, bool) {
	if m.issue == nil {
		return model.Issue{}, false
	}
	return *m.issue, true
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.viewport.SetContent(m.renderContent())
}
