package projectpicker

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/jira-dashboard/internal/model"
	"github.com/nhle/jira-dashboard/internal/theme"
)

// PickedMsg is dispatched with the chosen project key. An empty key
// means all projects.
type PickedMsg struct {
	Key string
}

// CancelMsg is dispatched when the picker is closed without a choice.
type CancelMsg struct{}

// formBindings keeps the selected value on the heap so huh's Value()
// pointer survives Bubble Tea model copies.
type formBindings struct {
	key string
}

// Model lets the user choose the project filter.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	width  int
	height int
}

// New creates a project picker.
func New(width, height int) Model {
	return Model{fb: &formBindings{}, width: width, height: height}
}

// Start builds the picker over projects with current preselected.
func (m *Model) Start(projects []model.Project, current string) tea.Cmd {
	m.fb.key = current

	opts := make([]huh.Option[string], 0, len(projects)+1)
	opts = append(opts, huh.NewOption("All projects", ""))
	for _, p := range projects {
		opts = append(opts, huh.NewOption(p.DisplayName(), p.Key))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Project").
				Description("Issues are filtered to the chosen project").
				Options(opts...).
				Filtering(true).
				Height(min(len(opts)+2, max(m.height-6, 5))).
				Value(&m.fb.key),
		),
	).WithShowHelp(true).WithWidth(min(max(m.width-4, 30), 80))

	return m.form.Init()
}

// Update handles messages for the picker.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		key := m.fb.key
		m.form = nil
		return m, func() tea.Msg { return PickedMsg{Key: key} }
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the picker.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render("Select Project")
	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(title + "\n" + m.form.View())
}

// SetSize updates the picker dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
