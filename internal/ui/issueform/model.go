package issueform

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/jira-dashboard/internal/model"
	"github.com/nhle/jira-dashboard/internal/theme"
)

// SubmitMsg is dispatched when the user submits the form.
type SubmitMsg struct {
	Request model.CreateIssueRequest
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	projectKey  string
	summary     string
	description string
	issueType   string
}

// Model is the Bubble Tea model for the create-issue form.
type Model struct {
	form       *huh.Form
	fb         *formBindings
	projects   []model.Project
	issueTypes []model.IssueType
	submitting bool
	err        string
	width      int
	height     int
}

// New creates a new issue form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{issueType: model.DefaultIssueType},
		width:  width,
		height: height,
	}
}

// Start initializes the form for a new issue. The project defaults to
// projectKey, or to the first project when that is empty.
func (m *Model) Start(projects []model.Project, projectKey string, types []model.IssueType) tea.Cmd {
	m.projects = projects
	m.issueTypes = types
	m.submitting = false
	m.err = ""

	if projectKey == "" && len(projects) > 0 {
		projectKey = projects[0].Key
	}
	m.fb.projectKey = projectKey
	m.fb.summary = ""
	m.fb.description = ""
	m.fb.issueType = defaultType(types)

	m.form = m.buildForm()
	return m.form.Init()
}

// defaultType picks Task when offered, otherwise the first type.
func defaultType(types []model.IssueType) string {
	for _, t := range types {
		if t.Name == model.DefaultIssueType {
			return t.Name
		}
	}
	if len(types) > 0 {
		return types[0].Name
	}
	return model.DefaultIssueType
}

// Update handles messages for the issue form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil || m.submitting {
		return m, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.submitting = true
		req := m.Request()
		return m, func() tea.Msg { return SubmitMsg{Request: req} }
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// Request returns the form values as a create request.
func (m Model) Request() model.CreateIssueRequest {
	return model.CreateIssueRequest{
		ProjectKey:  m.fb.projectKey,
		Summary:     m.fb.summary,
		Description: m.fb.description,
		IssueType:   m.fb.issueType,
	}.Normalize()
}

// Failed shows err and reopens the form with the entered values kept.
func (m *Model) Failed(message string) tea.Cmd {
	m.err = message
	m.submitting = false
	m.form = m.buildForm()
	return m.form.Init()
}

// Submitting reports whether a create request is in flight.
func (m Model) Submitting() bool {
	return m.submitting
}

// View renders the issue form.
func (m Model) View() string {
	if m.form == nil {
		return lipgloss.NewStyle().
			Padding(1, 2).
			Render(theme.DimmedStyle.Render("Loading issue types..."))
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render("Create New Issue") + "\n"
	if m.err != "" {
		content += theme.ErrorStyle.Render(m.err) + "\n\n"
	}
	if m.submitting {
		content += theme.DimmedStyle.Render("Creating...")
	} else {
		content += m.form.View()
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			m.projectField(),
			huh.NewInput().
				Title("Summary").
				Placeholder("Brief summary of the issue").
				Value(&m.fb.summary).
				Validate(validateRequired("Summary")),
			huh.NewText().
				Title("Description").
				Placeholder("Detailed description (optional)").
				Value(&m.fb.description),
			m.typeField(),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m *Model) projectField() huh.Field {
	opts := make([]huh.Option[string], 0, len(m.projects))
	for _, p := range m.projects {
		opts = append(opts, huh.NewOption(p.DisplayName(), p.Key))
	}
	return huh.NewSelect[string]().
		Title("Project").
		Options(opts...).
		Value(&m.fb.projectKey).
		Validate(validateRequired("Project"))
}

func (m *Model) typeField() huh.Field {
	types := m.issueTypes
	if len(types) == 0 {
		types = model.FallbackIssueTypes
	}
	opts := make([]huh.Option[string], len(types))
	for i, t := range types {
		opts[i] = huh.NewOption(t.Name, t.Name)
	}
	return huh.NewSelect[string]().
		Title("Issue Type").
		Options(opts...).
		Value(&m.fb.issueType)
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 6
	if h < 10 {
		h = 10
	}
	return h
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}
