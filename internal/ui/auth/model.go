// Package auth is the connect screen shown while no connection is active.
package auth

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/jira-dashboard/internal/theme"
)

// SubmitMsg is dispatched with the entered connection id.
type SubmitMsg struct {
	ConnectionID string
	// Register asks the backend to record the connection before it is
	// checked.
	Register bool
}

const (
	modeExisting = "existing"
	modeRegister = "register"
)

type formBindings struct {
	connectionID string
	mode         string
}

// Model is the connect screen.
type Model struct {
	form    *huh.Form
	fb      *formBindings
	notice  string
	err     string
	pending bool
	width   int
	height  int
}

// New creates the connect screen.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{mode: modeExisting},
		width:  width,
		height: height,
	}
}

// Start (re)builds the form. notice is shown above it, typically the
// reason the previous session ended.
func (m *Model) Start(notice string) tea.Cmd {
	m.notice = notice
	m.err = ""
	m.pending = false
	m.fb.connectionID = ""
	m.fb.mode = modeExisting
	m.form = m.buildForm()
	return m.form.Init()
}

// Failed shows message and lets the user try again.
func (m *Model) Failed(message string) tea.Cmd {
	m.err = message
	m.pending = false
	m.form = m.buildForm()
	return m.form.Init()
}

// Pending reports whether a connect attempt is in flight.
func (m Model) Pending() bool {
	return m.pending
}

// Update handles messages for the connect screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil || m.pending {
		return m, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		return m, tea.Quit
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.pending = true
		m.err = ""
		submit := SubmitMsg{
			ConnectionID: strings.TrimSpace(m.fb.connectionID),
			Register:     m.fb.mode == modeRegister,
		}
		return m, func() tea.Msg { return submit }
	case huh.StateAborted:
		return m, tea.Quit
	}

	return m, cmd
}

// View renders the connect screen.
func (m Model) View() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		Render("Connect to Jira")
	intro := theme.DimmedStyle.Render(
		"Enter the Nango connection ID of an authorized Jira account.")

	parts := []string{title, intro, ""}
	if m.notice != "" {
		parts = append(parts, theme.HelpStyle.Render(m.notice), "")
	}
	if m.err != "" {
		parts = append(parts, theme.ErrorStyle.Render(m.err), "")
	}
	if m.pending {
		parts = append(parts, theme.DimmedStyle.Render("Connecting..."))
	} else if m.form != nil {
		parts = append(parts, m.form.View())
	}

	box := theme.DetailPanelStyle.
		Width(min(max(m.width-8, 40), 72)).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// SetSize updates the screen dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Connection ID").
				Placeholder("e.g. user-abc123").
				Value(&m.fb.connectionID).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("Please enter a connection ID")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Connection").
				Options(
					huh.NewOption("Use existing connection", modeExisting),
					huh.NewOption("Register new connection", modeRegister),
				).
				Value(&m.fb.mode),
		),
	).WithWidth(min(max(m.width-16, 30), 64)).WithShowHelp(false)
}
