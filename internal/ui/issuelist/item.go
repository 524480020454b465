package issuelist

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/jira-dashboard/internal/model"
	"github.com/nhle/jira-dashboard/internal/theme"
)

// IssueItem wraps a model.Issue so it can be used in a bubbles/list.
type IssueItem struct {
	Issue model.Issue
}

// FilterValue returns the string used for fuzzy filtering.
func (i IssueItem) FilterValue() string { return i.Issue.Key + " " + i.Issue.Summary }

// Title returns the issue summary for the list.
func (i IssueItem) Title() string { return i.Issue.Summary }

// Description returns a short summary line for the list.
func (i IssueItem) Description() string {
	return fmt.Sprintf("%s | %s | %s",
		i.Issue.Key, i.Issue.Status, i.Issue.AssigneeOrDefault())
}

// ItemDelegate implements list.ItemDelegate for rendering issues.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused for now).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single issue line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(IssueItem)
	if !ok {
		return
	}
	issue := it.Issue

	keyBadge := theme.KeyStyle.Render(fmt.Sprintf("%-9s", issue.Key))
	statusBadge := theme.StatusStyle(issue.Status).Render(issue.Status)
	typeBadge := theme.DimmedStyle.Render("[" + issue.IssueType + "]")

	meta := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(fmt.Sprintf("  %s · %s",
			issue.AssigneeOrDefault(), relativeTime(issue.CreatedAt)))

	line := fmt.Sprintf("%s %s %s %s%s",
		keyBadge, typeBadge, statusBadge, issue.Summary, meta)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}
