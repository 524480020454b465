package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/nhle/jira-dashboard/internal/model"
	"github.com/nhle/jira-dashboard/internal/theme"
)

var (
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// renderTable writes rows as a bordered table. cellStyle, when set,
// overrides the style of individual data cells.
func renderTable(
	w io.Writer,
	headers []string,
	rows [][]string,
	cellStyle func(row, col int) (lipgloss.Style, bool),
) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.ColorGray)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			if cellStyle != nil {
				if s, ok := cellStyle(row, col); ok {
					return s.Padding(0, 1)
				}
			}
			return tableCellStyle
		})

	fmt.Fprintln(w, t.Render())
}

// renderIssues writes the issue table with status colouring.
func renderIssues(w io.Writer, issues []model.Issue) {
	if len(issues) == 0 {
		fmt.Fprintln(w, "No issues found.")
		return
	}

	const statusCol = 2
	rows := make([][]string, 0, len(issues))
	for _, i := range issues {
		created := ""
		if !i.CreatedAt.IsZero() {
			created = i.CreatedAt.Local().Format("2006-01-02")
		}
		rows = append(rows, []string{
			i.Key,
			i.IssueType,
			i.Status,
			i.AssigneeOrDefault(),
			i.Summary,
			created,
		})
	}

	renderTable(w,
		[]string{"KEY", "TYPE", "STATUS", "ASSIGNEE", "SUMMARY", "CREATED"},
		rows,
		func(row, col int) (lipgloss.Style, bool) {
			if col != statusCol || row < 0 || row >= len(rows) {
				return lipgloss.Style{}, false
			}
			return theme.StatusStyle(rows[row][statusCol]), true
		},
	)
}
