package issuelist

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/jira-dashboard/internal/keys"
	"github.com/nhle/jira-dashboard/internal/model"
)

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestSearchSubmitEmitsSearchMsg(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)

	m, _ = m.Update(keyMsg("/"))
	require.True(t, m.Searching())

	for _, r := range "login" {
		m, _ = m.Update(keyMsg(string(r)))
	}
	m, cmd := m.Update(keyMsg("enter"))
	require.NotNil(t, cmd)
	assert.False(t, m.Searching())
	assert.Equal(t, SearchMsg{Text: "login"}, cmd())
}

func TestSearchEscClearsOnlyActiveSearch(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)

	m, _ = m.Update(keyMsg("/"))
	_, cmd := m.Update(keyMsg("esc"))
	assert.Nil(t, cmd, "nothing to clear")

	m.SetIssues(nil, model.IssueQuery{SearchText: "login"}, false)
	m, _ = m.Update(keyMsg("/"))
	_, cmd = m.Update(keyMsg("esc"))
	require.NotNil(t, cmd)
	assert.Equal(t, SearchMsg{Text: ""}, cmd())
}

func TestQuitKeysBelongToParent(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	m.SetIssues([]model.Issue{{Key: "OPS-1"}}, model.IssueQuery{}, false)

	_, cmd := m.Update(keyMsg("esc"))
	assert.Nil(t, cmd)
	_, cmd = m.Update(keyMsg("q"))
	assert.Nil(t, cmd)
}

func TestSelectEmitsIssue(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	m.SetIssues([]model.Issue{
		{Key: "OPS-1", Summary: "first"},
		{Key: "OPS-2", Summary: "second"},
	}, model.IssueQuery{ProjectKey: "OPS"}, false)

	m, _ = m.Update(keyMsg("j"))
	_, cmd := m.Update(keyMsg("enter"))
	require.NotNil(t, cmd)

	msg, ok := cmd().(SelectedIssueMsg)
	require.True(t, ok)
	assert.Equal(t, "OPS-2", msg.Issue.Key)
}

func TestEmptyStateText(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)

	m.SetIssues(nil, model.IssueQuery{}, true)
	assert.Contains(t, m.View(), "Loading issues")

	m.SetIssues(nil, model.IssueQuery{ProjectKey: "OPS"}, false)
	assert.Contains(t, m.View(), "No matching issues")
}

func TestListTitle(t *testing.T) {
	assert.Equal(t, "Issues · all projects", listTitle(model.IssueQuery{}))
	assert.Equal(t, `Issues · OPS · "login"`, listTitle(model.IssueQuery{ProjectKey: "OPS", SearchText: "login"}))
}
