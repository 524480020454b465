package model

// Project is a Jira project visible to the active connection.
type Project struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// DisplayName renders the project as "Name (KEY)".
func (p Project) DisplayName() string {
	if p.Name == "" {
		return p.Key
	}
	return p.Name + " (" + p.Key + ")"
}

// FindProject returns the project with the given key, if present.
func FindProject(projects []Project, key string) (Project, bool) {
	for _, p := range projects {
		if p.Key == key {
			return p, true
		}
	}
	return Project{}, false
}

// IssueType is an issue type available for creating issues in a project.
type IssueType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Subtask     bool   `json:"subtask"`
}

// DefaultIssueType is preselected in the create form.
const DefaultIssueType = "Task"

// FallbackIssueTypes are offered when the backend cannot list the
// issue types of a project.
var FallbackIssueTypes = []IssueType{
	{Name: "Task"},
	{Name: "Bug"},
	{Name: "Story"},
	{Name: "Epic"},
}
