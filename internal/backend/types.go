package backend

import "encoding/json"

// connectionStatus is the response from GET /connection/{id} and
// POST /connection.
type connectionStatus struct {
	Connected    bool   `json:"connected"`
	ConnectionID string `json:"connectionId"`
	Provider     string `json:"provider"`
	CloudID      string `json:"cloudId"`
	AccountID    string `json:"accountId"`
	UserEmail    string `json:"userEmail"`
	UserName     string `json:"userName"`
	Error        string `json:"error"`
}

// saveConnectionRequest is the body of POST /connection.
type saveConnectionRequest struct {
	ConnectionID string `json:"connectionId"`
}

// project is one element of GET /projects/{id}.
type project struct {
	ID             string `json:"id"`
	Key            string `json:"key"`
	Name           string `json:"name"`
	URL            string `json:"url"`
	ProjectTypeKey string `json:"projectTypeKey"`
	WebURL         string `json:"webUrl"`
}

// issue is one element of GET /issues/{id}, and the (possibly partial)
// body returned by POST /issues/{id}.
type issue struct {
	ID          string `json:"id"`
	Key         string `json:"key"`
	Self        string `json:"self"`
	Summary     string `json:"summary"`
	IssueType   string `json:"issueType"`
	Status      string `json:"status"`
	Assignee    string `json:"assignee"`
	URL         string `json:"url"`
	WebURL      string `json:"webUrl"`
	ProjectID   string `json:"projectId"`
	ProjectKey  string `json:"projectKey"`
	ProjectName string `json:"projectName"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// issueType is one element of GET /issue-types/{id}/{projectId}.
type issueType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IconURL     string `json:"iconUrl"`
	Subtask     bool   `json:"subtask"`
}

// errorResponse is the FastAPI error body. Detail is either a string
// (HTTPException) or a list of validation problems (422).
type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

// validationProblem is one entry of a 422 detail list.
type validationProblem struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}
