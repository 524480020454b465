package model

// SessionKey is the fixed name under which the active connection
// identifier is persisted between runs.
const SessionKey = "nango_connection_id"

// Connection is an authorized link between jiradash and one Jira
// workspace, identified by an opaque Nango connection ID.
type Connection struct {
	// ID is the Nango connection identifier.
	ID string `json:"connectionId"`

	// Connected reports whether the backend confirmed the connection
	// is currently authorized and active.
	Connected bool `json:"connected"`

	// UserName is the Jira display name, when the backend knows it.
	UserName string `json:"userName,omitempty"`

	// UserEmail is the Jira account email, when the backend knows it.
	UserEmail string `json:"userEmail,omitempty"`

	// CloudID is the Atlassian cloud site the connection points to.
	CloudID string `json:"cloudId,omitempty"`

	// AccountID is the Atlassian account that authorized the connection.
	AccountID string `json:"accountId,omitempty"`
}

// HasIdentity reports whether display identity fields are available.
func (c Connection) HasIdentity() bool {
	return c.UserName != "" || c.UserEmail != ""
}
