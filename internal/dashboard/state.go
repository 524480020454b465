package dashboard

import (
	"github.com/nhle/jira-dashboard/internal/model"
)

// State is the session lifecycle state of the Orchestrator.
type State int

const (
	// Unauthenticated means no connection id is stored.
	Unauthenticated State = iota
	// Checking means a status lookup for the stored id is in flight.
	Checking
	// Connected means the backend confirmed the connection is active.
	Connected
	// Disconnected is entered on teardown. It is always followed by
	// Unauthenticated once the session has been cleared.
	Disconnected
)

func (s State) String() string {
	switch s {
	case Checking:
		return "checking"
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	default:
		return "unauthenticated"
	}
}

// Snapshot is a copy of the Orchestrator's derived state at one point in
// time. Slices are shared with the Orchestrator and must be treated as
// read-only; the Orchestrator replaces them wholesale instead of
// mutating them.
type Snapshot struct {
	// Seq increases by one with every emitted snapshot.
	Seq uint64

	State State

	// Connection is nil unless a connection id is being checked or is
	// connected.
	Connection *model.Connection

	Projects        []model.Project
	Issues          []model.Issue
	SelectedProject string
	SearchText      string

	LoadingProjects bool
	LoadingIssues   bool

	// ProjectsError and IssuesError hold the message of the last failed
	// fetch of each kind, cleared by the next successful one.
	ProjectsError string
	IssuesError   string

	// Reason explains the most recent teardown.
	Reason string
}

// Query returns the issue query implied by the current selection.
func (s Snapshot) Query() model.IssueQuery {
	return model.IssueQuery{ProjectKey: s.SelectedProject, SearchText: s.SearchText}
}

// Err returns the fetch error to show, if any.
func (s Snapshot) Err() string {
	if s.IssuesError != "" {
		return s.IssuesError
	}
	return s.ProjectsError
}

// Busy reports whether any fetch is in flight.
func (s Snapshot) Busy() bool {
	return s.State == Checking || s.LoadingProjects || s.LoadingIssues
}

// Subscription delivers snapshots emitted after each transition. When the
// reader falls behind the oldest pending snapshot is dropped, so the last
// value received is always the latest state.
type Subscription struct {
	ch chan Snapshot
	o  *Orchestrator
}

// subscriptionBuffer is how many snapshots a subscriber may lag behind
// before older ones are dropped.
const subscriptionBuffer = 16

// C returns the channel snapshots are delivered on. It is closed by
// Close.
func (s *Subscription) C() <-chan Snapshot {
	return s.ch
}

// Close stops delivery and closes the channel.
func (s *Subscription) Close() {
	s.o.unsubscribe(s)
}

// deliver hands snap to the subscriber without blocking.
func (s *Subscription) deliver(snap Snapshot) {
	for {
		select {
		case s.ch <- snap:
			return
		default:
		}
		// Full: drop the oldest and try again.
		select {
		case <-s.ch:
		default:
		}
	}
}
