// Package dashboard owns the Jira session lifecycle: it restores the
// stored connection, confirms it with the backend, loads projects and
// issues in order, and tears everything down when the connection can no
// longer be verified. Presentation layers observe it through snapshots.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/nhle/jira-dashboard/internal/backend"
	"github.com/nhle/jira-dashboard/internal/model"
	"github.com/nhle/jira-dashboard/internal/store"
)

// Teardown reasons shown on the connect screen.
const (
	ReasonInactive  = "Connection ID not found or inactive. Please connect a new account."
	ReasonNotFound  = "Invalid Connection ID. Please check and try again."
	ReasonLoggedOut = "Disconnected."
)

// ErrSessionChanged is returned by Login and Start when a logout or a
// newer login replaced the session while its status check was in flight.
var ErrSessionChanged = errors.New("session changed while connecting")

// Backend is the subset of the backend-of-record the Orchestrator uses.
// *backend.Client satisfies it.
type Backend interface {
	SaveConnection(ctx context.Context, connectionID string) (*model.Connection, error)
	CheckStatus(ctx context.Context, connectionID string) (*model.Connection, error)
	ListProjects(ctx context.Context, connectionID string) ([]model.Project, error)
	ListIssues(ctx context.Context, connectionID string, q model.IssueQuery) ([]model.Issue, error)
	CreateIssue(ctx context.Context, connectionID string, req model.CreateIssueRequest) (*model.Issue, error)
	ListIssueTypes(ctx context.Context, connectionID string, projectID string) ([]model.IssueType, error)
}

var _ Backend = (*backend.Client)(nil)

// Orchestrator sequences status checks and fetches for one session. All
// methods are safe for concurrent use. Network calls run outside the
// lock; results are committed only if no newer request or session
// superseded them.
type Orchestrator struct {
	backend  Backend
	sessions store.SessionStore
	history  store.HistoryStore
	logger   *slog.Logger

	autoSelect bool

	mu       sync.Mutex
	subs     map[*Subscription]struct{}
	seq      uint64
	epoch    uint64
	issueGen uint64
	projGen  uint64

	state      State
	conn       *model.Connection
	projects   []model.Project
	issues     []model.Issue
	selected   string
	search     string
	loadingP   bool
	loadingI   bool
	projErr    string
	issuesErr  string
	lastReason string

	// needsDefault is set on connect and consumed by the first projects
	// load that commits in that session. deferIssues marks an initial
	// issues fetch handed to that load.
	needsDefault bool
	deferIssues  bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithHistory records every successfully created issue.
func WithHistory(h store.HistoryStore) Option {
	return func(o *Orchestrator) { o.history = h }
}

// WithSelection preselects a project key before the first connect.
func WithSelection(projectKey string) Option {
	return func(o *Orchestrator) { o.selected = strings.TrimSpace(projectKey) }
}

// WithSearch presets the summary search text before the first connect.
func WithSearch(text string) Option {
	return func(o *Orchestrator) { o.search = strings.TrimSpace(text) }
}

// WithoutDefaultProject keeps the selection empty after projects load
// instead of selecting the first project.
func WithoutDefaultProject() Option {
	return func(o *Orchestrator) { o.autoSelect = false }
}

// New creates an Orchestrator in the Unauthenticated state. Call Start to
// restore a stored session.
func New(b Backend, sessions store.SessionStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backend:    b,
		sessions:   sessions,
		logger:     slog.Default(),
		autoSelect: true,
		subs:       make(map[*Subscription]struct{}),
		state:      Unauthenticated,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Subscribe registers for snapshots. The current snapshot is delivered
// immediately.
func (o *Orchestrator) Subscribe() *Subscription {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := &Subscription{ch: make(chan Snapshot, subscriptionBuffer), o: o}
	o.subs[s] = struct{}{}
	s.deliver(o.snapshotLocked())
	return s
}

func (o *Orchestrator) unsubscribe(s *Subscription) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.subs[s]; !ok {
		return
	}
	delete(o.subs, s)
	close(s.ch)
}

// Snapshot returns the current derived state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	var conn *model.Connection
	if o.conn != nil {
		c := *o.conn
		conn = &c
	}
	return Snapshot{
		Seq:             o.seq,
		State:           o.state,
		Connection:      conn,
		Projects:        o.projects,
		Issues:          o.issues,
		SelectedProject: o.selected,
		SearchText:      o.search,
		LoadingProjects: o.loadingP,
		LoadingIssues:   o.loadingI,
		ProjectsError:   o.projErr,
		IssuesError:     o.issuesErr,
		Reason:          o.lastReason,
	}
}

// emitLocked publishes the current state to every subscriber.
func (o *Orchestrator) emitLocked() {
	o.seq++
	snap := o.snapshotLocked()
	for s := range o.subs {
		s.deliver(snap)
	}
}

// Start restores the stored session. With no stored id the Orchestrator
// stays Unauthenticated; otherwise the id is checked and, when active,
// projects and issues are loaded.
func (o *Orchestrator) Start(ctx context.Context) error {
	id, ok, err := o.sessions.Load(ctx)
	if err != nil {
		o.logger.Error("loading stored session", "error", err)
		return fmt.Errorf("restoring session: %w", err)
	}

	id = strings.TrimSpace(id)
	if !ok || id == "" {
		o.logger.Info("no stored connection")
		o.mu.Lock()
		o.emitLocked()
		o.mu.Unlock()
		return nil
	}

	return o.connect(ctx, id, false)
}

// Login stores id as the active connection and checks it. When the
// backend reports the connection inactive the session is torn down and
// backend.ErrNotConnected is returned; any other status error is
// returned after teardown as well.
func (o *Orchestrator) Login(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return backend.NewValidationError("login", "Please enter a connection ID")
	}
	return o.connect(ctx, id, true)
}

// Register records a new connection with the backend and then logs in
// with it. A failed registration leaves the session untouched.
func (o *Orchestrator) Register(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return backend.NewValidationError("register", "Please enter a connection ID")
	}
	if _, err := o.backend.SaveConnection(ctx, id); err != nil {
		o.logger.Error("saving connection", "connection_id", id, "error", err)
		return err
	}
	o.logger.Info("connection registered", "connection_id", id)
	return o.connect(ctx, id, true)
}

// Logout forces a teardown regardless of the current state.
func (o *Orchestrator) Logout(ctx context.Context) error {
	return o.teardown(ctx, 0, ReasonLoggedOut)
}

// connect runs the Checking step and, on success, the initial fetches.
func (o *Orchestrator) connect(ctx context.Context, id string, save bool) error {
	o.mu.Lock()
	if save {
		if err := o.sessions.Save(ctx, id); err != nil {
			o.mu.Unlock()
			o.logger.Error("saving session", "error", err)
			return fmt.Errorf("storing connection id: %w", err)
		}
	}
	if o.conn != nil {
		// Switching accounts: filters belong to the old connection.
		o.selected = ""
		o.search = ""
	}
	o.epoch++
	epoch := o.epoch
	o.issueGen++
	o.projGen++
	o.state = Checking
	o.conn = &model.Connection{ID: id}
	o.projects = nil
	o.issues = nil
	o.loadingP = false
	o.loadingI = false
	o.projErr = ""
	o.issuesErr = ""
	o.lastReason = ""
	o.needsDefault = o.autoSelect
	o.deferIssues = false
	o.emitLocked()
	o.mu.Unlock()

	o.logger.Info("checking connection", "connection_id", id)
	conn, err := o.backend.CheckStatus(ctx, id)
	if err != nil {
		o.logger.Error("status check failed", "connection_id", id, "error", err)
		reason := backend.Message(err, "Could not verify the connection.")
		if backend.IsNotFound(err) {
			reason = ReasonNotFound
		}
		if tdErr := o.teardown(ctx, epoch, reason); tdErr != nil {
			return errors.Join(err, tdErr)
		}
		return err
	}
	if !conn.Connected {
		o.logger.Warn("connection inactive", "connection_id", id)
		if tdErr := o.teardown(ctx, epoch, ReasonInactive); tdErr != nil {
			return errors.Join(backend.ErrNotConnected, tdErr)
		}
		return backend.ErrNotConnected
	}

	o.mu.Lock()
	if o.epoch != epoch {
		o.mu.Unlock()
		return ErrSessionChanged
	}
	c := *conn
	c.ID = id
	o.conn = &c
	o.state = Connected
	o.emitLocked()
	o.mu.Unlock()

	o.logger.Info("connection active", "connection_id", id, "user", c.UserName)

	// Fetch failures are kept in the snapshot; the session stays up.
	_ = o.loadProjects(ctx)

	// A refresh that superseded the initial projects load is still in
	// flight and owns the default selection; it fetches issues once it
	// commits.
	o.mu.Lock()
	deferred := o.epoch == epoch && o.needsDefault && o.loadingP
	if deferred {
		o.deferIssues = true
	}
	o.mu.Unlock()

	if !deferred {
		_ = o.loadIssues(ctx)
	}
	return nil
}

// teardown clears the stored session and every piece of derived state,
// emitting Disconnected and then Unauthenticated. A non-zero epoch makes
// the teardown conditional on that session still being current.
func (o *Orchestrator) teardown(ctx context.Context, epoch uint64, reason string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if epoch != 0 && epoch != o.epoch {
		return nil
	}

	// The stored id must go even when the caller gave up waiting.
	clearErr := o.sessions.Clear(context.WithoutCancel(ctx))
	if clearErr != nil {
		o.logger.Error("clearing session", "error", clearErr)
	}

	o.epoch++
	o.issueGen++
	o.projGen++
	o.conn = nil
	o.projects = nil
	o.issues = nil
	o.selected = ""
	o.search = ""
	o.loadingP = false
	o.loadingI = false
	o.projErr = ""
	o.issuesErr = ""
	o.lastReason = reason
	o.needsDefault = false
	o.deferIssues = false

	o.state = Disconnected
	o.emitLocked()
	o.state = Unauthenticated
	o.emitLocked()

	o.logger.Info("session torn down", "reason", reason)
	return clearErr
}
