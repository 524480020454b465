package dashboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/jira-dashboard/internal/backend"
	"github.com/nhle/jira-dashboard/internal/model"
	"github.com/nhle/jira-dashboard/internal/store"
	"github.com/nhle/jira-dashboard/tests/testutil"
)

// fakeBackend is an in-memory Backend. issueHook, when set, runs inside
// ListIssues before it returns and may block.
type fakeBackend struct {
	mu sync.Mutex

	status    *model.Connection
	statusErr error
	saveErr   error

	projects    []model.Project
	projectsErr error

	issuesErr  error
	issueHook  func(q model.IssueQuery)
	issueCalls []model.IssueQuery

	created     []model.CreateIssueRequest
	createErr   error
	types       []model.IssueType
	typesErr    error
	statusCalls int
	saveCalls   int
}

func connectedBackend() *fakeBackend {
	return &fakeBackend{
		status: &model.Connection{Connected: true, UserName: "Ada", UserEmail: "ada@example.com"},
		projects: []model.Project{
			{ID: "10000", Key: "OPS", Name: "Operations"},
			{ID: "10001", Key: "WEB", Name: "Website"},
		},
	}
}

func (f *fakeBackend) SaveConnection(_ context.Context, id string) (*model.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCalls++
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	return &model.Connection{ID: id, Connected: true}, nil
}

func (f *fakeBackend) CheckStatus(_ context.Context, id string) (*model.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	c := *f.status
	c.ID = id
	return &c, nil
}

func (f *fakeBackend) ListProjects(context.Context, string) ([]model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.projectsErr != nil {
		return nil, f.projectsErr
	}
	return f.projects, nil
}

func (f *fakeBackend) ListIssues(_ context.Context, _ string, q model.IssueQuery) ([]model.Issue, error) {
	f.mu.Lock()
	f.issueCalls = append(f.issueCalls, q)
	hook, err := f.issueHook, f.issuesErr
	f.mu.Unlock()

	if hook != nil {
		hook(q)
	}
	if err != nil {
		return nil, err
	}
	return []model.Issue{{
		Key:        q.ProjectKey + "-1",
		Summary:    "result for " + q.ProjectKey + "/" + q.SearchText,
		ProjectKey: q.ProjectKey,
	}}, nil
}

func (f *fakeBackend) CreateIssue(_ context.Context, _ string, req model.CreateIssueRequest) (*model.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &model.Issue{ID: "20042", Key: req.ProjectKey + "-42", Summary: req.Summary}, nil
}

func (f *fakeBackend) ListIssueTypes(context.Context, string, string) ([]model.IssueType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.types, f.typesErr
}

func (f *fakeBackend) calls() []model.IssueQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.IssueQuery(nil), f.issueCalls...)
}

func (f *fakeBackend) set(fn func(f *fakeBackend)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

// waitingStatusBackend holds CheckStatus until the caller gives up.
type waitingStatusBackend struct {
	*fakeBackend
}

func (w waitingStatusBackend) CheckStatus(ctx context.Context, _ string) (*model.Connection, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// brokenClearStore fails every Clear the way SQLiteStore reports it.
type brokenClearStore struct {
	store.SessionStore
}

func (brokenClearStore) Clear(context.Context) error {
	return fmt.Errorf("clearing session: %w", errors.New("disk I/O error"))
}

// orderedProjectsBackend numbers ListProjects calls and runs hook with
// the call number before answering.
type orderedProjectsBackend struct {
	*fakeBackend

	callMu sync.Mutex
	n      int
	hook   func(call int)
}

func (b *orderedProjectsBackend) ListProjects(ctx context.Context, id string) ([]model.Project, error) {
	b.callMu.Lock()
	b.n++
	call := b.n
	b.callMu.Unlock()

	b.hook(call)
	return b.fakeBackend.ListProjects(ctx, id)
}

var transportErr = &backend.Error{Kind: backend.KindNetwork, Op: "check status", Err: errors.New("connection refused")}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestOrchestrator(t *testing.T, b Backend, opts ...Option) (*Orchestrator, *store.SQLiteStore) {
	t.Helper()
	s := testutil.NewTestStore(t)
	opts = append([]Option{WithLogger(quietLogger()), WithHistory(s)}, opts...)
	return New(b, s, opts...), s
}

// startConnected stores id and restores the session.
func startConnected(t *testing.T, o *Orchestrator, s store.SessionStore) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "user-abc"))
	require.NoError(t, o.Start(ctx))
	require.Equal(t, Connected, o.Snapshot().State)
}

// drain collects snapshots until one in the wanted state arrives.
func drain(t *testing.T, sub *Subscription, want State) []Snapshot {
	t.Helper()
	var got []Snapshot
	timeout := time.After(2 * time.Second)
	for {
		select {
		case snap := <-sub.C():
			got = append(got, snap)
			if snap.State == want {
				return got
			}
		case <-timeout:
			t.Fatalf("timed out waiting for state %s", want)
			return got
		}
	}
}

func TestStart_NoStoredID(t *testing.T) {
	b := connectedBackend()
	o, _ := newTestOrchestrator(t, b)

	require.NoError(t, o.Start(context.Background()))

	snap := o.Snapshot()
	assert.Equal(t, Unauthenticated, snap.State)
	assert.Nil(t, snap.Connection)
	assert.Zero(t, b.statusCalls)
}

func TestStart_RestoresSessionAndLoadsInOrder(t *testing.T) {
	b := connectedBackend()
	o, s := newTestOrchestrator(t, b)
	sub := o.Subscribe()
	defer sub.Close()

	startConnected(t, o, s)

	snap := o.Snapshot()
	require.NotNil(t, snap.Connection)
	assert.Equal(t, "user-abc", snap.Connection.ID)
	assert.Equal(t, "Ada", snap.Connection.UserName)
	assert.Len(t, snap.Projects, 2)
	assert.Equal(t, "OPS", snap.SelectedProject, "first project becomes the default")
	assert.False(t, snap.LoadingIssues)
	require.Len(t, snap.Issues, 1)
	assert.Equal(t, "OPS", snap.Issues[0].ProjectKey)

	calls := b.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, model.IssueQuery{ProjectKey: "OPS"}, calls[0])

	states := drain(t, sub, Checking)
	assert.Equal(t, Unauthenticated, states[0].State)
}

func TestStart_KeepsExistingSelection(t *testing.T) {
	b := connectedBackend()
	o, s := newTestOrchestrator(t, b, WithSelection("WEB"))

	startConnected(t, o, s)

	assert.Equal(t, "WEB", o.Snapshot().SelectedProject)
	assert.Equal(t, []model.IssueQuery{{ProjectKey: "WEB"}}, b.calls())
}

func TestStart_WithoutDefaultProject(t *testing.T) {
	b := connectedBackend()
	o, s := newTestOrchestrator(t, b, WithoutDefaultProject())

	startConnected(t, o, s)

	assert.Empty(t, o.Snapshot().SelectedProject)
	assert.Equal(t, []model.IssueQuery{{}}, b.calls())
}

func TestStart_PresetQueryIsFirstFetch(t *testing.T) {
	b := connectedBackend()
	o, s := newTestOrchestrator(t, b, WithSelection("WEB"), WithSearch(" login "))

	startConnected(t, o, s)

	assert.Equal(t, []model.IssueQuery{{ProjectKey: "WEB", SearchText: "login"}}, b.calls())
}

func TestTeardownIsTotal(t *testing.T) {
	tests := []struct {
		name       string
		status     *model.Connection
		statusErr  error
		wantErr    error
		wantReason string
	}{
		{
			name:       "inactive",
			status:     &model.Connection{Connected: false},
			wantErr:    backend.ErrNotConnected,
			wantReason: ReasonInactive,
		},
		{
			name:       "not found",
			statusErr:  &backend.Error{Kind: backend.KindNotFound, Op: "check status", StatusCode: http.StatusNotFound},
			wantReason: ReasonNotFound,
		},
		{
			name:       "transport error",
			statusErr:  transportErr,
			wantReason: "Could not verify the connection.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			b := connectedBackend()
			b.status = tt.status
			b.statusErr = tt.statusErr
			o, s := newTestOrchestrator(t, b)

			require.NoError(t, s.Save(ctx, "user-abc"))
			err := o.Start(ctx)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}

			_, ok, loadErr := s.Load(ctx)
			require.NoError(t, loadErr)
			assert.False(t, ok, "session store must be empty after teardown")

			snap := o.Snapshot()
			assert.Equal(t, Unauthenticated, snap.State)
			assert.Nil(t, snap.Connection)
			assert.Empty(t, snap.Projects)
			assert.Empty(t, snap.Issues)
			assert.Empty(t, snap.SelectedProject)
			assert.Equal(t, tt.wantReason, snap.Reason)
			assert.Empty(t, b.calls(), "no fetch may run for an unverified connection")
		})
	}
}

func TestStart_ExpiredContextStillClearsSession(t *testing.T) {
	b := waitingStatusBackend{connectedBackend()}
	o, s := newTestOrchestrator(t, b)
	require.NoError(t, s.Save(context.Background(), "user-abc"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := o.Start(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotContains(t, err.Error(), "clearing session")

	_, ok, loadErr := s.Load(context.Background())
	require.NoError(t, loadErr)
	assert.False(t, ok, "stored id must be gone after a failed status check")
	assert.Equal(t, Unauthenticated, o.Snapshot().State)
}

func TestLogout_ClearErrorReportedOnce(t *testing.T) {
	b := connectedBackend()
	s := brokenClearStore{testutil.NewTestStore(t)}
	o := New(b, s, WithLogger(quietLogger()))

	err := o.Logout(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, strings.Count(err.Error(), "clearing session"))
	assert.Equal(t, Unauthenticated, o.Snapshot().State)
}

func TestStart_TransportErrorNeverShowsDashboard(t *testing.T) {
	b := connectedBackend()
	b.statusErr = transportErr
	o, s := newTestOrchestrator(t, b)
	require.NoError(t, s.Save(context.Background(), "user-abc"))

	sub := o.Subscribe()
	defer sub.Close()

	require.Error(t, o.Start(context.Background()))

	var states []State
	for _, snap := range drain(t, sub, Disconnected) {
		states = append(states, snap.State)
	}
	states = append(states, drain(t, sub, Unauthenticated)[0].State)

	assert.NotContains(t, states, Connected)
	assert.Equal(t, []State{Unauthenticated, Checking, Disconnected, Unauthenticated}, states)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	b := connectedBackend()
	o, s := newTestOrchestrator(t, b)
	require.NoError(t, o.Start(ctx))

	require.NoError(t, o.Login(ctx, "  user-new  "))

	id, ok, err := s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "user-new", id)
	assert.Equal(t, Connected, o.Snapshot().State)
}

func TestLogin_EmptyIDRejected(t *testing.T) {
	ctx := context.Background()
	b := connectedBackend()
	o, s := newTestOrchestrator(t, b)

	err := o.Login(ctx, "   ")
	require.Error(t, err)
	assert.True(t, backend.IsValidation(err))
	assert.Zero(t, b.statusCalls)

	_, ok, _ := s.Load(ctx)
	assert.False(t, ok)
}

func TestLogin_InactiveConnection(t *testing.T) {
	ctx := context.Background()
	b := connectedBackend()
	b.status = &model.Connection{Connected: false}
	o, s := newTestOrchestrator(t, b)

	err := o.Login(ctx, "user-stale")
	assert.ErrorIs(t, err, backend.ErrNotConnected)

	_, ok, _ := s.Load(ctx)
	assert.False(t, ok)
	assert.Equal(t, ReasonInactive, o.Snapshot().Reason)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	b := connectedBackend()
	o, _ := newTestOrchestrator(t, b)

	require.NoError(t, o.Register(ctx, "user-fresh"))
	assert.Equal(t, 1, b.saveCalls)
	assert.Equal(t, Connected, o.Snapshot().State)
}

func TestRegister_FailureLeavesSessionAlone(t *testing.T) {
	ctx := context.Background()
	b := connectedBackend()
	b.saveErr = &backend.Error{Kind: backend.KindValidation, Op: "save connection", Detail: "Invalid connection"}
	o, s := newTestOrchestrator(t, b)
	startConnected(t, o, s)

	err := o.Register(ctx, "user-bad")
	require.Error(t, err)
	assert.Equal(t, "Invalid connection", backend.Message(err, ""))

	id, ok, _ := s.Load(ctx)
	assert.True(t, ok)
	assert.Equal(t, "user-abc", id)
	assert.Equal(t, Connected, o.Snapshot().State)
}

func TestLogout_EmitsDisconnectedThenUnauthenticated(t *testing.T) {
	ctx := context.Background()
	b := connectedBackend()
	o, s := newTestOrchestrator(t, b)
	startConnected(t, o, s)

	sub := o.Subscribe()
	defer sub.Close()
	<-sub.C() // current state

	require.NoError(t, o.Logout(ctx))

	first := <-sub.C()
	second := <-sub.C()
	assert.Equal(t, Disconnected, first.State)
	assert.Equal(t, ReasonLoggedOut, first.Reason)
	assert.Empty(t, first.Issues)
	assert.Equal(t, Unauthenticated, second.State)
	assert.Greater(t, second.Seq, first.Seq)

	_, ok, _ := s.Load(ctx)
	assert.False(t, ok)
}

func TestLogout_FromUnauthenticated(t *testing.T) {
	o, _ := newTestOrchestrator(t, connectedBackend())
	require.NoError(t, o.Logout(context.Background()))
	assert.Equal(t, Unauthenticated, o.Snapshot().State)
}

func TestSelectProject_OneScopedFetch(t *testing.T) {
	ctx := context.Background()
	b := connectedBackend()
	o, s := newTestOrchestrator(t, b)
	startConnected(t, o, s)
	before := len(b.calls())

	require.NoError(t, o.SelectProject(ctx, "WEB"))

	calls := b.calls()[before:]
	require.Len(t, calls, 1)
	assert.Equal(t, model.IssueQuery{ProjectKey: "WEB"}, calls[0])
	assert.Equal(t, "WEB", o.Snapshot().SelectedProject)
	assert.Equal(t, "WEB", o.Snapshot().Issues[0].ProjectKey)

	require.NoError(t, o.SelectProject(ctx, ""))
	calls = b.calls()[before+1:]
	require.Len(t, calls, 1)
	assert.True(t, calls[0].IsZero(), "clearing the filter fetches the default set")
}

func TestSelectProjectAndSearch_NoopWhenNotConnected(t *testing.T) {
	ctx := context.Background()
	b := connectedBackend()
	o, _ := newTestOrchestrator(t, b)
	require.NoError(t, o.Start(ctx))

	require.NoError(t, o.SelectProject(ctx, "OPS"))
	require.NoError(t, o.Search(ctx, "login"))
	require.NoError(t, o.RefreshIssues(ctx))
	require.NoError(t, o.RefreshProjects(ctx))

	assert.Empty(t, b.calls())
	snap := o.Snapshot()
	assert.Empty(t, snap.SelectedProject)
	assert.Empty(t, snap.SearchText)
}

func TestSearch_CombinesWithProjectInOneFetch(t *testing.T) {
	ctx := context.Background()
	b := connectedBackend()
	o, s := newTestOrchestrator(t, b)
	startConnected(t, o, s)
	before := len(b.calls())

	require.NoError(t, o.Search(ctx, "login"))

	calls := b.calls()[before:]
	require.Len(t, calls, 1)
	assert.Equal(t, model.IssueQuery{ProjectKey: "OPS", SearchText: "login"}, calls[0])
}

func TestIssues_StaleResponseSuppressed(t *testing.T) {
	ctx := context.Background()
	b := connectedBackend()
	o, s := newTestOrchestrator(t, b)
	startConnected(t, o, s)

	started := make(chan string, 2)
	release := map[string]chan struct{}{
		"older": make(chan struct{}),
		"newer": make(chan struct{}),
	}
	b.set(func(f *fakeBackend) {
		f.issueHook = func(q model.IssueQuery) {
			started <- q.SearchText
			<-release[q.SearchText]
		}
	})

	olderDone := make(chan error, 1)
	go func() { olderDone <- o.Search(ctx, "older") }()
	require.Equal(t, "older", <-started)

	newerDone := make(chan error, 1)
	go func() { newerDone <- o.Search(ctx, "newer") }()
	require.Equal(t, "newer", <-started)

	// The later request resolves first.
	close(release["newer"])
	require.NoError(t, <-newerDone)
	assert.Equal(t, "result for OPS/newer", o.Snapshot().Issues[0].Summary)
	assert.False(t, o.Snapshot().LoadingIssues)

	close(release["older"])
	require.NoError(t, <-olderDone)

	snap := o.Snapshot()
	require.Len(t, snap.Issues, 1)
	assert.Equal(t, "result for OPS/newer", snap.Issues[0].Summary)
	assert.Equal(t, "newer", snap.SearchText)
}

func TestIssues_ResponseAfterLogoutDiscarded(t *testing.T) {
	ctx := context.Background()
	b := connectedBackend()
	o, s := newTestOrchestrator(t, b)
	startConnected(t, o, s)

	started := make(chan struct{})
	release := make(chan struct{})
	b.set(func(f *fakeBackend) {
		f.issueHook = func(model.IssueQuery) {
			close(started)
			<-release
		}
	})

	done := make(chan error, 1)
	go func() { done <- o.RefreshIssues(ctx) }()
	<-started

	require.NoError(t, o.Logout(ctx))
	close(release)
	require.NoError(t, <-done)

	snap := o.Snapshot()
	assert.Equal(t, Unauthenticated, snap.State)
	assert.Empty(t, snap.Issues)
}

func TestIssues_FetchFailureKeepsPriorData(t *testing.T) {
	ctx := context.Background()
	b := connectedBackend()
	o, s := newTestOrchestrator(t, b)
	startConnected(t, o, s)
	prior := o.Snapshot().Issues

	b.set(func(f *fakeBackend) {
		f.issuesErr = &backend.Error{Kind: backend.KindNetwork, Op: "list issues", Detail: "JIRA PROXY ERROR"}
	})
	err := o.RefreshIssues(ctx)
	require.Error(t, err)

	snap := o.Snapshot()
	assert.Equal(t, Connected, snap.State, "fetch errors never tear the session down")
	assert.Equal(t, prior, snap.Issues)
	assert.Equal(t, "JIRA PROXY ERROR", snap.IssuesError)
	assert.Equal(t, "JIRA PROXY ERROR", snap.Err())

	b.set(func(f *fakeBackend) { f.issuesErr = nil })
	require.NoError(t, o.RefreshIssues(ctx))
	assert.Empty(t, o.Snapshot().Err())
}

func TestProjects_FetchFailureStillLoadsIssues(t *testing.T) {
	ctx := context.Background()
	b := connectedBackend()
	b.projectsErr = transportErr
	o, s := newTestOrchestrator(t, b)

	require.NoError(t, s.Save(ctx, "user-abc"))
	require.NoError(t, o.Start(ctx))

	snap := o.Snapshot()
	assert.Equal(t, Connected, snap.State)
	assert.Empty(t, snap.Projects)
	assert.Equal(t, "Failed to load projects", snap.ProjectsError)
	assert.Empty(t, snap.IssuesError)
	assert.Equal(t, []model.IssueQuery{{}}, b.calls())
}

func TestProjects_DuplicateKeysKeepFirst(t *testing.T) {
	b := connectedBackend()
	b.projects = []model.Project{
		{ID: "1", Key: "OPS", Name: "Operations"},
		{ID: "2", Key: "OPS", Name: "Operations (old)"},
		{ID: "3", Key: "WEB", Name: "Website"},
	}
	o, s := newTestOrchestrator(t, b)
	startConnected(t, o, s)

	projects := o.Snapshot().Projects
	require.Len(t, projects, 2)
	assert.Equal(t, "1", projects[0].ID)
	assert.Equal(t, "WEB", projects[1].Key)
}

func TestRefreshProjects_KeepsSelection(t *testing.T) {
	ctx := context.Background()
	b := connectedBackend()
	o, s := newTestOrchestrator(t, b)
	startConnected(t, o, s)
	require.NoError(t, o.SelectProject(ctx, ""))

	require.NoError(t, o.RefreshProjects(ctx))
	assert.Empty(t, o.Snapshot().SelectedProject)
}

func TestRefreshProjects_CommitsBeforeInitialLoad(t *testing.T) {
	ctx := context.Background()
	firstIn := make(chan struct{})
	release := make(chan struct{})
	b := &orderedProjectsBackend{fakeBackend: connectedBackend()}
	b.hook = func(call int) {
		if call == 1 {
			close(firstIn)
			<-release
		}
	}
	o, s := newTestOrchestrator(t, b)
	require.NoError(t, s.Save(ctx, "user-abc"))

	done := make(chan error, 1)
	go func() { done <- o.Start(ctx) }()

	<-firstIn
	require.NoError(t, o.RefreshProjects(ctx))
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, "OPS", o.Snapshot().SelectedProject)
	assert.Equal(t, []model.IssueQuery{{ProjectKey: "OPS"}}, b.calls())
}

func TestRefreshProjects_InFlightAfterInitialLoad(t *testing.T) {
	ctx := context.Background()
	firstIn := make(chan struct{})
	secondIn := make(chan struct{})
	release := make(chan struct{})
	b := &orderedProjectsBackend{fakeBackend: connectedBackend()}
	b.hook = func(call int) {
		switch call {
		case 1:
			close(firstIn)
			<-secondIn
		case 2:
			close(secondIn)
			<-release
		}
	}
	o, s := newTestOrchestrator(t, b)
	require.NoError(t, s.Save(ctx, "user-abc"))

	started := make(chan error, 1)
	go func() { started <- o.Start(ctx) }()
	<-firstIn

	refreshed := make(chan error, 1)
	go func() { refreshed <- o.RefreshProjects(ctx) }()

	require.NoError(t, <-started)
	assert.Empty(t, b.calls(), "issues wait for the projects load that picks the default")

	close(release)
	require.NoError(t, <-refreshed)

	assert.Equal(t, "OPS", o.Snapshot().SelectedProject)
	assert.Equal(t, []model.IssueQuery{{ProjectKey: "OPS"}}, b.calls())
}

func TestCreateIssue_RefetchesCurrentSelection(t *testing.T) {
	ctx := context.Background()
	b := connectedBackend()
	b.projects = []model.Project{{ID: "10000", Key: "OPS", Name: "Operations"}}
	o, s := newTestOrchestrator(t, b)
	startConnected(t, o, s)
	before := len(b.calls())

	created, err := o.CreateIssue(ctx, model.CreateIssueRequest{
		ProjectKey: "OPS",
		Summary:    "Fix login bug",
		IssueType:  "Bug",
	})
	require.NoError(t, err)
	assert.Equal(t, "OPS-42", created.Key)

	require.Len(t, b.created, 1)
	assert.Equal(t, "Fix login bug", b.created[0].Summary)

	calls := b.calls()[before:]
	require.Len(t, calls, 1)
	assert.Equal(t, "OPS", calls[0].ProjectKey)

	// The list is whatever the refetch returned, not a local merge.
	issues := o.Snapshot().Issues
	require.Len(t, issues, 1)
	assert.Equal(t, "OPS-1", issues[0].Key)

	history, err := o.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "OPS-42", history[0].IssueKey)
	assert.Equal(t, "user-abc", history[0].ConnectionID)
}

func TestCreateIssue_LocalValidation(t *testing.T) {
	tests := []struct {
		name string
		req  model.CreateIssueRequest
		msg  string
	}{
		{"empty summary", model.CreateIssueRequest{ProjectKey: "OPS", Summary: "  ", IssueType: "Bug"}, "Summary is required"},
		{"no project", model.CreateIssueRequest{Summary: "x", IssueType: "Bug"}, "Project is required"},
		{"no type", model.CreateIssueRequest{ProjectKey: "OPS", Summary: "x"}, "Issue type is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := connectedBackend()
			o, s := newTestOrchestrator(t, b)
			startConnected(t, o, s)
			before := len(b.calls())

			_, err := o.CreateIssue(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, backend.IsValidation(err))
			assert.Equal(t, tt.msg, backend.Message(err, ""))
			assert.Empty(t, b.created, "no network call on invalid input")
			assert.Len(t, b.calls(), before)
		})
	}
}

func TestCreateIssue_BackendErrorKeepsSession(t *testing.T) {
	b := connectedBackend()
	b.createErr = &backend.Error{Kind: backend.KindNetwork, Op: "create issue", StatusCode: http.StatusInternalServerError}
	o, s := newTestOrchestrator(t, b)
	startConnected(t, o, s)

	_, err := o.CreateIssue(context.Background(), model.CreateIssueRequest{
		ProjectKey: "OPS", Summary: "x", IssueType: "Task",
	})
	require.Error(t, err)
	assert.Equal(t, CreateIssueFallback, backend.Message(err, CreateIssueFallback))
	assert.Equal(t, Connected, o.Snapshot().State)
}

func TestCreateIssue_NotConnected(t *testing.T) {
	o, _ := newTestOrchestrator(t, connectedBackend())
	_, err := o.CreateIssue(context.Background(), model.CreateIssueRequest{
		ProjectKey: "OPS", Summary: "x", IssueType: "Task",
	})
	assert.ErrorIs(t, err, backend.ErrNotConnected)
}

func TestIssueTypes(t *testing.T) {
	ctx := context.Background()
	b := connectedBackend()
	b.types = []model.IssueType{{Name: "Bug"}, {Name: "Sub-task", Subtask: true}}
	o, s := newTestOrchestrator(t, b)
	startConnected(t, o, s)

	assert.Equal(t, []model.IssueType{{Name: "Bug"}}, o.IssueTypes(ctx, "10000"))

	b.set(func(f *fakeBackend) { f.typesErr = transportErr })
	assert.Equal(t, model.FallbackIssueTypes, o.IssueTypes(ctx, "10000"))

	b.set(func(f *fakeBackend) { f.typesErr = nil; f.types = nil })
	assert.Equal(t, model.FallbackIssueTypes, o.IssueTypes(ctx, "10000"))
}

func TestSubscribe_SlowReaderSeesLatest(t *testing.T) {
	ctx := context.Background()
	b := connectedBackend()
	o, s := newTestOrchestrator(t, b)
	startConnected(t, o, s)

	sub := o.Subscribe()
	for i := 0; i < subscriptionBuffer; i++ {
		require.NoError(t, o.RefreshIssues(ctx))
	}
	require.NoError(t, o.Search(ctx, "last"))

	var last Snapshot
	for len(sub.C()) > 0 {
		last = <-sub.C()
	}
	assert.Equal(t, o.Snapshot().Seq, last.Seq)
	assert.Equal(t, "last", last.SearchText)

	sub.Close()
	_, open := <-sub.C()
	assert.False(t, open)
	sub.Close()
}
