// Package cli is the jiradash command tree. The root command runs the
// dashboard TUI; subcommands drive the same orchestrator headlessly.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/jira-dashboard/internal/app"
	"github.com/nhle/jira-dashboard/internal/backend"
	"github.com/nhle/jira-dashboard/internal/credential"
	"github.com/nhle/jira-dashboard/internal/dashboard"
	"github.com/nhle/jira-dashboard/internal/logging"
	"github.com/nhle/jira-dashboard/internal/model"
	"github.com/nhle/jira-dashboard/internal/store"
	"github.com/nhle/jira-dashboard/internal/theme"
)

// errNotLoggedIn is returned by commands that need an active connection.
var errNotLoggedIn = errors.New("not connected to Jira; run `jiradash login <connection-id>`")

// env is the state shared by one command invocation.
type env struct {
	configPath string

	// cfg, when set before run, skips loading the config file.
	cfg    *model.AppConfig
	logger *slog.Logger

	closers []func() error
}

func newRootCommand(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:           "jiradash",
		Short:         "A terminal dashboard for Jira issues, connected through Nango",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.runTUI(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&e.configPath, "config", model.DefaultConfigPath(),
		"path to the config file")

	root.AddCommand(
		newLoginCommand(e),
		newLogoutCommand(e),
		newStatusCommand(e),
		newProjectsCommand(e),
		newIssuesCommand(e),
		newCreateCommand(e),
		newIssueTypesCommand(e),
		newHistoryCommand(e),
	)
	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := run(ctx, &env{}, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

// run executes one invocation and releases what it opened, whether or
// not the command succeeded.
func run(ctx context.Context, e *env, args []string, stdout io.Writer) error {
	root := newRootCommand(e)
	root.SetArgs(args)
	root.SetOut(stdout)

	err := root.ExecuteContext(ctx)
	return errors.Join(err, e.close())
}

// setup loads the config and installs the logger and theme.
func (e *env) setup() error {
	if e.cfg == nil {
		cfg, err := model.LoadConfig(e.configPath)
		if err != nil {
			return err
		}
		e.cfg = cfg
	}

	if err := theme.Apply(e.cfg.Display.Theme); err != nil {
		return err
	}

	logger, closeLog, err := logging.Setup(e.cfg.Log)
	if err != nil {
		return err
	}
	e.logger = logger
	e.closers = append(e.closers, closeLog)
	return nil
}

// close releases everything opened for this invocation, newest first.
func (e *env) close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

// openStores opens the SQLite database and picks the session store
// named by session.backend. Issue history always lives in SQLite.
func (e *env) openStores() (store.SessionStore, store.HistoryStore, error) {
	path := e.cfg.Session.DBPath
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, nil, err
	}
	e.closers = append(e.closers, db.Close)

	if e.cfg.Session.Backend == model.SessionBackendKeyring {
		ks, err := credential.NewKeyringSessionStore()
		if err != nil {
			return nil, nil, err
		}
		return ks, db, nil
	}
	return db, db, nil
}

// orchestrator wires the backend client and stores into an Orchestrator.
func (e *env) orchestrator(opts ...dashboard.Option) (*dashboard.Orchestrator, error) {
	sessions, history, err := e.openStores()
	if err != nil {
		return nil, err
	}

	client := backend.NewClient(e.cfg.Backend.BaseURL,
		backend.WithTimeout(time.Duration(e.cfg.Backend.TimeoutSec)*time.Second),
		backend.WithMaxResults(e.cfg.Issues.MaxResults),
		backend.WithLogger(e.logger),
	)

	opts = append([]dashboard.Option{
		dashboard.WithLogger(e.logger),
		dashboard.WithHistory(history),
	}, opts...)
	return dashboard.New(client, sessions, opts...), nil
}

// connected restores the stored session and fails unless it is active.
func (e *env) connected(ctx context.Context, opts ...dashboard.Option) (*dashboard.Orchestrator, error) {
	o, err := e.orchestrator(opts...)
	if err != nil {
		return nil, err
	}
	if err := o.Start(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", backend.Message(err, "could not restore session"), err)
	}
	if o.Snapshot().State != dashboard.Connected {
		return nil, errNotLoggedIn
	}
	return o, nil
}

// runTUI starts the full-screen dashboard.
func (e *env) runTUI(ctx context.Context) error {
	o, err := e.orchestrator()
	if err != nil {
		return err
	}

	p := tea.NewProgram(
		app.New(ctx, o, e.logger),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}

// out returns where a command writes its results.
func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
