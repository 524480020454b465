package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/jira-dashboard/internal/backend"
	"github.com/nhle/jira-dashboard/internal/dashboard"
	"github.com/nhle/jira-dashboard/internal/model"
)

func newLoginCommand(e *env) *cobra.Command {
	var register bool

	cmd := &cobra.Command{
		Use:   "login <connection-id>",
		Short: "Connect to Jira with a Nango connection ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := e.orchestrator(dashboard.WithoutDefaultProject())
			if err != nil {
				return err
			}

			if register {
				err = o.Register(cmd.Context(), args[0])
			} else {
				err = o.Login(cmd.Context(), args[0])
			}
			if err != nil {
				return loginError(err, o.Snapshot())
			}

			snap := o.Snapshot()
			fmt.Fprintln(out(cmd), "Connected:", describeConnection(snap.Connection))
			fmt.Fprintf(out(cmd), "%d projects available\n", len(snap.Projects))
			return nil
		},
	}

	cmd.Flags().BoolVar(&register, "register", false,
		"register the connection with the backend before logging in")
	return cmd
}

func newLogoutCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := e.orchestrator()
			if err != nil {
				return err
			}
			if err := o.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(out(cmd), dashboard.ReasonLoggedOut)
			return nil
		},
	}
}

func newStatusCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the stored connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := e.orchestrator(dashboard.WithoutDefaultProject())
			if err != nil {
				return err
			}

			// A failed check has already torn the session down; report it.
			_ = o.Start(cmd.Context())
			snap := o.Snapshot()

			if snap.State != dashboard.Connected {
				fmt.Fprintln(out(cmd), "Not Connected")
				if snap.Reason != "" {
					fmt.Fprintln(out(cmd), snap.Reason)
				}
				return nil
			}

			c := snap.Connection
			renderTable(out(cmd), []string{"FIELD", "VALUE"}, [][]string{
				{"Status", "Jira Connected"},
				{"Connection", c.ID},
				{"User", c.UserName},
				{"Email", c.UserEmail},
				{"Cloud", c.CloudID},
				{"Projects", fmt.Sprint(len(snap.Projects))},
			}, nil)
			return nil
		},
	}
}

func newProjectsCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List the projects visible to the connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := e.connected(cmd.Context(), dashboard.WithoutDefaultProject())
			if err != nil {
				return err
			}

			snap := o.Snapshot()
			if snap.ProjectsError != "" {
				return fmt.Errorf("loading projects: %s", snap.ProjectsError)
			}

			rows := make([][]string, 0, len(snap.Projects))
			for _, p := range snap.Projects {
				rows = append(rows, []string{p.Key, p.Name, p.ID})
			}
			renderTable(out(cmd), []string{"KEY", "NAME", "ID"}, rows, nil)
			return nil
		},
	}
}

func newIssuesCommand(e *env) *cobra.Command {
	var (
		project string
		all     bool
		search  string
	)

	cmd := &cobra.Command{
		Use:   "issues",
		Short: "List issues, optionally scoped to a project and summary search",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all && project != "" {
				return errors.New("--all and --project cannot be combined")
			}

			opts := []dashboard.Option{dashboard.WithSearch(search)}
			switch {
			case all:
				opts = append(opts, dashboard.WithoutDefaultProject())
			case project != "":
				opts = append(opts, dashboard.WithSelection(project))
			}

			o, err := e.connected(cmd.Context(), opts...)
			if err != nil {
				return err
			}

			snap := o.Snapshot()
			if snap.IssuesError != "" {
				return fmt.Errorf("loading issues: %s", snap.IssuesError)
			}
			renderIssues(out(cmd), snap.Issues)
			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "project key to scope issues to")
	cmd.Flags().BoolVar(&all, "all", false, "list issues across all projects")
	cmd.Flags().StringVarP(&search, "search", "s", "", "text the issue summary must contain")
	return cmd
}

func newCreateCommand(e *env) *cobra.Command {
	var req model.CreateIssueRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an issue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := dashboard.ValidateCreateIssue(req); err != nil {
				return errors.New(backend.Message(err, "invalid issue"))
			}

			o, err := e.connected(cmd.Context(),
				dashboard.WithSelection(req.ProjectKey))
			if err != nil {
				return err
			}

			created, err := o.CreateIssue(cmd.Context(), req)
			if err != nil {
				return errors.New(backend.Message(err, dashboard.CreateIssueFallback))
			}

			fmt.Fprintf(out(cmd), "Created %s: %s\n", created.Key, created.Summary)
			if created.WebURL != "" {
				fmt.Fprintln(out(cmd), created.WebURL)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.ProjectKey, "project", "p", "", "project key (required)")
	cmd.Flags().StringVar(&req.Summary, "summary", "", "issue summary (required)")
	cmd.Flags().StringVar(&req.Description, "description", "", "issue description")
	cmd.Flags().StringVarP(&req.IssueType, "type", "t", model.DefaultIssueType, "issue type name")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("summary")
	return cmd
}

func newIssueTypesCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "issue-types <project-id|project-key>",
		Short: "List the issue types of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := e.connected(cmd.Context(), dashboard.WithoutDefaultProject())
			if err != nil {
				return err
			}

			projectID := args[0]
			if p, ok := model.FindProject(o.Snapshot().Projects, projectID); ok {
				projectID = p.ID
			}

			types := o.IssueTypes(cmd.Context(), projectID)
			rows := make([][]string, 0, len(types))
			for _, t := range types {
				rows = append(rows, []string{t.Name, t.ID, t.Description})
			}
			renderTable(out(cmd), []string{"NAME", "ID", "DESCRIPTION"}, rows, nil)
			return nil
		},
	}
}

func newHistoryCommand(e *env) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List issues created from this machine with the current connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := e.connected(cmd.Context(), dashboard.WithoutDefaultProject())
			if err != nil {
				return err
			}

			entries, err := o.History(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("reading history: %w", err)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out(cmd), "No issues created yet.")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, h := range entries {
				rows = append(rows, []string{
					h.IssueKey,
					h.ProjectKey,
					h.Summary,
					h.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			renderTable(out(cmd), []string{"KEY", "PROJECT", "SUMMARY", "CREATED"}, rows, nil)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of entries, 0 for all")
	return cmd
}

// loginError explains a failed login in the same words the TUI uses.
func loginError(err error, snap dashboard.Snapshot) error {
	switch {
	case backend.IsValidation(err):
		return errors.New(backend.Message(err, "invalid connection ID"))
	case snap.Reason != "":
		return errors.New(snap.Reason)
	default:
		return fmt.Errorf("%s: %w", backend.Message(err, "could not connect"), err)
	}
}

// describeConnection renders "Name <email> (id)", skipping missing parts.
func describeConnection(c *model.Connection) string {
	if c == nil {
		return ""
	}
	s := c.ID
	switch {
	case c.UserName != "" && c.UserEmail != "":
		s = fmt.Sprintf("%s <%s> (%s)", c.UserName, c.UserEmail, c.ID)
	case c.HasIdentity():
		s = fmt.Sprintf("%s%s (%s)", c.UserName, c.UserEmail, c.ID)
	}
	return s
}
