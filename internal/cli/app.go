// Package cli is the funnelctl command line: it drives the directory,
// membership and proposal services of an app.App.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/dmitrijs2005/funnel/internal/app"
	"github.com/dmitrijs2005/funnel/internal/auth"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// App is the CLI bound to one application instance.
type App struct {
	app    *app.App
	root   *cobra.Command
	stdout io.Writer
	stderr io.Writer

	as      string
	token   string
	anchors []string
}

func New(a *app.App) *App {
	c := &App{app: a, stdout: os.Stdout, stderr: os.Stderr}

	c.root = &cobra.Command{
		Use:   "funnelctl",
		Short: "Manage proposals, memberships and roles",
		Long: `funnelctl drives the proposal funnel: users, organizations and projects,
memberships granting roles on them, and the proposal workflow.

Config flags (-c, -d, -s, ...) are read before the command line is parsed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := c.root.PersistentFlags()
	pf.StringVar(&c.as, "as", "", "act as this username")
	pf.StringVar(&c.token, "token", "", "access token of the acting user")
	pf.StringArrayVar(&c.anchors, "anchor", nil, "anchor token (repeatable)")

	c.root.AddCommand(
		c.newMigrateCmd(),
		c.newServeCmd(),
		c.newUserCmd(),
		c.newTokenCmd(),
		c.newOrgCmd(),
		c.newTeamCmd(),
		c.newProjectCmd(),
		c.newMemberCmd(),
		c.newProposalCmd(),
		c.newRolesCmd(),
		c.newRedirectCmd(),
		c.newAnchorCmd(),
	)
	return c
}

// WithOutput sets custom output writers.
func (c *App) WithOutput(stdout, stderr io.Writer) *App {
	c.stdout = stdout
	c.stderr = stderr
	c.root.SetOut(stdout)
	c.root.SetErr(stderr)
	return c
}

// Execute runs the command line until done or interrupted.
func (c *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return c.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments.
func (c *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	c.root.SetArgs(args)
	return c.Execute(ctx)
}

// identity builds the caller from --token, --as and --anchor.
func (c *App) identity(ctx context.Context) (auth.Identity, error) {
	id, err := c.app.Authenticator.Identify(ctx, c.token, c.anchors)
	if err != nil {
		return auth.Identity{}, err
	}
	if c.as != "" {
		u, err := c.app.Repos.Users(c.app.Runner.Conn()).GetByUsername(ctx, c.as)
		if err != nil {
			return auth.Identity{}, fmt.Errorf("user %q: %w", c.as, err)
		}
		id.Actor = u
	}
	return id, nil
}

func (c *App) userID(ctx context.Context, username string) (uuid.UUID, error) {
	u, err := c.app.Repos.Users(c.app.Runner.Conn()).GetByUsername(ctx, username)
	if err != nil {
		return uuid.Nil, fmt.Errorf("user %q: %w", username, err)
	}
	return u.ID, nil
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func parseSeq(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid sequence number %q", s)
	}
	return n, nil
}

func (c *App) printf(format string, args ...any) {
	fmt.Fprintf(c.stdout, format, args...)
}
