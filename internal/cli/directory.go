package cli

import (
	"time"

	"github.com/dmitrijs2005/funnel/internal/auth"
	"github.com/dmitrijs2005/funnel/internal/roles"
	"github.com/dmitrijs2005/funnel/internal/rpcstatus"
	"github.com/spf13/cobra"
)

func (c *App) newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Migrate(cmd.Context()); err != nil {
				return err
			}
			c.printf("migrations applied\n")
			return nil
		},
	}
}

func (c *App) newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gRPC endpoint until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rpcstatus.NewServer(addr, c.app.Authenticator, c.app.Logger).Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":50051", "listen address")
	return cmd
}

func (c *App) newUserCmd() *cobra.Command {
	var fullname string

	create := &cobra.Command{
		Use:   "create <username>",
		Short: "Register a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.app.Directory.CreateUser(cmd.Context(), args[0], fullname)
			if err != nil {
				return err
			}
			c.printf("%s\n", u.ID)
			return nil
		},
	}
	create.Flags().StringVar(&fullname, "fullname", "", "display name")

	cmd := &cobra.Command{Use: "user", Short: "Manage users"}
	cmd.AddCommand(create)
	return cmd
}

func (c *App) newTokenCmd() *cobra.Command {
	issue := &cobra.Command{
		Use:   "issue <username>",
		Short: "Issue an access token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := c.userID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			token, err := auth.GenerateToken(id, []byte(c.app.Config.SecretKey), c.app.Config.AccessTokenTTL)
			if err != nil {
				return err
			}
			c.printf("%s\n", token)
			return nil
		},
	}

	cmd := &cobra.Command{Use: "token", Short: "Manage access tokens"}
	cmd.AddCommand(issue)
	return cmd
}

func (c *App) newOrgCmd() *cobra.Command {
	var title string

	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an organization owned by the caller",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := c.identity(cmd.Context())
			if err != nil {
				return err
			}
			org, err := c.app.Directory.CreateOrganization(cmd.Context(), id, args[0], title)
			if err != nil {
				return err
			}
			c.printf("%s\n", org.ID)
			return nil
		},
	}
	create.Flags().StringVar(&title, "title", "", "display title")

	cmd := &cobra.Command{Use: "org", Short: "Manage organizations"}
	cmd.AddCommand(create)
	return cmd
}

func (c *App) newProjectCmd() *cobra.Command {
	var title string

	create := &cobra.Command{
		Use:   "create <organization-id> <name>",
		Short: "Create a project in an organization the caller administers",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			orgID, err := parseID(args[0])
			if err != nil {
				return err
			}
			id, err := c.identity(cmd.Context())
			if err != nil {
				return err
			}
			p, err := c.app.Directory.CreateProject(cmd.Context(), id, orgID, args[1], title)
			if err != nil {
				return err
			}
			c.printf("%s\n", p.ID)
			return nil
		},
	}
	create.Flags().StringVar(&title, "title", "", "display title")

	cmd := &cobra.Command{Use: "project", Short: "Manage projects"}
	cmd.AddCommand(create)
	return cmd
}

func (c *App) newTeamCmd() *cobra.Command {
	create := &cobra.Command{
		Use:   "create <organization-id> <title>",
		Short: "Create a team in an organization the caller administers",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			orgID, err := parseID(args[0])
			if err != nil {
				return err
			}
			id, err := c.identity(cmd.Context())
			if err != nil {
				return err
			}
			team, err := c.app.Directory.CreateTeam(cmd.Context(), id, orgID, args[1])
			if err != nil {
				return err
			}
			c.printf("%s\n", team.ID)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list <organization-id>",
		Short: "List the teams of an organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orgID, err := parseID(args[0])
			if err != nil {
				return err
			}
			teams, err := c.app.Directory.Teams(cmd.Context(), orgID)
			if err != nil {
				return err
			}
			for _, t := range teams {
				c.printf("%s\t%s\n", t.ID, t.Title)
			}
			return nil
		},
	}

	cmd := &cobra.Command{Use: "team", Short: "Manage organization teams"}
	cmd.AddCommand(create, list)
	return cmd
}

func (c *App) newRolesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roles <kind> <id>",
		Short: "Print the caller's roles on an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseRef(args[0], args[1])
			if err != nil {
				return err
			}
			id, err := c.identity(cmd.Context())
			if err != nil {
				return err
			}
			granted, err := c.app.Directory.RolesOn(cmd.Context(), id, ref)
			if err != nil {
				return err
			}
			for _, r := range granted {
				c.printf("%s\n", r)
			}
			return nil
		},
	}
}

func (c *App) newAnchorCmd() *cobra.Command {
	var ttl time.Duration

	issue := &cobra.Command{
		Use:   "issue <anchor-kind> <target-kind> <target-id>",
		Short: "Issue an anchor token, such as a review link or participant ticket",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseRef(args[1], args[2])
			if err != nil {
				return err
			}
			if _, err := c.app.Directory.Entity(cmd.Context(), ref); err != nil {
				return err
			}
			validity := ttl
			if validity == 0 {
				validity = c.app.Config.AnchorTTL
			}
			token, err := auth.IssueAnchor(roles.Anchor{
				Kind:      args[0],
				Target:    ref,
				ExpiresAt: time.Now().Add(validity),
			}, []byte(c.app.Config.SecretKey))
			if err != nil {
				return err
			}
			c.printf("%s\n", token)
			return nil
		},
	}
	issue.Flags().DurationVar(&ttl, "ttl", 0, "validity, defaults to the configured anchor TTL")

	cmd := &cobra.Command{Use: "anchor", Short: "Manage anchor tokens"}
	cmd.AddCommand(issue)
	return cmd
}

func parseRef(kind, id string) (roles.Ref, error) {
	uid, err := parseID(id)
	if err != nil {
		return roles.Ref{}, err
	}
	return roles.Ref{Kind: kind, ID: uid}, nil
}
