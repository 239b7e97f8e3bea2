package cli

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/funnel/internal/common"
	"github.com/dmitrijs2005/funnel/internal/models"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// actor returns the caller's id, refusing anonymous callers.
func (c *App) actor(ctx context.Context) (uuid.UUID, error) {
	id, err := c.identity(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	if id.Actor == nil {
		return uuid.Nil, common.ErrorUnauthorized
	}
	return id.Actor.ID, nil
}

func flagSet(names []string) map[string]bool {
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out
}

func (c *App) printMembership(m *models.Membership) {
	state := "active"
	if m.RevokedAt != nil {
		state = "revoked " + m.RevokedAt.Format(time.RFC3339)
	}
	c.printf("%s\t%s\t%s\t%s\t%s\n", m.ID, m.UserID, strings.Join(sortedFlags(m), ","), m.GrantedAt.Format(time.RFC3339), state)
}

func sortedFlags(m *models.Membership) []string {
	flags := m.TrueFlags()
	slices.Sort(flags)
	return flags
}

func (c *App) newMemberCmd() *cobra.Command {
	var flags []string

	grant := &cobra.Command{
		Use:   "grant <kind> <parent-id> <username>",
		Short: "Grant a user roles on an entity",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			parent, err := parseRef(args[0], args[1])
			if err != nil {
				return err
			}
			subject, err := c.userID(ctx, args[2])
			if err != nil {
				return err
			}
			by, err := c.actor(ctx)
			if err != nil {
				return err
			}
			m, err := c.app.Memberships.Grant(ctx, parent, subject, flagSet(flags), by)
			if err != nil {
				return err
			}
			c.printf("%s\n", m.ID)
			return nil
		},
	}
	grant.Flags().StringArrayVar(&flags, "flag", nil, "role flag to set, such as is_editor (repeatable)")

	revoke := &cobra.Command{
		Use:   "revoke <membership-id>",
		Short: "Revoke a membership",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			by, err := c.actor(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.app.Memberships.Revoke(cmd.Context(), id, by); err != nil {
				return err
			}
			c.printf("revoked %s\n", id)
			return nil
		},
	}

	amend := &cobra.Command{
		Use:   "amend <membership-id>",
		Short: "Replace the flags of a membership",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			by, err := c.actor(cmd.Context())
			if err != nil {
				return err
			}
			m, err := c.app.Memberships.Amend(cmd.Context(), id, flagSet(flags), by)
			if err != nil {
				return err
			}
			c.printf("%s\n", m.ID)
			return nil
		},
	}
	amend.Flags().StringArrayVar(&flags, "flag", nil, "role flag of the new record (repeatable)")

	var history bool
	list := &cobra.Command{
		Use:   "list <kind> <parent-id>",
		Short: "List memberships on an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parent, err := parseRef(args[0], args[1])
			if err != nil {
				return err
			}
			get := c.app.Memberships.Members
			if history {
				get = c.app.Memberships.History
			}
			list, err := get(cmd.Context(), parent)
			if err != nil {
				return err
			}
			for _, m := range list {
				c.printMembership(m)
			}
			return nil
		},
	}
	list.Flags().BoolVar(&history, "history", false, "include revoked records")

	cmd := &cobra.Command{Use: "member", Short: "Manage memberships"}
	cmd.AddCommand(grant, revoke, amend, list)
	return cmd
}
