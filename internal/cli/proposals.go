package cli

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/funnel/internal/models"
	"github.com/spf13/cobra"
)

func (c *App) printProposal(p *models.Proposal) {
	c.printf("%s\t%s/%d\t%s\t%s\n", p.ID, p.ProjectID, p.Seq, p.StateName(), p.Title)
}

func (c *App) newProposalCmd() *cobra.Command {
	var (
		body  string
		draft bool
	)
	create := &cobra.Command{
		Use:   "create <project-id> <title>",
		Short: "File a proposal as the caller",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0])
			if err != nil {
				return err
			}
			id, err := c.identity(cmd.Context())
			if err != nil {
				return err
			}
			p, err := c.app.Proposals.Create(cmd.Context(), id, projectID, args[1], body, draft)
			if err != nil {
				return err
			}
			c.printProposal(p)
			return nil
		},
	}
	create.Flags().StringVar(&body, "body", "", "proposal text")
	create.Flags().BoolVar(&draft, "draft", false, "keep the proposal as a draft")

	transition := &cobra.Command{
		Use:   "transition <proposal-id> <transition>",
		Short: "Apply a workflow transition",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			proposalID, err := parseID(args[0])
			if err != nil {
				return err
			}
			id, err := c.identity(cmd.Context())
			if err != nil {
				return err
			}
			p, err := c.app.Proposals.Transition(cmd.Context(), id, proposalID, args[1])
			if err != nil {
				return err
			}
			c.printProposal(p)
			return nil
		},
	}

	move := &cobra.Command{
		Use:   "move <proposal-id> <project-id>",
		Short: "Move a proposal to another project, leaving a redirect",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			proposalID, err := parseID(args[0])
			if err != nil {
				return err
			}
			projectID, err := parseID(args[1])
			if err != nil {
				return err
			}
			id, err := c.identity(cmd.Context())
			if err != nil {
				return err
			}
			p, err := c.app.Proposals.MoveTo(cmd.Context(), id, proposalID, projectID)
			if err != nil {
				return err
			}
			c.printProposal(p)
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status <proposal-id>",
		Short: "Show state, roles and callable transitions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proposalID, err := parseID(args[0])
			if err != nil {
				return err
			}
			id, err := c.identity(cmd.Context())
			if err != nil {
				return err
			}
			st, err := c.app.Proposals.Status(cmd.Context(), id, proposalID)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(st.Available))
			for _, t := range st.Available {
				names = append(names, t.Name)
			}
			state := st.State
			if len(st.Conditional) > 0 {
				state += " (" + strings.Join(st.Conditional, ", ") + ")"
			}
			c.printf("state: %s\n", state)
			c.printf("roles: %s\n", strings.Join(st.Roles, " "))
			c.printf("transitions: %s\n", strings.Join(names, " "))
			return nil
		},
	}

	byState := &cobra.Command{
		Use:   "by-state <project-id>",
		Short: "List a project's proposals grouped by state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0])
			if err != nil {
				return err
			}
			groups, err := c.app.Proposals.ByState(cmd.Context(), projectID)
			if err != nil {
				return err
			}
			for _, g := range groups {
				c.printf("%s (%d)\n", g.Name, len(g.Proposals))
				for _, p := range g.Proposals {
					c.printf("  %d\t%s\n", p.Seq, p.Title)
				}
			}
			return nil
		},
	}

	byConfirmation := &cobra.Command{
		Use:   "by-confirmation <project-id>",
		Short: "List a project's confirmed and unconfirmed proposals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0])
			if err != nil {
				return err
			}
			split, err := c.app.Proposals.ByConfirmation(cmd.Context(), projectID)
			if err != nil {
				return err
			}
			for _, g := range []struct {
				name string
				list []*models.Proposal
			}{{"confirmed", split.Confirmed}, {"unconfirmed", split.Unconfirmed}} {
				c.printf("%s (%d)\n", g.name, len(g.list))
				for _, p := range g.list {
					c.printf("  %d\t%s\n", p.Seq, p.Title)
				}
			}
			return nil
		},
	}

	var start, end string
	schedule := &cobra.Command{
		Use:   "schedule <proposal-id>",
		Short: "Place the proposal's session on the schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proposalID, err := parseID(args[0])
			if err != nil {
				return err
			}
			from, err := parseTime(start)
			if err != nil {
				return err
			}
			to, err := parseTime(end)
			if err != nil {
				return err
			}
			id, err := c.identity(cmd.Context())
			if err != nil {
				return err
			}
			p, err := c.app.Proposals.Get(cmd.Context(), proposalID)
			if err != nil {
				return err
			}
			s, err := c.app.Proposals.ScheduleSession(cmd.Context(), id, proposalID, p.Title, from, to)
			if err != nil {
				return err
			}
			c.printf("%s\n", s.ID)
			return nil
		},
	}
	schedule.Flags().StringVar(&start, "start", "", "slot start, RFC 3339")
	schedule.Flags().StringVar(&end, "end", "", "slot end, RFC 3339")

	cmd := &cobra.Command{Use: "proposal", Short: "Manage proposals"}
	cmd.AddCommand(create, transition, move, status, byState, byConfirmation, schedule)
	return cmd
}

// parseTime reads an RFC 3339 instant; empty means unset.
func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}

func (c *App) newRedirectCmd() *cobra.Command {
	resolve := &cobra.Command{
		Use:   "resolve <project-id> <seq>",
		Short: "Find the proposal an old address points to",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0])
			if err != nil {
				return err
			}
			seq, err := parseSeq(args[1])
			if err != nil {
				return err
			}
			p, err := c.app.Proposals.ResolveRedirect(cmd.Context(), projectID, seq)
			if err != nil {
				return err
			}
			c.printProposal(p)
			return nil
		},
	}

	cmd := &cobra.Command{Use: "redirect", Short: "Resolve moved proposal addresses"}
	cmd.AddCommand(resolve)
	return cmd
}
