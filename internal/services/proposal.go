package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dmitrijs2005/funnel/internal/access"
	"github.com/dmitrijs2005/funnel/internal/auth"
	"github.com/dmitrijs2005/funnel/internal/common"
	"github.com/dmitrijs2005/funnel/internal/dbx"
	"github.com/dmitrijs2005/funnel/internal/events"
	"github.com/dmitrijs2005/funnel/internal/logging"
	"github.com/dmitrijs2005/funnel/internal/models"
	"github.com/dmitrijs2005/funnel/internal/repositories/repomanager"
	"github.com/dmitrijs2005/funnel/internal/roles"
	"github.com/dmitrijs2005/funnel/internal/workflow"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ProposalStatus describes where a proposal stands for one caller.
type ProposalStatus struct {
	Proposal    *models.Proposal
	State       string
	Conditional []string
	Roles       []string
	Available   []workflow.Transition
}

// StateGroup is one bucket of ByState.
type StateGroup struct {
	State     workflow.State
	Name      string
	Proposals []*models.Proposal
}

// ProposalService runs the proposal workflow.
type ProposalService struct {
	runner      dbx.Runner
	repomanager repomanager.RepositoryManager
	resolver    *roles.Resolver
	machine     *workflow.Machine[*models.Proposal]
	memberships *MembershipService
	sink        events.Sink
	logger      logging.Logger
}

func NewProposalService(runner dbx.Runner, m repomanager.RepositoryManager, resolver *roles.Resolver,
	machine *workflow.Machine[*models.Proposal], memberships *MembershipService, sink events.Sink, logger logging.Logger) *ProposalService {
	return &ProposalService{
		runner:      runner,
		repomanager: m,
		resolver:    resolver,
		machine:     machine,
		memberships: memberships,
		sink:        sink,
		logger:      logger,
	}
}

// rolesIn resolves id's roles on p reading through tx.
func (s *ProposalService) rolesIn(ctx context.Context, tx dbx.DBTX, p *models.Proposal, id auth.Identity) (roles.Set, error) {
	return s.resolver.WithStore(access.NewStore(s.repomanager, tx)).RolesFor(ctx, p, id.ActorID(), id.Anchors)
}

// load fetches a proposal and the session presenting it.
func (s *ProposalService) load(ctx context.Context, db dbx.DBTX, proposalID uuid.UUID, lock bool) (*models.Proposal, error) {
	repo := s.repomanager.Proposals(db)
	get := repo.GetByID
	if lock {
		get = repo.GetForUpdate
	}
	p, err := get(ctx, proposalID)
	if err != nil {
		return nil, err
	}

	session, err := s.repomanager.Sessions(db).GetByProposal(ctx, proposalID)
	switch {
	case err == nil:
		p.Session = session
	case !errors.Is(err, common.ErrorNotFound):
		return nil, err
	}
	return p, nil
}

// Create files a proposal in project on behalf of the actor. The proposal
// gets the next sequence number of the project, a commentset, and a
// membership making the creator its submitter and presenter.
func (s *ProposalService) Create(ctx context.Context, id auth.Identity, projectID uuid.UUID, title, body string, draft bool) (*models.Proposal, error) {
	if id.Actor == nil {
		return nil, common.ErrorUnauthorized
	}

	state := models.StateSubmitted
	if draft {
		state = models.StateDraft
	}

	var p *models.Proposal
	err := s.runner.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Projects(tx).GetByID(ctx, projectID); err != nil {
			return err
		}
		repo := s.repomanager.Proposals(tx)
		seq, err := repo.NextSeq(ctx, projectID)
		if err != nil {
			return err
		}
		p, err = repo.Create(ctx, &models.Proposal{
			ProjectID: projectID,
			UserID:    id.Actor.ID,
			Seq:       seq,
			Title:     title,
			Body:      body,
			State:     state,
		})
		if err != nil {
			return err
		}
		if _, err := s.repomanager.Commentsets(tx).Create(ctx, p.ID); err != nil {
			return err
		}
		flags := map[string]bool{access.FlagIsSubmitter: true, access.FlagIsPresenter: true}
		_, err = s.memberships.grant(ctx, tx, p.EntityRef(), id.Actor.ID, flags, id.Actor.ID, s.memberships.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "proposal created", "proposal", p.ID, "project", projectID, "seq", p.Seq, "state", p.StateName())
	return p, nil
}

// Transition applies the named transition for id. The row is locked, the
// roles resolved and the state written in one transaction, so a revoke
// racing with the call cannot slip between the check and the write.
func (s *ProposalService) Transition(ctx context.Context, id auth.Identity, proposalID uuid.UUID, name string) (_ *models.Proposal, err error) {
	ctx, span := tracer.Start(ctx, "ProposalService.Transition")
	span.SetAttributes(attribute.String("proposal.id", proposalID.String()), attribute.String("transition", name))
	defer func() { endSpan(span, err) }()

	var (
		p    *models.Proposal
		done []workflow.Transitioned
	)
	err = s.runner.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		p, err = s.load(ctx, tx, proposalID, true)
		if err != nil {
			return err
		}
		granted, err := s.rolesIn(ctx, tx, p, id)
		if err != nil {
			return err
		}
		s.logger.Debug(ctx, "roles resolved", "proposal", proposalID, "roles", granted.Sorted())

		inst := s.machine.Bind(p)
		from := p.State
		if err := inst.Apply(name, id.ActorID(), granted); err != nil {
			return err
		}
		if err := s.repomanager.Proposals(tx).UpdateState(ctx, p.ID, from, p.State); err != nil {
			return err
		}
		done = inst.Drain()
		return nil
	})
	if err != nil {
		s.logger.Warn(ctx, "transition refused", "proposal", proposalID, "transition", name, "error", err)
		return nil, err
	}

	evs := make([]events.Event, 0, len(done))
	for _, t := range done {
		evs = append(evs, events.Event{
			ID:         uuid.New(),
			Kind:       events.KindProposalTransitioned,
			EntityKind: models.KindProposal,
			EntityID:   p.ID,
			Actor:      t.Actor,
			Name:       t.Transition,
			From:       s.machine.StateName(t.From),
			To:         s.machine.StateName(t.To),
			Message:    t.Message,
			At:         t.At,
		})
	}
	s.logger.Info(ctx, "transition applied", "proposal", p.ID, "transition", name, "to", p.StateName())
	publish(ctx, s.sink, s.logger, evs...)
	return p, nil
}

// MoveTo reassigns the proposal to another project. The old (project, seq)
// address keeps resolving through a redirect, which is repointed if the
// address was used by an earlier move.
func (s *ProposalService) MoveTo(ctx context.Context, id auth.Identity, proposalID, projectID uuid.UUID) (_ *models.Proposal, err error) {
	ctx, span := tracer.Start(ctx, "ProposalService.MoveTo")
	span.SetAttributes(attribute.String("proposal.id", proposalID.String()), attribute.String("project.id", projectID.String()))
	defer func() { endSpan(span, err) }()

	var (
		p       *models.Proposal
		from    uuid.UUID
		fromSeq int
		moved   bool
		movedAt time.Time
	)
	err = s.runner.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		p, err = s.load(ctx, tx, proposalID, true)
		if err != nil {
			return err
		}
		granted, err := s.rolesIn(ctx, tx, p, id)
		if err != nil {
			return err
		}
		if !granted.Has(access.RoleProjectEditor) {
			return fmt.Errorf("move_to: %w", common.ErrGuardViolation)
		}
		if _, err := s.repomanager.Projects(tx).GetByID(ctx, projectID); err != nil {
			return err
		}
		if p.ProjectID == projectID {
			return nil
		}

		from, fromSeq = p.ProjectID, p.Seq
		if err := s.repomanager.Redirects(tx).Upsert(ctx, from, fromSeq, p.ID); err != nil {
			return err
		}
		repo := s.repomanager.Proposals(tx)
		seq, err := repo.NextSeq(ctx, projectID)
		if err != nil {
			return err
		}
		if err := repo.Move(ctx, p.ID, projectID, seq); err != nil {
			return err
		}
		p.ProjectID, p.Seq = projectID, seq
		moved, movedAt = true, time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if moved {
		s.logger.Info(ctx, "proposal moved", "proposal", p.ID, "from", from, "from_seq", fromSeq, "to", projectID, "seq", p.Seq)
		publish(ctx, s.sink, s.logger, events.Event{
			ID:         uuid.New(),
			Kind:       events.KindProposalMoved,
			EntityKind: models.KindProposal,
			EntityID:   p.ID,
			Actor:      id.ActorID(),
			From:       fmt.Sprintf("%s/%d", from, fromSeq),
			To:         fmt.Sprintf("%s/%d", projectID, p.Seq),
			At:         movedAt,
		})
	}
	return p, nil
}

// ResolveRedirect returns the proposal addressed by (projectID, seq): the
// proposal holding that address now, or else the one a redirect points to.
func (s *ProposalService) ResolveRedirect(ctx context.Context, projectID uuid.UUID, seq int) (*models.Proposal, error) {
	conn := s.runner.Conn()

	p, err := s.repomanager.Proposals(conn).GetBySeq(ctx, projectID, seq)
	if err == nil || !errors.Is(err, common.ErrorNotFound) {
		return p, err
	}

	rd, err := s.repomanager.Redirects(conn).Get(ctx, projectID, seq)
	if err != nil {
		return nil, err
	}
	if rd.ProposalID == nil {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Proposals(conn).GetByID(ctx, *rd.ProposalID)
}

// Get returns a proposal with its session.
func (s *ProposalService) Get(ctx context.Context, proposalID uuid.UUID) (*models.Proposal, error) {
	return s.load(ctx, s.runner.Conn(), proposalID, false)
}

// Roles returns the sorted roles id holds on the proposal.
func (s *ProposalService) Roles(ctx context.Context, id auth.Identity, proposalID uuid.UUID) ([]string, error) {
	conn := s.runner.Conn()
	p, err := s.load(ctx, conn, proposalID, false)
	if err != nil {
		return nil, err
	}
	granted, err := s.rolesIn(ctx, conn, p, id)
	if err != nil {
		return nil, err
	}
	return granted.Sorted(), nil
}

// Status reports the state, conditional states, roles and callable
// transitions of a proposal for id.
func (s *ProposalService) Status(ctx context.Context, id auth.Identity, proposalID uuid.UUID) (*ProposalStatus, error) {
	conn := s.runner.Conn()
	p, err := s.load(ctx, conn, proposalID, false)
	if err != nil {
		return nil, err
	}
	granted, err := s.rolesIn(ctx, conn, p, id)
	if err != nil {
		return nil, err
	}

	inst := s.machine.Bind(p)
	return &ProposalStatus{
		Proposal:    p,
		State:       p.StateName(),
		Conditional: inst.ConditionalStates(),
		Roles:       granted.Sorted(),
		Available:   inst.Available(granted),
	}, nil
}

// ByState groups the visible proposals of a project by state, in state
// code order, newest first within a group. Drafts and deleted proposals
// are left out; empty groups are omitted.
func (s *ProposalService) ByState(ctx context.Context, projectID uuid.UUID) ([]StateGroup, error) {
	list, err := s.visible(ctx, projectID)
	if err != nil {
		return nil, err
	}

	buckets := map[workflow.State][]*models.Proposal{}
	for _, p := range list {
		buckets[p.State] = append(buckets[p.State], p)
	}

	var out []StateGroup
	for st := models.StateDraft; st <= models.StateDeleted; st++ {
		if ps, ok := buckets[st]; ok {
			out = append(out, StateGroup{State: st, Name: models.ProposalStateNames[st], Proposals: ps})
		}
	}
	return out, nil
}

// Confirmation splits the visible proposals of a project.
type Confirmation struct {
	Confirmed   []*models.Proposal
	Unconfirmed []*models.Proposal
}

// ByConfirmation returns the confirmed and the other visible proposals of
// a project, newest first.
func (s *ProposalService) ByConfirmation(ctx context.Context, projectID uuid.UUID) (*Confirmation, error) {
	list, err := s.visible(ctx, projectID)
	if err != nil {
		return nil, err
	}

	out := &Confirmation{}
	for _, p := range list {
		if p.State == models.StateConfirmed {
			out.Confirmed = append(out.Confirmed, p)
		} else {
			out.Unconfirmed = append(out.Unconfirmed, p)
		}
	}
	return out, nil
}

// visible lists the proposals of a project that are neither drafts nor
// deleted, newest first.
func (s *ProposalService) visible(ctx context.Context, projectID uuid.UUID) ([]*models.Proposal, error) {
	list, err := s.repomanager.Proposals(s.runner.Conn()).ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	list = slices.DeleteFunc(list, func(p *models.Proposal) bool {
		return p.State == models.StateDraft || p.State == models.StateDeleted
	})
	slices.SortStableFunc(list, func(a, b *models.Proposal) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.Seq, a.Seq)
	})
	return list, nil
}

// ScheduleSession links a session slot to the proposal. Only editors of the
// proposal's project may schedule it.
func (s *ProposalService) ScheduleSession(ctx context.Context, id auth.Identity, proposalID uuid.UUID, title string, start, end *time.Time) (*models.Session, error) {
	var session *models.Session
	err := s.runner.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		p, err := s.load(ctx, tx, proposalID, true)
		if err != nil {
			return err
		}
		granted, err := s.rolesIn(ctx, tx, p, id)
		if err != nil {
			return err
		}
		if !granted.Has(access.RoleProjectEditor) {
			return fmt.Errorf("schedule: %w", common.ErrGuardViolation)
		}

		repo := s.repomanager.Sessions(tx)
		session, err = repo.GetByProposal(ctx, proposalID)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			session, err = repo.Create(ctx, &models.Session{
				ProjectID: p.ProjectID, ProposalID: &p.ID, Title: title, StartAt: start, EndAt: end,
			})
			return err
		case err != nil:
			return err
		}
		session.StartAt, session.EndAt = start, end
		return repo.SetSchedule(ctx, session.ID, start, end)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "session scheduled", "proposal", proposalID, "session", session.ID)
	return session, nil
}
