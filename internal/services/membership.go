package services

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/dmitrijs2005/funnel/internal/common"
	"github.com/dmitrijs2005/funnel/internal/dbx"
	"github.com/dmitrijs2005/funnel/internal/events"
	"github.com/dmitrijs2005/funnel/internal/logging"
	"github.com/dmitrijs2005/funnel/internal/models"
	"github.com/dmitrijs2005/funnel/internal/repositories/repomanager"
	"github.com/dmitrijs2005/funnel/internal/roles"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// MembershipService grants, revokes and amends memberships. Records are
// never edited: a change of flags closes the old record and opens a new one.
type MembershipService struct {
	runner      dbx.Runner
	repomanager repomanager.RepositoryManager
	registry    *roles.Registry
	sink        events.Sink
	logger      logging.Logger
	now         func() time.Time
}

func NewMembershipService(runner dbx.Runner, m repomanager.RepositoryManager, registry *roles.Registry, sink events.Sink, logger logging.Logger) *MembershipService {
	return &MembershipService{
		runner:      runner,
		repomanager: m,
		registry:    registry,
		sink:        sink,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// validateFlags rejects flag sets granting nothing and flags the parent
// kind does not declare.
func (s *MembershipService) validateFlags(kind string, flags map[string]bool) error {
	granted := false
	for _, on := range flags {
		granted = granted || on
	}
	if !granted {
		return common.ErrEmptyRoleSet
	}

	p, ok := s.registry.Policy(kind)
	if !ok {
		return fmt.Errorf("%w: kind %q takes no memberships", common.ErrUnknownFlag, kind)
	}
	for name := range flags {
		if _, ok := p.Flags[name]; !ok {
			return fmt.Errorf("%w: %q on %s", common.ErrUnknownFlag, name, kind)
		}
	}
	return nil
}

// grant inserts a membership through tx. Callers validate flags first.
func (s *MembershipService) grant(ctx context.Context, tx dbx.DBTX, parent roles.Ref, subject uuid.UUID, flags map[string]bool, grantedBy uuid.UUID, at time.Time) (*models.Membership, error) {
	m := &models.Membership{
		Parent:    parent,
		UserID:    subject,
		Flags:     flags,
		GrantedBy: grantedBy,
		GrantedAt: at,
	}
	return s.repomanager.Memberships(tx).Create(ctx, m)
}

func (s *MembershipService) event(kind string, m *models.Membership, actor uuid.UUID, at time.Time) events.Event {
	return events.Event{
		ID:         uuid.New(),
		Kind:       kind,
		EntityKind: m.Parent.Kind,
		EntityID:   m.Parent.ID,
		Actor:      actor,
		Name:       m.UserID.String(),
		At:         at,
	}
}

// Grant gives subject the roles of flags on parent. It fails with
// common.ErrEmptyRoleSet before touching storage if no flag is set, and with
// common.ErrMembershipExists if subject already has an active record there.
func (s *MembershipService) Grant(ctx context.Context, parent roles.Ref, subject uuid.UUID, flags map[string]bool, grantedBy uuid.UUID) (_ *models.Membership, err error) {
	ctx, span := tracer.Start(ctx, "MembershipService.Grant")
	span.SetAttributes(attribute.String("parent.kind", parent.Kind), attribute.String("parent.id", parent.ID.String()))
	defer func() { endSpan(span, err) }()

	if err := s.validateFlags(parent.Kind, flags); err != nil {
		return nil, err
	}

	at := s.now()
	var m *models.Membership
	err = s.runner.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		m, err = s.grant(ctx, tx, parent, subject, flags, grantedBy, at)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "membership granted", "membership", m.ID, "parent", parent.ID, "user", subject)
	publish(ctx, s.sink, s.logger, s.event(events.KindMembershipGranted, m, grantedBy, at))
	return m, nil
}

// Revoke closes an active membership. Revoking a closed one is an error.
func (s *MembershipService) Revoke(ctx context.Context, membershipID uuid.UUID, revokedBy uuid.UUID) (err error) {
	ctx, span := tracer.Start(ctx, "MembershipService.Revoke")
	span.SetAttributes(attribute.String("membership.id", membershipID.String()))
	defer func() { endSpan(span, err) }()

	at := s.now()
	var m *models.Membership
	err = s.runner.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Memberships(tx)
		var err error
		m, err = repo.GetForUpdate(ctx, membershipID)
		if err != nil {
			return err
		}
		if !m.IsActive() {
			return common.ErrAlreadyRevoked
		}
		return repo.Revoke(ctx, membershipID, revokedBy, at)
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "membership revoked", "membership", membershipID, "by", revokedBy)
	publish(ctx, s.sink, s.logger, s.event(events.KindMembershipRevoked, m, revokedBy, at))
	return nil
}

// Amend replaces the flags of an active membership. The old record is
// closed and a new one opened at the same instant, in one transaction.
func (s *MembershipService) Amend(ctx context.Context, membershipID uuid.UUID, flags map[string]bool, amendedBy uuid.UUID) (_ *models.Membership, err error) {
	ctx, span := tracer.Start(ctx, "MembershipService.Amend")
	span.SetAttributes(attribute.String("membership.id", membershipID.String()))
	defer func() { endSpan(span, err) }()

	at := s.now()
	var next *models.Membership
	err = s.runner.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Memberships(tx)
		prev, err := repo.GetForUpdate(ctx, membershipID)
		if err != nil {
			return err
		}
		if !prev.IsActive() {
			return common.ErrAlreadyRevoked
		}
		if err := s.validateFlags(prev.Parent.Kind, flags); err != nil {
			return err
		}
		if err := repo.Revoke(ctx, prev.ID, amendedBy, at); err != nil {
			return err
		}
		next, err = s.grant(ctx, tx, prev.Parent, prev.UserID, flags, amendedBy, at)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "membership amended", "from", membershipID, "to", next.ID)
	publish(ctx, s.sink, s.logger, s.event(events.KindMembershipAmended, next, amendedBy, at))
	return next, nil
}

// Active yields the active memberships of subject on parent. Every range
// over the sequence queries storage afresh; a failed query is yielded as
// the error of a single final pair.
func (s *MembershipService) Active(ctx context.Context, parent roles.Ref, subject uuid.UUID) iter.Seq2[*models.Membership, error] {
	return func(yield func(*models.Membership, error) bool) {
		list, err := s.repomanager.Memberships(s.runner.Conn()).ListActive(ctx, parent, subject)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, m := range list {
			if !yield(m, nil) {
				return
			}
		}
	}
}

// Members returns the active memberships on parent.
func (s *MembershipService) Members(ctx context.Context, parent roles.Ref) ([]*models.Membership, error) {
	return s.repomanager.Memberships(s.runner.Conn()).ListActiveByParent(ctx, parent)
}

// History returns every membership ever granted on parent.
func (s *MembershipService) History(ctx context.Context, parent roles.Ref) ([]*models.Membership, error) {
	return s.repomanager.Memberships(s.runner.Conn()).History(ctx, parent)
}
