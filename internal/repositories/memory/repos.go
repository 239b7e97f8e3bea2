package memory

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/dmitrijs2005/funnel/internal/common"
	"github.com/dmitrijs2005/funnel/internal/models"
	"github.com/dmitrijs2005/funnel/internal/roles"
	"github.com/dmitrijs2005/funnel/internal/workflow"
	"github.com/google/uuid"
)

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	err := r.s.write(func(d *state) error {
		for _, other := range d.users {
			if other.Username == u.Username {
				return fmt.Errorf("db error: username %q taken", u.Username)
			}
		}
		u.CreatedAt = r.s.now()
		d.users[u.ID] = *u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	var (
		u  models.User
		ok bool
	)
	r.s.read(func(d *state) { u, ok = d.users[id] })
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	var found *models.User
	r.s.read(func(d *state) {
		for _, u := range d.users {
			if u.Username == username {
				found = &u
				return
			}
		}
	})
	if found == nil {
		return nil, common.ErrorNotFound
	}
	return found, nil
}

type organizationRepo struct{ s *Store }

func (r *organizationRepo) Create(_ context.Context, o *models.Organization) (*models.Organization, error) {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	err := r.s.write(func(d *state) error {
		for _, other := range d.organizations {
			if other.Name == o.Name {
				return fmt.Errorf("db error: organization %q exists", o.Name)
			}
		}
		o.CreatedAt = r.s.now()
		d.organizations[o.ID] = *o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *organizationRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Organization, error) {
	var (
		o  models.Organization
		ok bool
	)
	r.s.read(func(d *state) { o, ok = d.organizations[id] })
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &o, nil
}

type teamRepo struct{ s *Store }

func (r *teamRepo) Create(_ context.Context, t *models.Team) (*models.Team, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	err := r.s.write(func(d *state) error {
		if _, ok := d.organizations[t.OrganizationID]; !ok {
			return fmt.Errorf("db error: organization %s does not exist", t.OrganizationID)
		}
		t.CreatedAt = r.s.now()
		d.teams[t.ID] = *t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *teamRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Team, error) {
	var (
		t  models.Team
		ok bool
	)
	r.s.read(func(d *state) { t, ok = d.teams[id] })
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r *teamRepo) ListByOrganization(_ context.Context, orgID uuid.UUID) ([]*models.Team, error) {
	var out []*models.Team
	r.s.read(func(d *state) {
		for _, t := range d.teams {
			if t.OrganizationID == orgID {
				out = append(out, &t)
			}
		}
	})
	slices.SortFunc(out, func(a, b *models.Team) int { return cmp.Compare(a.Title, b.Title) })
	return out, nil
}

type projectRepo struct{ s *Store }

func (r *projectRepo) Create(_ context.Context, p *models.Project) (*models.Project, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	err := r.s.write(func(d *state) error {
		if _, ok := d.organizations[p.OrganizationID]; !ok {
			return fmt.Errorf("db error: organization %s does not exist", p.OrganizationID)
		}
		for _, other := range d.projects {
			if other.OrganizationID == p.OrganizationID && other.Name == p.Name {
				return fmt.Errorf("db error: project %q exists", p.Name)
			}
		}
		p.CreatedAt = r.s.now()
		d.projects[p.ID] = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *projectRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Project, error) {
	var (
		p  models.Project
		ok bool
	)
	r.s.read(func(d *state) { p, ok = d.projects[id] })
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &p, nil
}

type proposalRepo struct{ s *Store }

func (r *proposalRepo) Create(_ context.Context, p *models.Proposal) (*models.Proposal, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	err := r.s.write(func(d *state) error {
		if _, ok := d.projects[p.ProjectID]; !ok {
			return fmt.Errorf("db error: project %s does not exist", p.ProjectID)
		}
		for _, other := range d.proposals {
			if other.ProjectID == p.ProjectID && other.Seq == p.Seq {
				return common.ErrConcurrentModification
			}
		}
		now := r.s.now()
		p.CreatedAt, p.UpdatedAt = now, now
		stored := *p
		stored.Session = nil
		d.proposals[p.ID] = stored
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *proposalRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Proposal, error) {
	var (
		p  models.Proposal
		ok bool
	)
	r.s.read(func(d *state) { p, ok = d.proposals[id] })
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &p, nil
}

// GetForUpdate needs no lock: transactions are already serialized.
func (r *proposalRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Proposal, error) {
	return r.GetByID(ctx, id)
}

func (r *proposalRepo) GetBySeq(_ context.Context, projectID uuid.UUID, seq int) (*models.Proposal, error) {
	var found *models.Proposal
	r.s.read(func(d *state) {
		for _, p := range d.proposals {
			if p.ProjectID == projectID && p.Seq == seq {
				found = &p
				return
			}
		}
	})
	if found == nil {
		return nil, common.ErrorNotFound
	}
	return found, nil
}

func (r *proposalRepo) NextSeq(_ context.Context, projectID uuid.UUID) (int, error) {
	maxSeq := 0
	known := false
	r.s.read(func(d *state) {
		_, known = d.projects[projectID]
		for _, p := range d.proposals {
			if p.ProjectID == projectID {
				maxSeq = max(maxSeq, p.Seq)
			}
		}
	})
	if !known {
		return 0, common.ErrorNotFound
	}
	return maxSeq + 1, nil
}

func (r *proposalRepo) UpdateState(_ context.Context, id uuid.UUID, from, to workflow.State) error {
	return r.s.write(func(d *state) error {
		p, ok := d.proposals[id]
		if !ok || p.State != from {
			return common.ErrConcurrentModification
		}
		p.State = to
		p.UpdatedAt = r.s.now()
		d.proposals[id] = p
		return nil
	})
}

func (r *proposalRepo) Move(_ context.Context, id uuid.UUID, projectID uuid.UUID, seq int) error {
	return r.s.write(func(d *state) error {
		p, ok := d.proposals[id]
		if !ok {
			return common.ErrorNotFound
		}
		for otherID, other := range d.proposals {
			if otherID != id && other.ProjectID == projectID && other.Seq == seq {
				return common.ErrConcurrentModification
			}
		}
		p.ProjectID, p.Seq = projectID, seq
		p.UpdatedAt = r.s.now()
		d.proposals[id] = p
		return nil
	})
}

func (r *proposalRepo) ListByProject(_ context.Context, projectID uuid.UUID) ([]*models.Proposal, error) {
	var out []*models.Proposal
	r.s.read(func(d *state) {
		for _, p := range d.proposals {
			if p.ProjectID == projectID {
				out = append(out, &p)
			}
		}
	})
	slices.SortFunc(out, func(a, b *models.Proposal) int { return cmp.Compare(a.Seq, b.Seq) })
	return out, nil
}

type commentsetRepo struct{ s *Store }

func (r *commentsetRepo) Create(_ context.Context, proposalID uuid.UUID) (*models.Commentset, error) {
	c := models.Commentset{ID: uuid.New(), ProposalID: proposalID}
	err := r.s.write(func(d *state) error {
		for _, other := range d.commentsets {
			if other.ProposalID == proposalID {
				return fmt.Errorf("db error: proposal %s already has a commentset", proposalID)
			}
		}
		c.CreatedAt = r.s.now()
		d.commentsets[c.ID] = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *commentsetRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Commentset, error) {
	var (
		c  models.Commentset
		ok bool
	)
	r.s.read(func(d *state) { c, ok = d.commentsets[id] })
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &c, nil
}

func (r *commentsetRepo) GetByProposal(_ context.Context, proposalID uuid.UUID) (*models.Commentset, error) {
	var found *models.Commentset
	r.s.read(func(d *state) {
		for _, c := range d.commentsets {
			if c.ProposalID == proposalID {
				found = &c
				return
			}
		}
	})
	if found == nil {
		return nil, common.ErrorNotFound
	}
	return found, nil
}

type sessionRepo struct{ s *Store }

func (r *sessionRepo) Create(_ context.Context, s *models.Session) (*models.Session, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	err := r.s.write(func(d *state) error {
		if s.ProposalID != nil {
			if _, ok := d.proposals[*s.ProposalID]; !ok {
				return fmt.Errorf("db error: proposal %s does not exist", *s.ProposalID)
			}
		}
		d.sessions[s.ID] = *s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *sessionRepo) GetByProposal(_ context.Context, proposalID uuid.UUID) (*models.Session, error) {
	var found *models.Session
	r.s.read(func(d *state) {
		for _, s := range d.sessions {
			if s.ProposalID == nil || *s.ProposalID != proposalID {
				continue
			}
			if found == nil || earlier(s.StartAt, found.StartAt) {
				found = &s
			}
		}
	})
	if found == nil {
		return nil, common.ErrorNotFound
	}
	return found, nil
}

// earlier orders start times with unscheduled sessions last.
func earlier(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.Before(*b)
	}
}

func (r *sessionRepo) SetSchedule(_ context.Context, id uuid.UUID, start, end *time.Time) error {
	return r.s.write(func(d *state) error {
		s, ok := d.sessions[id]
		if !ok {
			return common.ErrorNotFound
		}
		s.StartAt, s.EndAt = start, end
		d.sessions[id] = s
		return nil
	})
}

type redirectRepo struct{ s *Store }

func (r *redirectRepo) Upsert(_ context.Context, projectID uuid.UUID, seq int, proposalID uuid.UUID) error {
	return r.s.write(func(d *state) error {
		key := redirectKey{project: projectID, seq: seq}
		now := r.s.now()
		rd, ok := d.redirects[key]
		if !ok {
			rd = models.Redirect{ProjectID: projectID, Seq: seq, CreatedAt: now}
		}
		target := proposalID
		rd.ProposalID = &target
		rd.UpdatedAt = now
		d.redirects[key] = rd
		return nil
	})
}

func (r *redirectRepo) Get(_ context.Context, projectID uuid.UUID, seq int) (*models.Redirect, error) {
	var (
		rd models.Redirect
		ok bool
	)
	r.s.read(func(d *state) { rd, ok = d.redirects[redirectKey{project: projectID, seq: seq}] })
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &rd, nil
}

type membershipRepo struct{ s *Store }

func copyMembership(m models.Membership) *models.Membership {
	m.Flags = maps.Clone(m.Flags)
	return &m
}

func (r *membershipRepo) Create(_ context.Context, m *models.Membership) (*models.Membership, error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	err := r.s.write(func(d *state) error {
		if !slices.Contains(slices.Collect(maps.Values(m.Flags)), true) {
			return fmt.Errorf("db error: membership without a role")
		}
		for _, other := range d.memberships {
			if other.IsActive() && other.Parent == m.Parent && other.UserID == m.UserID {
				return common.ErrMembershipExists
			}
		}
		if m.GrantedAt.IsZero() {
			m.GrantedAt = r.s.now()
		}
		d.memberships[m.ID] = *copyMembership(*m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *membershipRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Membership, error) {
	var (
		m  models.Membership
		ok bool
	)
	r.s.read(func(d *state) { m, ok = d.memberships[id] })
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyMembership(m), nil
}

func (r *membershipRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Membership, error) {
	return r.GetByID(ctx, id)
}

func (r *membershipRepo) Revoke(_ context.Context, id uuid.UUID, by uuid.UUID, at time.Time) error {
	return r.s.write(func(d *state) error {
		m, ok := d.memberships[id]
		if !ok || !m.IsActive() {
			return common.ErrAlreadyRevoked
		}
		m.RevokedAt, m.RevokedBy = &at, &by
		d.memberships[id] = m
		return nil
	})
}

func (r *membershipRepo) filter(keep func(m *models.Membership) bool) []*models.Membership {
	var out []*models.Membership
	r.s.read(func(d *state) {
		for _, m := range d.memberships {
			if keep(&m) {
				out = append(out, copyMembership(m))
			}
		}
	})
	slices.SortFunc(out, func(a, b *models.Membership) int {
		if c := a.GrantedAt.Compare(b.GrantedAt); c != 0 {
			return c
		}
		// Within one instant the closed record precedes its replacement.
		switch {
		case a.IsActive() == b.IsActive():
			return 0
		case a.IsActive():
			return 1
		default:
			return -1
		}
	})
	return out
}

func (r *membershipRepo) ListActive(_ context.Context, parent roles.Ref, userID uuid.UUID) ([]*models.Membership, error) {
	return r.filter(func(m *models.Membership) bool {
		return m.IsActive() && m.Parent == parent && m.UserID == userID
	}), nil
}

func (r *membershipRepo) ListActiveByParent(_ context.Context, parent roles.Ref) ([]*models.Membership, error) {
	return r.filter(func(m *models.Membership) bool {
		return m.IsActive() && m.Parent == parent
	}), nil
}

func (r *membershipRepo) History(_ context.Context, parent roles.Ref) ([]*models.Membership, error) {
	return r.filter(func(m *models.Membership) bool {
		return m.Parent == parent
	}), nil
}
