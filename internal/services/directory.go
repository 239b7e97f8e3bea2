package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/funnel/internal/access"
	"github.com/dmitrijs2005/funnel/internal/auth"
	"github.com/dmitrijs2005/funnel/internal/common"
	"github.com/dmitrijs2005/funnel/internal/dbx"
	"github.com/dmitrijs2005/funnel/internal/logging"
	"github.com/dmitrijs2005/funnel/internal/models"
	"github.com/dmitrijs2005/funnel/internal/repositories/repomanager"
	"github.com/dmitrijs2005/funnel/internal/roles"
	"github.com/google/uuid"
)

// DirectoryService creates the users, organizations, teams and projects
// that proposals and memberships hang off.
type DirectoryService struct {
	runner      dbx.Runner
	repomanager repomanager.RepositoryManager
	resolver    *roles.Resolver
	memberships *MembershipService
	logger      logging.Logger
}

func NewDirectoryService(runner dbx.Runner, m repomanager.RepositoryManager, resolver *roles.Resolver, memberships *MembershipService, logger logging.Logger) *DirectoryService {
	return &DirectoryService{
		runner:      runner,
		repomanager: m,
		resolver:    resolver,
		memberships: memberships,
		logger:      logger,
	}
}

// CreateUser registers a user.
func (s *DirectoryService) CreateUser(ctx context.Context, username, fullname string) (*models.User, error) {
	u, err := s.repomanager.Users(s.runner.Conn()).Create(ctx, &models.User{Username: username, Fullname: fullname})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	s.logger.Info(ctx, "user created", "user", u.ID, "username", username)
	return u, nil
}

// CreateOrganization creates an organization owned by the calling actor.
func (s *DirectoryService) CreateOrganization(ctx context.Context, id auth.Identity, name, title string) (*models.Organization, error) {
	if id.Actor == nil {
		return nil, common.ErrorUnauthorized
	}

	var org *models.Organization
	err := s.runner.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		org, err = s.repomanager.Organizations(tx).Create(ctx, &models.Organization{Name: name, Title: title})
		if err != nil {
			return err
		}
		_, err = s.memberships.grant(ctx, tx, org.EntityRef(), id.Actor.ID,
			map[string]bool{access.FlagIsOwner: true}, id.Actor.ID, s.memberships.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "organization created", "organization", org.ID, "owner", id.Actor.ID)
	return org, nil
}

// CreateProject creates a project under an organization the actor
// administers.
func (s *DirectoryService) CreateProject(ctx context.Context, id auth.Identity, orgID uuid.UUID, name, title string) (*models.Project, error) {
	var p *models.Project
	err := s.runner.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		org, err := s.repomanager.Organizations(tx).GetByID(ctx, orgID)
		if err != nil {
			return err
		}
		granted, err := s.resolver.WithStore(access.NewStore(s.repomanager, tx)).RolesFor(ctx, org, id.ActorID(), id.Anchors)
		if err != nil {
			return err
		}
		if !granted.Has(access.RoleAdmin) {
			return fmt.Errorf("create project: %w", common.ErrGuardViolation)
		}
		p, err = s.repomanager.Projects(tx).Create(ctx, &models.Project{OrganizationID: org.ID, Name: name, Title: title})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "project created", "project", p.ID, "organization", p.OrganizationID)
	return p, nil
}

// CreateTeam creates a team in an organization the actor administers.
func (s *DirectoryService) CreateTeam(ctx context.Context, id auth.Identity, orgID uuid.UUID, title string) (*models.Team, error) {
	var team *models.Team
	err := s.runner.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		org, err := s.repomanager.Organizations(tx).GetByID(ctx, orgID)
		if err != nil {
			return err
		}
		granted, err := s.resolver.WithStore(access.NewStore(s.repomanager, tx)).RolesFor(ctx, org, id.ActorID(), id.Anchors)
		if err != nil {
			return err
		}
		if !granted.Has(access.RoleAdmin) {
			return fmt.Errorf("create team: %w", common.ErrGuardViolation)
		}
		team, err = s.repomanager.Teams(tx).Create(ctx, &models.Team{OrganizationID: org.ID, Title: title})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "team created", "team", team.ID, "organization", team.OrganizationID)
	return team, nil
}

// Teams lists the teams of an organization by title.
func (s *DirectoryService) Teams(ctx context.Context, orgID uuid.UUID) ([]*models.Team, error) {
	conn := s.runner.Conn()
	if _, err := s.repomanager.Organizations(conn).GetByID(ctx, orgID); err != nil {
		return nil, err
	}
	return s.repomanager.Teams(conn).ListByOrganization(ctx, orgID)
}

// Entity loads any entity by reference.
func (s *DirectoryService) Entity(ctx context.Context, ref roles.Ref) (roles.Entity, error) {
	return access.NewStore(s.repomanager, s.runner.Conn()).LoadEntity(ctx, ref)
}

// RolesOn resolves the identity's roles on any entity.
func (s *DirectoryService) RolesOn(ctx context.Context, id auth.Identity, ref roles.Ref) ([]string, error) {
	e, err := s.Entity(ctx, ref)
	if err != nil {
		return nil, err
	}
	set, err := s.resolver.RolesFor(ctx, e, id.ActorID(), id.Anchors)
	if err != nil {
		return nil, err
	}
	return set.Sorted(), nil
}
