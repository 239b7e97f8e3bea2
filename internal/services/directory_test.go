package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/funnel/internal/access"
	"github.com/dmitrijs2005/funnel/internal/auth"
	"github.com/dmitrijs2005/funnel/internal/common"
	"github.com/dmitrijs2005/funnel/internal/models"
	"github.com/dmitrijs2005/funnel/internal/roles"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrganization_GrantsOwner(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	got, err := e.directory.RolesOn(ctx, e.admin, e.org.EntityRef())
	require.NoError(t, err)
	assert.Equal(t, []string{access.RoleAdmin, access.RoleOwner}, got)

	got, err = e.directory.RolesOn(ctx, e.admin, e.project.EntityRef())
	require.NoError(t, err)
	assert.Equal(t, []string{access.RoleProfileAdmin}, got)
}

func TestCreateOrganization_RequiresActor(t *testing.T) {
	e := newEnv(t)
	_, err := e.directory.CreateOrganization(context.Background(), auth.Identity{}, "x", "")
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestCreateProject_RequiresAdmin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.directory.CreateProject(ctx, e.editor, e.org.ID, "droidcon", "")
	require.ErrorIs(t, err, common.ErrGuardViolation)

	_, err = e.directory.CreateProject(ctx, e.admin, uuid.New(), "droidcon", "")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestCreateTeam_RequiresAdmin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.directory.CreateTeam(ctx, e.editor, e.org.ID, "Crew")
	require.ErrorIs(t, err, common.ErrGuardViolation)
	_, err = e.directory.CreateTeam(ctx, e.admin, uuid.New(), "Crew")
	require.ErrorIs(t, err, common.ErrorNotFound)

	volunteers, err := e.directory.CreateTeam(ctx, e.admin, e.org.ID, "Volunteers")
	require.NoError(t, err)
	crew, err := e.directory.CreateTeam(ctx, e.admin, e.org.ID, "Crew")
	require.NoError(t, err)

	teams, err := e.directory.Teams(ctx, e.org.ID)
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, crew.ID, teams[0].ID)
	assert.Equal(t, volunteers.ID, teams[1].ID)

	_, err = e.directory.Teams(ctx, uuid.New())
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRolesOn_Team(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	team, err := e.directory.CreateTeam(ctx, e.admin, e.org.ID, "Crew")
	require.NoError(t, err)

	_, err = e.memberships.Grant(ctx, team.EntityRef(), e.speaker.Actor.ID,
		map[string]bool{access.FlagIsMember: true}, e.admin.Actor.ID)
	require.NoError(t, err)

	got, err := e.directory.RolesOn(ctx, e.admin, team.EntityRef())
	require.NoError(t, err)
	assert.Equal(t, []string{access.RoleAdmin}, got)

	got, err = e.directory.RolesOn(ctx, e.speaker, team.EntityRef())
	require.NoError(t, err)
	assert.Equal(t, []string{access.RoleMember}, got)
}

func TestRolesOn_ProjectEditor(t *testing.T) {
	e := newEnv(t)
	got, err := e.directory.RolesOn(context.Background(), e.editor, e.project.EntityRef())
	require.NoError(t, err)
	assert.Equal(t, []string{access.RoleCrew, access.RoleEditor}, got)
}

func TestRolesOn_ParticipantTicket(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.propose(t, e.project, false)

	cs, err := e.repos.Commentsets(e.runner.Conn()).GetByProposal(ctx, p.ID)
	require.NoError(t, err)

	id := auth.Identity{Anchors: []roles.Anchor{{Kind: access.AnchorParticipantTicket, Target: e.project.EntityRef()}}}
	got, err := e.directory.RolesOn(ctx, id, cs.EntityRef())
	require.NoError(t, err)
	assert.Equal(t, []string{access.RoleCommenter}, got)
}

func TestEntity_Unknown(t *testing.T) {
	e := newEnv(t)
	_, err := e.directory.Entity(context.Background(), roles.Ref{Kind: models.KindProposal, ID: uuid.New()})
	require.ErrorIs(t, err, common.ErrorNotFound)
}
