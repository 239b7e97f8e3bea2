package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/funnel/internal/access"
	"github.com/dmitrijs2005/funnel/internal/auth"
	"github.com/dmitrijs2005/funnel/internal/events"
	"github.com/dmitrijs2005/funnel/internal/logging"
	"github.com/dmitrijs2005/funnel/internal/models"
	"github.com/dmitrijs2005/funnel/internal/repositories/memory"
	"github.com/dmitrijs2005/funnel/internal/repositories/repomanager"
	"github.com/dmitrijs2005/funnel/internal/roles"
	"github.com/stretchr/testify/require"
)

type env struct {
	runner      *memory.Runner
	repos       repomanager.RepositoryManager
	sink        *events.Recorder
	directory   *DirectoryService
	memberships *MembershipService
	proposals   *ProposalService

	admin   auth.Identity
	editor  auth.Identity
	speaker auth.Identity
	org     *models.Organization
	project *models.Project
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.NewStore()
	return newEnvWith(t, memory.NewRunner(store), memory.NewRepositoryManager(store))
}

func newEnvWith(t *testing.T, runner *memory.Runner, repos repomanager.RepositoryManager) *env {
	t.Helper()
	ctx := context.Background()

	reg, err := access.NewRegistry()
	require.NoError(t, err)
	machine, err := NewProposalMachine()
	require.NoError(t, err)

	e := &env{runner: runner, repos: repos, sink: &events.Recorder{}}
	resolver := roles.NewResolver(reg, access.NewStore(repos, runner.Conn()))
	e.memberships = NewMembershipService(runner, repos, reg, e.sink, logging.Nop())
	e.directory = NewDirectoryService(runner, repos, resolver, e.memberships, logging.Nop())
	e.proposals = NewProposalService(runner, repos, resolver, machine, e.memberships, e.sink, logging.Nop())

	e.admin = e.user(t, "admin")
	e.editor = e.user(t, "editor")
	e.speaker = e.user(t, "speaker")

	e.org, err = e.directory.CreateOrganization(ctx, e.admin, "hasgeek", "Hasgeek")
	require.NoError(t, err)
	e.project = e.newProject(t, "rootconf")

	_, err = e.memberships.Grant(ctx, e.project.EntityRef(), e.editor.Actor.ID,
		map[string]bool{access.FlagIsEditor: true}, e.admin.Actor.ID)
	require.NoError(t, err)
	return e
}

func (e *env) user(t *testing.T, name string) auth.Identity {
	t.Helper()
	u, err := e.directory.CreateUser(context.Background(), name, "")
	require.NoError(t, err)
	return auth.Identity{Actor: u}
}

func (e *env) newProject(t *testing.T, name string) *models.Project {
	t.Helper()
	p, err := e.directory.CreateProject(context.Background(), e.admin, e.org.ID, name, "")
	require.NoError(t, err)
	return p
}

func (e *env) propose(t *testing.T, project *models.Project, draft bool) *models.Proposal {
	t.Helper()
	p, err := e.proposals.Create(context.Background(), e.speaker, project.ID, "Talk", "", draft)
	require.NoError(t, err)
	return p
}
