package memory

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/funnel/internal/dbx"
	"github.com/dmitrijs2005/funnel/internal/repositories/commentsets"
	"github.com/dmitrijs2005/funnel/internal/repositories/memberships"
	"github.com/dmitrijs2005/funnel/internal/repositories/organizations"
	"github.com/dmitrijs2005/funnel/internal/repositories/projects"
	"github.com/dmitrijs2005/funnel/internal/repositories/proposals"
	"github.com/dmitrijs2005/funnel/internal/repositories/redirects"
	"github.com/dmitrijs2005/funnel/internal/repositories/sessions"
	"github.com/dmitrijs2005/funnel/internal/repositories/teams"
	"github.com/dmitrijs2005/funnel/internal/repositories/users"
)

// RepositoryManager vends repositories over one Store. The handle passed
// to each factory is ignored; isolation comes from Runner.
type RepositoryManager struct {
	store *Store
}

func NewRepositoryManager(store *Store) *RepositoryManager {
	return &RepositoryManager{store: store}
}

func (m *RepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *RepositoryManager) Users(dbx.DBTX) users.Repository { return &userRepo{m.store} }

func (m *RepositoryManager) Organizations(dbx.DBTX) organizations.Repository {
	return &organizationRepo{m.store}
}

func (m *RepositoryManager) Teams(dbx.DBTX) teams.Repository { return &teamRepo{m.store} }

func (m *RepositoryManager) Projects(dbx.DBTX) projects.Repository { return &projectRepo{m.store} }

func (m *RepositoryManager) Proposals(dbx.DBTX) proposals.Repository { return &proposalRepo{m.store} }

func (m *RepositoryManager) Commentsets(dbx.DBTX) commentsets.Repository {
	return &commentsetRepo{m.store}
}

func (m *RepositoryManager) Sessions(dbx.DBTX) sessions.Repository { return &sessionRepo{m.store} }

func (m *RepositoryManager) Redirects(dbx.DBTX) redirects.Repository { return &redirectRepo{m.store} }

func (m *RepositoryManager) Memberships(dbx.DBTX) memberships.Repository {
	return &membershipRepo{m.store}
}
