package repomanager

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

// RepositoryManager vends repositories bound to a handle, usually the
// transaction the caller is running in.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Organizations(db dbx.DBTX) organizations.Repository
	Teams(db dbx.DBTX) teams.Repository
	Projects(db dbx.DBTX) projects.Repository
	Proposals(db dbx.DBTX) proposals.Repository
	Commentsets(db dbx.DBTX) commentsets.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Redirects(db dbx.DBTX) redirects.Repository
	Memberships(db dbx.DBTX) memberships.Repository
}
