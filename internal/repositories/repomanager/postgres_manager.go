package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/funnel/internal/dbx"
	"github.com/dmitrijs2005/funnel/internal/migrations"
	"github.com/dmitrijs2005/funnel/internal/repositories/commentsets"
	"github.com/dmitrijs2005/funnel/internal/repositories/memberships"
	"github.com/dmitrijs2005/funnel/internal/repositories/organizations"
	"github.com/dmitrijs2005/funnel/internal/repositories/projects"
	"github.com/dmitrijs2005/funnel/internal/repositories/proposals"
	"github.com/dmitrijs2005/funnel/internal/repositories/redirects"
	"github.com/dmitrijs2005/funnel/internal/repositories/sessions"
	"github.com/dmitrijs2005/funnel/internal/repositories/teams"
	"github.com/dmitrijs2005/funnel/internal/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

var gooseUpContext = goose.UpContext

type PostgresRepositoryManager struct {
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Organizations(db dbx.DBTX) organizations.Repository {
	return organizations.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Teams(db dbx.DBTX) teams.Repository {
	return teams.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Projects(db dbx.DBTX) projects.Repository {
	return projects.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Proposals(db dbx.DBTX) proposals.Repository {
	return proposals.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Commentsets(db dbx.DBTX) commentsets.Repository {
	return commentsets.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Redirects(db dbx.DBTX) redirects.Repository {
	return redirects.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Memberships(db dbx.DBTX) memberships.Repository {
	return memberships.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}

	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}

	return nil
}

func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
