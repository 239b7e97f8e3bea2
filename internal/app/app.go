// Package app assembles storage, event sinks and services from a Config.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/funnel/internal/access"
	"github.com/dmitrijs2005/funnel/internal/auth"
	"github.com/dmitrijs2005/funnel/internal/config"
	"github.com/dmitrijs2005/funnel/internal/dbx"
	"github.com/dmitrijs2005/funnel/internal/events"
	"github.com/dmitrijs2005/funnel/internal/logging"
	"github.com/dmitrijs2005/funnel/internal/repositories/memory"
	"github.com/dmitrijs2005/funnel/internal/repositories/repomanager"
	"github.com/dmitrijs2005/funnel/internal/roles"
	"github.com/dmitrijs2005/funnel/internal/services"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// MemoryDSN selects the in-process store.
const MemoryDSN = "memory://"

type App struct {
	Config *config.Config
	Logger logging.Logger

	Runner        dbx.Runner
	Repos         repomanager.RepositoryManager
	Authenticator *auth.Authenticator

	Memberships *services.MembershipService
	Directory   *services.DirectoryService
	Proposals   *services.ProposalService

	db      *sql.DB
	closers []io.Closer
}

// storage opens the backend named by dsn.
func storage(dsn string) (dbx.Runner, repomanager.RepositoryManager, *sql.DB, error) {
	if strings.HasPrefix(dsn, MemoryDSN) {
		store := memory.NewStore()
		return memory.NewRunner(store), memory.NewRepositoryManager(store), nil, nil
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("db init error: %w", err)
	}
	return dbx.NewSQLRunner(db), repomanager.NewPostgresRepositoryManager(), db, nil
}

// sinks builds the event fan-out: the log always, Kafka and S3 when
// configured.
func sinks(ctx context.Context, c *config.Config, logger logging.Logger) (events.Sink, []io.Closer, error) {
	out := events.Multi{events.NewLogSink(logger)}
	var closers []io.Closer

	if len(c.KafkaBrokers) > 0 {
		k := events.NewKafkaSink(c.KafkaBrokers, c.KafkaTopic)
		out = append(out, k)
		closers = append(closers, k)
	}

	if c.S3Bucket != "" {
		client, err := events.NewS3Client(ctx, events.S3Options{
			Bucket:       c.S3Bucket,
			Prefix:       c.S3Prefix,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
		})
		if err != nil {
			return nil, closers, fmt.Errorf("s3 init error: %w", err)
		}
		out = append(out, events.NewS3Sink(client, c.S3Bucket, c.S3Prefix))
	}

	return out, closers, nil
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	runner, repos, db, err := storage(c.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	sink, closers, err := sinks(ctx, c, logger)
	if err != nil {
		closeAll(db, closers)
		return nil, err
	}

	registry, err := access.NewRegistry()
	if err != nil {
		closeAll(db, closers)
		return nil, err
	}
	machine, err := services.NewProposalMachine()
	if err != nil {
		closeAll(db, closers)
		return nil, err
	}

	resolver := roles.NewResolver(registry, access.NewStore(repos, runner.Conn()))
	ms := services.NewMembershipService(runner, repos, registry, sink, logger)

	return &App{
		Config:        c,
		Logger:        logger,
		Runner:        runner,
		Repos:         repos,
		Authenticator: auth.NewAuthenticator([]byte(c.SecretKey), repos.Users(runner.Conn()), logger),
		Memberships:   ms,
		Directory:     services.NewDirectoryService(runner, repos, resolver, ms, logger),
		Proposals:     services.NewProposalService(runner, repos, resolver, machine, ms, sink, logger),
		db:            db,
		closers:       closers,
	}, nil
}

// Migrate applies the schema. The memory backend has none.
func (a *App) Migrate(ctx context.Context) error {
	if a.db == nil {
		return nil
	}
	if err := a.db.PingContext(ctx); err != nil {
		return fmt.Errorf("db ping error: %w", err)
	}
	return a.Repos.RunMigrations(ctx, a.db)
}

// Close releases the database and any sink connections.
func (a *App) Close() error {
	return closeAll(a.db, a.closers)
}

func closeAll(db *sql.DB, closers []io.Closer) error {
	var errs []error
	for _, c := range closers {
		errs = append(errs, c.Close())
	}
	if db != nil {
		errs = append(errs, db.Close())
	}
	return errors.Join(errs...)
}
