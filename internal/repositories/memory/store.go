// Package memory keeps every repository in process memory. It backs tests
// and the memory:// DSN of funnelctl.
//
// Transactions are serialized and rolled back by restoring a snapshot, so
// services observe the same commit/rollback behaviour as with Postgres.
// Reads outside a transaction may see writes of a transaction in flight.
package memory

import (
	"context"
	"database/sql"
	"errors"
	"maps"
	"sync"
	"time"

	"github.com/dmitrijs2005/funnel/internal/dbx"
	"github.com/dmitrijs2005/funnel/internal/models"
	"github.com/google/uuid"
)

var errNoSQL = errors.New("memory store does not execute SQL")

type redirectKey struct {
	project uuid.UUID
	seq     int
}

type state struct {
	users         map[uuid.UUID]models.User
	organizations map[uuid.UUID]models.Organization
	teams         map[uuid.UUID]models.Team
	projects      map[uuid.UUID]models.Project
	proposals     map[uuid.UUID]models.Proposal
	commentsets   map[uuid.UUID]models.Commentset
	sessions      map[uuid.UUID]models.Session
	redirects     map[redirectKey]models.Redirect
	memberships   map[uuid.UUID]models.Membership
}

func newState() state {
	return state{
		users:         map[uuid.UUID]models.User{},
		organizations: map[uuid.UUID]models.Organization{},
		teams:         map[uuid.UUID]models.Team{},
		projects:      map[uuid.UUID]models.Project{},
		proposals:     map[uuid.UUID]models.Proposal{},
		commentsets:   map[uuid.UUID]models.Commentset{},
		sessions:      map[uuid.UUID]models.Session{},
		redirects:     map[redirectKey]models.Redirect{},
		memberships:   map[uuid.UUID]models.Membership{},
	}
}

// clone copies the maps. Stored values are never mutated in place, so a
// shallow copy of each value is enough.
func (s state) clone() state {
	return state{
		users:         maps.Clone(s.users),
		organizations: maps.Clone(s.organizations),
		teams:         maps.Clone(s.teams),
		projects:      maps.Clone(s.projects),
		proposals:     maps.Clone(s.proposals),
		commentsets:   maps.Clone(s.commentsets),
		sessions:      maps.Clone(s.sessions),
		redirects:     maps.Clone(s.redirects),
		memberships:   maps.Clone(s.memberships),
	}
}

// Store is the shared in-memory database.
type Store struct {
	mu   sync.RWMutex
	data state

	txMu sync.Mutex
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{data: newState(), now: time.Now}
}

// WithClock replaces the clock used for generated timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) read(fn func(d *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.data)
}

func (s *Store) write(fn func(d *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.data)
}

// Runner implements dbx.Runner on top of a Store.
type Runner struct {
	store *Store
}

func NewRunner(store *Store) *Runner {
	return &Runner{store: store}
}

// Conn returns a handle that refuses SQL. Memory repositories ignore it.
func (r *Runner) Conn() dbx.DBTX { return conn{} }

// InTx runs fn exclusively. If fn fails or panics every write it made is
// discarded.
func (r *Runner) InTx(ctx context.Context, fn dbx.TxFunc) (err error) {
	s := r.store
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	restore := func() {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
	}

	defer func() {
		if p := recover(); p != nil {
			restore()
			panic(p)
		}
		if err != nil {
			restore()
		}
	}()

	return fn(ctx, conn{})
}

type conn struct{}

func (conn) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, errNoSQL
}

func (conn) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, errNoSQL
}

// QueryRowContext cannot build a *sql.Row carrying an error, so it
// returns nil. Memory repositories never call it.
func (conn) QueryRowContext(context.Context, string, ...any) *sql.Row {
	return nil
}
