package proposals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/funnel/internal/common"
	"github.com/dmitrijs2005/funnel/internal/dbx"
	"github.com/dmitrijs2005/funnel/internal/models"
	"github.com/dmitrijs2005/funnel/internal/workflow"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const selectColumns = `SELECT id, project_id, user_id, seq, title, body, state, created_at, updated_at, edited_at FROM proposals`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProposal(s scanner) (*models.Proposal, error) {
	p := &models.Proposal{}
	var state int
	var edited sql.NullTime
	err := s.Scan(&p.ID, &p.ProjectID, &p.UserID, &p.Seq, &p.Title, &p.Body, &state, &p.CreatedAt, &p.UpdatedAt, &edited)
	if err != nil {
		return nil, err
	}
	p.State = workflow.State(state)
	if edited.Valid {
		t := edited.Time
		p.EditedAt = &t
	}
	return p, nil
}

// writeError maps a lost race for (project_id, seq) to
// common.ErrConcurrentModification.
func writeError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return common.ErrConcurrentModification
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Proposal, error) {
	p, err := scanProposal(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Proposal) (*models.Proposal, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	query :=
		`INSERT INTO proposals (id, project_id, user_id, seq, title, body, state)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query, p.ID, p.ProjectID, p.UserID, p.Seq, p.Title, p.Body, int(p.State)).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, writeError(err)
	}
	return p, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error) {
	return r.getOne(ctx, selectColumns+` WHERE id = $1`, id)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Proposal, error) {
	return r.getOne(ctx, selectColumns+` WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) GetBySeq(ctx context.Context, projectID uuid.UUID, seq int) (*models.Proposal, error) {
	return r.getOne(ctx, selectColumns+` WHERE project_id = $1 AND seq = $2`, projectID, seq)
}

// NextSeq locks the project row, so concurrent callers in a transaction
// allocate sequence numbers one after another.
func (r *PostgresRepository) NextSeq(ctx context.Context, projectID uuid.UUID) (int, error) {
	lock := `SELECT id FROM projects WHERE id = $1 FOR UPDATE`

	var id uuid.UUID
	if err := r.db.QueryRowContext(ctx, lock, projectID).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}

	query := `SELECT COALESCE(MAX(seq), 0) + 1 FROM proposals WHERE project_id = $1`

	var seq int
	if err := r.db.QueryRowContext(ctx, query, projectID).Scan(&seq); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return seq, nil
}

func (r *PostgresRepository) UpdateState(ctx context.Context, id uuid.UUID, from, to workflow.State) error {
	query :=
		`UPDATE proposals SET state = $1, updated_at = now()
		 WHERE id = $2 AND state = $3
		 `

	res, err := r.db.ExecContext(ctx, query, int(to), id, int(from))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrConcurrentModification
	}
	return nil
}

func (r *PostgresRepository) Move(ctx context.Context, id uuid.UUID, projectID uuid.UUID, seq int) error {
	query :=
		`UPDATE proposals SET project_id = $1, seq = $2, updated_at = now()
		 WHERE id = $3
		 `

	res, err := r.db.ExecContext(ctx, query, projectID, seq, id)
	if err != nil {
		return writeError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Proposal, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` WHERE project_id = $1 ORDER BY seq`, projectID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
