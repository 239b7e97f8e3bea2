package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/funnel/internal/common"
	"github.com/dmitrijs2005/funnel/internal/dbx"
	"github.com/dmitrijs2005/funnel/internal/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.Session) (*models.Session, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	query :=
		`INSERT INTO sessions (id, project_id, proposal_id, title, start_at, end_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 `

	proposal := uuid.NullUUID{}
	if s.ProposalID != nil {
		proposal = uuid.NullUUID{UUID: *s.ProposalID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query, s.ID, s.ProjectID, proposal, s.Title, nullTime(s.StartAt), nullTime(s.EndAt))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) GetByProposal(ctx context.Context, proposalID uuid.UUID) (*models.Session, error) {
	query :=
		`SELECT id, project_id, proposal_id, title, start_at, end_at FROM sessions
		 WHERE proposal_id = $1
		 ORDER BY start_at NULLS LAST
		 LIMIT 1
		 `

	s := &models.Session{}
	var proposal uuid.NullUUID
	var start, end sql.NullTime
	err := r.db.QueryRowContext(ctx, query, proposalID).Scan(&s.ID, &s.ProjectID, &proposal, &s.Title, &start, &end)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if proposal.Valid {
		s.ProposalID = &proposal.UUID
	}
	if start.Valid {
		s.StartAt = &start.Time
	}
	if end.Valid {
		s.EndAt = &end.Time
	}
	return s, nil
}

func (r *PostgresRepository) SetSchedule(ctx context.Context, id uuid.UUID, start, end *time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE sessions SET start_at = $1, end_at = $2 WHERE id = $3`, nullTime(start), nullTime(end), id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
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

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
