package redirects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (r *PostgresRepository) Upsert(ctx context.Context, projectID uuid.UUID, seq int, proposalID uuid.UUID) error {
	query :=
		`INSERT INTO proposal_redirects (project_id, seq, proposal_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (project_id, seq)
		 DO UPDATE SET proposal_id = EXCLUDED.proposal_id, updated_at = now()
		 `

	if _, err := r.db.ExecContext(ctx, query, projectID, seq, proposalID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, projectID uuid.UUID, seq int) (*models.Redirect, error) {
	query :=
		`SELECT project_id, seq, proposal_id, created_at, updated_at FROM proposal_redirects
		 WHERE project_id = $1 AND seq = $2
		 `

	rd := &models.Redirect{}
	var target uuid.NullUUID
	err := r.db.QueryRowContext(ctx, query, projectID, seq).Scan(&rd.ProjectID, &rd.Seq, &target, &rd.CreatedAt, &rd.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if target.Valid {
		rd.ProposalID = &target.UUID
	}
	return rd, nil
}
