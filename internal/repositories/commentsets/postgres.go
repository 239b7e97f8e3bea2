package commentsets

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

func (r *PostgresRepository) Create(ctx context.Context, proposalID uuid.UUID) (*models.Commentset, error) {
	c := &models.Commentset{ID: uuid.New(), ProposalID: proposalID}

	query :=
		`INSERT INTO commentsets (id, proposal_id)
		 VALUES ($1, $2)
		 RETURNING created_at
		 `

	if err := r.db.QueryRowContext(ctx, query, c.ID, proposalID).Scan(&c.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.Commentset, error) {
	c := &models.Commentset{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&c.ID, &c.ProposalID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Commentset, error) {
	return r.getOne(ctx, `SELECT id, proposal_id, created_at FROM commentsets WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByProposal(ctx context.Context, proposalID uuid.UUID) (*models.Commentset, error) {
	return r.getOne(ctx, `SELECT id, proposal_id, created_at FROM commentsets WHERE proposal_id = $1`, proposalID)
}
