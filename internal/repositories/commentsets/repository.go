package commentsets

import (
	"context"

	"github.com/dmitrijs2005/funnel/internal/models"
	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, proposalID uuid.UUID) (*models.Commentset, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Commentset, error)
	GetByProposal(ctx context.Context, proposalID uuid.UUID) (*models.Commentset, error)
}
