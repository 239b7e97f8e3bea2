package redirects

import (
	"context"

	"github.com/dmitrijs2005/funnel/internal/models"
	"github.com/google/uuid"
)

type Repository interface {
	// Upsert points (projectID, seq) at proposalID, replacing any earlier
	// target of the same address.
	Upsert(ctx context.Context, projectID uuid.UUID, seq int, proposalID uuid.UUID) error
	Get(ctx context.Context, projectID uuid.UUID, seq int) (*models.Redirect, error)
}
