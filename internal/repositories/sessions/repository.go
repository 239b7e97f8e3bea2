package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/funnel/internal/models"
	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, s *models.Session) (*models.Session, error)
	// GetByProposal returns the session presenting the proposal, or
	// common.ErrorNotFound when there is none.
	GetByProposal(ctx context.Context, proposalID uuid.UUID) (*models.Session, error)
	SetSchedule(ctx context.Context, id uuid.UUID, start, end *time.Time) error
}
