package teams

import (
	"context"

	"github.com/dmitrijs2005/funnel/internal/models"
	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, team *models.Team) (*models.Team, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Team, error)
	// ListByOrganization returns the teams of an organization ordered by
	// title.
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.Team, error)
}
