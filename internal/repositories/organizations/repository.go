package organizations

import (
	"context"

	"github.com/dmitrijs2005/funnel/internal/models"
	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, org *models.Organization) (*models.Organization, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
}
