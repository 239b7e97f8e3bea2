package projects

import (
	"context"

	"github.com/dmitrijs2005/funnel/internal/models"
	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, project *models.Project) (*models.Project, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
}
