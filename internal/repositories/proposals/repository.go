package proposals

import (
	"context"

	"github.com/dmitrijs2005/funnel/internal/models"
	"github.com/dmitrijs2005/funnel/internal/workflow"
	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *models.Proposal) (*models.Proposal, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error)
	// GetForUpdate loads the proposal and locks its row until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Proposal, error)
	GetBySeq(ctx context.Context, projectID uuid.UUID, seq int) (*models.Proposal, error)
	// NextSeq returns the next free sequence number of the project. Create
	// and Move fail with common.ErrConcurrentModification when another
	// transaction took the number first.
	NextSeq(ctx context.Context, projectID uuid.UUID) (int, error)
	// UpdateState moves the proposal from one state to another. It fails with
	// common.ErrConcurrentModification if the stored state is no longer from.
	UpdateState(ctx context.Context, id uuid.UUID, from, to workflow.State) error
	Move(ctx context.Context, id uuid.UUID, projectID uuid.UUID, seq int) error
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Proposal, error)
}
