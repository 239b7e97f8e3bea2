package memberships

import (
	"context"
	"time"

	"github.com/dmitrijs2005/funnel/internal/models"
	"github.com/dmitrijs2005/funnel/internal/roles"
	"github.com/google/uuid"
)

// Repository stores membership records. Records are append-only apart from
// Revoke, which closes the interval of an active record exactly once.
type Repository interface {
	// Create inserts an active record. It fails with
	// common.ErrMembershipExists if the user already holds an active record
	// on the same parent.
	Create(ctx context.Context, m *models.Membership) (*models.Membership, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Membership, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Membership, error)
	// Revoke fails with common.ErrAlreadyRevoked if the record is closed.
	Revoke(ctx context.Context, id uuid.UUID, by uuid.UUID, at time.Time) error
	ListActive(ctx context.Context, parent roles.Ref, userID uuid.UUID) ([]*models.Membership, error)
	ListActiveByParent(ctx context.Context, parent roles.Ref) ([]*models.Membership, error)
	// History returns every record on parent, revoked ones included.
	History(ctx context.Context, parent roles.Ref) ([]*models.Membership, error)
}
