package access

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/funnel/internal/dbx"
	"github.com/dmitrijs2005/funnel/internal/models"
	"github.com/dmitrijs2005/funnel/internal/repositories/repomanager"
	"github.com/dmitrijs2005/funnel/internal/roles"
	"github.com/google/uuid"
)

// Store implements roles.Store over the repositories, bound to one handle.
type Store struct {
	repos repomanager.RepositoryManager
	db    dbx.DBTX
}

func NewStore(repos repomanager.RepositoryManager, db dbx.DBTX) *Store {
	return &Store{repos: repos, db: db}
}

func (s *Store) LoadEntity(ctx context.Context, ref roles.Ref) (roles.Entity, error) {
	switch ref.Kind {
	case models.KindUser:
		return s.repos.Users(s.db).GetByID(ctx, ref.ID)
	case models.KindOrganization:
		return s.repos.Organizations(s.db).GetByID(ctx, ref.ID)
	case models.KindTeam:
		return s.repos.Teams(s.db).GetByID(ctx, ref.ID)
	case models.KindProject:
		return s.repos.Projects(s.db).GetByID(ctx, ref.ID)
	case models.KindProposal:
		return s.repos.Proposals(s.db).GetByID(ctx, ref.ID)
	case models.KindCommentset:
		return s.repos.Commentsets(s.db).GetByID(ctx, ref.ID)
	default:
		return nil, fmt.Errorf("unknown entity kind %q", ref.Kind)
	}
}

func (s *Store) ActiveFlags(ctx context.Context, parent roles.Ref, userID uuid.UUID) ([]map[string]bool, error) {
	list, err := s.repos.Memberships(s.db).ListActive(ctx, parent, userID)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]bool, 0, len(list))
	for _, m := range list {
		out = append(out, m.Flags)
	}
	return out, nil
}
