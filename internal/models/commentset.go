package models

import (
	"time"

	"github.com/dmitrijs2005/funnel/internal/roles"
	"github.com/google/uuid"
)

// Commentset is the discussion attached to a proposal.
type Commentset struct {
	ID         uuid.UUID
	ProposalID uuid.UUID
	CreatedAt  time.Time
}

func (c *Commentset) EntityRef() roles.Ref { return roles.Ref{Kind: KindCommentset, ID: c.ID} }

func (c *Commentset) ParentRef() roles.Ref {
	return roles.Ref{Kind: KindProposal, ID: c.ProposalID}
}
