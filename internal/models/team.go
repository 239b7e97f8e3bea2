package models

import (
	"time"

	"github.com/dmitrijs2005/funnel/internal/roles"
	"github.com/google/uuid"
)

// Team is a named group of users inside an organization. Team members are
// is_member memberships on the team.
type Team struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Title          string
	CreatedAt      time.Time
}

func (t *Team) EntityRef() roles.Ref { return roles.Ref{Kind: KindTeam, ID: t.ID} }

func (t *Team) ParentRef() roles.Ref {
	return roles.Ref{Kind: KindOrganization, ID: t.OrganizationID}
}
