package models

import (
	"time"

	"github.com/dmitrijs2005/funnel/internal/roles"
	"github.com/google/uuid"
)

type Project struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	Title          string
	CreatedAt      time.Time
}

func (p *Project) EntityRef() roles.Ref { return roles.Ref{Kind: KindProject, ID: p.ID} }

func (p *Project) ParentRef() roles.Ref {
	return roles.Ref{Kind: KindOrganization, ID: p.OrganizationID}
}
