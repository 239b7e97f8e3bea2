package models

import (
	"time"

	"github.com/dmitrijs2005/funnel/internal/roles"
	"github.com/google/uuid"
)

// Organization is the profile projects belong to. Ownership is expressed
// through an is_owner membership, not a column.
type Organization struct {
	ID        uuid.UUID
	Name      string
	Title     string
	CreatedAt time.Time
}

func (o *Organization) EntityRef() roles.Ref {
	return roles.Ref{Kind: KindOrganization, ID: o.ID}
}
