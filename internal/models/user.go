package models

import (
	"time"

	"github.com/dmitrijs2005/funnel/internal/roles"
	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID
	Username  string
	Fullname  string
	CreatedAt time.Time
}

func (u *User) EntityRef() roles.Ref { return roles.Ref{Kind: KindUser, ID: u.ID} }

// OwnerID is the user itself: a user owns their own account.
func (u *User) OwnerID() uuid.UUID { return u.ID }
