package models

import (
	"time"

	"github.com/dmitrijs2005/funnel/internal/roles"
	"github.com/google/uuid"
)

// Membership grants role flags to a user on a parent entity for the
// interval [GrantedAt, RevokedAt). Records are never updated except to close
// the interval.
type Membership struct {
	ID        uuid.UUID
	Parent    roles.Ref
	UserID    uuid.UUID
	Flags     map[string]bool
	GrantedBy uuid.UUID
	GrantedAt time.Time
	RevokedAt *time.Time
	RevokedBy *uuid.UUID
}

// IsActive reports whether the membership is currently in force.
func (m *Membership) IsActive() bool {
	return m.RevokedAt == nil
}

// TrueFlags returns the names of the flags set to true.
func (m *Membership) TrueFlags() []string {
	out := make([]string, 0, len(m.Flags))
	for name, on := range m.Flags {
		if on {
			out = append(out, name)
		}
	}
	return out
}
