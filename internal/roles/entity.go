package roles

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Ref identifies an entity by kind and id.
type Ref struct {
	Kind string
	ID   uuid.UUID
}

// IsZero reports whether r points nowhere.
func (r Ref) IsZero() bool { return r.ID == uuid.Nil }

// Entity is anything roles can be resolved against.
type Entity interface {
	EntityRef() Ref
}

// HasOwner is implemented by entities carrying an owner reference.
type HasOwner interface {
	OwnerID() uuid.UUID
}

// HasParent is implemented by entities inheriting roles from a parent.
type HasParent interface {
	ParentRef() Ref
}

// Anchor is a verified possession proof, such as a signed link, on one
// entity. The roles it grants come from the target's Policy.Anchors, never
// from the anchor itself.
type Anchor struct {
	Kind      string
	Target    Ref
	ExpiresAt time.Time
}

// Expired reports whether the anchor is no longer usable at now.
func (a Anchor) Expired(now time.Time) bool {
	return !a.ExpiresAt.IsZero() && !now.Before(a.ExpiresAt)
}

// Store loads parents and membership flags during resolution. It is bound
// to the caller's transaction so resolution sees the same snapshot as the
// write that follows it.
type Store interface {
	LoadEntity(ctx context.Context, ref Ref) (Entity, error)
	ActiveFlags(ctx context.Context, parent Ref, userID uuid.UUID) ([]map[string]bool, error)
}
