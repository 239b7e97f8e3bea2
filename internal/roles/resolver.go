package roles

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// maxDepth bounds the parent walk so a cyclic hierarchy fails loudly.
const maxDepth = 16

// Resolver computes role sets from a Registry and a Store.
type Resolver struct {
	registry *Registry
	store    Store
	now      func() time.Time
}

// NewResolver returns a Resolver reading through store.
func NewResolver(registry *Registry, store Store) *Resolver {
	return &Resolver{registry: registry, store: store, now: time.Now}
}

// WithStore returns a copy of r reading through store, typically one bound
// to the current transaction.
func (r *Resolver) WithStore(store Store) *Resolver {
	cp := *r
	cp.store = store
	return &cp
}

// RolesFor returns the roles actor holds on e. uuid.Nil means anonymous.
// Expired anchors are ignored. Storage errors are returned, never swallowed.
func (r *Resolver) RolesFor(ctx context.Context, e Entity, actor uuid.UUID, anchors []Anchor) (Set, error) {
	live := make([]Anchor, 0, len(anchors))
	now := r.now()
	for _, a := range anchors {
		if !a.Expired(now) {
			live = append(live, a)
		}
	}
	return r.resolve(ctx, e, actor, live, 0)
}

func (r *Resolver) resolve(ctx context.Context, e Entity, actor uuid.UUID, anchors []Anchor, depth int) (Set, error) {
	set := NewSet()
	ref := e.EntityRef()

	if depth > maxDepth {
		return nil, fmt.Errorf("resolve %s %s: parent chain deeper than %d", ref.Kind, ref.ID, maxDepth)
	}

	p, ok := r.registry.Policy(ref.Kind)
	if !ok {
		return set, nil
	}

	if actor != uuid.Nil {
		if o, ok := e.(HasOwner); ok && o.OwnerID() == actor {
			set.Add(p.OwnerRoles...)
		}

		if len(p.Flags) > 0 {
			grants, err := r.store.ActiveFlags(ctx, ref, actor)
			if err != nil {
				return nil, fmt.Errorf("memberships on %s %s: %w", ref.Kind, ref.ID, err)
			}
			for _, flags := range grants {
				set.Union(r.registry.OfferedRoles(ref.Kind, flags))
			}
		}
	}

	for _, a := range anchors {
		if a.Target == ref {
			if granted, ok := p.Anchors[a.Kind]; ok {
				set.Add(granted...)
			}
		}
	}

	if hp, ok := e.(HasParent); ok && len(p.Remap) > 0 {
		if pref := hp.ParentRef(); !pref.IsZero() {
			parent, err := r.store.LoadEntity(ctx, pref)
			if err != nil {
				return nil, fmt.Errorf("load parent %s %s: %w", pref.Kind, pref.ID, err)
			}
			inherited, err := r.resolve(ctx, parent, actor, anchors, depth+1)
			if err != nil {
				return nil, err
			}
			for role := range inherited {
				set.Add(p.Remap[role]...)
			}
		}
	}

	if p.Finalize != nil {
		p.Finalize(e, set)
	}

	return set, nil
}
