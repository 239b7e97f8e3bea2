package roles

import (
	"fmt"
	"sort"
)

// Policy is the declarative role table of one entity kind.
type Policy struct {
	Kind string

	// OwnerRoles are granted when the actor equals the entity's owner.
	OwnerRoles []string

	// Flags maps a membership flag name onto the role it confers.
	Flags map[string]string

	// Remap renames roles held on the parent. A parent role missing from
	// the map is dropped; {"r": {"r"}} passes it through unchanged.
	Remap map[string][]string

	// Anchors maps an anchor kind accepted by this entity onto the roles it
	// confers. Anchor kinds not listed contribute nothing.
	Anchors map[string][]string

	// Finalize adjusts the resolved set, e.g. for state dependent roles.
	Finalize func(e Entity, set Set)
}

// Registry holds one Policy per entity kind. It is built once at startup
// and read concurrently afterwards.
type Registry struct {
	policies map[string]*Policy
}

// NewRegistry validates and indexes policies.
func NewRegistry(policies ...Policy) (*Registry, error) {
	r := &Registry{policies: make(map[string]*Policy, len(policies))}
	for i := range policies {
		p := policies[i]
		if p.Kind == "" {
			return nil, fmt.Errorf("policy %d: empty kind", i)
		}
		if _, dup := r.policies[p.Kind]; dup {
			return nil, fmt.Errorf("policy %q registered twice", p.Kind)
		}
		r.policies[p.Kind] = &p
	}
	return r, nil
}

// Policy returns the policy of kind.
func (r *Registry) Policy(kind string) (*Policy, bool) {
	p, ok := r.policies[kind]
	return p, ok
}

// Flags returns the membership flag names declared for kind, sorted.
func (r *Registry) Flags(kind string) []string {
	p, ok := r.policies[kind]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(p.Flags))
	for f := range p.Flags {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// OfferedRoles translates the true flags of a membership of kind into roles.
func (r *Registry) OfferedRoles(kind string, flags map[string]bool) Set {
	out := NewSet()
	p, ok := r.policies[kind]
	if !ok {
		return out
	}
	for flag, on := range flags {
		if role, known := p.Flags[flag]; on && known {
			out.Add(role)
		}
	}
	return out
}
