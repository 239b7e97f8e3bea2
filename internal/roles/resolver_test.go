package roles

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type node struct {
	ref    Ref
	owner  uuid.UUID
	parent Ref
	draft  bool
}

func (n *node) EntityRef() Ref     { return n.ref }
func (n *node) OwnerID() uuid.UUID { return n.owner }
func (n *node) ParentRef() Ref     { return n.parent }

type grantKey struct {
	parent Ref
	user   uuid.UUID
}

type fakeStore struct {
	entities map[Ref]Entity
	grants   map[grantKey][]map[string]bool
	flagsErr error
	loads    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{entities: map[Ref]Entity{}, grants: map[grantKey][]map[string]bool{}}
}

func (f *fakeStore) put(n *node) *node {
	f.entities[n.ref] = n
	return n
}

func (f *fakeStore) grant(parent Ref, user uuid.UUID, flags map[string]bool) {
	k := grantKey{parent, user}
	f.grants[k] = append(f.grants[k], flags)
}

func (f *fakeStore) LoadEntity(_ context.Context, ref Ref) (Entity, error) {
	f.loads++
	e, ok := f.entities[ref]
	if !ok {
		return nil, errors.New("not found")
	}
	return e, nil
}

func (f *fakeStore) ActiveFlags(_ context.Context, parent Ref, user uuid.UUID) ([]map[string]bool, error) {
	if f.flagsErr != nil {
		return nil, f.flagsErr
	}
	return f.grants[grantKey{parent, user}], nil
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewRegistry(
		Policy{
			Kind:  "org",
			Flags: map[string]string{"is_owner": "owner", "is_admin": "admin"},
			Finalize: func(_ Entity, s Set) {
				if s.Has("owner") {
					s.Add("admin")
				}
			},
		},
		Policy{
			Kind:    "project",
			Flags:   map[string]string{"is_editor": "editor"},
			Remap:   map[string][]string{"admin": {"profile_admin"}},
			Anchors: map[string][]string{"ticket": {"participant"}},
		},
		Policy{
			Kind:       "proposal",
			OwnerRoles: []string{"creator"},
			Flags:      map[string]string{"is_submitter": "submitter"},
			Remap: map[string][]string{
				"editor":        {"project_editor"},
				"participant":   {"project_participant"},
				"profile_admin": {"profile_admin"},
			},
			Anchors: map[string][]string{"review_link": {"reviewer"}},
			Finalize: func(e Entity, s Set) {
				if e.(*node).draft {
					s.Remove("reader")
				} else if len(s) > 0 {
					s.Add("reader")
				}
				if s.HasAny("project_participant", "submitter") {
					s.Add("commenter")
				}
			},
		},
	)
	require.NoError(t, err)
	return reg
}

type hierarchy struct {
	store    *fakeStore
	org      *node
	project  *node
	proposal *node
	owner    uuid.UUID
}

func newHierarchy() *hierarchy {
	s := newFakeStore()
	owner := uuid.New()
	org := s.put(&node{ref: Ref{"org", uuid.New()}})
	project := s.put(&node{ref: Ref{"project", uuid.New()}, parent: org.ref})
	proposal := s.put(&node{ref: Ref{"proposal", uuid.New()}, parent: project.ref, owner: owner})
	return &hierarchy{store: s, org: org, project: project, proposal: proposal, owner: owner}
}

func TestRolesFor_AnonymousIsEmpty(t *testing.T) {
	h := newHierarchy()
	h.proposal.draft = true
	r := NewResolver(testRegistry(t), h.store)

	got, err := r.RolesFor(context.Background(), h.proposal, uuid.Nil, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRolesFor_AnonymousIsEmptyOnSubmittedProposal(t *testing.T) {
	h := newHierarchy()
	r := NewResolver(testRegistry(t), h.store)

	got, err := r.RolesFor(context.Background(), h.proposal, uuid.Nil, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRolesFor_OwnerIsCreator(t *testing.T) {
	h := newHierarchy()
	r := NewResolver(testRegistry(t), h.store)

	got, err := r.RolesFor(context.Background(), h.proposal, h.owner, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"creator", "reader"}, got.Sorted())
}

func TestRolesFor_MembershipFlags(t *testing.T) {
	h := newHierarchy()
	h.store.grant(h.proposal.ref, h.owner, map[string]bool{"is_submitter": true, "is_unknown": true})
	h.store.grant(h.proposal.ref, h.owner, map[string]bool{"is_submitter": false})
	r := NewResolver(testRegistry(t), h.store)

	got, err := r.RolesFor(context.Background(), h.proposal, h.owner, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"commenter", "creator", "reader", "submitter"}, got.Sorted())
}

func TestRolesFor_ParentRemap(t *testing.T) {
	h := newHierarchy()
	editor := uuid.New()
	h.store.grant(h.project.ref, editor, map[string]bool{"is_editor": true})
	r := NewResolver(testRegistry(t), h.store)

	got, err := r.RolesFor(context.Background(), h.proposal, editor, nil)
	require.NoError(t, err)
	assert.True(t, got.Has("project_editor"))
	assert.False(t, got.Has("editor"), "parent role names never leak unmapped")
}

func TestRolesFor_MultiHop(t *testing.T) {
	h := newHierarchy()
	owner := uuid.New()
	h.store.grant(h.org.ref, owner, map[string]bool{"is_owner": true})
	r := NewResolver(testRegistry(t), h.store)

	onProject, err := r.RolesFor(context.Background(), h.project, owner, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"profile_admin"}, onProject.Sorted())

	onProposal, err := r.RolesFor(context.Background(), h.proposal, owner, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"profile_admin", "reader"}, onProposal.Sorted())
}

func TestRolesFor_Anchors(t *testing.T) {
	h := newHierarchy()
	r := NewResolver(testRegistry(t), h.store)
	future := time.Now().Add(time.Hour)

	anchors := []Anchor{
		{Kind: "ticket", Target: h.project.ref, ExpiresAt: future},
		{Kind: "review_link", Target: h.proposal.ref},
		{Kind: "review_link", Target: Ref{"proposal", uuid.New()}},
		{Kind: "unknown", Target: h.proposal.ref},
	}
	got, err := r.RolesFor(context.Background(), h.proposal, uuid.Nil, anchors)
	require.NoError(t, err)
	assert.Equal(t, []string{"commenter", "project_participant", "reader", "reviewer"}, got.Sorted())
}

func TestRolesFor_ExpiredAnchorContributesNothing(t *testing.T) {
	h := newHierarchy()
	h.proposal.draft = true
	r := NewResolver(testRegistry(t), h.store)

	anchors := []Anchor{{Kind: "review_link", Target: h.proposal.ref, ExpiresAt: time.Now().Add(-time.Minute)}}
	got, err := r.RolesFor(context.Background(), h.proposal, uuid.Nil, anchors)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRolesFor_StoreErrorPropagates(t *testing.T) {
	h := newHierarchy()
	h.store.flagsErr = errors.New("db down")
	r := NewResolver(testRegistry(t), h.store)

	_, err := r.RolesFor(context.Background(), h.proposal, h.owner, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestRolesFor_MissingParentIsError(t *testing.T) {
	h := newHierarchy()
	delete(h.store.entities, h.project.ref)
	r := NewResolver(testRegistry(t), h.store)

	_, err := r.RolesFor(context.Background(), h.proposal, uuid.Nil, nil)
	require.Error(t, err)
}

func TestRolesFor_UnknownKindIsEmpty(t *testing.T) {
	r := NewResolver(testRegistry(t), newFakeStore())
	got, err := r.RolesFor(context.Background(), &node{ref: Ref{"team", uuid.New()}}, uuid.New(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRolesFor_CycleIsBounded(t *testing.T) {
	s := newFakeStore()
	a := Ref{"project", uuid.New()}
	b := Ref{"project", uuid.New()}
	s.put(&node{ref: a, parent: b})
	s.put(&node{ref: b, parent: a})
	reg, err := NewRegistry(Policy{Kind: "project", Remap: map[string][]string{"x": {"x"}}})
	require.NoError(t, err)

	_, err = NewResolver(reg, s).RolesFor(context.Background(), s.entities[a], uuid.Nil, nil)
	require.Error(t, err)
}

func TestWithStore_DoesNotMutateOriginal(t *testing.T) {
	h := newHierarchy()
	other := newFakeStore()
	r := NewResolver(testRegistry(t), h.store)
	bound := r.WithStore(other)

	_, err := bound.RolesFor(context.Background(), h.proposal, uuid.Nil, nil)
	require.Error(t, err, "bound resolver must read from the new store")

	_, err = r.RolesFor(context.Background(), h.proposal, uuid.Nil, nil)
	require.NoError(t, err)
}

func TestNewRegistry_Validation(t *testing.T) {
	_, err := NewRegistry(Policy{})
	require.Error(t, err)

	_, err = NewRegistry(Policy{Kind: "a"}, Policy{Kind: "a"})
	require.Error(t, err)

	reg := testRegistry(t)
	assert.Equal(t, []string{"is_admin", "is_owner"}, reg.Flags("org"))
	assert.Nil(t, reg.Flags("nope"))
	assert.Equal(t, []string{"admin"}, reg.OfferedRoles("org", map[string]bool{"is_admin": true, "is_owner": false}).Sorted())
}
