// Package access holds the role tables of every entity kind and binds the
// role resolver to the repositories.
package access

import (
	"github.com/dmitrijs2005/funnel/internal/models"
	"github.com/dmitrijs2005/funnel/internal/roles"
)

// Role names.
const (
	RoleOwner   = "owner"
	RoleAdmin   = "admin"
	RoleReader  = "reader"
	RoleCreator = "creator"
	RoleMember  = "member"

	RoleProfileAdmin = "profile_admin"
	RoleEditor       = "editor"
	RoleConcierge    = "concierge"
	RoleUsher        = "usher"
	RoleCrew         = "crew"
	RoleParticipant  = "participant"

	RoleSubmitter = "submitter"
	RolePresenter = "presenter"
	RoleReviewer  = "reviewer"
	RoleCommenter = "commenter"

	RoleProjectEditor      = "project_editor"
	RoleProjectConcierge   = "project_concierge"
	RoleProjectUsher       = "project_usher"
	RoleProjectCrew        = "project_crew"
	RoleProjectParticipant = "project_participant"

	RoleDocumentSubscriber = "document_subscriber"
)

// Anchor kinds.
const (
	AnchorParticipantTicket = "participant_ticket"
	AnchorReviewLink        = "review_link"
)

// Membership flags.
const (
	FlagIsOwner     = "is_owner"
	FlagIsAdmin     = "is_admin"
	FlagIsMember    = "is_member"
	FlagIsEditor    = "is_editor"
	FlagIsConcierge = "is_concierge"
	FlagIsUsher     = "is_usher"
	FlagIsSubmitter = "is_submitter"
	FlagIsPresenter = "is_presenter"
	FlagIsReviewer  = "is_reviewer"
)

// Policies returns the role table of every entity kind.
func Policies() []roles.Policy {
	return []roles.Policy{
		{
			Kind:       models.KindUser,
			OwnerRoles: []string{RoleOwner, RoleAdmin},
		},
		{
			Kind:  models.KindOrganization,
			Flags: map[string]string{FlagIsOwner: RoleOwner, FlagIsAdmin: RoleAdmin},
			Finalize: func(_ roles.Entity, set roles.Set) {
				if set.Has(RoleOwner) {
					set.Add(RoleAdmin)
				}
			},
		},
		{
			Kind:  models.KindTeam,
			Flags: map[string]string{FlagIsMember: RoleMember},
			Remap: map[string][]string{RoleAdmin: {RoleAdmin}},
		},
		{
			Kind: models.KindProject,
			Flags: map[string]string{
				FlagIsEditor:    RoleEditor,
				FlagIsConcierge: RoleConcierge,
				FlagIsUsher:     RoleUsher,
			},
			Remap:   map[string][]string{RoleAdmin: {RoleProfileAdmin}},
			Anchors: map[string][]string{AnchorParticipantTicket: {RoleParticipant}},
			Finalize: func(_ roles.Entity, set roles.Set) {
				if set.HasAny(RoleEditor, RoleConcierge, RoleUsher) {
					set.Add(RoleCrew)
				}
			},
		},
		{
			Kind:       models.KindProposal,
			OwnerRoles: []string{RoleCreator},
			Flags: map[string]string{
				FlagIsSubmitter: RoleSubmitter,
				FlagIsPresenter: RolePresenter,
				FlagIsReviewer:  RoleReviewer,
			},
			Remap: map[string][]string{
				RoleEditor:       {RoleProjectEditor},
				RoleConcierge:    {RoleProjectConcierge},
				RoleUsher:        {RoleProjectUsher},
				RoleCrew:         {RoleProjectCrew},
				RoleParticipant:  {RoleProjectParticipant},
				RoleProfileAdmin: {RoleProfileAdmin},
			},
			Anchors:  map[string][]string{AnchorReviewLink: {RoleReviewer}},
			Finalize: finalizeProposal,
		},
		{
			Kind: models.KindCommentset,
			Remap: map[string][]string{
				RolePresenter:     {RoleDocumentSubscriber},
				RoleCreator:       {RoleDocumentSubscriber},
				RoleProjectEditor: {RoleProjectEditor},
				RoleCommenter:     {RoleCommenter},
			},
		},
	}
}

// finalizeProposal applies the state dependent roles. Drafts are never
// readable through the reader role. Elsewhere reader is granted to anyone
// already holding a role, so an anonymous caller still resolves to nothing.
func finalizeProposal(e roles.Entity, set roles.Set) {
	if p, ok := e.(*models.Proposal); ok && p.State == models.StateDraft {
		set.Remove(RoleReader)
	} else if len(set) > 0 {
		set.Add(RoleReader)
	}
	if set.HasAny(RoleProjectParticipant, RoleSubmitter) {
		set.Add(RoleCommenter)
	}
}

// NewRegistry builds the registry of Policies.
func NewRegistry() (*roles.Registry, error) {
	return roles.NewRegistry(Policies()...)
}
