package models

import (
	"time"

	"github.com/dmitrijs2005/funnel/internal/roles"
	"github.com/dmitrijs2005/funnel/internal/workflow"
	"github.com/google/uuid"
)

// Proposal states. The numeric codes are persisted and must never change.
const (
	StateDraft                   workflow.State = 0
	StateSubmitted               workflow.State = 1
	StateConfirmed               workflow.State = 2
	StateWaitlisted              workflow.State = 3
	StateShortlisted             workflow.State = 4
	StateRejected                workflow.State = 5
	StateCancelled               workflow.State = 6
	StateAwaitingDetails         workflow.State = 7
	StateUnderEvaluation         workflow.State = 8
	StateShortlistedForRehearsal workflow.State = 9
	StateRehearsal               workflow.State = 10
	StateDeleted                 workflow.State = 11
)

// ProposalStateNames maps every state onto its stable name.
var ProposalStateNames = map[workflow.State]string{
	StateDraft:                   "draft",
	StateSubmitted:               "submitted",
	StateConfirmed:               "confirmed",
	StateWaitlisted:              "waitlisted",
	StateShortlisted:             "shortlisted",
	StateRejected:                "rejected",
	StateCancelled:               "cancelled",
	StateAwaitingDetails:         "awaiting_details",
	StateUnderEvaluation:         "under_evaluation",
	StateShortlistedForRehearsal: "shortlisted_for_rehearsal",
	StateRehearsal:               "rehearsal",
	StateDeleted:                 "deleted",
}

// State groups.
var (
	ConfirmableStates = []workflow.State{
		StateWaitlisted, StateUnderEvaluation, StateShortlisted,
		StateShortlistedForRehearsal, StateRehearsal,
	}
	RejectableStates = []workflow.State{
		StateWaitlisted, StateUnderEvaluation, StateShortlisted,
		StateShortlistedForRehearsal, StateRehearsal,
	}
	WaitlistableStates    = []workflow.State{StateConfirmed, StateUnderEvaluation}
	EvaluateableStates    = []workflow.State{StateSubmitted, StateAwaitingDetails}
	UndoToSubmittedStates = []workflow.State{StateAwaitingDetails, StateUnderEvaluation, StateRejected}
	DeletableStates       = []workflow.State{
		StateDraft, StateSubmitted, StateConfirmed, StateWaitlisted,
		StateRejected, StateAwaitingDetails, StateUnderEvaluation,
	}
	CancellableStates = DeletableStates
)

type Proposal struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	UserID    uuid.UUID
	Seq       int
	Title     string
	Body      string
	State     workflow.State
	CreatedAt time.Time
	UpdatedAt time.Time
	EditedAt  *time.Time

	// Session is loaded alongside the proposal when one presents it.
	Session *Session
}

func (p *Proposal) EntityRef() roles.Ref { return roles.Ref{Kind: KindProposal, ID: p.ID} }
func (p *Proposal) OwnerID() uuid.UUID   { return p.UserID }
func (p *Proposal) ParentRef() roles.Ref { return roles.Ref{Kind: KindProject, ID: p.ProjectID} }

func (p *Proposal) CurrentState() workflow.State { return p.State }
func (p *Proposal) SetState(s workflow.State)    { p.State = s }

// StateName returns the stable name of the current state.
func (p *Proposal) StateName() string { return ProposalStateNames[p.State] }

// InGroup reports whether the proposal state is one of group.
func (p *Proposal) InGroup(group []workflow.State) bool {
	for _, s := range group {
		if p.State == s {
			return true
		}
	}
	return false
}
