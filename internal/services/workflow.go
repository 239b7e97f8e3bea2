package services

import (
	"github.com/dmitrijs2005/funnel/internal/access"
	"github.com/dmitrijs2005/funnel/internal/models"
	"github.com/dmitrijs2005/funnel/internal/workflow"
)

// Proposal transition names.
const (
	TransitionWithdraw        = "withdraw"
	TransitionSubmit          = "submit"
	TransitionUndoToSubmitted = "undo_to_submitted"
	TransitionConfirm         = "confirm"
	TransitionUnconfirm       = "unconfirm"
	TransitionWaitlist        = "waitlist"
	TransitionReject          = "reject"
	TransitionCancel          = "cancel"
	TransitionUndoCancel      = "undo_cancel"
	TransitionAwaitingDetails = "awaiting_details"
	TransitionUnderEvaluation = "under_evaluation"
	TransitionDelete          = "delete"
)

// StateScheduled is the conditional state of a confirmed proposal whose
// session has a slot on the schedule.
const StateScheduled = "scheduled"

// ProposalWorkflow returns the proposal workflow table.
func ProposalWorkflow() workflow.Definition[*models.Proposal] {
	creator := []string{access.RoleCreator}
	editor := []string{access.RoleProjectEditor}

	return workflow.Definition[*models.Proposal]{
		ID:    "proposal",
		Names: models.ProposalStateNames,
		Transitions: []workflow.Transition{
			{
				Name: TransitionWithdraw, From: []workflow.State{models.StateAwaitingDetails}, To: models.StateDraft,
				Roles: creator, Title: "Draft", Message: "This proposal has been withdrawn",
			},
			{
				Name: TransitionSubmit, From: []workflow.State{models.StateDraft}, To: models.StateSubmitted,
				Roles: creator, Title: "Submit", Message: "This proposal has been submitted",
			},
			{
				Name: TransitionUndoToSubmitted, From: models.UndoToSubmittedStates, To: models.StateSubmitted,
				Roles: editor, Title: "Send Back to Submitted", Message: "This proposal has been submitted",
			},
			{
				Name: TransitionConfirm, From: models.ConfirmableStates, To: models.StateConfirmed,
				Roles: editor, Title: "Confirm", Message: "This proposal has been confirmed",
			},
			{
				Name: TransitionUnconfirm, From: []workflow.State{models.StateConfirmed}, To: models.StateSubmitted,
				Roles: editor, Title: "Unconfirm", Message: "This proposal is no longer confirmed",
			},
			{
				Name: TransitionWaitlist, From: models.WaitlistableStates, To: models.StateWaitlisted,
				Roles: editor, Title: "Waitlist", Message: "This proposal has been waitlisted",
			},
			{
				Name: TransitionReject, From: models.RejectableStates, To: models.StateRejected,
				Roles: editor, Title: "Reject", Message: "This proposal has been rejected",
			},
			{
				Name: TransitionCancel, From: models.CancellableStates, To: models.StateCancelled,
				Roles: creator, Title: "Cancel", Message: "This proposal has been cancelled",
			},
			{
				Name: TransitionUndoCancel, From: []workflow.State{models.StateCancelled}, To: models.StateSubmitted,
				Roles: creator, Title: "Undo cancel", Message: "This proposal's cancellation has been reversed",
			},
			{
				Name: TransitionAwaitingDetails, From: []workflow.State{models.StateSubmitted}, To: models.StateAwaitingDetails,
				Roles: editor, Title: "Awaiting details", Message: "Awaiting details for this proposal",
			},
			{
				Name: TransitionUnderEvaluation, From: models.EvaluateableStates, To: models.StateUnderEvaluation,
				Roles: editor, Title: "Under evaluation", Message: "This proposal has been put under evaluation",
			},
			{
				Name: TransitionDelete, From: models.DeletableStates, To: models.StateDeleted,
				Roles: creator, Title: "Delete", Message: "This proposal has been deleted",
			},
		},
		Conditionals: []workflow.Conditional[*models.Proposal]{
			{
				Name:  StateScheduled,
				Title: "Confirmed & scheduled",
				Base:  models.StateConfirmed,
				Holds: func(p *models.Proposal) bool { return p.Session.Scheduled() },
			},
		},
	}
}

// NewProposalMachine compiles ProposalWorkflow.
func NewProposalMachine() (*workflow.Machine[*models.Proposal], error) {
	return workflow.New(ProposalWorkflow())
}
