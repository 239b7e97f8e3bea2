package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is a slot in a project schedule, optionally presenting a proposal.
type Session struct {
	ID         uuid.UUID
	ProjectID  uuid.UUID
	ProposalID *uuid.UUID
	Title      string
	StartAt    *time.Time
	EndAt      *time.Time
}

// Scheduled reports whether the session has been placed on the schedule.
func (s *Session) Scheduled() bool {
	return s != nil && s.StartAt != nil && s.EndAt != nil
}
