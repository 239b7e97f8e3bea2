package models

import (
	"time"

	"github.com/google/uuid"
)

// Redirect keeps an old (project, seq) address of a moved proposal
// resolvable. ProposalID is nil once the proposal is gone.
type Redirect struct {
	ProjectID  uuid.UUID
	Seq        int
	ProposalID *uuid.UUID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
