package workflow

import (
	"fmt"

	"github.com/dmitrijs2005/funnel/internal/common"
)

// State is an integer coded workflow state.
type State int

// HasState is implemented by entities driven by a Machine.
type HasState interface {
	CurrentState() State
	SetState(State)
}

// Transition is one row of a workflow table.
type Transition struct {
	Name    string
	From    []State
	To      State
	Roles   []string
	Title   string
	Message string
}

// Allows reports whether s is a legal source of t.
func (t Transition) Allows(s State) bool {
	for _, from := range t.From {
		if from == s {
			return true
		}
	}
	return false
}

// Conditional is a computed state overlaid on Base while Holds is true.
// It is informational only and never a transition source.
type Conditional[E any] struct {
	Name  string
	Title string
	Base  State
	Holds func(E) bool
}

// Definition declares a workflow for entities of type E.
type Definition[E any] struct {
	ID           string
	Names        map[State]string
	Transitions  []Transition
	Conditionals []Conditional[E]
}

func (d *Definition[E]) validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: empty id", common.ErrInvalidDefinition)
	}
	if len(d.Names) == 0 {
		return fmt.Errorf("%w: no states", common.ErrInvalidDefinition)
	}
	seen := make(map[string]struct{}, len(d.Transitions))
	for _, t := range d.Transitions {
		if t.Name == "" {
			return fmt.Errorf("%w: unnamed transition", common.ErrInvalidDefinition)
		}
		if _, dup := seen[t.Name]; dup {
			return fmt.Errorf("%w: duplicate transition %q", common.ErrInvalidDefinition, t.Name)
		}
		seen[t.Name] = struct{}{}

		if len(t.Roles) == 0 {
			return fmt.Errorf("%w: transition %q has no roles", common.ErrInvalidDefinition, t.Name)
		}
		if len(t.From) == 0 {
			return fmt.Errorf("%w: transition %q has no sources", common.ErrInvalidDefinition, t.Name)
		}
		if _, ok := d.Names[t.To]; !ok {
			return fmt.Errorf("%w: transition %q targets unknown state %d", common.ErrInvalidDefinition, t.Name, t.To)
		}
		for _, s := range t.From {
			if _, ok := d.Names[s]; !ok {
				return fmt.Errorf("%w: transition %q starts from unknown state %d", common.ErrInvalidDefinition, t.Name, s)
			}
		}
		if t.Allows(t.To) {
			return fmt.Errorf("%w: transition %q lists its target as a source", common.ErrInvalidDefinition, t.Name)
		}
	}
	for _, c := range d.Conditionals {
		if c.Name == "" || c.Holds == nil {
			return fmt.Errorf("%w: incomplete conditional state", common.ErrInvalidDefinition)
		}
		if _, ok := d.Names[c.Base]; !ok {
			return fmt.Errorf("%w: conditional %q on unknown state %d", common.ErrInvalidDefinition, c.Name, c.Base)
		}
	}
	return nil
}
