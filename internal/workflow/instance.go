package workflow

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/funnel/internal/common"
	"github.com/dmitrijs2005/funnel/internal/roles"
	"github.com/google/uuid"
)

// Transitioned is queued on an Instance for every applied transition.
// Callers publish it once the state change is durable.
type Transitioned struct {
	Machine    string
	Transition string
	Message    string
	From       State
	To         State
	Actor      uuid.UUID
	At         time.Time
}

// Instance binds a Machine to one entity. It is not safe for concurrent
// use; serialisation across processes is the storage layer's job.
type Instance[E HasState] struct {
	m       *Machine[E]
	e       E
	pending []Transitioned
}

// Entity returns the bound entity.
func (i *Instance[E]) Entity() E { return i.e }

// CurrentState returns the stored state of the entity.
func (i *Instance[E]) CurrentState() State { return i.e.CurrentState() }

// CanTransition reports whether the current state is a source of name.
// Unknown names are never possible.
func (i *Instance[E]) CanTransition(name string) bool {
	t, ok := i.m.byName[name]
	return ok && t.Allows(i.e.CurrentState())
}

// Apply runs transition name on behalf of actor holding granted roles.
//
// The role guard is checked first (ErrGuardViolation), then the source
// state (ErrInvalidSource). On failure the entity is left untouched.
func (i *Instance[E]) Apply(name string, actor uuid.UUID, granted roles.Set) error {
	from := i.e.CurrentState()

	t, ok := i.m.byName[name]
	if !ok {
		return i.refuse(name, from, common.ErrUnknownTransition)
	}
	if !granted.HasAny(t.Roles...) {
		return i.refuse(name, from, common.ErrGuardViolation)
	}
	if !t.Allows(from) {
		return i.refuse(name, from, common.ErrInvalidSource)
	}

	to, err := i.m.fire(from, name)
	if err != nil {
		return i.refuse(name, from, fmt.Errorf("%w: %v", common.ErrInvalidSource, err))
	}
	if to != t.To {
		return i.refuse(name, from, common.ErrInvalidSource)
	}

	i.e.SetState(to)
	i.pending = append(i.pending, Transitioned{
		Machine:    i.m.def.ID,
		Transition: name,
		Message:    t.Message,
		From:       from,
		To:         to,
		Actor:      actor,
		At:         time.Now().UTC(),
	})
	return nil
}

// Available returns the transitions granted may call from the current state.
func (i *Instance[E]) Available(granted roles.Set) []Transition {
	from := i.e.CurrentState()
	var out []Transition
	for _, name := range i.m.order {
		t := i.m.byName[name]
		if t.Allows(from) && granted.HasAny(t.Roles...) {
			out = append(out, t)
		}
	}
	return out
}

// ConditionalStates returns the names of computed states holding now.
func (i *Instance[E]) ConditionalStates() []string {
	var out []string
	for _, c := range i.m.def.Conditionals {
		if c.Base == i.e.CurrentState() && c.Holds(i.e) {
			out = append(out, c.Name)
		}
	}
	return out
}

// Drain returns and clears the queued events.
func (i *Instance[E]) Drain() []Transitioned {
	out := i.pending
	i.pending = nil
	return out
}

func (i *Instance[E]) refuse(name string, from State, err error) error {
	return &TransitionError{Transition: name, From: i.m.StateName(from), Err: err}
}
