package workflow

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/felixgeelhaar/statekit"
)

// chartContext is the statekit context. The chart only computes targets,
// so it carries nothing.
type chartContext struct{}

// Machine is a compiled Definition. It is immutable and safe for
// concurrent use; per entity state lives in Instance.
type Machine[E HasState] struct {
	def    Definition[E]
	byName map[string]Transition
	order  []string
	chart  *statekit.MachineConfig[*chartContext]
	states map[statekit.StateID]State
}

// New validates def and compiles it.
func New[E HasState](def Definition[E]) (*Machine[E], error) {
	if err := def.validate(); err != nil {
		return nil, err
	}

	m := &Machine[E]{
		def:    def,
		byName: make(map[string]Transition, len(def.Transitions)),
		states: make(map[statekit.StateID]State, len(def.Names)),
	}
	for _, t := range def.Transitions {
		m.byName[t.Name] = t
		m.order = append(m.order, t.Name)
	}
	for s := range def.Names {
		m.states[stateID(s)] = s
	}

	chart, err := m.compile()
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", def.ID, err)
	}
	m.chart = chart
	return m, nil
}

// compile turns the table into a statechart: one state per workflow state
// and one event per transition name on every legal source.
func (m *Machine[E]) compile() (*statekit.MachineConfig[*chartContext], error) {
	outgoing := make(map[State][]Transition, len(m.def.Names))
	for _, name := range m.order {
		t := m.byName[name]
		for _, s := range t.From {
			outgoing[s] = append(outgoing[s], t)
		}
	}

	b := statekit.NewMachine[*chartContext](m.def.ID).
		WithInitial(stateID(m.lowestState())).
		WithContext(&chartContext{})

	for _, s := range m.sortedStates() {
		sb := b.State(stateID(s))
		edges := outgoing[s]
		if len(edges) == 0 {
			b = sb.Final().Done()
			continue
		}
		tb := sb.On(statekit.EventType(edges[0].Name)).Target(stateID(edges[0].To))
		for _, t := range edges[1:] {
			tb = tb.On(statekit.EventType(t.Name)).Target(stateID(t.To))
		}
		b = tb.Done()
	}

	return b.Build()
}

// fire asks the chart for the state reached from `from` by transition name.
func (m *Machine[E]) fire(from State, name string) (State, error) {
	interp := statekit.NewInterpreter(m.chart)
	defer interp.Stop()

	if err := interp.Restore(statekit.Snapshot[*chartContext]{
		MachineID:    m.def.ID,
		CurrentState: stateID(from),
		Context:      &chartContext{},
		CreatedAt:    time.Now(),
	}); err != nil {
		return from, err
	}

	interp.Send(statekit.Event{Type: statekit.EventType(name)})

	to, ok := m.states[interp.State().Value]
	if !ok {
		return from, fmt.Errorf("chart reached unknown state %q", interp.State().Value)
	}
	return to, nil
}

// ID returns the definition id.
func (m *Machine[E]) ID() string { return m.def.ID }

// Transition returns the named transition.
func (m *Machine[E]) Transition(name string) (Transition, bool) {
	t, ok := m.byName[name]
	return t, ok
}

// Transitions returns every transition in declaration order.
func (m *Machine[E]) Transitions() []Transition {
	out := make([]Transition, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.byName[name])
	}
	return out
}

// StateName returns the declared name of s, or its number if undeclared.
func (m *Machine[E]) StateName(s State) string {
	if n, ok := m.def.Names[s]; ok {
		return n
	}
	return strconv.Itoa(int(s))
}

// Bind attaches the machine to a live entity.
func (m *Machine[E]) Bind(e E) *Instance[E] {
	return &Instance[E]{m: m, e: e}
}

func (m *Machine[E]) lowestState() State {
	return m.sortedStates()[0]
}

func (m *Machine[E]) sortedStates() []State {
	return slices.Sorted(maps.Keys(m.def.Names))
}

func stateID(s State) statekit.StateID {
	return statekit.StateID(strconv.Itoa(int(s)))
}
