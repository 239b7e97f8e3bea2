package workflow

import "fmt"

// TransitionError reports why a transition was refused. Err is one of the
// common sentinels and is matched with errors.Is.
type TransitionError struct {
	Transition string
	From       string
	Err        error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %q from %s: %v", e.Transition, e.From, e.Err)
}

func (e *TransitionError) Unwrap() error { return e.Err }
