package core

import "fmt"

// StateTable maps a state to the set of states it may legally enter next.
// States with no entry are terminal. Both the thesis and the defense state
// machines are driven by a table lookup instead of scattered comparisons.
type StateTable map[string][]string

func (t StateTable) CanTransition(current, target string) bool {
	for _, s := range t[current] {
		if s == target {
			return true
		}
	}
	return false
}

func (t StateTable) IsTerminal(state string) bool {
	return len(t[state]) == 0
}

// Transition returns nil if current -> target is legal, or a
// *StateTransitionError naming both states.
func (t StateTable) Transition(entity, current, target string) error {
	if !t.CanTransition(current, target) {
		return &StateTransitionError{Entity: entity, Current: current, Target: target}
	}
	return nil
}

// StateTransitionError indicates an illegal state transition request. It is
// surfaced verbatim to the caller.
type StateTransitionError struct {
	Entity  string
	Current string
	Target  string
}

func (err StateTransitionError) Error() string {
	return fmt.Sprintf("illegal %s state transition from %q to %q", err.Entity, err.Current, err.Target)
}
