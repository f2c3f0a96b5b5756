// Package policy implements policy iteration over the cave MDP and the
// resulting state-to-action table.
package policy

import (
	"github.com/cavecrawl/go-cavecrawl/mdp"
)

// Policy is a total mapping from enumerated state to chosen action.
type Policy struct {
	actions map[mdp.State]mdp.Action
	states  []mdp.State
}

// Lookup returns the action for a state and whether the state is part of
// the enumerated space. Callers must fall back to a safe action when the
// state is unknown; a miss indicates a modeling gap, not a crash.
func (p *Policy) Lookup(s mdp.State) (mdp.Action, bool) {
	a, ok := p.actions[s]
	return a, ok
}

// States returns the enumerated states in their deterministic sweep order.
func (p *Policy) States() []mdp.State {
	return p.states
}

// Len returns the number of states in the table.
func (p *Policy) Len() int {
	return len(p.states)
}

// Equal reports whether two policies choose the same action everywhere.
func (p *Policy) Equal(other *Policy) bool {
	if p.Len() != other.Len() {
		return false
	}
	for s, a := range p.actions {
		if b, ok := other.actions[s]; !ok || a != b {
			return false
		}
	}
	return true
}
