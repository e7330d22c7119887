package verify

import (
	"borrowck/internal/ir"
)

// StateKind is the abstract ownership state of one value at one program
// point.
type StateKind uint8

const (
	// StateUndefined doubles as "not yet live on this path" and as the
	// poison state set after a reported defect. Uses of undefined values are
	// silent, which is what suppresses cascading diagnostics.
	StateUndefined StateKind = iota
	StateOwned
	StateBorrowed
	StateConsumed
)

func (k StateKind) String() string {
	switch k {
	case StateUndefined:
		return "undefined"
	case StateOwned:
		return "live-owned"
	case StateBorrowed:
		return "live-borrowed"
	case StateConsumed:
		return "consumed"
	}
	return "invalid"
}

// State is one lattice element. Scope is meaningful only for StateBorrowed.
type State struct {
	Kind  StateKind
	Scope ir.ScopeID
}

// stateVec holds the state of every value of one function at one program
// point, indexed by ValueID.
type stateVec []State

func newStateVec(n int) stateVec {
	return make(stateVec, n)
}

func (s stateVec) clone() stateVec {
	out := make(stateVec, len(s))
	copy(out, s)
	return out
}

func (s stateVec) equal(other stateVec) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// join merges two states flowing into the same program point. Undefined is
// absorbing: a poisoned value stays poisoned, which keeps the transfer
// functions monotone over the finite lattice and guarantees the fixed point
// terminates. Disagreement between two defined states is a conflict; the
// result is poisoned so the conflict is reported once, not propagated.
func join(a, b State) (State, bool) {
	if a == b {
		return a, false
	}
	if a.Kind == StateUndefined || b.Kind == StateUndefined {
		return State{Kind: StateUndefined}, false
	}
	return State{Kind: StateUndefined}, true
}
