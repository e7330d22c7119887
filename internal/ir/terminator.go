package ir

// TermKind enumerates block terminator kinds.
type TermKind uint8

const (
	TermNone TermKind = iota
	TermReturn
	TermGoto
	TermIf
	TermUnreachable
)

func (k TermKind) String() string {
	switch k {
	case TermNone:
		return "none"
	case TermReturn:
		return "return"
	case TermGoto:
		return "goto"
	case TermIf:
		return "if"
	case TermUnreachable:
		return "unreachable"
	}
	return "invalid"
}

// Terminator ends a basic block.
type Terminator struct {
	Kind TermKind

	Return ReturnTerm
	Goto   GotoTerm
	If     IfTerm
}

// ReturnTerm returns from the function. Returning a closure value makes that
// closure escape.
type ReturnTerm struct {
	HasValue bool
	Value    ValueID
}

// GotoTerm jumps unconditionally.
type GotoTerm struct {
	Target BlockID
}

// IfTerm branches on Cond.
type IfTerm struct {
	Cond ValueID
	Then BlockID
	Else BlockID
}

// Successors returns the terminator's outgoing edges in declaration order.
// Targets are not checked against the block arena here; the verifier reports
// out-of-range edges as diagnostics.
func (t Terminator) Successors() []BlockID {
	switch t.Kind {
	case TermGoto:
		return []BlockID{t.Goto.Target}
	case TermIf:
		return []BlockID{t.If.Then, t.If.Else}
	}
	return nil
}
