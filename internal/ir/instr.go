package ir

import (
	"borrowck/internal/source"
)

// InstrKind enumerates instruction kinds. The set is closed: the tracker
// switches over it exhaustively, and anything outside the known range decodes
// into an unsupported-construct diagnostic rather than a crash.
type InstrKind uint8

const (
	// InstrNew defines a fresh value owned by the current function.
	InstrNew InstrKind = iota
	// InstrBorrow opens a borrow of Src inside a borrow scope.
	InstrBorrow
	// InstrEndScope closes a borrow scope, discharging its borrows.
	InstrEndScope
	// InstrConsume ends an owned value's lifetime.
	InstrConsume
	// InstrUse reads its operands without ownership effect.
	InstrUse
	// InstrCall calls a named function; argument borrows begin and end
	// within the call itself.
	InstrCall
	// InstrClosure materializes a closure literal capturing outer values.
	InstrClosure
	// InstrInvoke invokes a closure value synchronously, in place.
	InstrInvoke
	// InstrStore writes a value to an unbounded-lifetime location.
	InstrStore
	// InstrHandoff transfers a value to another isolation domain.
	InstrHandoff
)

func (k InstrKind) String() string {
	switch k {
	case InstrNew:
		return "new"
	case InstrBorrow:
		return "borrow"
	case InstrEndScope:
		return "end_scope"
	case InstrConsume:
		return "consume"
	case InstrUse:
		return "use"
	case InstrCall:
		return "call"
	case InstrClosure:
		return "closure"
	case InstrInvoke:
		return "invoke"
	case InstrStore:
		return "store"
	case InstrHandoff:
		return "handoff"
	}
	return "invalid"
}

// Instr is one IR instruction: a kind tag plus the payload for that kind.
type Instr struct {
	Kind InstrKind
	Span source.Span

	New      NewInstr
	Borrow   BorrowInstr
	EndScope EndScopeInstr
	Consume  ConsumeInstr
	Use      UseInstr
	Call     CallInstr
	Closure  ClosureInstr
	Invoke   InvokeInstr
	Store    StoreInstr
	Handoff  HandoffInstr
}

// NewInstr defines Dst as a live owned value.
type NewInstr struct {
	Dst ValueID
}

// BorrowInstr borrows Src into Dst for the duration of Scope.
type BorrowInstr struct {
	Dst   ValueID
	Src   ValueID
	Scope ScopeID
}

// EndScopeInstr closes Scope.
type EndScopeInstr struct {
	Scope ScopeID
}

// ConsumeInstr consumes Src.
type ConsumeInstr struct {
	Src ValueID
}

// UseInstr reads Args.
type UseInstr struct {
	Args []ValueID
}

// CallInstr calls Callee with Args, optionally defining Dst.
type CallInstr struct {
	HasDst bool
	Dst    ValueID
	Callee string
	Args   []ValueID
}

// Capture records one captured outer value of a closure literal. Move marks
// an explicit move-capture requested by the front end.
type Capture struct {
	Src  ValueID
	Move bool
}

// ClosureInstr materializes a closure value capturing the listed outer
// values. The effective capture mode is decided by the capture analyzer, not
// by the front end.
type ClosureInstr struct {
	Dst      ValueID
	Captures []Capture
}

// InvokeInstr invokes the closure value synchronously.
type InvokeInstr struct {
	Closure ValueID
	Args    []ValueID
}

// StoreInstr stores Src into the named slot. Slots outlive the function, so
// a stored closure escapes.
type StoreInstr struct {
	Slot string
	Src  ValueID
}

// HandoffInstr hands Src to code executing in Domain. A handoff both escapes
// and crosses the isolation boundary.
type HandoffInstr struct {
	Src    ValueID
	Domain string
}
