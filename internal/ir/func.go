package ir

import (
	"borrowck/internal/source"
)

// Func is a named control-flow graph with a value arena and a parameter
// list. Domain is the isolation domain the function body executes in, empty
// for non-isolated functions.
type Func struct {
	ID   FuncID
	Name string
	Span source.Span

	Domain string

	// Params lists parameter value ids in declaration order. Each id refers
	// into Values, which records the parameter's ownership kind.
	Params []ValueID

	Values []ValueInfo
	Blocks []Block
	Entry  BlockID
}

// Value returns the value info for id, reporting whether the id is in range.
func (f *Func) Value(id ValueID) (*ValueInfo, bool) {
	if f == nil || int(id) >= len(f.Values) {
		return nil, false
	}
	return &f.Values[id], true
}

// HasBlock reports whether id indexes an existing block.
func (f *Func) HasBlock(id BlockID) bool {
	return f != nil && int(id) < len(f.Blocks)
}

// Predecessors computes the incoming edge lists of every block. Edges whose
// target is out of range are dropped; the verifier flags them separately.
func (f *Func) Predecessors() [][]BlockID {
	preds := make([][]BlockID, len(f.Blocks))
	for i := range f.Blocks {
		for _, succ := range f.Blocks[i].Term.Successors() {
			if !f.HasBlock(succ) {
				continue
			}
			preds[succ] = append(preds[succ], BlockID(i))
		}
	}
	return preds
}
