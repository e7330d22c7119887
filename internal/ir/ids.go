package ir

// FuncID indexes a function within its Unit.
type FuncID uint32

// BlockID indexes a basic block within its Func's block arena. Successor and
// predecessor edges are stored as indexes, never as pointers, so the cyclic
// CFG carries no owning references.
type BlockID uint32

// ValueID indexes a value within its Func's value arena.
type ValueID uint32

// ScopeID names a borrow scope. Scope ids are assigned by the front end and
// are only compared for equality here.
type ScopeID uint32

// NoValueID marks the absence of a value.
const NoValueID ValueID = ^ValueID(0)
