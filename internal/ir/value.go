package ir

import (
	"borrowck/internal/source"
)

// Ownership is the declared ownership kind of a value.
type Ownership uint8

const (
	// OwnOwned values are held by the current function until consumed.
	OwnOwned Ownership = iota
	// OwnBorrowed values are non-owning, time-bounded references.
	OwnBorrowed
	// OwnConsuming values are owned and must be consumed before return.
	OwnConsuming
)

func (o Ownership) String() string {
	switch o {
	case OwnOwned:
		return "owned"
	case OwnBorrowed:
		return "borrowed"
	case OwnConsuming:
		return "consuming"
	}
	return "unknown"
}

// ValueInfo describes one value of a function's value arena. It is immutable
// once the unit is decoded; the verifier keeps its own per-point state table.
type ValueInfo struct {
	ID   ValueID
	Name string
	Own  Ownership
	Type string
	// Domain is the isolation domain the value is confined to, empty when
	// unconfined.
	Domain string
	Span   source.Span
}
