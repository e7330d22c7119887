package verify

import (
	"borrowck/internal/diag"
	"borrowck/internal/ir"
	"borrowck/internal/source"
)

// CaptureMode is the effective mode of one closure capture, decided here
// rather than by the front end.
type CaptureMode uint8

const (
	// ModeByBorrow keeps the capture a live borrow of the outer value.
	ModeByBorrow CaptureMode = iota
	// ModeByCopy copies the outer value into the closure.
	ModeByCopy
	// ModeByConsume moves the outer value into the closure.
	ModeByConsume
)

func (m CaptureMode) String() string {
	switch m {
	case ModeByBorrow:
		return "by-borrow"
	case ModeByCopy:
		return "by-copy"
	case ModeByConsume:
		return "by-consume"
	}
	return "invalid"
}

// ClosureCapture relates a closure value to one outer value it captures.
// It is a relation, not ownership: the outer value's state keeps living in
// the tracker's table.
type ClosureCapture struct {
	Closure ir.ValueID
	Src     ir.ValueID
	Mode    CaptureMode
	Site    source.Span
}

// analyzeCaptures scans every closure literal of f, decides capture modes
// and flags borrowed values captured into escaping closures. It reads the IR
// and reports diagnostics; it mutates nothing.
func analyzeCaptures(ctx *Context, f *ir.Func) []ClosureCapture {
	escaping := escapingClosures(f)

	var captures []ClosureCapture
	for bi := range f.Blocks {
		for ii := range f.Blocks[bi].Instrs {
			ins := &f.Blocks[bi].Instrs[ii]
			if ins.Kind != ir.InstrClosure {
				continue
			}
			for _, c := range ins.Closure.Captures {
				src, ok := f.Value(c.Src)
				if !ok {
					ctx.unsupported(ins.Span, "closure captures unknown value v%d", c.Src)
					continue
				}
				mode := ModeByCopy
				switch {
				case src.Own == ir.OwnBorrowed:
					mode = ModeByBorrow
					if escaping[ins.Closure.Dst] {
						// Never silently coerced to a copy: the front end has
						// to either end the borrow or confine the closure.
						ctx.report(diag.NewError(diag.VerifyBorrowEscape, ins.Span,
							"borrowed value "+valueName(f, c.Src)+" captured by-borrow into an escaping closure").
							WithNote(src.Span, "borrowed value declared here"))
					}
				case c.Move:
					mode = ModeByConsume
				}
				captures = append(captures, ClosureCapture{
					Closure: ins.Closure.Dst,
					Src:     c.Src,
					Mode:    mode,
					Site:    ins.Span,
				})
			}
		}
	}
	return captures
}

// escapingClosures computes which closure values escape their defining
// scope: stored to an unbounded-lifetime slot, returned, or handed to a sink
// with unbounded lifetime. A handoff out of a non-isolated function is such
// a sink; inside an isolated function the handoff is the isolation
// checker's business and is judged there against the borrow scope instead.
func escapingClosures(f *ir.Func) map[ir.ValueID]bool {
	closures := make(map[ir.ValueID]bool)
	for bi := range f.Blocks {
		for ii := range f.Blocks[bi].Instrs {
			ins := &f.Blocks[bi].Instrs[ii]
			if ins.Kind == ir.InstrClosure {
				closures[ins.Closure.Dst] = false
			}
		}
	}
	if len(closures) == 0 {
		return closures
	}
	markIfClosure := func(id ir.ValueID) {
		if _, ok := closures[id]; ok {
			closures[id] = true
		}
	}
	for bi := range f.Blocks {
		b := &f.Blocks[bi]
		for ii := range b.Instrs {
			ins := &b.Instrs[ii]
			switch ins.Kind {
			case ir.InstrStore:
				markIfClosure(ins.Store.Src)
			case ir.InstrHandoff:
				if f.Domain == "" {
					markIfClosure(ins.Handoff.Src)
				}
			}
		}
		if b.Term.Kind == ir.TermReturn && b.Term.Return.HasValue {
			markIfClosure(b.Term.Return.Value)
		}
	}
	return closures
}
