package verify

import (
	"borrowck/internal/diag"
	"borrowck/internal/ir"
)

// checkIsolation enforces the policy at the intersection of borrows and
// isolation: inside a function isolated to domain D, a closure holding a
// by-borrow capture may not be handed to another domain while the borrow's
// scope is still open. Invoking the closure inside the scope and inside D is
// fine. The policy: a borrow scope must contain the closure's entire
// invocation, so the closure may not outlive the scope in another domain.
func checkIsolation(ctx *Context, f *ir.Func, tr *tracker, captures []ClosureCapture) {
	if f.Domain == "" || len(captures) == 0 {
		return
	}
	byClosure := make(map[ir.ValueID][]ClosureCapture)
	for _, c := range captures {
		if c.Mode == ModeByBorrow {
			byClosure[c.Closure] = append(byClosure[c.Closure], c)
		}
	}
	if len(byClosure) == 0 {
		return
	}

	for bi := range f.Blocks {
		instrs := f.Blocks[bi].Instrs
		for ii := range instrs {
			ins := &instrs[ii]
			if ins.Kind != ir.InstrHandoff || ins.Handoff.Domain == f.Domain {
				continue
			}
			caps, ok := byClosure[ins.Handoff.Src]
			if !ok {
				continue
			}
			st := tr.stateAt(ir.BlockID(bi), ii)
			for _, c := range caps {
				if int(c.Src) >= len(st) || st[c.Src].Kind != StateBorrowed {
					// Borrow scope already closed before the handoff; the
					// closure no longer holds a live borrow.
					continue
				}
				ctx.report(diag.NewError(diag.VerifyIsolationBorrow, ins.Span,
					"closure holding a borrow of "+valueName(f, c.Src)+
						" leaves domain '"+f.Domain+"' for '"+ins.Handoff.Domain+"' before the borrow scope closes").
					WithNote(c.Site, "borrow captured here"))
			}
		}
	}
}
