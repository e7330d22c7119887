package verify

import (
	"borrowck/internal/diag"
	"borrowck/internal/ir"
	"borrowck/internal/source"
)

// lintRedundantBorrows flags borrows whose destination is never read before
// the scope closes. Flow-insensitive on purpose: a borrow used on any path
// is not redundant, and a warning must never depend on iteration order.
func lintRedundantBorrows(ctx *Context, f *ir.Func) {
	type site struct {
		dst  ir.ValueID
		src  ir.ValueID
		span source.Span
	}
	var sites []site
	used := make(map[ir.ValueID]struct{})
	mark := func(ids ...ir.ValueID) {
		for _, id := range ids {
			used[id] = struct{}{}
		}
	}

	for bi := range f.Blocks {
		b := &f.Blocks[bi]
		for ii := range b.Instrs {
			ins := &b.Instrs[ii]
			switch ins.Kind {
			case ir.InstrBorrow:
				sites = append(sites, site{dst: ins.Borrow.Dst, src: ins.Borrow.Src, span: ins.Span})
				mark(ins.Borrow.Src)
			case ir.InstrConsume:
				mark(ins.Consume.Src)
			case ir.InstrUse:
				mark(ins.Use.Args...)
			case ir.InstrCall:
				mark(ins.Call.Args...)
			case ir.InstrClosure:
				for _, c := range ins.Closure.Captures {
					mark(c.Src)
				}
			case ir.InstrInvoke:
				mark(ins.Invoke.Closure)
				mark(ins.Invoke.Args...)
			case ir.InstrStore:
				mark(ins.Store.Src)
			case ir.InstrHandoff:
				mark(ins.Handoff.Src)
			}
		}
		switch b.Term.Kind {
		case ir.TermIf:
			mark(b.Term.If.Cond)
		case ir.TermReturn:
			if b.Term.Return.HasValue {
				mark(b.Term.Return.Value)
			}
		}
	}

	for _, st := range sites {
		if _, ok := used[st.dst]; ok {
			continue
		}
		ctx.warning(diag.VerifyRedundantBorrow, st.span,
			"borrow of %s is never used before its scope closes", valueName(f, st.src))
	}
}
