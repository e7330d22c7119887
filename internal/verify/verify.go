// Package verify implements the ownership/borrow verification pass over one
// function at a time: capture analysis, the ownership dataflow fixed point,
// the isolation compatibility check and the borrow lints.
//
// The package's one hard rule is that it never panics on malformed IR. Any
// shape it does not recognize (unknown instruction kinds, dangling value or
// block ids, missing terminators) becomes a VerifyUnsupportedConstruct
// diagnostic with best-effort position info, and verification moves on.
package verify

import (
	"borrowck/internal/ir"
)

// Func verifies a single function and reports all findings through the
// context's reporter. Functions are independent: nothing here touches state
// shared with other function runs, so the driver is free to call Func from
// parallel workers with per-function reporters.
func Func(ctx *Context, f *ir.Func) {
	if f == nil {
		return
	}
	if !f.HasBlock(f.Entry) {
		ctx.unsupported(f.Span, "function '%s' entry block bb%d does not exist", f.Name, f.Entry)
		return
	}
	for _, p := range f.Params {
		if _, ok := f.Value(p); !ok {
			ctx.unsupported(f.Span, "function '%s' parameter v%d does not exist", f.Name, p)
		}
	}

	captures := analyzeCaptures(ctx, f)

	tr := newTracker(ctx, f)
	tr.run()
	tr.reportAll()

	checkIsolation(ctx, f, tr, captures)
	lintRedundantBorrows(ctx, f)
}
