package verify

import (
	"testing"

	"borrowck/internal/diag"
)

func TestUnusedBorrowWarns(t *testing.T) {
	b := newFunc("dead_borrow", "")
	bb := b.block()
	v := b.newVal(bb, "buf")
	b.borrow(bb, "ref", v, 1)
	b.endScope(bb, 1)
	b.consume(bb, v)
	b.ret(bb)

	diags := runVerify(t, b, true)
	if len(diags) != 1 || diags[0].Code != diag.VerifyRedundantBorrow {
		t.Fatalf("want one redundant-borrow warning, got %v", codes(diags))
	}
	if diags[0].Severity != diag.SevWarning {
		t.Fatalf("redundant borrow is a lint, not an error: severity %v", diags[0].Severity)
	}
}

func TestUsedBorrowDoesNotWarn(t *testing.T) {
	b := newFunc("live_borrow", "")
	bb := b.block()
	v := b.newVal(bb, "buf")
	ref := b.borrow(bb, "ref", v, 1)
	b.use(bb, ref)
	b.endScope(bb, 1)
	b.consume(bb, v)
	b.ret(bb)

	if diags := runVerify(t, b, true); len(diags) != 0 {
		t.Fatalf("a read borrow is not redundant, got %v", codes(diags))
	}
}

func TestBorrowUsedOnOnePathDoesNotWarn(t *testing.T) {
	b := newFunc("half_used", "")
	entry := b.block()
	left := b.block()
	right := b.block()
	exit := b.block()

	v := b.newVal(entry, "buf")
	cond := b.newVal(entry, "cond")
	ref := b.borrow(entry, "ref", v, 1)
	b.branch(entry, cond, left, right)

	b.use(left, ref)
	b.goTo(left, exit)

	b.goTo(right, exit)

	b.endScope(exit, 1)
	b.consume(exit, v)
	b.ret(exit)

	if diags := runVerify(t, b, true); len(diags) != 0 {
		t.Fatalf("use on any path keeps the borrow, got %v", codes(diags))
	}
}
