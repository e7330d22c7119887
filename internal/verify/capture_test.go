package verify

import (
	"testing"

	"borrowck/internal/diag"
	"borrowck/internal/ir"
)

// storedTaskFixture builds: borrow buf, capture the reference in a closure,
// then either store the closure into a long-lived slot or invoke it locally.
func storedTaskFixture(escape bool) *funcBuilder {
	b := newFunc("enqueue", "")
	bb := b.block()
	v := b.newVal(bb, "buf")
	ref := b.borrow(bb, "ref", v, 1)
	cl := b.closure(bb, "task", ir.Capture{Src: ref})
	if escape {
		b.store(bb, "tasks", cl)
	} else {
		b.invoke(bb, cl)
	}
	b.endScope(bb, 1)
	b.consume(bb, v)
	b.ret(bb)
	return b
}

func TestBorrowedCaptureIntoStoredClosureEscapes(t *testing.T) {
	diags := runVerify(t, storedTaskFixture(true), true)
	if len(diags) != 1 || diags[0].Code != diag.VerifyBorrowEscape {
		t.Fatalf("want exactly one borrow-escape, got %v", codes(diags))
	}
	if len(diags[0].Notes) != 1 {
		t.Fatalf("escape diagnostic must point back at the borrowed value, notes=%d", len(diags[0].Notes))
	}
}

func TestBorrowedCaptureIntoLocalClosureIsClean(t *testing.T) {
	if diags := runVerify(t, storedTaskFixture(false), true); len(diags) != 0 {
		t.Fatalf("removing the escape must remove the diagnostic, got %v", codes(diags))
	}
}

func TestReturnedClosureCountsAsEscaping(t *testing.T) {
	b := newFunc("make_task", "")
	bb := b.block()
	v := b.newVal(bb, "buf")
	ref := b.borrow(bb, "ref", v, 1)
	cl := b.closure(bb, "task", ir.Capture{Src: ref})
	b.endScope(bb, 1)
	b.retVal(bb, cl)

	diags := runVerify(t, b, true)
	if len(diags) != 1 || diags[0].Code != diag.VerifyBorrowEscape {
		t.Fatalf("returning a borrow-capturing closure must be flagged, got %v", codes(diags))
	}
}

func TestHandoffClosureEscapesOutsideIsolation(t *testing.T) {
	b := newFunc("spawn", "")
	bb := b.block()
	v := b.newVal(bb, "buf")
	ref := b.borrow(bb, "ref", v, 1)
	cl := b.closure(bb, "task", ir.Capture{Src: ref})
	b.handoff(bb, cl, "worker")
	b.endScope(bb, 1)
	b.consume(bb, v)
	b.ret(bb)

	diags := runVerify(t, b, true)
	if len(diags) != 1 || diags[0].Code != diag.VerifyBorrowEscape {
		t.Fatalf("handoff from plain code makes the closure escape, got %v", codes(diags))
	}
}

func TestCopyCaptureLeavesSourceAlive(t *testing.T) {
	b := newFunc("snapshot", "")
	bb := b.block()
	v := b.newVal(bb, "cfg")
	cl := b.closure(bb, "task", ir.Capture{Src: v})
	b.store(bb, "tasks", cl)
	b.consume(bb, v)
	b.ret(bb)

	if diags := runVerify(t, b, true); len(diags) != 0 {
		t.Fatalf("owned values are captured by copy, got %v", codes(diags))
	}
}

func TestCaptureOfUnknownValueIsUnsupported(t *testing.T) {
	b := newFunc("bad_capture", "")
	bb := b.block()
	cl := b.closure(bb, "task", ir.Capture{Src: 77})
	b.invoke(bb, cl)
	b.ret(bb)

	diags := runVerify(t, b, false)
	if countCode(diags, diag.VerifyUnsupportedConstruct) == 0 {
		t.Fatalf("dangling capture id must be unsupported, got %v", codes(diags))
	}
}

func TestAnalyzeCapturesModes(t *testing.T) {
	b := newFunc("modes", "")
	p := b.param("input", ir.OwnBorrowed)
	bb := b.block()
	v := b.newVal(bb, "own")
	m := b.newVal(bb, "moved")
	cl := b.closure(bb, "task",
		ir.Capture{Src: p},
		ir.Capture{Src: v},
		ir.Capture{Src: m, Move: true},
	)
	b.invoke(bb, cl)
	b.ret(bb)

	u := b.unit()
	bag := diag.NewBag(10)
	ctx := &Context{Unit: u, Reporter: diag.BagReporter{Bag: bag}}
	captures := analyzeCaptures(ctx, &u.Funcs[0])

	if len(captures) != 3 {
		t.Fatalf("want 3 captures, got %d", len(captures))
	}
	want := []CaptureMode{ModeByBorrow, ModeByCopy, ModeByConsume}
	for i, c := range captures {
		if c.Mode != want[i] {
			t.Errorf("capture %d: mode %v, want %v", i, c.Mode, want[i])
		}
		if c.Closure != cl {
			t.Errorf("capture %d: closure %v, want %v", i, c.Closure, cl)
		}
	}
	if bag.Len() != 0 {
		t.Fatalf("non-escaping closure must not be flagged, got %d diagnostics", bag.Len())
	}
}
