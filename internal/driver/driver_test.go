package driver

import (
	"context"
	"errors"
	"sync"
	"testing"

	"borrowck/internal/diag"
	"borrowck/internal/ir"
	"borrowck/internal/source"
)

func span(off uint32) source.Span {
	return source.Span{Start: off, End: off + 1}
}

// cleanFunc allocates a value, reads it and returns.
func cleanFunc(name string, base uint32) ir.Func {
	return ir.Func{
		Name:   name,
		Span:   span(base),
		Values: []ir.ValueInfo{{ID: 0, Name: "x", Own: ir.OwnOwned, Span: span(base + 1)}},
		Blocks: []ir.Block{{
			Instrs: []ir.Instr{
				{Kind: ir.InstrNew, Span: span(base + 2), New: ir.NewInstr{Dst: 0}},
				{Kind: ir.InstrUse, Span: span(base + 3), Use: ir.UseInstr{Args: []ir.ValueID{0}}},
			},
			Term: ir.Terminator{Kind: ir.TermReturn},
		}},
	}
}

// badFunc consumes the same value twice.
func badFunc(name string, base uint32) ir.Func {
	return ir.Func{
		Name:   name,
		Span:   span(base),
		Values: []ir.ValueInfo{{ID: 0, Name: "x", Own: ir.OwnOwned, Span: span(base + 1)}},
		Blocks: []ir.Block{{
			Instrs: []ir.Instr{
				{Kind: ir.InstrNew, Span: span(base + 2), New: ir.NewInstr{Dst: 0}},
				{Kind: ir.InstrConsume, Span: span(base + 3), Consume: ir.ConsumeInstr{Src: 0}},
				{Kind: ir.InstrConsume, Span: span(base + 4), Consume: ir.ConsumeInstr{Src: 0}},
			},
			Term: ir.Terminator{Kind: ir.TermReturn},
		}},
	}
}

// warnFunc opens a borrow scope and never reads the reference.
func warnFunc(name string, base uint32) ir.Func {
	return ir.Func{
		Name: name,
		Span: span(base),
		Values: []ir.ValueInfo{
			{ID: 0, Name: "x", Own: ir.OwnOwned, Span: span(base + 1)},
			{ID: 1, Name: "ref", Own: ir.OwnBorrowed, Span: span(base + 2)},
		},
		Blocks: []ir.Block{{
			Instrs: []ir.Instr{
				{Kind: ir.InstrNew, Span: span(base + 3), New: ir.NewInstr{Dst: 0}},
				{Kind: ir.InstrBorrow, Span: span(base + 4), Borrow: ir.BorrowInstr{Dst: 1, Src: 0, Scope: 1}},
				{Kind: ir.InstrEndScope, Span: span(base + 5), EndScope: ir.EndScopeInstr{Scope: 1}},
				{Kind: ir.InstrConsume, Span: span(base + 6), Consume: ir.ConsumeInstr{Src: 0}},
			},
			Term: ir.Terminator{Kind: ir.TermReturn},
		}},
	}
}

func unitOf(funcs ...ir.Func) *ir.Unit {
	for i := range funcs {
		funcs[i].ID = ir.FuncID(i)
	}
	return &ir.Unit{
		Name:  "test",
		Files: []source.File{{Path: "test.ir"}},
		Funcs: funcs,
	}
}

func TestEmptyUnitVerifies(t *testing.T) {
	res, err := VerifyUnit(context.Background(), &ir.Unit{Name: "empty"}, Options{})
	if err != nil {
		t.Fatalf("VerifyUnit: %v", err)
	}
	if res.Status != StatusVerified || res.Bag.Len() != 0 {
		t.Fatalf("empty unit must verify clean, got %v with %d diagnostics", res.Status, res.Bag.Len())
	}
}

func TestStatusAggregation(t *testing.T) {
	u := unitOf(cleanFunc("a", 0), badFunc("b", 100), cleanFunc("c", 200))
	res, err := VerifyUnit(context.Background(), u, Options{Jobs: 1})
	if err != nil {
		t.Fatalf("VerifyUnit: %v", err)
	}
	if res.Status != StatusFailed {
		t.Fatalf("one failing function must fail the unit, got %v", res.Status)
	}
	wantFailed := []bool{false, true, false}
	for i, fr := range res.Funcs {
		if fr.Failed != wantFailed[i] {
			t.Errorf("func %s: failed=%v, want %v", fr.Name, fr.Failed, wantFailed[i])
		}
	}
	if res.Bag.Len() != 1 {
		t.Fatalf("merged bag: %d diagnostics, want 1", res.Bag.Len())
	}
}

func TestAllCleanVerifies(t *testing.T) {
	u := unitOf(cleanFunc("a", 0), cleanFunc("b", 100))
	res, err := VerifyUnit(context.Background(), u, Options{})
	if err != nil {
		t.Fatalf("VerifyUnit: %v", err)
	}
	if res.Status != StatusVerified {
		t.Fatalf("got %v, want verified", res.Status)
	}
}

// Verification output must not depend on worker count, and repeated runs over
// the same unit must render byte-identically.
func TestDeterministicAcrossJobs(t *testing.T) {
	u := unitOf(
		badFunc("zeta", 0),
		cleanFunc("alpha", 100),
		warnFunc("mid", 200),
		badFunc("omega", 300),
		cleanFunc("beta", 400),
		badFunc("gamma", 500),
	)
	tbl := u.Table()

	render := func(jobs int) string {
		res, err := VerifyUnit(context.Background(), u, Options{Jobs: jobs})
		if err != nil {
			t.Fatalf("VerifyUnit jobs=%d: %v", jobs, err)
		}
		return diag.Format(res.Bag.Items(), tbl, true)
	}

	serial := render(1)
	for _, jobs := range []int{2, 4, 8} {
		if got := render(jobs); got != serial {
			t.Fatalf("jobs=%d output diverges:\n--- jobs=1 ---\n%s\n--- jobs=%d ---\n%s", jobs, serial, jobs, got)
		}
	}
	if again := render(4); again != serial {
		t.Fatalf("repeated run diverges:\n%s\nvs\n%s", serial, again)
	}
}

func TestWarningsAsErrors(t *testing.T) {
	u := unitOf(warnFunc("w", 0))

	res, err := VerifyUnit(context.Background(), u, Options{})
	if err != nil {
		t.Fatalf("VerifyUnit: %v", err)
	}
	if res.Status != StatusVerified {
		t.Fatalf("warnings alone must not fail the unit, got %v", res.Status)
	}

	res, err = VerifyUnit(context.Background(), u, Options{WarningsAsErrors: true})
	if err != nil {
		t.Fatalf("VerifyUnit: %v", err)
	}
	if res.Status != StatusFailed {
		t.Fatalf("warnings-as-errors must fail the unit, got %v", res.Status)
	}
}

func TestMaxDiagnosticsBoundsPerFunction(t *testing.T) {
	f := ir.Func{
		Name: "many",
		Span: span(0),
	}
	var instrs []ir.Instr
	for i := 0; i < 5; i++ {
		id := ir.ValueID(i)
		f.Values = append(f.Values, ir.ValueInfo{ID: id, Name: "v", Own: ir.OwnOwned, Span: span(uint32(10 * i))})
		instrs = append(instrs,
			ir.Instr{Kind: ir.InstrNew, Span: span(uint32(10*i + 1)), New: ir.NewInstr{Dst: id}},
			ir.Instr{Kind: ir.InstrConsume, Span: span(uint32(10*i + 2)), Consume: ir.ConsumeInstr{Src: id}},
			ir.Instr{Kind: ir.InstrConsume, Span: span(uint32(10*i + 3)), Consume: ir.ConsumeInstr{Src: id}},
		)
	}
	f.Blocks = []ir.Block{{Instrs: instrs, Term: ir.Terminator{Kind: ir.TermReturn}}}

	res, err := VerifyUnit(context.Background(), unitOf(f), Options{MaxDiagnostics: 2})
	if err != nil {
		t.Fatalf("VerifyUnit: %v", err)
	}
	if res.Status != StatusFailed {
		t.Fatalf("got %v, want failed", res.Status)
	}
	if got := res.Funcs[0].Bag.Len(); got != 2 {
		t.Fatalf("per-function bag holds %d diagnostics, want the cap of 2", got)
	}
}

func TestCancelledContextSkipsWork(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	u := unitOf(badFunc("a", 0), badFunc("b", 100))
	res, err := VerifyUnit(ctx, u, Options{Jobs: 1})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if res == nil {
		t.Fatal("cancellation must still return the partial result")
	}
}

func TestObserverSeesEveryFunction(t *testing.T) {
	u := unitOf(cleanFunc("a", 0), badFunc("b", 100), cleanFunc("c", 200))

	var mu sync.Mutex
	var events []Event
	opts := Options{
		Jobs: 4,
		Observer: func(ev Event) {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
		},
	}
	if _, err := VerifyUnit(context.Background(), u, opts); err != nil {
		t.Fatalf("VerifyUnit: %v", err)
	}

	if len(events) != 2*len(u.Funcs) {
		t.Fatalf("want begin+done per function (%d events), got %d", 2*len(u.Funcs), len(events))
	}
	done := map[string]bool{}
	for _, ev := range events {
		if ev.Total != len(u.Funcs) {
			t.Errorf("event total %d, want %d", ev.Total, len(u.Funcs))
		}
		if ev.Done {
			done[ev.Func] = ev.Failed
		}
	}
	if len(done) != len(u.Funcs) {
		t.Fatalf("done events for %d functions, want %d", len(done), len(u.Funcs))
	}
	if !done["b"] || done["a"] || done["c"] {
		t.Fatalf("failure flags wrong: %v", done)
	}
}
