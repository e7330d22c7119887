package verify

import (
	"borrowck/internal/diag"
	"borrowck/internal/ir"
	"borrowck/internal/source"
)

// callerScope is the implicit borrow scope of the caller. Borrowed-kind
// parameters live in it for the whole function body; front ends number
// explicit scopes from 1.
const callerScope ir.ScopeID = 0

// tracker runs the forward ownership dataflow over one function's CFG.
//
// The fixed point itself is computed silently; diagnostics are emitted by a
// single reporting pass over the converged states afterwards. That keeps
// every finding attached to the final state of the analysis instead of to a
// transient pre-convergence state, and it reports each site exactly once.
type tracker struct {
	ctx *Context
	f   *ir.Func

	preds    [][]ir.BlockID
	outs     []stateVec
	computed []bool
}

func newTracker(ctx *Context, f *ir.Func) *tracker {
	return &tracker{
		ctx:      ctx,
		f:        f,
		preds:    f.Predecessors(),
		outs:     make([]stateVec, len(f.Blocks)),
		computed: make([]bool, len(f.Blocks)),
	}
}

// run iterates to the fixed point. The worklist is an explicit dirty bitset
// swept in ascending block order, so both termination order and the
// resulting states are deterministic. Convergence is guaranteed: the lattice
// has finite height (four states per value, poison absorbing) and every
// transfer is monotone.
func (t *tracker) run() {
	if !t.f.HasBlock(t.f.Entry) {
		return
	}
	n := len(t.f.Blocks)
	dirty := make([]bool, n)
	dirty[t.f.Entry] = true
	for again := true; again; {
		again = false
		for i := 0; i < n; i++ {
			if !dirty[i] {
				continue
			}
			dirty[i] = false
			in := t.inState(ir.BlockID(i), false)
			out := t.transfer(in, &t.f.Blocks[i], false)
			if t.computed[i] && out.equal(t.outs[i]) {
				continue
			}
			t.outs[i] = out
			t.computed[i] = true
			again = true
			for _, succ := range t.f.Blocks[i].Term.Successors() {
				if t.f.HasBlock(succ) {
					dirty[succ] = true
				}
			}
		}
	}
}

// reportAll re-walks every block once over the converged states with
// reporting enabled.
func (t *tracker) reportAll() {
	for i := range t.f.Blocks {
		in := t.inState(ir.BlockID(i), true)
		t.transfer(in, &t.f.Blocks[i], true)
	}
}

// stateAt replays the block silently and returns the abstract state right
// before instruction idx of block b.
func (t *tracker) stateAt(b ir.BlockID, idx int) stateVec {
	if !t.f.HasBlock(b) {
		return newStateVec(len(t.f.Values))
	}
	s := t.inState(b, false)
	instrs := t.f.Blocks[b].Instrs
	for i := 0; i < idx && i < len(instrs); i++ {
		t.step(s, &instrs[i], false)
	}
	return s
}

// entryState initializes parameters; everything else starts undefined until
// its defining instruction runs.
func (t *tracker) entryState() stateVec {
	s := newStateVec(len(t.f.Values))
	for _, p := range t.f.Params {
		v, ok := t.f.Value(p)
		if !ok {
			continue
		}
		if v.Own == ir.OwnBorrowed {
			s[p] = State{Kind: StateBorrowed, Scope: callerScope}
		} else {
			s[p] = State{Kind: StateOwned}
		}
	}
	return s
}

// inState joins the outgoing states of b's computed predecessors. With
// report set, defined-state disagreement between predecessors is flagged as
// a conflicting-ownership join, once per value.
func (t *tracker) inState(b ir.BlockID, report bool) stateVec {
	if b == t.f.Entry {
		return t.entryState()
	}
	in := newStateVec(len(t.f.Values))
	first := true
	for _, p := range t.preds[b] {
		if !t.computed[p] {
			continue
		}
		if first {
			copy(in, t.outs[p])
			first = false
			continue
		}
		for v := range in {
			merged, conflict := join(in[v], t.outs[p][v])
			if conflict && report {
				t.ctx.error(diag.VerifyConflictingJoin, t.joinSpan(b),
					"control-flow paths disagree about ownership of %s", valueName(t.f, ir.ValueID(v)))
			}
			in[v] = merged
		}
	}
	return in
}

// joinSpan picks the best position for a join conflict: the joining block's
// first instruction, falling back to the function itself.
func (t *tracker) joinSpan(b ir.BlockID) source.Span {
	if t.f.HasBlock(b) && len(t.f.Blocks[b].Instrs) > 0 {
		return t.f.Blocks[b].Instrs[0].Span
	}
	return t.f.Span
}

// transfer applies a whole block, terminator included, to a copy of in.
func (t *tracker) transfer(in stateVec, b *ir.Block, report bool) stateVec {
	s := in.clone()
	for i := range b.Instrs {
		t.step(s, &b.Instrs[i], report)
	}
	switch b.Term.Kind {
	case ir.TermReturn:
		if b.Term.Return.HasValue {
			t.use(s, b.Term.Return.Value, t.f.Span, report)
		}
	case ir.TermGoto:
		if report && !t.f.HasBlock(b.Term.Goto.Target) {
			t.ctx.unsupported(t.f.Span, "bb%d: goto target bb%d does not exist", b.ID, b.Term.Goto.Target)
		}
	case ir.TermIf:
		t.use(s, b.Term.If.Cond, t.f.Span, report)
		if report {
			if !t.f.HasBlock(b.Term.If.Then) {
				t.ctx.unsupported(t.f.Span, "bb%d: if-then target bb%d does not exist", b.ID, b.Term.If.Then)
			}
			if !t.f.HasBlock(b.Term.If.Else) {
				t.ctx.unsupported(t.f.Span, "bb%d: if-else target bb%d does not exist", b.ID, b.Term.If.Else)
			}
		}
	case ir.TermUnreachable:
	case ir.TermNone:
		if report {
			t.ctx.unsupported(t.f.Span, "bb%d is not terminated", b.ID)
		}
	default:
		if report {
			t.ctx.unsupported(t.f.Span, "bb%d: unrecognized terminator kind %d", b.ID, b.Term.Kind)
		}
	}
	return s
}

// step applies one instruction's transfer rule in place.
func (t *tracker) step(s stateVec, ins *ir.Instr, report bool) {
	switch ins.Kind {
	case ir.InstrNew:
		t.def(s, ins.New.Dst, State{Kind: StateOwned}, ins.Span, report)
	case ir.InstrBorrow:
		t.stepBorrow(s, ins, report)
	case ir.InstrEndScope:
		t.discharge(s, ins.EndScope.Scope)
	case ir.InstrConsume:
		t.stepConsume(s, ins, report)
	case ir.InstrUse:
		for _, a := range ins.Use.Args {
			t.use(s, a, ins.Span, report)
		}
	case ir.InstrCall:
		// Argument borrows open and close inside the call itself, so the
		// states of the arguments are unchanged; they are plain uses here.
		for _, a := range ins.Call.Args {
			t.use(s, a, ins.Span, report)
		}
		if ins.Call.HasDst {
			t.def(s, ins.Call.Dst, State{Kind: StateOwned}, ins.Span, report)
		}
	case ir.InstrClosure:
		for _, c := range ins.Closure.Captures {
			t.use(s, c.Src, ins.Span, report)
			if c.Move && int(c.Src) < len(s) && s[c.Src].Kind == StateOwned {
				s[c.Src] = State{Kind: StateConsumed}
			}
		}
		t.def(s, ins.Closure.Dst, State{Kind: StateOwned}, ins.Span, report)
	case ir.InstrInvoke:
		t.use(s, ins.Invoke.Closure, ins.Span, report)
		for _, a := range ins.Invoke.Args {
			t.use(s, a, ins.Span, report)
		}
	case ir.InstrStore:
		t.stepStore(s, ins, report)
	case ir.InstrHandoff:
		t.stepHandoff(s, ins, report)
	default:
		if report {
			t.ctx.unsupported(ins.Span, "unrecognized instruction kind %d", ins.Kind)
		}
	}
}

func (t *tracker) stepBorrow(s stateVec, ins *ir.Instr, report bool) {
	src := ins.Borrow.Src
	dst := ins.Borrow.Dst
	srcOK := int(src) < len(s)
	dstOK := int(dst) < len(s)
	if !srcOK && report {
		t.ctx.unsupported(ins.Span, "borrow of unknown value v%d", src)
	}
	if !dstOK {
		if report {
			t.ctx.unsupported(ins.Span, "borrow destination v%d does not exist", dst)
		}
		if srcOK {
			t.use(s, src, ins.Span, report)
		}
		return
	}
	if report {
		if v, ok := t.f.Value(dst); ok && v.Own != ir.OwnBorrowed {
			t.ctx.unsupported(ins.Span, "borrow destination %s is not declared borrowed", valueName(t.f, dst))
		}
	}
	if !srcOK {
		s[dst] = State{Kind: StateUndefined}
		return
	}
	switch s[src].Kind {
	case StateOwned:
		s[src] = State{Kind: StateBorrowed, Scope: ins.Borrow.Scope}
		s[dst] = State{Kind: StateBorrowed, Scope: ins.Borrow.Scope}
	case StateBorrowed:
		// Reborrow of an already borrowed value; the source keeps its
		// original scope, the new reference lives in the new scope.
		s[dst] = State{Kind: StateBorrowed, Scope: ins.Borrow.Scope}
	case StateConsumed:
		if report {
			t.ctx.error(diag.VerifyUseAfterConsume, ins.Span, "borrow of consumed value %s", valueName(t.f, src))
		}
		s[src] = State{Kind: StateUndefined}
		s[dst] = State{Kind: StateUndefined}
	case StateUndefined:
		s[dst] = State{Kind: StateUndefined}
	}
}

func (t *tracker) stepConsume(s stateVec, ins *ir.Instr, report bool) {
	src := ins.Consume.Src
	if int(src) >= len(s) {
		if report {
			t.ctx.unsupported(ins.Span, "consume of unknown value v%d", src)
		}
		return
	}
	switch s[src].Kind {
	case StateOwned:
		s[src] = State{Kind: StateConsumed}
	case StateBorrowed:
		// The front end must end the borrow scope before consuming; this
		// shape is outside the supported IR contract.
		if report {
			t.ctx.unsupported(ins.Span, "consume of %s while it is borrowed", valueName(t.f, src))
		}
		s[src] = State{Kind: StateUndefined}
	case StateConsumed:
		if report {
			t.ctx.error(diag.VerifyUseAfterConsume, ins.Span, "use of consumed value %s", valueName(t.f, src))
		}
		s[src] = State{Kind: StateUndefined}
	case StateUndefined:
		// Poisoned; already reported upstream.
	}
}

// stepStore handles a move of src into an unbounded-lifetime slot. A
// borrowed state here is a borrow escape.
func (t *tracker) stepStore(s stateVec, ins *ir.Instr, report bool) {
	src := ins.Store.Src
	if int(src) >= len(s) {
		if report {
			t.ctx.unsupported(ins.Span, "store of unknown value v%d", src)
		}
		return
	}
	switch s[src].Kind {
	case StateOwned:
		s[src] = State{Kind: StateConsumed}
	case StateBorrowed:
		if report {
			t.ctx.error(diag.VerifyBorrowEscape, ins.Span,
				"borrowed value %s stored to unbounded-lifetime slot '%s'", valueName(t.f, src), ins.Store.Slot)
		}
		s[src] = State{Kind: StateUndefined}
	case StateConsumed:
		if report {
			t.ctx.error(diag.VerifyUseAfterConsume, ins.Span, "use of consumed value %s", valueName(t.f, src))
		}
		s[src] = State{Kind: StateUndefined}
	case StateUndefined:
	}
}

func (t *tracker) stepHandoff(s stateVec, ins *ir.Instr, report bool) {
	src := ins.Handoff.Src
	if int(src) >= len(s) {
		if report {
			t.ctx.unsupported(ins.Span, "handoff of unknown value v%d", src)
		}
		return
	}
	switch s[src].Kind {
	case StateOwned:
		s[src] = State{Kind: StateConsumed}
	case StateBorrowed:
		if report {
			if t.f.Domain != "" && ins.Handoff.Domain != t.f.Domain {
				t.ctx.error(diag.VerifyIsolationBorrow, ins.Span,
					"borrowed value %s handed off to domain '%s' before its borrow scope closes",
					valueName(t.f, src), ins.Handoff.Domain)
			} else {
				t.ctx.error(diag.VerifyBorrowEscape, ins.Span,
					"borrowed value %s handed off to an unbounded-lifetime sink", valueName(t.f, src))
			}
		}
		s[src] = State{Kind: StateUndefined}
	case StateConsumed:
		if report {
			t.ctx.error(diag.VerifyUseAfterConsume, ins.Span, "use of consumed value %s", valueName(t.f, src))
		}
		s[src] = State{Kind: StateUndefined}
	case StateUndefined:
	}
}

// use applies the plain-read rule: reading a consumed value is a
// use-after-consume and poisons it; reading a poisoned value stays silent.
func (t *tracker) use(s stateVec, id ir.ValueID, sp source.Span, report bool) {
	if int(id) >= len(s) {
		if report {
			t.ctx.unsupported(sp, "use of unknown value v%d", id)
		}
		return
	}
	if s[id].Kind == StateConsumed {
		if report {
			t.ctx.error(diag.VerifyUseAfterConsume, sp, "use of consumed value %s", valueName(t.f, id))
		}
		s[id] = State{Kind: StateUndefined}
	}
}

func (t *tracker) def(s stateVec, id ir.ValueID, st State, sp source.Span, report bool) {
	if int(id) >= len(s) {
		if report {
			t.ctx.unsupported(sp, "definition of unknown value v%d", id)
		}
		return
	}
	s[id] = st
}

// discharge closes a borrow scope: owners borrowed into the scope go back to
// live-owned, borrow references created by the scope die.
func (t *tracker) discharge(s stateVec, scope ir.ScopeID) {
	for i := range s {
		if s[i].Kind != StateBorrowed || s[i].Scope != scope {
			continue
		}
		if v, ok := t.f.Value(ir.ValueID(i)); ok && v.Own == ir.OwnBorrowed {
			s[i] = State{Kind: StateConsumed}
		} else {
			s[i] = State{Kind: StateOwned}
		}
	}
}
