// Package testkit holds structural invariant checks shared by tests. They
// assert that hand-built IR fixtures are well formed, so a failing
// verification test means the verifier is wrong, not the fixture.
package testkit

import (
	"errors"
	"fmt"

	"borrowck/internal/ir"
)

// CheckUnitInvariants validates the structural shape of a unit:
// 1) every function has an existing entry block
// 2) every block is terminated and its targets exist
// 3) every value id referenced by an instruction is inside the value arena
// Intentionally looser than the verifier: fixtures that exercise malformed-IR
// handling should skip this check.
func CheckUnitInvariants(u *ir.Unit) error {
	if u == nil {
		return fmt.Errorf("nil unit")
	}
	var errs []error
	for i := range u.Funcs {
		if err := checkFunc(&u.Funcs[i]); err != nil {
			errs = append(errs, fmt.Errorf("func %s: %w", u.Funcs[i].Name, err))
		}
	}
	return errors.Join(errs...)
}

func checkFunc(f *ir.Func) error {
	var errs []error
	if !f.HasBlock(f.Entry) {
		errs = append(errs, fmt.Errorf("entry bb%d does not exist", f.Entry))
	}
	for _, p := range f.Params {
		if _, ok := f.Value(p); !ok {
			errs = append(errs, fmt.Errorf("param v%d out of range", p))
		}
	}
	for bi := range f.Blocks {
		b := &f.Blocks[bi]
		if !b.Terminated() {
			errs = append(errs, fmt.Errorf("bb%d: unterminated", bi))
		}
		for _, succ := range b.Term.Successors() {
			if !f.HasBlock(succ) {
				errs = append(errs, fmt.Errorf("bb%d: target bb%d does not exist", bi, succ))
			}
		}
		for ii := range b.Instrs {
			for _, id := range instrValueIDs(&b.Instrs[ii]) {
				if _, ok := f.Value(id); !ok {
					errs = append(errs, fmt.Errorf("bb%d[%d]: value v%d out of range", bi, ii, id))
				}
			}
		}
		if b.Term.Kind == ir.TermReturn && b.Term.Return.HasValue {
			if _, ok := f.Value(b.Term.Return.Value); !ok {
				errs = append(errs, fmt.Errorf("bb%d: return value v%d out of range", bi, b.Term.Return.Value))
			}
		}
		if b.Term.Kind == ir.TermIf {
			if _, ok := f.Value(b.Term.If.Cond); !ok {
				errs = append(errs, fmt.Errorf("bb%d: if cond v%d out of range", bi, b.Term.If.Cond))
			}
		}
	}
	return errors.Join(errs...)
}

func instrValueIDs(ins *ir.Instr) []ir.ValueID {
	switch ins.Kind {
	case ir.InstrNew:
		return []ir.ValueID{ins.New.Dst}
	case ir.InstrBorrow:
		return []ir.ValueID{ins.Borrow.Dst, ins.Borrow.Src}
	case ir.InstrConsume:
		return []ir.ValueID{ins.Consume.Src}
	case ir.InstrUse:
		return ins.Use.Args
	case ir.InstrCall:
		ids := append([]ir.ValueID(nil), ins.Call.Args...)
		if ins.Call.HasDst {
			ids = append(ids, ins.Call.Dst)
		}
		return ids
	case ir.InstrClosure:
		ids := []ir.ValueID{ins.Closure.Dst}
		for _, c := range ins.Closure.Captures {
			ids = append(ids, c.Src)
		}
		return ids
	case ir.InstrInvoke:
		return append([]ir.ValueID{ins.Invoke.Closure}, ins.Invoke.Args...)
	case ir.InstrStore:
		return []ir.ValueID{ins.Store.Src}
	case ir.InstrHandoff:
		return []ir.ValueID{ins.Handoff.Src}
	}
	return nil
}
