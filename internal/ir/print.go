package ir

import (
	"fmt"
	"io"
	"strings"
)

// DumpUnit writes a human-readable representation of a unit. Output is
// deterministic: functions, blocks and values appear in arena order.
func DumpUnit(w io.Writer, u *Unit) error {
	if w == nil || u == nil {
		return nil
	}
	fmt.Fprintf(w, "unit %s files=%d funcs=%d\n", u.Name, len(u.Files), len(u.Funcs))
	for i := range u.Funcs {
		if err := dumpFunc(w, &u.Funcs[i]); err != nil {
			return err
		}
	}
	return nil
}

// DumpString renders a unit via DumpUnit into a string.
func DumpString(u *Unit) string {
	var b strings.Builder
	_ = DumpUnit(&b, u)
	return b.String()
}

func dumpFunc(w io.Writer, f *Func) error {
	if f == nil {
		return nil
	}
	header := fmt.Sprintf("\nfn %s", f.Name)
	if f.Domain != "" {
		header += fmt.Sprintf(" @%s", f.Domain)
	}
	if _, err := fmt.Fprintf(w, "%s:\n", header); err != nil {
		return err
	}

	fmt.Fprintf(w, "  values:\n")
	for i := range f.Values {
		v := &f.Values[i]
		name := v.Name
		if name == "" {
			name = "_"
		}
		line := fmt.Sprintf("    v%d: %s %s name=%s", i, v.Type, v.Own, name)
		if v.Domain != "" {
			line += " domain=" + v.Domain
		}
		fmt.Fprintf(w, "%s\n", line)
	}
	if len(f.Params) > 0 {
		parts := make([]string, len(f.Params))
		for i, p := range f.Params {
			parts[i] = fmt.Sprintf("v%d", p)
		}
		fmt.Fprintf(w, "  params: %s\n", strings.Join(parts, ", "))
	}

	for i := range f.Blocks {
		bb := &f.Blocks[i]
		fmt.Fprintf(w, "  bb%d:\n", bb.ID)
		for j := range bb.Instrs {
			fmt.Fprintf(w, "    %s\n", formatInstr(&bb.Instrs[j]))
		}
		fmt.Fprintf(w, "    %s\n", formatTerm(&bb.Term))
	}
	return nil
}

func formatInstr(ins *Instr) string {
	switch ins.Kind {
	case InstrNew:
		return fmt.Sprintf("v%d = new", ins.New.Dst)
	case InstrBorrow:
		return fmt.Sprintf("v%d = borrow v%d scope=s%d", ins.Borrow.Dst, ins.Borrow.Src, ins.Borrow.Scope)
	case InstrEndScope:
		return fmt.Sprintf("end_scope s%d", ins.EndScope.Scope)
	case InstrConsume:
		return fmt.Sprintf("consume v%d", ins.Consume.Src)
	case InstrUse:
		return "use " + valueList(ins.Use.Args)
	case InstrCall:
		call := fmt.Sprintf("call %s(%s)", ins.Call.Callee, valueList(ins.Call.Args))
		if ins.Call.HasDst {
			return fmt.Sprintf("v%d = %s", ins.Call.Dst, call)
		}
		return call
	case InstrClosure:
		parts := make([]string, len(ins.Closure.Captures))
		for i, c := range ins.Closure.Captures {
			if c.Move {
				parts[i] = fmt.Sprintf("move v%d", c.Src)
			} else {
				parts[i] = fmt.Sprintf("v%d", c.Src)
			}
		}
		return fmt.Sprintf("v%d = closure [%s]", ins.Closure.Dst, strings.Join(parts, ", "))
	case InstrInvoke:
		return fmt.Sprintf("invoke v%d(%s)", ins.Invoke.Closure, valueList(ins.Invoke.Args))
	case InstrStore:
		return fmt.Sprintf("store @%s, v%d", ins.Store.Slot, ins.Store.Src)
	case InstrHandoff:
		return fmt.Sprintf("handoff v%d -> @%s", ins.Handoff.Src, ins.Handoff.Domain)
	}
	return fmt.Sprintf("<invalid instr kind %d>", ins.Kind)
}

func formatTerm(t *Terminator) string {
	switch t.Kind {
	case TermNone:
		return "<unterminated>"
	case TermReturn:
		if t.Return.HasValue {
			return fmt.Sprintf("return v%d", t.Return.Value)
		}
		return "return"
	case TermGoto:
		return fmt.Sprintf("goto bb%d", t.Goto.Target)
	case TermIf:
		return fmt.Sprintf("if v%d then bb%d else bb%d", t.If.Cond, t.If.Then, t.If.Else)
	case TermUnreachable:
		return "unreachable"
	}
	return fmt.Sprintf("<invalid term kind %d>", t.Kind)
}

func valueList(ids []ValueID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("v%d", id)
	}
	return strings.Join(parts, ", ")
}
