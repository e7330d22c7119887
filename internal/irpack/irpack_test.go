package irpack

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"borrowck/internal/ir"
	"borrowck/internal/source"
)

func sampleUnit() *ir.Unit {
	return &ir.Unit{
		Name:  "sample",
		Files: []source.File{{Path: "sample.sg", LineStarts: []uint32{0, 12, 30}}},
		Funcs: []ir.Func{{
			Name:   "pump",
			Domain: "worker",
			Span:   source.Span{Start: 0, End: 40},
			Params: []ir.ValueID{0},
			Values: []ir.ValueInfo{
				{ID: 0, Name: "input", Own: ir.OwnBorrowed, Type: "Buf", Span: source.Span{Start: 3, End: 8}},
				{ID: 1, Name: "ref", Own: ir.OwnBorrowed, Type: "Buf", Span: source.Span{Start: 14, End: 17}},
				{ID: 2, Name: "task", Own: ir.OwnOwned, Type: "Closure", Span: source.Span{Start: 20, End: 24}},
			},
			Blocks: []ir.Block{{
				Instrs: []ir.Instr{
					{Kind: ir.InstrBorrow, Span: source.Span{Start: 14, End: 17}, Borrow: ir.BorrowInstr{Dst: 1, Src: 0, Scope: 1}},
					{Kind: ir.InstrClosure, Span: source.Span{Start: 20, End: 24}, Closure: ir.ClosureInstr{Dst: 2, Captures: []ir.Capture{{Src: 1}}}},
					{Kind: ir.InstrInvoke, Span: source.Span{Start: 26, End: 28}, Invoke: ir.InvokeInstr{Closure: 2}},
					{Kind: ir.InstrEndScope, Span: source.Span{Start: 30, End: 31}, EndScope: ir.EndScopeInstr{Scope: 1}},
				},
				Term: ir.Terminator{Kind: ir.TermReturn},
			}},
		}},
	}
}

func TestRoundTrip(t *testing.T) {
	u := sampleUnit()
	data, err := Encode(u)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	// The textual dump covers every field the verifier reads, so comparing
	// dumps is a deep-equality check with readable failure output.
	if want, have := ir.DumpString(u), ir.DumpString(got); want != have {
		t.Fatalf("round trip changed the unit:\n--- want ---\n%s\n--- got ---\n%s", want, have)
	}
}

func TestEncodeNilUnit(t *testing.T) {
	if _, err := Encode(nil); !errors.Is(err, ErrEmptyUnit) {
		t.Fatalf("want ErrEmptyUnit, got %v", err)
	}
}

func TestDecodeSchemaMismatch(t *testing.T) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.Encode(uint16(schemaVersion + 7)); err != nil {
		t.Fatalf("encode schema: %v", err)
	}
	if err := enc.Encode(sampleUnit()); err != nil {
		t.Fatalf("encode unit: %v", err)
	}
	if _, err := Decode(buf.Bytes()); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("want ErrSchemaMismatch, got %v", err)
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := Decode([]byte{0xc1, 0xff, 0x00}); err == nil {
		t.Fatal("garbage input must not decode")
	}
}

func TestLoadWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unit.irpk")
	u := sampleUnit()
	if err := Write(path, u); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ir.DumpString(got) != ir.DumpString(u) {
		t.Fatal("loaded unit differs from written unit")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.irpk")); err == nil {
		t.Fatal("missing file must error")
	}
}
