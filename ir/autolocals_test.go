package ir_test

import (
	"testing"

	"github.com/opencrun-go/opencrun/ir"
)

func TestAutomaticLocalsPassSortsAndPacks(t *testing.T) {
	t.Parallel()
	fn := &ir.Function{
		AutomaticLocals: []ir.AutomaticLocal{
			{Name: "scratch", Size: 3},
			{Name: "counter", Size: 4},
			{Name: "accum", Size: 8},
		},
	}
	ir.AutomaticLocalsPass(fn)

	wantOrder := []string{"accum", "counter", "scratch"}
	for i, name := range wantOrder {
		if fn.AutomaticLocals[i].Name != name {
			t.Fatalf("AutomaticLocals[%d].Name = %q, want %q", i, fn.AutomaticLocals[i].Name, name)
		}
	}
	for i, local := range fn.AutomaticLocals {
		if local.Offset%8 != 0 {
			t.Errorf("AutomaticLocals[%d] (%s) offset %d is not 8-byte aligned", i, local.Name, local.Offset)
		}
	}
	if fn.AutomaticLocalSize == 0 {
		t.Error("AutomaticLocalSize left at zero after packing")
	}
}

func TestAutomaticLocalsPassEmpty(t *testing.T) {
	t.Parallel()
	fn := &ir.Function{}
	ir.AutomaticLocalsPass(fn)
	if fn.AutomaticLocalSize != 0 {
		t.Errorf("AutomaticLocalSize = %d, want 0", fn.AutomaticLocalSize)
	}
}

func TestAutomaticLocalsPassDeterministic(t *testing.T) {
	t.Parallel()
	build := func() *ir.Function {
		return &ir.Function{AutomaticLocals: []ir.AutomaticLocal{
			{Name: "z", Size: 1}, {Name: "a", Size: 2}, {Name: "m", Size: 3},
		}}
	}
	a, b := build(), build()
	ir.AutomaticLocalsPass(a)
	ir.AutomaticLocalsPass(b)
	for i := range a.AutomaticLocals {
		if a.AutomaticLocals[i] != b.AutomaticLocals[i] {
			t.Fatalf("two packings of the same declarations disagree at %d: %+v vs %+v", i, a.AutomaticLocals[i], b.AutomaticLocals[i])
		}
	}
}
