package ir_test

import (
	"testing"

	"github.com/opencrun-go/opencrun/ir"
)

func TestFootprintEstimatePass(t *testing.T) {
	t.Parallel()
	fn := &ir.Function{AutomaticLocals: []ir.AutomaticLocal{{Name: "a", Size: 16}}}
	ir.AutomaticLocalsPass(fn)

	total := ir.FootprintEstimatePass(fn, 128)
	if fn.StaticLocalSize != 128 {
		t.Errorf("StaticLocalSize = %d, want 128", fn.StaticLocalSize)
	}
	if want := fn.AutomaticLocalSize + 128; total != want {
		t.Errorf("FootprintEstimatePass() = %d, want %d", total, want)
	}
}

func TestGroupParallelStubPass(t *testing.T) {
	t.Parallel()
	fn := &ir.Function{}
	ir.GroupParallelStubPass(fn, true)
	if !fn.UsesBarrier {
		t.Error("UsesBarrier not set to true")
	}
	ir.GroupParallelStubPass(fn, false)
	if fn.UsesBarrier {
		t.Error("UsesBarrier not reset to false")
	}
}

func TestModuleLookup(t *testing.T) {
	t.Parallel()
	m := &ir.Module{Functions: []*ir.Function{{Name: "vecadd"}, {Name: "reduce"}}}
	fn, ok := m.Lookup("reduce")
	if !ok || fn.Name != "reduce" {
		t.Fatalf("Lookup(reduce) = %v, %v", fn, ok)
	}
	if _, ok := m.Lookup("missing"); ok {
		t.Error("Lookup(missing) unexpectedly found a function")
	}
}
