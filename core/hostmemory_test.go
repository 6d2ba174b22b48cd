package core_test

import (
	"testing"

	"github.com/opencrun-go/opencrun/core"
)

func TestSliceHostMemorySize(t *testing.T) {
	t.Parallel()
	mem := core.SliceHostMemory([]byte{1, 2, 3, 4})
	if mem.Size() != 4 {
		t.Errorf("Size() = %d, want 4", mem.Size())
	}
	if mem.Pointer() == nil {
		t.Error("Pointer() returned nil for a non-empty slice")
	}
}

func TestSliceHostMemoryEmpty(t *testing.T) {
	t.Parallel()
	var mem core.SliceHostMemory
	if mem.Size() != 0 {
		t.Errorf("Size() = %d, want 0", mem.Size())
	}
	if mem.Pointer() != nil {
		t.Error("Pointer() should be nil for an empty slice")
	}
}

func TestHostMemoryBytesRoundTrip(t *testing.T) {
	t.Parallel()
	mem := core.SliceHostMemory([]byte{0xAA, 0xBB, 0xCC})
	got := core.HostMemoryBytes(mem)
	if len(got) != 3 || got[0] != 0xAA || got[1] != 0xBB || got[2] != 0xCC {
		t.Errorf("HostMemoryBytes() = %v, want [170 187 204]", got)
	}
	// The returned slice aliases the original backing array.
	got[0] = 0xFF
	if mem[0] != 0xFF {
		t.Error("HostMemoryBytes() did not alias the original memory")
	}
}

func TestHostMemoryBytesNil(t *testing.T) {
	t.Parallel()
	if got := core.HostMemoryBytes(nil); got != nil {
		t.Errorf("HostMemoryBytes(nil) = %v, want nil", got)
	}
}
