package cpu

import "testing"

func TestGlobalMemoryAllocResolvesHandle(t *testing.T) {
	g := NewGlobalMemory(4096)
	handle, slice, ok := g.Alloc(10)
	if !ok {
		t.Fatal("Alloc failed on a fresh pool")
	}
	if handle == 0 {
		t.Error("Alloc returned the reserved null handle")
	}
	if len(slice) != 10 {
		t.Errorf("len(slice) = %d, want 10", len(slice))
	}
	got, ok := g.Bytes(handle)
	if !ok {
		t.Fatal("Bytes() could not resolve the handle just allocated")
	}
	if len(got) != 10 {
		t.Errorf("Bytes() length = %d, want 10", len(got))
	}
}

func TestGlobalMemoryExhaustion(t *testing.T) {
	g := NewGlobalMemory(64) // rounded up to one 4096-byte page
	if _, _, ok := g.Alloc(8192); ok {
		t.Error("Alloc succeeded for a request larger than the pool")
	}
}

func TestGlobalMemoryDistinctAllocationsDoNotOverlap(t *testing.T) {
	g := NewGlobalMemory(4096)
	_, a, ok := g.Alloc(16)
	if !ok {
		t.Fatal("first Alloc failed")
	}
	_, b, ok := g.Alloc(16)
	if !ok {
		t.Fatal("second Alloc failed")
	}
	a[0] = 0xAA
	if b[0] == 0xAA {
		t.Error("two allocations alias the same bytes")
	}
}

func TestLocalMemoryResetReclaimsSpace(t *testing.T) {
	l := NewLocalMemory(128)
	if _, ok := l.Alloc(100); !ok {
		t.Fatal("first Alloc should fit")
	}
	if _, ok := l.Alloc(100); ok {
		t.Fatal("second Alloc should not fit before Reset")
	}
	l.Reset()
	if _, ok := l.Alloc(100); !ok {
		t.Fatal("Alloc should fit again after Reset")
	}
}

func TestLocalMemoryCapacity(t *testing.T) {
	l := NewLocalMemory(256)
	if l.Capacity() != 256 {
		t.Errorf("Capacity() = %d, want 256", l.Capacity())
	}
}
