package cpu

import (
	"sync"
	"testing"
)

func TestFiberRunsToCompletionWithoutBarrier(t *testing.T) {
	ran := false
	f := NewFiber(func(fb *Fiber) { ran = true })
	RunGroupToCompletion([]*Fiber{f})
	if !ran {
		t.Error("fiber body never ran")
	}
}

func TestRunGroupToCompletionSynchronizesAtBarrier(t *testing.T) {
	const n = 4
	var mu sync.Mutex
	beforeBarrier := 0
	afterBarrier := 0
	fibers := make([]*Fiber, n)
	for i := 0; i < n; i++ {
		fibers[i] = NewFiber(func(fb *Fiber) {
			mu.Lock()
			beforeBarrier++
			mu.Unlock()
			fb.Barrier()
			mu.Lock()
			// Every fiber must have reached the barrier before any of them
			// proceeds past it.
			if beforeBarrier != n {
				t.Errorf("fiber resumed past barrier with only %d/%d arrived", beforeBarrier, n)
			}
			afterBarrier++
			mu.Unlock()
		})
	}
	RunGroupToCompletion(fibers)
	if afterBarrier != n {
		t.Errorf("afterBarrier = %d, want %d", afterBarrier, n)
	}
}
