package core_test

import (
	"sync"
	"testing"

	"github.com/opencrun-go/opencrun/core"
)

func TestGroupResultRecorderSignalsOnlyAfterEveryGroupReports(t *testing.T) {
	t.Parallel()
	ev := core.NewInternalEvent(nil, core.CommandNDRangeKernelBlock, false)
	rec := core.NewGroupResultRecorder(3, ev)

	rec.Report(core.StatusComplete)
	rec.Report(core.StatusComplete)
	if status := ev.Status(); status != core.StatusQueued {
		t.Fatalf("event signalled early: status = %d", status)
	}

	rec.Report(core.StatusComplete)
	if status := ev.Wait(); status != core.StatusComplete {
		t.Errorf("Wait() = %d, want StatusComplete", status)
	}
}

func TestGroupResultRecorderCarriesFirstError(t *testing.T) {
	t.Parallel()
	ev := core.NewInternalEvent(nil, core.CommandNDRangeKernelBlock, false)
	rec := core.NewGroupResultRecorder(4, ev)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec.Report(core.StatusComplete)
		}()
	}
	wg.Wait()
	rec.Report(-1)

	if status := ev.Wait(); status != -1 {
		t.Errorf("Wait() = %d, want -1", status)
	}
}

func TestGroupResultRecorderZeroGroupsSignalsImmediately(t *testing.T) {
	t.Parallel()
	ev := core.NewInternalEvent(nil, core.CommandNDRangeKernelBlock, false)
	core.NewGroupResultRecorder(0, ev)

	if status := ev.Wait(); status != core.StatusComplete {
		t.Errorf("Wait() = %d, want StatusComplete", status)
	}
}
