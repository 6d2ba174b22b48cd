package cpu

import (
	"testing"

	"github.com/opencrun-go/opencrun/core"
	"github.com/opencrun-go/opencrun/ir"
)

// TestDeviceSubmitNDRangeKernelRunsEveryWorkGroup launches a kernel over
// enough work-groups to spread across both workers of a two-CPU device's
// single Multiprocessor, and checks every work-item's global id landed in the
// output buffer and that the launch's own event only completes once every
// work-group sub-command has reported back.
func TestDeviceSubmitNDRangeKernelRunsEveryWorkGroup(t *testing.T) {
	dev := NewDevice(twoCPUTopology(), Config{GlobalMemoryBytes: 1 << 16, LocalMemoryBytes: 4096}, nil)

	ctx, err := core.NewContext([]core.Device{dev}, nil)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	const globalSize = 8
	buf, err := core.NewBuffer(ctx, globalSize, 0, core.MemReadWrite)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}

	prog := core.NewProgramWithSource(ctx, "kernel void mark() {}")
	kd := prog.AttachKernel("mark")
	entry := ir.EntryFunc(func(ec *ir.ExecContext) {
		out := ec.Memory(ec.Args[0].Buffer)
		out[ec.Global[0]] = byte(ec.Global[0] + 1)
	})
	kd.SetInfoFor(dev, &core.KernelInfo{Entry: entry})

	kernel := core.NewKernel(kd, 1)
	if err := kernel.SetBufferArg(0, buf); err != nil {
		t.Fatalf("SetBufferArg: %v", err)
	}

	dim, err := core.NewDimensionInfo(1, []uint64{globalSize}, nil, []uint64{2})
	if err != nil {
		t.Fatalf("NewDimensionInfo: %v", err)
	}
	if got, want := dim.TotalWorkGroups(), uint64(4); got != want {
		t.Fatalf("TotalWorkGroups() = %d, want %d", got, want)
	}

	queue, err := core.NewCommandQueue(ctx, dev, core.InOrderQueue, false)
	if err != nil {
		t.Fatalf("NewCommandQueue: %v", err)
	}
	b := core.NewCommandBuilder(queue)
	cmd, err := b.NewNDRangeKernelCommand(kernel, dim, dev)
	if err != nil {
		t.Fatalf("NewNDRangeKernelCommand: %v", err)
	}
	cmd.Event = core.NewInternalEvent(nil, core.CommandNDRangeKernel, false)

	if err := dev.Submit(cmd); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if status := cmd.Event.Wait(); status != core.StatusComplete {
		t.Fatalf("launch event status = %d, want StatusComplete", status)
	}

	got := make([]byte, globalSize)
	w := &Worker{local: NewLocalMemory(1), global: dev.GlobalMemory()}
	copy(got, w.resolveArgBuffer(buf))
	for i := range got {
		if want := byte(i + 1); got[i] != want {
			t.Errorf("out[%d] = %d, want %d", i, got[i], want)
		}
	}
}
