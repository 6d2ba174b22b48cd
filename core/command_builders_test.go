package core_test

import (
	"testing"

	"github.com/opencrun-go/opencrun/core"
)

type fakeDevice struct {
	info *core.DeviceInfo
}

func (d *fakeDevice) Info() *core.DeviceInfo { return d.info }
func (d *fakeDevice) Submit(cmd *core.Command) error { return nil }
func (d *fakeDevice) Parent() core.Device { return nil }

func newFakeDevice() *fakeDevice {
	return &fakeDevice{info: &core.DeviceInfo{
		MaxComputeUnits:       4,
		MaxWorkItemDimensions: 3,
		MaxWorkItemSizes:      [core.MaxWorkItemDimensions]uint64{1024, 1024, 1024},
		MaxWorkGroupSize:      256,
	}}
}

func newTestBuffer(t *testing.T, size uint64, flags core.MemFlags) *core.Buffer {
	t.Helper()
	dev := newFakeDevice()
	ctx, err := core.NewContext([]core.Device{dev}, nil)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	buf, err := core.NewBuffer(ctx, size, 0, flags)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	return buf
}

func TestNewReadBufferCommandBoundsChecked(t *testing.T) {
	t.Parallel()
	buf := newTestBuffer(t, 64, core.MemReadWrite)
	b := core.NewCommandBuilder(nil)
	if _, err := b.NewReadBufferCommand(buf, 0, 64, core.SliceHostMemory(make([]byte, 64))); err != nil {
		t.Errorf("in-bounds read rejected: %v", err)
	}
	b = core.NewCommandBuilder(nil)
	if _, err := b.NewReadBufferCommand(buf, 32, 64, core.SliceHostMemory(make([]byte, 64))); err == nil {
		t.Error("out-of-bounds read accepted")
	}
}

func TestNewCopyBufferCommandRejectsOverlap(t *testing.T) {
	t.Parallel()
	buf := newTestBuffer(t, 64, core.MemReadWrite)
	b := core.NewCommandBuilder(nil)
	if _, err := b.NewCopyBufferCommand(buf, buf, 0, 16, 32); err == nil {
		t.Error("overlapping self-copy accepted")
	}
	b = core.NewCommandBuilder(nil)
	if _, err := b.NewCopyBufferCommand(buf, buf, 0, 32, 32); err != nil {
		t.Errorf("non-overlapping self-copy rejected: %v", err)
	}
}

func TestNewFillBufferCommandValidatesPattern(t *testing.T) {
	t.Parallel()
	buf := newTestBuffer(t, 64, core.MemReadWrite)
	b := core.NewCommandBuilder(nil)
	if _, err := b.NewFillBufferCommand(buf, nil, 0, 16); err == nil {
		t.Error("empty pattern accepted")
	}
	b = core.NewCommandBuilder(nil)
	if _, err := b.NewFillBufferCommand(buf, []byte{1, 2, 3}, 0, 16); err == nil {
		t.Error("size not a multiple of pattern size accepted")
	}
	b = core.NewCommandBuilder(nil)
	if _, err := b.NewFillBufferCommand(buf, []byte{1, 2, 3, 4}, 0, 16); err != nil {
		t.Errorf("valid fill rejected: %v", err)
	}
}

func TestNewMapBufferCommandValidatesHostAccess(t *testing.T) {
	t.Parallel()
	buf := newTestBuffer(t, 64, core.MemReadWrite|core.MemHostReadOnly)
	b := core.NewCommandBuilder(nil)
	if _, err := b.NewMapBufferCommand(buf, core.MapWrite, 0, 16); err == nil {
		t.Error("write-map of a host-read-only buffer accepted")
	}
	b = core.NewCommandBuilder(nil)
	if _, err := b.NewMapBufferCommand(buf, core.MapRead, 0, 16); err != nil {
		t.Errorf("read-map of a host-read-only buffer rejected: %v", err)
	}
	b = core.NewCommandBuilder(nil)
	if _, err := b.NewMapBufferCommand(buf, core.MapWrite|core.MapWriteInvalidateRegion, 0, 16); err == nil {
		t.Error("WRITE combined with WRITE_INVALIDATE_REGION accepted")
	}
}

func TestNewNDRangeKernelCommandRejectsOversizedWorkGroup(t *testing.T) {
	t.Parallel()
	dev := newFakeDevice()
	ctx, err := core.NewContext([]core.Device{dev}, nil)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	prog := core.NewProgramWithSource(ctx, "kernel void noop() {}")
	descriptor := prog.AttachKernel("noop")
	kernel := core.NewKernel(descriptor, 0)

	dim, err := core.NewDimensionInfo(1, []uint64{1024}, nil, []uint64{512})
	if err != nil {
		t.Fatalf("NewDimensionInfo: %v", err)
	}
	b := core.NewCommandBuilder(nil)
	if _, err := b.NewNDRangeKernelCommand(kernel, dim, dev); err == nil {
		t.Error("work-group size exceeding device maximum accepted")
	}

	dim, err = core.NewDimensionInfo(1, []uint64{1024}, nil, []uint64{64})
	if err != nil {
		t.Fatalf("NewDimensionInfo: %v", err)
	}
	b = core.NewCommandBuilder(nil)
	if _, err := b.NewNDRangeKernelCommand(kernel, dim, dev); err != nil {
		t.Errorf("in-bounds launch rejected: %v", err)
	}
}
