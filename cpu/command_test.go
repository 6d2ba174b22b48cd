package cpu

import (
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/opencrun-go/opencrun/core"
)

type fakeDevice struct{ info *core.DeviceInfo }

func (d *fakeDevice) Info() *core.DeviceInfo         { return d.info }
func (d *fakeDevice) Submit(cmd *core.Command) error { return nil }
func (d *fakeDevice) Parent() core.Device            { return nil }

func newTestWorker(t *testing.T) *Worker {
	t.Helper()
	log := logrus.NewEntry(logrus.StandardLogger())
	return &Worker{
		local:  NewLocalMemory(4096),
		global: NewGlobalMemory(1 << 20),
		inbox:  make(chan *core.Command, 1),
		log:    log,
	}
}

func newTestBuffer(t *testing.T, size uint64) *core.Buffer {
	t.Helper()
	dev := &fakeDevice{info: &core.DeviceInfo{}}
	ctx, err := core.NewContext([]core.Device{dev}, nil)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	buf, err := core.NewBuffer(ctx, size, 0, core.MemReadWrite)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	return buf
}

func TestExecWriteThenReadBufferRoundTrip(t *testing.T) {
	t.Parallel()
	w := newTestWorker(t)
	buf := newTestBuffer(t, 16)

	src := core.SliceHostMemory([]byte{1, 2, 3, 4})
	if err := w.execWriteBuffer(&core.BufferRWPayload{Buffer: buf, Offset: 0, Size: 4, Host: src}); err != nil {
		t.Fatalf("execWriteBuffer: %v", err)
	}

	dst := make([]byte, 4)
	if err := w.execReadBuffer(&core.BufferRWPayload{Buffer: buf, Offset: 0, Size: 4, Host: core.SliceHostMemory(dst)}); err != nil {
		t.Fatalf("execReadBuffer: %v", err)
	}
	if dst[0] != 1 || dst[1] != 2 || dst[2] != 3 || dst[3] != 4 {
		t.Errorf("read back %v, want [1 2 3 4]", dst)
	}
}

func TestExecCopyBuffer(t *testing.T) {
	t.Parallel()
	w := newTestWorker(t)
	src := newTestBuffer(t, 16)
	dst := newTestBuffer(t, 16)

	if err := w.execWriteBuffer(&core.BufferRWPayload{Buffer: src, Offset: 0, Size: 4, Host: core.SliceHostMemory([]byte{9, 9, 9, 9})}); err != nil {
		t.Fatalf("execWriteBuffer: %v", err)
	}
	if err := w.execCopyBuffer(&core.BufferCopyPayload{Src: src, Dst: dst, SrcOffset: 0, DstOffset: 4, Size: 4}); err != nil {
		t.Fatalf("execCopyBuffer: %v", err)
	}
	out := make([]byte, 4)
	if err := w.execReadBuffer(&core.BufferRWPayload{Buffer: dst, Offset: 4, Size: 4, Host: core.SliceHostMemory(out)}); err != nil {
		t.Fatalf("execReadBuffer: %v", err)
	}
	for _, b := range out {
		if b != 9 {
			t.Errorf("copied bytes = %v, want all 9", out)
			break
		}
	}
}

func TestExecFillBuffer(t *testing.T) {
	t.Parallel()
	w := newTestWorker(t)
	buf := newTestBuffer(t, 16)

	if err := w.execFillBuffer(&core.BufferFillPayload{Buffer: buf, Pattern: []byte{0xAB, 0xCD}, Offset: 0, Size: 8}); err != nil {
		t.Fatalf("execFillBuffer: %v", err)
	}
	out := make([]byte, 8)
	if err := w.execReadBuffer(&core.BufferRWPayload{Buffer: buf, Offset: 0, Size: 8, Host: core.SliceHostMemory(out)}); err != nil {
		t.Fatalf("execReadBuffer: %v", err)
	}
	for i, b := range out {
		want := byte(0xAB)
		if i%2 == 1 {
			want = 0xCD
		}
		if b != want {
			t.Errorf("out[%d] = %#x, want %#x", i, b, want)
		}
	}
}

func TestResolveArgBufferNilIsNil(t *testing.T) {
	t.Parallel()
	w := newTestWorker(t)
	if got := w.resolveArgBuffer(nil); got != nil {
		t.Errorf("resolveArgBuffer(nil) = %v, want nil", got)
	}
}

func TestResolveArgBufferResolvesBacking(t *testing.T) {
	t.Parallel()
	w := newTestWorker(t)
	buf := newTestBuffer(t, 32)
	got := w.resolveArgBuffer(buf)
	if len(got) != 32 {
		t.Errorf("resolveArgBuffer len = %d, want 32", len(got))
	}
}
