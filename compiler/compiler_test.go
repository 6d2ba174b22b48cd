package compiler_test

import (
	"testing"

	"github.com/opencrun-go/opencrun/compiler"
	"github.com/opencrun-go/opencrun/core"
	"github.com/opencrun-go/opencrun/ir"
)

type fakeDevice struct{ info *core.DeviceInfo }

func (d *fakeDevice) Info() *core.DeviceInfo      { return d.info }
func (d *fakeDevice) Submit(cmd *core.Command) error { return nil }
func (d *fakeDevice) Parent() core.Device         { return nil }

func noopSource(name string) compiler.KernelSource {
	return compiler.KernelSource{
		Name:   name,
		Source: "kernel void " + name + "() {}",
		Body:   func(ctx *ir.ExecContext) {},
	}
}

func TestBuildPublishesKernelInfo(t *testing.T) {
	t.Parallel()
	dev := &fakeDevice{info: &core.DeviceInfo{}}
	ctx, err := core.NewContext([]core.Device{dev}, nil)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	prog := core.NewProgramWithSource(ctx, "")
	c := compiler.NewCompiler(dev, nil)

	if _, err := c.Build(prog, []compiler.KernelSource{noopSource("noop")}, ""); err != nil {
		t.Fatalf("Build: %v", err)
	}
	kd, ok := prog.Kernel("noop")
	if !ok {
		t.Fatal("kernel descriptor not attached after Build")
	}
	info, ok := kd.InfoFor(dev)
	if !ok {
		t.Fatal("no KernelInfo published for device")
	}
	if info.Entry == nil {
		t.Error("KernelInfo.Entry is nil after a successful build")
	}
}

func TestBuildReusesCacheOnSecondBuild(t *testing.T) {
	t.Parallel()
	dev := &fakeDevice{info: &core.DeviceInfo{}}
	ctx, err := core.NewContext([]core.Device{dev}, nil)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	prog := core.NewProgramWithSource(ctx, "")
	c := compiler.NewCompiler(dev, nil)
	src := noopSource("noop")

	first, err := c.Build(prog, []compiler.KernelSource{src}, "")
	if err != nil {
		t.Fatalf("first Build: %v", err)
	}
	second, err := c.Build(prog, []compiler.KernelSource{src}, "")
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}
	if second.Log == first.Log {
		t.Fatal("second build's log is identical to the first; expected the cache-reuse message")
	}
}

func TestBuildMarksBarrierUsage(t *testing.T) {
	t.Parallel()
	dev := &fakeDevice{info: &core.DeviceInfo{}}
	ctx, err := core.NewContext([]core.Device{dev}, nil)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	prog := core.NewProgramWithSource(ctx, "")
	c := compiler.NewCompiler(dev, nil)

	src := noopSource("barrierkernel")
	src.UsesBarrier = true
	if _, err := c.Build(prog, []compiler.KernelSource{src}, ""); err != nil {
		t.Fatalf("Build: %v", err)
	}
	kd, _ := prog.Kernel("barrierkernel")
	info, _ := kd.InfoFor(dev)
	if !info.UsesBarrier {
		t.Error("UsesBarrier not propagated through the pipeline")
	}
}

func TestValidateArgsRejectsArityMismatch(t *testing.T) {
	t.Parallel()
	fn := &ir.Function{Name: "k", Params: []ir.Param{{Name: "a", Kind: core.ArgBuffer}}}
	if err := compiler.ValidateArgs(fn, nil); err == nil {
		t.Error("arity mismatch accepted")
	}
	if err := compiler.ValidateArgs(fn, []core.Argument{{Kind: core.ArgBuffer}}); err != nil {
		t.Errorf("matching args rejected: %v", err)
	}
}
