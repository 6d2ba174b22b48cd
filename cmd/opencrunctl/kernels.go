package main

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/opencrun-go/opencrun/compiler"
	"github.com/opencrun-go/opencrun/core"
	"github.com/opencrun-go/opencrun/ir"
)

// vecAddSource is the "OpenCL C" for this runtime's canned vector-add
// demonstration kernel: __kernel void vecadd(__global const float *a,
// __global const float *b, __global float *c) { int i = get_global_id(0);
// c[i] = a[i] + b[i]; }, expressed as the Go closure this runtime accepts
// in place of a real C front end.
func vecAddSource() compiler.KernelSource {
	return compiler.KernelSource{
		Name: "vecadd",
		Source: "__kernel void vecadd(__global const float *a, __global const float *b, " +
			"__global float *c) { int i = get_global_id(0); c[i] = a[i] + b[i]; }",
		Params: []ir.Param{
			{Name: "a", Kind: core.ArgBuffer},
			{Name: "b", Kind: core.ArgBuffer},
			{Name: "c", Kind: core.ArgBuffer},
		},
		Body: func(ctx *ir.ExecContext) {
			i := ctx.Global[0]
			a := ctx.Memory(ctx.Args[0].Buffer)
			b := ctx.Memory(ctx.Args[1].Buffer)
			c := ctx.Memory(ctx.Args[2].Buffer)
			putFloat32(c, i, getFloat32(a, i)+getFloat32(b, i))
		},
	}
}

func getFloat32(buf []byte, index uint64) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[index*4 : index*4+4]))
}

func putFloat32(buf []byte, index uint64, v float32) {
	binary.LittleEndian.PutUint32(buf[index*4:index*4+4], math.Float32bits(v))
}

func floatsToHostMemory(vs []float32) core.SliceHostMemory {
	buf := make([]byte, len(vs)*4)
	for i, v := range vs {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(v))
	}
	return core.SliceHostMemory(buf)
}

func hostMemoryToFloats(mem core.HostMemory, n int) []float32 {
	buf := core.HostMemoryBytes(mem)
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4 : i*4+4]))
	}
	return out
}

func runVecAdd(cctx *cliContext, ctx *core.Context, queue *core.CommandQueue, n, local int) error {
	byteSize := uint64(n) * 4

	a, err := core.NewBuffer(ctx, byteSize, 0, core.MemReadOnly)
	if err != nil {
		return err
	}
	b, err := core.NewBuffer(ctx, byteSize, 0, core.MemReadOnly)
	if err != nil {
		return err
	}
	c, err := core.NewBuffer(ctx, byteSize, 0, core.MemWriteOnly)
	if err != nil {
		return err
	}

	hostA := make([]float32, n)
	hostB := make([]float32, n)
	for i := range hostA {
		hostA[i] = float32(i)
		hostB[i] = float32(2 * i)
	}

	builder := core.NewCommandBuilder(queue)
	writeA, err := builder.WithBlocking(true).NewWriteBufferCommand(a, 0, byteSize, floatsToHostMemory(hostA))
	if err != nil {
		return err
	}
	if _, err := queue.Enqueue(writeA); err != nil {
		return err
	}

	builder = core.NewCommandBuilder(queue)
	writeB, err := builder.WithBlocking(true).NewWriteBufferCommand(b, 0, byteSize, floatsToHostMemory(hostB))
	if err != nil {
		return err
	}
	if _, err := queue.Enqueue(writeB); err != nil {
		return err
	}

	prog := core.NewProgramWithSource(ctx, vecAddSource().Source)
	if _, err := cctx.device.Compiler().Build(prog, []compiler.KernelSource{vecAddSource()}, ""); err != nil {
		return err
	}
	descriptor, ok := prog.Kernel("vecadd")
	if !ok {
		return fmt.Errorf("vecadd kernel was not attached during build")
	}
	kernel := core.NewKernel(descriptor, 3)
	if err := kernel.SetBufferArg(0, a); err != nil {
		return err
	}
	if err := kernel.SetBufferArg(1, b); err != nil {
		return err
	}
	if err := kernel.SetBufferArg(2, c); err != nil {
		return err
	}

	dim, err := core.NewDimensionInfo(1, []uint64{uint64(n)}, nil, []uint64{uint64(local)})
	if err != nil {
		return err
	}

	builder = core.NewCommandBuilder(queue)
	launch, err := builder.WithBlocking(true).NewNDRangeKernelCommand(kernel, dim, cctx.device)
	if err != nil {
		return err
	}
	launchEvent, err := queue.Enqueue(launch)
	if err != nil {
		return err
	}

	result := make([]byte, byteSize)
	hostResult := core.SliceHostMemory(result)
	builder = core.NewCommandBuilder(queue)
	readC, err := builder.WithBlocking(true).NewReadBufferCommand(c, 0, byteSize, hostResult)
	if err != nil {
		return err
	}
	if _, err := queue.Enqueue(readC); err != nil {
		return err
	}

	out := hostMemoryToFloats(hostResult, n)
	fmt.Printf("vecadd: c[0]=%g c[%d]=%g\n", out[0], n-1, out[n-1])

	printProfile(launchEvent)
	return nil
}

func printProfile(ev *core.Event) {
	for _, s := range ev.Profile.Samples() {
		fmt.Printf("  %-10s sub=%-4d t=%d\n", s.Label, s.SubID, s.NanoTime)
	}
}
