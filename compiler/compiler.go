package compiler

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/opencrun-go/opencrun/config"
	"github.com/opencrun-go/opencrun/core"
	"github.com/opencrun-go/opencrun/ir"
)

const defaultCacheSize = 256

// Compiler runs every Program build for one CPU device through the
// pipeline: lower each KernelSource to IR, run the optimization/automatic-
// locals/footprint/group-parallel passes, link builtins, and publish the
// resulting entry points on the Program's KernelDescriptors. Results are
// memoized in a bounded cache keyed by descriptor identity so rebuilding
// the same Program against the same device (e.g. a second clBuildProgram
// with identical options, which this runtime treats as idempotent) does
// not redo the work.
type Compiler struct {
	device    core.Device
	builtins  BuiltinLibrary
	cache     *descriptorCache
	log       *logrus.Entry
}

// NewCompiler creates a compiler bound to one device.
func NewCompiler(device core.Device, log *logrus.Entry) *Compiler {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Compiler{
		device:   device,
		builtins: DefaultBuiltins(),
		cache:    newDescriptorCache(defaultCacheSize),
		log:      log.WithField("component", "compiler"),
	}
}

// Build compiles every source in sources against prog, publishing one
// KernelDescriptor per kernel name and recording the BuildInformation on
// prog for this compiler's device. options, with OPENCRUN_COMPILER_OPTIONS
// placed ahead of it by config.MergeCompilerOptions, is recorded in the
// returned BuildInformation.Options; -cl-opt-disable is honored by skipping
// ir.AggressiveInlinerPass, the one pass in this runtime whose output
// (fn.AutomaticLocalSize, and the Offset of each automatic local) differs
// between an optimized and an unoptimized build of the same source.
func (c *Compiler) Build(prog *core.Program, sources []KernelSource, options string) (*core.BuildInformation, error) {
	options = config.FromEnvironment().MergeCompilerOptions(options)
	info := &core.BuildInformation{Status: core.BuildInProgress, Options: options}
	prog.SetBuildInfo(c.device, info)

	module := &ir.Module{Name: "program"}
	var log string
	for _, src := range sources {
		kd := prog.AttachKernel(src.Name)

		if fn, ok := c.cache.get(kd, c.device); ok {
			module.Functions = append(module.Functions, fn)
			kd.SetInfoFor(c.device, &core.KernelInfo{
				Entry:                 fn.Entry,
				StaticLocalSize:       fn.StaticLocalSize,
				RequiredWorkGroupSize: fn.RequiredWorkGroupSize,
				UsesBarrier:           fn.UsesBarrier,
			})
			log += fmt.Sprintf("%s: reused cached build\n", src.Name)
			continue
		}

		fn := lower(src)
		ir.AutomaticLocalsPass(fn)
		ir.GroupParallelStubPass(fn, src.UsesBarrier)
		if !optDisabled(options) {
			ir.AggressiveInlinerPass(fn)
		}
		ir.FootprintEstimatePass(fn, 0)

		fn.Entry = c.linkBuiltins(fn.Entry)

		module.Functions = append(module.Functions, fn)
		c.cache.put(kd, c.device, fn)

		kd.SetInfoFor(c.device, &core.KernelInfo{
			Entry:                 fn.Entry,
			StaticLocalSize:       fn.StaticLocalSize,
			RequiredWorkGroupSize: fn.RequiredWorkGroupSize,
			UsesBarrier:           fn.UsesBarrier,
		})
		log += fmt.Sprintf("%s: compiled, automatic-local footprint %d bytes\n", src.Name, fn.AutomaticLocalSize)
		c.log.WithField("kernel", src.Name).Debug("compiled kernel")
	}

	info.Status = core.BuildSuccess
	info.Log = log
	info.IntermediateCode = module
	prog.SetBuildInfo(c.device, info)
	return info, nil
}

// linkBuiltins wraps a Function's Entry so that, each time a worker hands
// it an ExecContext, the Barrier and AsyncCopy hooks the worker put there
// are passed through this compiler's BuiltinLibrary.Bind before the body
// runs.
func (c *Compiler) linkBuiltins(entry ir.EntryFunc) ir.EntryFunc {
	if entry == nil {
		return nil
	}
	return func(ctx *ir.ExecContext) {
		barrier, asyncCopy := ctx.Barrier, ctx.AsyncCopy
		c.builtins.Bind(ctx, barrier, asyncCopy)
		entry(ctx)
	}
}

func optDisabled(options string) bool {
	return strings.Contains(options, "-cl-opt-disable")
}
