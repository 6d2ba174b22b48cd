package compiler

import (
	"github.com/opencrun-go/opencrun/core"
	"github.com/opencrun-go/opencrun/ir"
)

// KernelSource is the frontend's unit of input: the original source text
// kept for the build log and diagnostics, plus the declarative metadata
// and Go-native semantics this runtime accepts in place of parsing
// arbitrary OpenCL C (no Go LLVM/Clang bindings exist anywhere in the
// reference pack to lower real C source through). Applications construct
// one KernelSource per __kernel function and pass them, with the Program,
// to Compiler.Build.
type KernelSource struct {
	Name                  string
	Source                string
	Params                []ir.Param
	AutomaticLocals       []ir.AutomaticLocal
	RequiredWorkGroupSize [3]uint64
	UsesBarrier           bool
	Body                  ir.EntryFunc
}

// lower turns one KernelSource into an (unoptimized) ir.Function. This is
// the frontend step of the pipeline: parse-and-lower in name only, since
// the "parse" step already happened when the application wrote Body in
// Go rather than OpenCL C.
func lower(src KernelSource) *ir.Function {
	return &ir.Function{
		Name:                  src.Name,
		Params:                append([]ir.Param(nil), src.Params...),
		AutomaticLocals:       append([]ir.AutomaticLocal(nil), src.AutomaticLocals...),
		RequiredWorkGroupSize: src.RequiredWorkGroupSize,
		UsesBarrier:           src.UsesBarrier,
		Entry:                 src.Body,
	}
}

// ValidateArgs checks a bound Kernel's Argument vector against a
// Function's declared parameter signature.
func ValidateArgs(fn *ir.Function, args []core.Argument) error {
	if len(args) != len(fn.Params) {
		return core.NewError(core.KindInvalidKernelArgs, "kernel %s expects %d arguments, got %d", fn.Name, len(fn.Params), len(args))
	}
	for i, p := range fn.Params {
		if args[i].Kind != p.Kind {
			return core.NewError(core.KindInvalidKernelArgs, "argument %d (%s) of kernel %s: expected kind %d, got %d", i, p.Name, fn.Name, p.Kind, args[i].Kind)
		}
	}
	return nil
}
