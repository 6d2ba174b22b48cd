package compiler

import "github.com/opencrun-go/opencrun/ir"

// BuiltinLibrary is the set of runtime hooks a compiled kernel body calls
// into that cannot be resolved purely from its own arguments: the barrier
// and the async work-group copy family. Work-item identity is not among
// them; it arrives in the ExecContext's coordinate fields.
// "Linking with builtins" in this runtime means populating an
// ir.ExecContext's function fields from a BuiltinLibrary rather than
// resolving symbol references against a separately compiled builtins
// module, since kernel bodies are already Go closures that close over
// whatever ExecContext they are handed.
type BuiltinLibrary interface {
	// Bind installs this library's hooks onto ctx before a work-item runs.
	Bind(ctx *ir.ExecContext, barrier func(), asyncCopy func(dst, src []byte, n, elemSize int))
}

// defaultBuiltins is the only BuiltinLibrary this runtime ships: it wires
// the worker-supplied barrier and async-copy closures straight through,
// with no additional instrumentation.
type defaultBuiltins struct{}

// DefaultBuiltins returns the standard builtin library.
func DefaultBuiltins() BuiltinLibrary { return defaultBuiltins{} }

func (defaultBuiltins) Bind(ctx *ir.ExecContext, barrier func(), asyncCopy func(dst, src []byte, n, elemSize int)) {
	ctx.Barrier = barrier
	ctx.AsyncCopy = asyncCopy
}
