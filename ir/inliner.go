package ir

import "sort"

// AggressiveInlinerPass repacks fn's automatic-locals region without the
// conservative 8-byte alignment padding AutomaticLocalsPass leaves in
// place: fields are resorted largest-first and laid out back to back, so
// smaller fields fill the gaps a safe, alignment-preserving layout would
// otherwise waste. It is the one pass -cl-opt-disable turns off (spec's
// "optimizations disabled" build option): skipping it leaves
// fn.AutomaticLocalSize at AutomaticLocalsPass's padded figure instead of
// this pass's tighter one, which is the only difference an optimized and
// an unoptimized build of the same kernel source produce in this runtime.
//
// The name predates this rewrite. Kernel bodies are still one Go closure
// per entry point rather than a call graph this pass can fold callees out
// of, so the "inliner" here is aggressive layout packing, not call
// inlining; once the frontend lowers a real non-kernel helper-function
// call graph, folding trivial callees belongs in this same pass.
func AggressiveInlinerPass(fn *Function) {
	if len(fn.AutomaticLocals) == 0 {
		return
	}
	sort.SliceStable(fn.AutomaticLocals, func(i, j int) bool {
		return fn.AutomaticLocals[i].Size > fn.AutomaticLocals[j].Size
	})
	var offset uint64
	for i := range fn.AutomaticLocals {
		fn.AutomaticLocals[i].Offset = offset
		offset += fn.AutomaticLocals[i].Size
	}
	fn.AutomaticLocalSize = offset
}
