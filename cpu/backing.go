package cpu

import "github.com/opencrun-go/opencrun/core"

// resolveBacking returns the []byte region of global memory that backs
// obj, allocating it on first touch. A sub-buffer (or image-from-buffer)
// resolves through its parent, biased by its own offset, rather than
// getting its own independent allocation — the whole point of a
// sub-object is that it shares the parent's storage.
func resolveBacking(global *GlobalMemory, obj *core.MemoryObject) []byte {
	if parent := obj.Parent(); parent != nil {
		parentBytes := resolveBacking(global, parent)
		off := obj.ParentOffset()
		return parentBytes[off : off+obj.Size()]
	}
	if b := obj.Backing(); b != nil {
		return b.([]byte)
	}
	_, slice, ok := global.Alloc(obj.Size())
	if !ok {
		// The pool was sized from device configuration; running out mid
		// run means the configured GlobalMemoryBytes was too small for
		// the workload, not a recoverable per-command condition.
		panic("opencrun/cpu: global memory pool exhausted")
	}
	obj.SetBacking(slice)
	return slice
}
