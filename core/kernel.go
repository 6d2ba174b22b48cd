package core

import "sync"

// EntryPoint is the opaque, device-specific callable symbol a compiled
// kernel resolves to. The core never interprets it; only the device
// package that produced it (cpu.Device, via the compiler) knows its real
// type and how to invoke it.
type EntryPoint any

// KernelInfo is the per-device half of a KernelDescriptor: the resolved
// entry symbol, the kernel's static local-memory footprint, and its
// required work-group size if the source declared one (all-zero means
// unspecified).
type KernelInfo struct {
	Entry                 EntryPoint
	StaticLocalSize       uint64
	RequiredWorkGroupSize [3]uint64
	// UsesBarrier reports whether the compiled kernel calls
	// work_group_barrier, which decides whether the device must drive a
	// work-group's work-items through cooperative fibers or can run them
	// as a flat sequential loop.
	UsesBarrier bool
}

// KernelDescriptor is the immutable, per-program, per-kernel-name record
// shared by every Kernel handle created for that name: the kernel name,
// a reference back to the owning program, and a map from Device to that
// device's KernelInfo, populated lazily as the kernel is compiled for each
// device it is eventually launched on.
type KernelDescriptor struct {
	mu      sync.RWMutex
	name    string
	program *Program
	infos   map[Device]*KernelInfo
}

// Name returns the kernel's name as declared in source.
func (kd *KernelDescriptor) Name() string { return kd.name }

// Program returns the owning program.
func (kd *KernelDescriptor) Program() *Program { return kd.program }

// InfoFor returns the KernelInfo compiled for device d, if any.
func (kd *KernelDescriptor) InfoFor(d Device) (*KernelInfo, bool) {
	kd.mu.RLock()
	defer kd.mu.RUnlock()
	info, ok := kd.infos[d]
	return info, ok
}

// SetInfoFor records the compiled KernelInfo for device d.
func (kd *KernelDescriptor) SetInfoFor(d Device, info *KernelInfo) {
	kd.mu.Lock()
	defer kd.mu.Unlock()
	kd.infos[d] = info
}

// Unregister drops the cached KernelInfo for d, e.g. because the
// compiler's JIT layer for that kernel was torn down; a subsequent launch
// recompiles.
func (kd *KernelDescriptor) Unregister(d Device) {
	kd.mu.Lock()
	defer kd.mu.Unlock()
	delete(kd.infos, d)
}

// ArgKind discriminates the tagged-variant argument slot of a Kernel.
type ArgKind int

const (
	ArgUnset ArgKind = iota
	ArgBuffer
	ArgLocalSize
	ArgImage
	ArgSampler
	ArgByValue
)

// Argument is one tagged-variant argument slot.
type Argument struct {
	Kind    ArgKind
	Buffer  *Buffer
	Image   *Image
	Sampler *Sampler
	// LocalSize is the requested __local buffer size in bytes, valid when
	// Kind == ArgLocalSize.
	LocalSize uint64
	// Bytes holds the raw by-value payload, valid when Kind == ArgByValue.
	// The host trusts the size it is given: it has no way to otherwise
	// know the device-side type width (spec §4.9).
	Bytes []byte
}

// Kernel is an application-visible handle bound to a KernelDescriptor plus
// a mutable, position-indexed argument vector.
type Kernel struct {
	mu         sync.Mutex
	descriptor *KernelDescriptor
	args       []Argument
}

// NewKernel creates a kernel handle for descriptor with argCount argument
// slots, all initially unset.
func NewKernel(descriptor *KernelDescriptor, argCount int) *Kernel {
	return &Kernel{descriptor: descriptor, args: make([]Argument, argCount)}
}

// Descriptor returns the shared KernelDescriptor.
func (k *Kernel) Descriptor() *KernelDescriptor { return k.descriptor }

// NumArgs returns the number of argument slots.
func (k *Kernel) NumArgs() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.args)
}

func (k *Kernel) checkIndex(index int) error {
	if index < 0 || index >= len(k.args) {
		return NewError(KindInvalidValue, "argument index %d out of range [0,%d)", index, len(k.args))
	}
	return nil
}

// SetBufferArg binds a buffer (or nil, to clear a __global pointer slot)
// to argument index. The buffer's context must match the kernel's.
func (k *Kernel) SetBufferArg(index int, buf *Buffer) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.checkIndex(index); err != nil {
		return err
	}
	if buf != nil && buf.Context() != k.descriptor.Program().Context() {
		return NewError(KindInvalidContext, "buffer argument belongs to a different context")
	}
	k.args[index] = Argument{Kind: ArgBuffer, Buffer: buf}
	return nil
}

// SetImageArg binds an image to argument index.
func (k *Kernel) SetImageArg(index int, img *Image) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.checkIndex(index); err != nil {
		return err
	}
	if img != nil && img.Context() != k.descriptor.Program().Context() {
		return NewError(KindInvalidContext, "image argument belongs to a different context")
	}
	k.args[index] = Argument{Kind: ArgImage, Image: img}
	return nil
}

// SetSamplerArg binds a sampler to argument index.
func (k *Kernel) SetSamplerArg(index int, s *Sampler) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.checkIndex(index); err != nil {
		return err
	}
	k.args[index] = Argument{Kind: ArgSampler, Sampler: s}
	return nil
}

// SetLocalArg reserves sizeBytes of per-work-group local memory for a
// __local pointer argument.
func (k *Kernel) SetLocalArg(index int, sizeBytes uint64) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.checkIndex(index); err != nil {
		return err
	}
	if sizeBytes == 0 {
		return NewError(KindInvalidValue, "local argument size must be > 0")
	}
	k.args[index] = Argument{Kind: ArgLocalSize, LocalSize: sizeBytes}
	return nil
}

// SetValueArg binds a by-value payload (its exact device-side
// representation) to argument index.
func (k *Kernel) SetValueArg(index int, data []byte) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.checkIndex(index); err != nil {
		return err
	}
	buf := append([]byte(nil), data...)
	k.args[index] = Argument{Kind: ArgByValue, Bytes: buf}
	return nil
}

// Args returns a defensive copy of the current argument vector, and an
// error if any slot is still unset — enqueue must see a fully bound
// kernel.
func (k *Kernel) Args() ([]Argument, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]Argument, len(k.args))
	for i, a := range k.args {
		if a.Kind == ArgUnset {
			return nil, NewError(KindInvalidKernelArgs, "argument %d is unset", i)
		}
		out[i] = a
	}
	return out, nil
}
