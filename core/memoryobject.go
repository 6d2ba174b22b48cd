package core

import "sync"

// MemFlags is the OpenCL-style access/host-pointer-mode bitfield used by
// buffers and images.
type MemFlags uint32

const (
	MemReadWrite MemFlags = 1 << iota
	MemWriteOnly
	MemReadOnly
	MemUseHostPtr
	MemAllocHostPtr
	MemCopyHostPtr
	MemHostWriteOnly
	MemHostReadOnly
	MemHostNoAccess
)

const (
	accessMask     = MemReadWrite | MemWriteOnly | MemReadOnly
	hostPtrMask    = MemUseHostPtr | MemAllocHostPtr | MemCopyHostPtr
	hostAccessMask = MemHostWriteOnly | MemHostReadOnly | MemHostNoAccess
)

func onePopCount(v MemFlags, mask MemFlags) bool {
	v &= mask
	return v != 0 && v&(v-1) == 0
}

// CanRead reports whether device-side reads are permitted by flags.
func (f MemFlags) CanRead() bool { return f&(MemReadOnly|MemReadWrite) != 0 || f&accessMask == 0 }

// CanWrite reports whether device-side writes are permitted by flags.
func (f MemFlags) CanWrite() bool { return f&(MemWriteOnly|MemReadWrite) != 0 || f&accessMask == 0 }

// MapFlags identifies the access mode of a Map{Buffer,Image} command.
type MapFlags uint32

const (
	MapRead MapFlags = 1 << iota
	MapWrite
	MapWriteInvalidateRegion
)

// MappingInfo is one recorded mapping: the box (offset/size vectors,
// componentwise across up to 3 coordinates) and the flags it was mapped
// with.
type MappingInfo struct {
	Offset [3]uint64
	Size   [3]uint64
	Flags  MapFlags
}

// isWrite reports whether this mapping must be treated as a write mapping
// for overlap purposes.
func (m MappingInfo) isWrite() bool {
	return m.Flags&(MapWrite|MapWriteInvalidateRegion) != 0
}

// overlaps implements the half-open-range box intersection test: two boxes
// overlap if and only if every axis interval [offset, offset+size)
// intersects. Using half-open ranges (inclusive start, exclusive end)
// avoids false positives at abutting boundaries, e.g. [0,512) and [512,1024)
// never overlap.
func (m MappingInfo) overlaps(other MappingInfo) bool {
	for i := 0; i < 3; i++ {
		aStart, aEnd := m.Offset[i], m.Offset[i]+m.Size[i]
		bStart, bEnd := other.Offset[i], other.Offset[i]+other.Size[i]
		if aEnd <= bStart || bEnd <= aStart {
			return false
		}
	}
	return true
}

// mappingEntry pairs a host pointer with the info it was mapped with; the
// mapping table is a multiset keyed by pointer, matching the std::unordered_multimap
// the source uses (a buffer can be read-mapped more than once at overlapping
// regions).
type mappingEntry struct {
	ptr  uintptr
	info MappingInfo
}

// ObjectKind distinguishes the two concrete MemoryObject variants.
type ObjectKind int

const (
	ObjectBuffer ObjectKind = iota
	ObjectImage
)

// MemoryObject is the state shared by Buffer and Image: owning context,
// size, optional host pointer, access flags, optional parent (for
// sub-buffers and image-from-buffer), and the mapping table.
type MemoryObject struct {
	mu sync.Mutex

	kind    ObjectKind
	context *Context
	size    uint64
	hostPtr uintptr
	flags   MemFlags

	parent       *MemoryObject
	parentOffset uint64

	mappings []mappingEntry

	// backing is the device-specific storage handle for this object (for
	// the cpu device, a []byte slice of its GlobalMemory pool). It is
	// opaque to core for the same reason EntryPoint is: only the device
	// that allocated it knows its concrete type.
	backing any

	// attachedImages holds weak (non-owning) back-references to images
	// created over this buffer (image-from-buffer). Entries are removed
	// when the image itself is destroyed, breaking the Buffer<->Image
	// reference cycle per the ownership/back-reference design note.
	attachedImages []*MemoryObject
}

// newMemoryObject validates the common construction invariants: access
// flags must pick exactly one of {ReadWrite, WriteOnly, ReadOnly} (or
// none, defaulting to ReadWrite), and host-pointer-mode flags must pick at
// most one of {UseHostPtr, AllocHostPtr, CopyHostPtr}.
func newMemoryObject(kind ObjectKind, ctx *Context, size uint64, hostPtr uintptr, flags MemFlags, parent *MemoryObject, parentOffset uint64) (*MemoryObject, error) {
	if flags&accessMask != 0 && !onePopCount(flags, accessMask) {
		return nil, NewError(KindInvalidValue, "access flags must select at most one of ReadWrite/WriteOnly/ReadOnly")
	}
	if flags&hostPtrMask != 0 && !onePopCount(flags, hostPtrMask) {
		return nil, NewError(KindInvalidValue, "host pointer mode flags are mutually exclusive")
	}
	if flags&hostAccessMask != 0 && !onePopCount(flags, hostAccessMask) {
		return nil, NewError(KindInvalidValue, "host access flags are mutually exclusive")
	}
	if flags&(MemUseHostPtr|MemCopyHostPtr) != 0 && hostPtr == 0 {
		return nil, NewError(KindInvalidValue, "host_ptr required for UseHostPtr/CopyHostPtr")
	}
	return &MemoryObject{
		kind:         kind,
		context:      ctx,
		size:         size,
		hostPtr:      hostPtr,
		flags:        flags,
		parent:       parent,
		parentOffset: parentOffset,
	}, nil
}

// Kind returns the concrete variant of this object.
func (m *MemoryObject) Kind() ObjectKind { return m.kind }

// Context returns the owning context.
func (m *MemoryObject) Context() *Context { return m.context }

// Size returns the byte size of the object.
func (m *MemoryObject) Size() uint64 { return m.size }

// Flags returns the access/host-pointer-mode flags.
func (m *MemoryObject) Flags() MemFlags { return m.flags }

// HostPtr returns the pinned/allocated host pointer, or 0 if none.
func (m *MemoryObject) HostPtr() uintptr { return m.hostPtr }

// Parent returns the parent object for a sub-buffer or image-from-buffer,
// or nil for a root object.
func (m *MemoryObject) Parent() *MemoryObject { return m.parent }

// ParentOffset returns the byte offset into Parent(), meaningful only when
// Parent() is non-nil.
func (m *MemoryObject) ParentOffset() uint64 { return m.parentOffset }

// Backing returns the device-specific storage handle previously recorded
// with SetBacking, or nil if the object has not been realized on any
// device yet.
func (m *MemoryObject) Backing() any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.backing
}

// SetBacking records the device-specific storage handle for this object.
// Called once, by whichever device first allocates storage for it.
func (m *MemoryObject) SetBacking(b any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backing = b
}

// resolveMappingTarget walks to the object whose mapping table should
// actually record this mapping: a sub-buffer (or image-over-buffer)
// delegates to its parent, with the offset biased by its own origin.
func (m *MemoryObject) resolveMappingTarget(info MappingInfo) (*MemoryObject, MappingInfo) {
	if m.parent == nil {
		return m, info
	}
	biased := info
	biased.Offset[0] += m.parentOffset
	return m.parent.resolveMappingTarget(biased)
}

// AddMapping records a new mapping at host pointer ptr. Write (or
// write-invalidate-region) mappings are rejected if ptr already maps the
// object, or if the requested box intersects any existing write-mapping's
// box. Read-only mappings are inserted unconditionally, since reads may
// overlap each other and may overlap the mapped-for-read regions of other
// readers.
func (m *MemoryObject) AddMapping(ptr uintptr, info MappingInfo) error {
	target, resolved := m.resolveMappingTarget(info)
	target.mu.Lock()
	defer target.mu.Unlock()

	if resolved.isWrite() {
		for _, entry := range target.mappings {
			if entry.ptr == ptr {
				return NewError(KindInvalidValue, "pointer already mapped")
			}
			if entry.info.isWrite() && entry.info.overlaps(resolved) {
				return NewError(KindInvalidValue, "write mapping overlaps an existing write mapping")
			}
		}
	}
	target.mappings = append(target.mappings, mappingEntry{ptr: ptr, info: resolved})
	return nil
}

// RemoveMapping erases one entry with the given pointer. It is an error to
// call this for a pointer that was never mapped.
func (m *MemoryObject) RemoveMapping(ptr uintptr) error {
	target, _ := m.resolveMappingTarget(MappingInfo{})
	target.mu.Lock()
	defer target.mu.Unlock()
	for i, entry := range target.mappings {
		if entry.ptr == ptr {
			target.mappings = append(target.mappings[:i], target.mappings[i+1:]...)
			return nil
		}
	}
	return NewError(KindInvalidValue, "pointer is not a valid mapping of this object")
}

// IsValidMapping reports multiset membership: whether ptr currently maps
// this object (or, for a sub-object, its resolved parent).
func (m *MemoryObject) IsValidMapping(ptr uintptr) bool {
	target, _ := m.resolveMappingTarget(MappingInfo{})
	target.mu.Lock()
	defer target.mu.Unlock()
	for _, entry := range target.mappings {
		if entry.ptr == ptr {
			return true
		}
	}
	return false
}

// NumMappings returns the number of currently registered mappings.
func (m *MemoryObject) NumMappings() int {
	target, _ := m.resolveMappingTarget(MappingInfo{})
	target.mu.Lock()
	defer target.mu.Unlock()
	return len(target.mappings)
}

// attachImage records a non-owning back-reference from a buffer to an
// image created over it (image-from-buffer).
func (m *MemoryObject) attachImage(img *MemoryObject) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attachedImages = append(m.attachedImages, img)
}

// detachImage removes the back-reference, called when the image itself is
// released, breaking the ownership cycle described in the design notes.
func (m *MemoryObject) detachImage(img *MemoryObject) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, attached := range m.attachedImages {
		if attached == img {
			m.attachedImages = append(m.attachedImages[:i], m.attachedImages[i+1:]...)
			return
		}
	}
}
