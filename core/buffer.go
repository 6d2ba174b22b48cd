package core

// Buffer is a linear memory object, optionally a sub-buffer of another
// Buffer.
type Buffer struct {
	*MemoryObject
}

// NewBuffer creates a root buffer of the given byte size.
func NewBuffer(ctx *Context, size uint64, hostPtr uintptr, flags MemFlags) (*Buffer, error) {
	if size == 0 {
		return nil, NewError(KindInvalidValue, "buffer size must be > 0")
	}
	obj, err := newMemoryObject(ObjectBuffer, ctx, size, hostPtr, flags, nil, 0)
	if err != nil {
		return nil, err
	}
	return &Buffer{MemoryObject: obj}, nil
}

// BufferRegion describes a sub-buffer's origin and size, both in bytes,
// relative to the parent buffer.
type BufferRegion struct {
	Origin uint64
	Size   uint64
}

// NewSubBuffer creates a sub-buffer view of parent. The region must lie
// entirely within the parent's bounds. A sub-buffer's host pointer (when
// the parent has one) is offset into the parent's.
func NewSubBuffer(parent *Buffer, flags MemFlags, region BufferRegion) (*Buffer, error) {
	if region.Size == 0 {
		return nil, NewError(KindInvalidValue, "sub-buffer size must be > 0")
	}
	if region.Origin+region.Size > parent.Size() {
		return nil, NewError(KindInvalidValue, "sub-buffer region exceeds parent bounds")
	}
	var hostPtr uintptr
	if parent.HostPtr() != 0 {
		hostPtr = parent.HostPtr() + uintptr(region.Origin)
	}
	obj, err := newMemoryObject(ObjectBuffer, parent.Context(), region.Size, hostPtr, flags, parent.MemoryObject, region.Origin)
	if err != nil {
		return nil, err
	}
	return &Buffer{MemoryObject: obj}, nil
}

// IsSubBuffer reports whether this buffer is a view of another buffer.
func (b *Buffer) IsSubBuffer() bool { return b.Parent() != nil }

// Origin returns the byte offset into the parent buffer (only meaningful
// when IsSubBuffer is true).
func (b *Buffer) Origin() uint64 { return b.ParentOffset() }
