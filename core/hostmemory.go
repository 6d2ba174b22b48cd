package core

import "unsafe"

// HostMemory identifies a range of host-accessible memory an application
// hands to a Read/Write/Copy-to-host command: a pointer plus a byte
// count. Keeping it an interface (rather than a bare unsafe.Pointer)
// mirrors the host-pointer abstraction used throughout this object model,
// and lets a caller hand in anything that already knows its own size —
// a pinned allocation, a slice-backed wrapper, or a cgo buffer.
type HostMemory interface {
	Pointer() unsafe.Pointer
	Size() int
}

// HostMemoryBytes reinterprets mem as a byte slice. The slice aliases the
// same memory mem.Pointer() refers to; it is the caller's responsibility
// that memory stays alive and unmoved for as long as a command holding it
// is in flight.
func HostMemoryBytes(mem HostMemory) []byte {
	if mem == nil {
		return nil
	}
	return unsafe.Slice((*byte)(mem.Pointer()), mem.Size())
}

// SliceHostMemory adapts a Go []byte to HostMemory. It is the common case:
// an application already has its data in a Go-owned slice and wants to
// read or write it directly.
type SliceHostMemory []byte

// Pointer implements HostMemory.
func (s SliceHostMemory) Pointer() unsafe.Pointer {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Pointer(&s[0])
}

// Size implements HostMemory.
func (s SliceHostMemory) Size() int { return len(s) }
