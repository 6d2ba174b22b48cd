package core

import "sync/atomic"

// CommandKind discriminates the Command variant. A tagged enumeration
// plus one small payload struct per kind is the Go rendition of the
// "deep polymorphism over command kinds" design note: an explicit switch
// over CommandKind replaces a subclass tower.
type CommandKind int

const (
	CommandNDRangeKernel CommandKind = iota
	// CommandNDRangeKernelBlock is the internal sub-command one
	// NDRangeKernel launch fans out into: exactly one work-group, scheduled
	// and run independently of every other work-group in the same launch
	// (spec §4.7 step 4). Applications never enqueue this kind directly —
	// Device.Submit synthesizes one per work-group from a CommandNDRangeKernel
	// and aggregates their outcomes through a GroupResultRecorder.
	CommandNDRangeKernelBlock
	CommandNativeKernel
	CommandReadBuffer
	CommandWriteBuffer
	CommandCopyBuffer
	CommandFillBuffer
	CommandReadBufferRect
	CommandWriteBufferRect
	CommandCopyBufferRect
	CommandReadImage
	CommandWriteImage
	CommandCopyImage
	CommandFillImage
	CommandCopyImageToBuffer
	CommandCopyBufferToImage
	CommandMapBuffer
	CommandMapImage
	CommandUnmapMemObject
	CommandMarker
	CommandBarrier
)

func (k CommandKind) String() string {
	names := [...]string{
		"NDRangeKernel", "NDRangeKernelBlock", "NativeKernel", "ReadBuffer", "WriteBuffer", "CopyBuffer", "FillBuffer",
		"ReadBufferRect", "WriteBufferRect", "CopyBufferRect", "ReadImage", "WriteImage", "CopyImage",
		"FillImage", "CopyImageToBuffer", "CopyBufferToImage", "MapBuffer", "MapImage",
		"UnmapMemObject", "Marker", "Barrier",
	}
	if int(k) < 0 || int(k) >= len(names) {
		return "Unknown"
	}
	return names[k]
}

// Rect3 is the generic 3-D rectangular-region description shared by every
// buffer/image rect command: an origin plus a region extent, and the
// pitches needed to stride a non-contiguous source or target.
type Rect3 struct {
	Origin     [3]uint64
	Region     [3]uint64
	RowPitch   uint64
	SlicePitch uint64
}

// BufferRWPayload backs ReadBuffer/WriteBuffer.
type BufferRWPayload struct {
	Buffer *Buffer
	Offset uint64
	Size   uint64
	Host   HostMemory
}

// BufferCopyPayload backs CopyBuffer.
type BufferCopyPayload struct {
	Src, Dst           *Buffer
	SrcOffset, DstOffset uint64
	Size               uint64
}

// BufferFillPayload backs FillBuffer.
type BufferFillPayload struct {
	Buffer  *Buffer
	Pattern []byte
	Offset  uint64
	Size    uint64
}

// BufferRectPayload backs the Rect read/write/copy commands. For
// read/write, Dst/Src HostPtr is used and the other side's Rect describes
// the device-side buffer region; for copy, both sides name buffers.
type BufferRectPayload struct {
	Src, Dst         *Buffer
	SrcRect, DstRect Rect3
	Host             HostMemory
	ToHost           bool // true for reads: copies device -> Host
}

// ImageRWPayload backs ReadImage/WriteImage.
type ImageRWPayload struct {
	Image  *Image
	Region Rect3
	Host   HostMemory
}

// ImageCopyPayload backs CopyImage, CopyImageToBuffer, CopyBufferToImage.
type ImageCopyPayload struct {
	SrcImage, DstImage   *Image
	SrcBuffer, DstBuffer *Buffer
	SrcOrigin, DstOrigin [3]uint64
	Region               [3]uint64
	BufferOffset         uint64
}

// ImageFillPayload backs FillImage.
type ImageFillPayload struct {
	Image   *Image
	Pattern [4]float32
	Region  Rect3
}

// MapPayload backs MapBuffer/MapImage. Result is an output: the device
// fills it in with the mapped region, aliasing device storage directly,
// once the command completes (observable after the notify event reaches
// StatusComplete).
type MapPayload struct {
	Object *MemoryObject
	Flags  MapFlags
	Region Rect3 // for images; buffers use Region.Origin[0]/Region.Region[0]
	Result HostMemory
}

// UnmapPayload backs UnmapMemObject.
type UnmapPayload struct {
	Object  *MemoryObject
	HostPtr uintptr
}

// NDRangeKernelPayload backs NDRangeKernel.
type NDRangeKernelPayload struct {
	Kernel    *Kernel
	Dimension DimensionInfo
}

// NDRangeKernelBlockPayload backs NDRangeKernelBlock: one work-group,
// identified by its linear index into Dimension's row-major group space.
// Profile is the originating NDRangeKernel's notify event's own
// ProfileTrace — every block appends its Running/Completed samples there,
// under its own Group as SubID, so the launch's profiling is readable
// off one event (testable property 4) despite running on many workers.
// Recorder aggregates this block's outcome into that same launch.
type NDRangeKernelBlockPayload struct {
	Kernel    *Kernel
	Dimension DimensionInfo
	Group     uint64
	Profile   *ProfileTrace
	Recorder  *GroupResultRecorder
}

// GroupResultRecorder aggregates the completion of every NDRangeKernelBlock
// sub-command an NDRangeKernel launch was split into: the launch's own
// notify event only signals once every work-group has reported (spec §4.7
// step 5), carrying the first error status observed, or StatusComplete if
// every work-group succeeded.
type GroupResultRecorder struct {
	remaining int64
	failed    int32
	event     *Event
}

// noGroupFailure is the GroupResultRecorder.failed sentinel meaning "no
// work-group has reported an error yet". It is distinct from every real
// status value, which is either StatusComplete (0) or negative.
const noGroupFailure = 1

// NewGroupResultRecorder creates a recorder for a launch of the given
// work-group count, reporting into event once every group has checked in.
func NewGroupResultRecorder(groups int, event *Event) *GroupResultRecorder {
	if groups <= 0 {
		event.Signal(StatusComplete)
		return &GroupResultRecorder{event: event}
	}
	return &GroupResultRecorder{remaining: int64(groups), failed: noGroupFailure, event: event}
}

// Report records one work-group's terminal status. It is safe to call
// concurrently from every worker a launch's blocks were spread across.
// Never called for a zero-group launch: NewGroupResultRecorder signals
// that case itself, before any block exists to report back.
func (r *GroupResultRecorder) Report(status int) {
	if status < 0 {
		atomic.CompareAndSwapInt32(&r.failed, noGroupFailure, int32(status))
	}
	if atomic.AddInt64(&r.remaining, -1) == 0 {
		final := int(atomic.LoadInt32(&r.failed))
		if final == noGroupFailure {
			final = StatusComplete
		}
		r.event.Signal(final)
	}
}

// NativeKernelPayload backs NativeKernel.
type NativeKernelPayload struct {
	Func    func(args []byte)
	Args    []byte
	MemObjs []*MemoryObject
	// MemOffsets gives the byte offset within Args where each MemObjs
	// pointer must be rebound to the current device address before Func
	// runs.
	MemOffsets []int
}

// Command is the discriminated variant over every enqueueable operation.
// The queue owns the Command until its notify Event completes; Command
// holds strong references to every memory object and kernel it names for
// the Command's lifetime.
type Command struct {
	Kind     CommandKind
	Queue    *CommandQueue
	WaitList []*Event
	Blocking bool
	Event    *Event
	Payload  any
}
