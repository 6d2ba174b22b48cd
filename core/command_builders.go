package core

// checkWaitList enforces the wait-list consistency rule: an empty list is
// fine, but a non-empty one is only meaningful when every listed event
// exists (callers pass a Go slice, so nil-entry checking is the only
// residual concern) and, for blocking commands, none of them has already
// signalled an error — builders fail fast rather than let the queue
// discover it later.
func checkWaitList(waitList []*Event, blocking bool) error {
	for _, ev := range waitList {
		if ev == nil {
			return NewError(KindInvalidValue, "wait-list contains a nil event")
		}
	}
	if blocking && AnyError(waitList) {
		return WaitListError()
	}
	return nil
}

// CommandBuilder is a fluent parameter-collection object: each With*
// setter either records a field or latches the first validation failure,
// so a chain of setters can be written without checking every
// intermediate error; Create() surfaces the latched error, if any.
type CommandBuilder struct {
	queue    *CommandQueue
	waitList []*Event
	blocking bool
	err      error
}

// NewCommandBuilder starts a builder bound to a queue.
func NewCommandBuilder(queue *CommandQueue) *CommandBuilder {
	return &CommandBuilder{queue: queue}
}

// WithWaitList records the command's wait-list.
func (b *CommandBuilder) WithWaitList(events []*Event) *CommandBuilder {
	if b.err == nil {
		b.err = checkWaitList(events, b.blocking)
	}
	b.waitList = events
	return b
}

// WithBlocking marks the command as blocking and re-validates the
// wait-list against that now-known fact.
func (b *CommandBuilder) WithBlocking(blocking bool) *CommandBuilder {
	b.blocking = blocking
	if b.err == nil {
		b.err = checkWaitList(b.waitList, blocking)
	}
	return b
}

func (b *CommandBuilder) fail(err error) *CommandBuilder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// build finalizes a Command of the given kind and payload, provided no
// setter latched an error.
func (b *CommandBuilder) build(kind CommandKind, payload any) (*Command, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &Command{
		Kind:     kind,
		Queue:    b.queue,
		WaitList: b.waitList,
		Blocking: b.blocking,
		Payload:  payload,
	}, nil
}

func checkBufferBounds(buf *Buffer, offset, size uint64) error {
	if offset+size > buf.Size() {
		return NewError(KindInvalidValue, "offset+size %d exceeds buffer size %d", offset+size, buf.Size())
	}
	return nil
}

// NewReadBufferCommand validates and builds a ReadBuffer command. Bounds
// are relative to the buffer itself — a sub-buffer's bounds are already
// relative to its own origin, not the parent's, since Buffer.Size()
// reports the sub-buffer's size.
func (b *CommandBuilder) NewReadBufferCommand(buf *Buffer, offset, size uint64, host HostMemory) (*Command, error) {
	if err := checkBufferBounds(buf, offset, size); err != nil {
		return nil, b.fail(err).err
	}
	return b.build(CommandReadBuffer, &BufferRWPayload{Buffer: buf, Offset: offset, Size: size, Host: host})
}

// NewWriteBufferCommand validates and builds a WriteBuffer command.
func (b *CommandBuilder) NewWriteBufferCommand(buf *Buffer, offset, size uint64, host HostMemory) (*Command, error) {
	if err := checkBufferBounds(buf, offset, size); err != nil {
		return nil, b.fail(err).err
	}
	return b.build(CommandWriteBuffer, &BufferRWPayload{Buffer: buf, Offset: offset, Size: size, Host: host})
}

// NewCopyBufferCommand validates and builds a CopyBuffer command.
func (b *CommandBuilder) NewCopyBufferCommand(src, dst *Buffer, srcOffset, dstOffset, size uint64) (*Command, error) {
	if err := checkBufferBounds(src, srcOffset, size); err != nil {
		return nil, b.fail(err).err
	}
	if err := checkBufferBounds(dst, dstOffset, size); err != nil {
		return nil, b.fail(err).err
	}
	if src == dst {
		srcEnd, dstEnd := srcOffset+size, dstOffset+size
		if srcOffset < dstEnd && dstOffset < srcEnd {
			return nil, b.fail(NewError(KindInvalidValue, "copy source/destination regions overlap")).err
		}
	}
	return b.build(CommandCopyBuffer, &BufferCopyPayload{Src: src, Dst: dst, SrcOffset: srcOffset, DstOffset: dstOffset, Size: size})
}

// NewFillBufferCommand validates and builds a FillBuffer command.
func (b *CommandBuilder) NewFillBufferCommand(buf *Buffer, pattern []byte, offset, size uint64) (*Command, error) {
	if len(pattern) == 0 {
		return nil, b.fail(NewError(KindInvalidValue, "fill pattern must not be empty")).err
	}
	if size%uint64(len(pattern)) != 0 {
		return nil, b.fail(NewError(KindInvalidValue, "fill size must be a multiple of the pattern size")).err
	}
	if err := checkBufferBounds(buf, offset, size); err != nil {
		return nil, b.fail(err).err
	}
	return b.build(CommandFillBuffer, &BufferFillPayload{Buffer: buf, Pattern: pattern, Offset: offset, Size: size})
}

func checkRect(rect Rect3, bounds [3]uint64, elemSize uint64) error {
	for i := 0; i < 3; i++ {
		if rect.Origin[i]+rect.Region[i] > bounds[i] {
			return NewError(KindInvalidValue, "rect origin+region exceeds bounds on axis %d", i)
		}
	}
	if rect.RowPitch < rect.Region[0]*elemSize {
		return NewError(KindInvalidValue, "row pitch smaller than region width")
	}
	if rect.SlicePitch < rect.RowPitch*rect.Region[1] {
		return NewError(KindInvalidValue, "slice pitch smaller than row_pitch*region height")
	}
	return nil
}

// NewReadBufferRectCommand validates and builds a ReadBufferRect command.
// bufferBounds is the logical [x,y,z] extent of the buffer used only for
// the bounds check (a linear buffer is treated as a 1-D x axis of its
// byte size with y=z=1, scaled by the caller's own row/slice pitch
// convention).
func (b *CommandBuilder) NewReadBufferRectCommand(src *Buffer, srcRect Rect3, dst HostMemory, dstRect Rect3, bufferBounds [3]uint64) (*Command, error) {
	if err := checkRect(srcRect, bufferBounds, 1); err != nil {
		return nil, b.fail(err).err
	}
	return b.build(CommandReadBufferRect, &BufferRectPayload{Src: src, SrcRect: srcRect, DstRect: dstRect, Host: dst, ToHost: true})
}

// NewWriteBufferRectCommand validates and builds a WriteBufferRect command.
func (b *CommandBuilder) NewWriteBufferRectCommand(dst *Buffer, dstRect Rect3, src HostMemory, srcRect Rect3, bufferBounds [3]uint64) (*Command, error) {
	if err := checkRect(dstRect, bufferBounds, 1); err != nil {
		return nil, b.fail(err).err
	}
	return b.build(CommandWriteBufferRect, &BufferRectPayload{Dst: dst, DstRect: dstRect, SrcRect: srcRect, Host: src, ToHost: false})
}

// NewCopyBufferRectCommand validates and builds a CopyBufferRect command;
// source and target boxes must not overlap when both sides alias the same
// buffer.
func (b *CommandBuilder) NewCopyBufferRectCommand(src *Buffer, srcRect Rect3, dst *Buffer, dstRect Rect3, srcBounds, dstBounds [3]uint64) (*Command, error) {
	if err := checkRect(srcRect, srcBounds, 1); err != nil {
		return nil, b.fail(err).err
	}
	if err := checkRect(dstRect, dstBounds, 1); err != nil {
		return nil, b.fail(err).err
	}
	if src == dst {
		srcBox := MappingInfo{Offset: srcRect.Origin, Size: srcRect.Region}
		dstBox := MappingInfo{Offset: dstRect.Origin, Size: dstRect.Region}
		if srcBox.overlaps(dstBox) {
			return nil, b.fail(NewError(KindInvalidValue, "copy-rect source/destination regions overlap")).err
		}
	}
	return b.build(CommandCopyBufferRect, &BufferRectPayload{Src: src, SrcRect: srcRect, Dst: dst, DstRect: dstRect})
}

func checkImageRegion(img *Image, origin, region [3]uint64) error {
	desc := img.Descriptor()
	bounds := [3]uint64{desc.Width, maxU64(desc.Height, 1), maxU64(desc.Depth, 1)}
	if desc.Type == Image1DArray {
		bounds[1] = maxU64(desc.ArraySize, 1)
	}
	if desc.Type == Image2DArray {
		bounds[2] = maxU64(desc.ArraySize, 1)
	}
	for i := 0; i < 3; i++ {
		if origin[i]+region[i] > bounds[i] {
			return NewError(KindInvalidValue, "image region exceeds bounds on axis %d", i)
		}
	}
	return nil
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

// NewReadImageCommand validates and builds a ReadImage command.
func (b *CommandBuilder) NewReadImageCommand(img *Image, region Rect3, host HostMemory) (*Command, error) {
	if err := checkImageRegion(img, region.Origin, region.Region); err != nil {
		return nil, b.fail(err).err
	}
	return b.build(CommandReadImage, &ImageRWPayload{Image: img, Region: region, Host: host})
}

// NewWriteImageCommand validates and builds a WriteImage command.
func (b *CommandBuilder) NewWriteImageCommand(img *Image, region Rect3, host HostMemory) (*Command, error) {
	if err := checkImageRegion(img, region.Origin, region.Region); err != nil {
		return nil, b.fail(err).err
	}
	return b.build(CommandWriteImage, &ImageRWPayload{Image: img, Region: region, Host: host})
}

// NewCopyImageCommand validates and builds a CopyImage command; src and
// dst must share the same element size (OpenCL requires identical image
// channel order/type for clEnqueueCopyImage).
func (b *CommandBuilder) NewCopyImageCommand(src, dst *Image, srcOrigin, dstOrigin, region [3]uint64) (*Command, error) {
	if err := checkImageRegion(src, srcOrigin, region); err != nil {
		return nil, b.fail(err).err
	}
	if err := checkImageRegion(dst, dstOrigin, region); err != nil {
		return nil, b.fail(err).err
	}
	if src.ElementSize() != dst.ElementSize() {
		return nil, b.fail(NewError(KindInvalidImageDescriptor, "copy requires matching element size")).err
	}
	return b.build(CommandCopyImage, &ImageCopyPayload{SrcImage: src, DstImage: dst, SrcOrigin: srcOrigin, DstOrigin: dstOrigin, Region: region})
}

// NewFillImageCommand validates and builds a FillImage command.
func (b *CommandBuilder) NewFillImageCommand(img *Image, pattern [4]float32, region Rect3) (*Command, error) {
	if err := checkImageRegion(img, region.Origin, region.Region); err != nil {
		return nil, b.fail(err).err
	}
	return b.build(CommandFillImage, &ImageFillPayload{Image: img, Pattern: pattern, Region: region})
}

// NewCopyImageToBufferCommand validates and builds a CopyImageToBuffer
// command.
func (b *CommandBuilder) NewCopyImageToBufferCommand(src *Image, srcOrigin, region [3]uint64, dst *Buffer, dstOffset uint64) (*Command, error) {
	if err := checkImageRegion(src, srcOrigin, region); err != nil {
		return nil, b.fail(err).err
	}
	size := region[0] * maxU64(region[1], 1) * maxU64(region[2], 1) * uint64(src.ElementSize())
	if err := checkBufferBounds(dst, dstOffset, size); err != nil {
		return nil, b.fail(err).err
	}
	return b.build(CommandCopyImageToBuffer, &ImageCopyPayload{SrcImage: src, DstBuffer: dst, SrcOrigin: srcOrigin, Region: region, BufferOffset: dstOffset})
}

// NewCopyBufferToImageCommand validates and builds a CopyBufferToImage
// command.
func (b *CommandBuilder) NewCopyBufferToImageCommand(src *Buffer, srcOffset uint64, dst *Image, dstOrigin, region [3]uint64) (*Command, error) {
	if err := checkImageRegion(dst, dstOrigin, region); err != nil {
		return nil, b.fail(err).err
	}
	size := region[0] * maxU64(region[1], 1) * maxU64(region[2], 1) * uint64(dst.ElementSize())
	if err := checkBufferBounds(src, srcOffset, size); err != nil {
		return nil, b.fail(err).err
	}
	return b.build(CommandCopyBufferToImage, &ImageCopyPayload{SrcBuffer: src, DstImage: dst, DstOrigin: dstOrigin, Region: region, BufferOffset: srcOffset})
}

// NewMapBufferCommand validates map flags against the buffer's
// host-access protection and builds a MapBuffer command.
func (b *CommandBuilder) NewMapBufferCommand(buf *Buffer, flags MapFlags, offset, size uint64) (*Command, error) {
	if err := checkMapFlags(buf.MemoryObject, flags); err != nil {
		return nil, b.fail(err).err
	}
	if err := checkBufferBounds(buf, offset, size); err != nil {
		return nil, b.fail(err).err
	}
	rect := Rect3{Origin: [3]uint64{offset, 0, 0}, Region: [3]uint64{size, 1, 1}}
	return b.build(CommandMapBuffer, &MapPayload{Object: buf.MemoryObject, Flags: flags, Region: rect})
}

// NewMapImageCommand validates map flags and builds a MapImage command.
func (b *CommandBuilder) NewMapImageCommand(img *Image, flags MapFlags, region Rect3) (*Command, error) {
	if err := checkMapFlags(img.MemoryObject, flags); err != nil {
		return nil, b.fail(err).err
	}
	return b.build(CommandMapImage, &MapPayload{Object: img.MemoryObject, Flags: flags, Region: region})
}

// checkMapFlags validates READ/WRITE/WRITE_INVALIDATE_REGION combinations:
// WRITE_INVALIDATE_REGION is mutually exclusive with READ and WRITE, and
// the requested access must be permitted by the object's host-access
// protection flags.
func checkMapFlags(obj *MemoryObject, flags MapFlags) error {
	if flags&MapWriteInvalidateRegion != 0 && flags&(MapRead|MapWrite) != 0 {
		return NewError(KindInvalidValue, "WRITE_INVALIDATE_REGION is mutually exclusive with READ/WRITE")
	}
	if flags&MapRead != 0 && obj.Flags()&MemHostNoAccess != 0 {
		return NewError(KindInvalidValue, "object has no host read access")
	}
	if flags&MapRead != 0 && obj.Flags()&MemHostWriteOnly != 0 {
		return NewError(KindInvalidValue, "object is host write-only")
	}
	if flags&(MapWrite|MapWriteInvalidateRegion) != 0 && obj.Flags()&MemHostNoAccess != 0 {
		return NewError(KindInvalidValue, "object has no host write access")
	}
	if flags&(MapWrite|MapWriteInvalidateRegion) != 0 && obj.Flags()&MemHostReadOnly != 0 {
		return NewError(KindInvalidValue, "object is host read-only")
	}
	return nil
}

// NewUnmapCommand builds an UnmapMemObject command. Validity of ptr as a
// current mapping of obj is checked at execution time against the live
// mapping table, not here, since the builder has no mutation rights.
func (b *CommandBuilder) NewUnmapCommand(obj *MemoryObject, ptr uintptr) (*Command, error) {
	return b.build(CommandUnmapMemObject, &UnmapPayload{Object: obj, HostPtr: ptr})
}

// NewMarkerCommand builds a Marker command: a no-op notify point that
// completes once its wait-list does.
func (b *CommandBuilder) NewMarkerCommand() (*Command, error) {
	return b.build(CommandMarker, nil)
}

// NewBarrierCommand builds a Barrier command: like Marker, but additionally
// gates every command enqueued after it behind the barrier's completion
// (the queue, not the builder, enforces that gating).
func (b *CommandBuilder) NewBarrierCommand() (*Command, error) {
	return b.build(CommandBarrier, nil)
}

// NewNDRangeKernelCommand validates launch geometry against device limits
// and a kernel's required work-group size, then builds an NDRangeKernel
// command.
func (b *CommandBuilder) NewNDRangeKernelCommand(kernel *Kernel, dim DimensionInfo, device Device) (*Command, error) {
	info := device.Info()
	if dim.WorkDim > info.MaxWorkItemDimensions {
		return nil, b.fail(NewError(KindInvalidWorkSize, "work_dim %d exceeds device maximum %d", dim.WorkDim, info.MaxWorkItemDimensions)).err
	}
	if dim.HasLocalSize() {
		product := uint64(1)
		for i := uint32(0); i < dim.WorkDim; i++ {
			if dim.LocalSize[i] > info.MaxWorkItemSizes[i] {
				return nil, b.fail(NewError(KindInvalidWorkSize, "local_work_size[%d]=%d exceeds device maximum %d", i, dim.LocalSize[i], info.MaxWorkItemSizes[i])).err
			}
			product *= dim.LocalSize[i]
		}
		if product > info.MaxWorkGroupSize {
			return nil, b.fail(NewError(KindInvalidWorkSize, "work-group size %d exceeds device maximum %d", product, info.MaxWorkGroupSize)).err
		}
		if kernelInfo, ok := kernel.Descriptor().InfoFor(device); ok {
			required := kernelInfo.RequiredWorkGroupSize
			if required[0] != 0 || required[1] != 0 || required[2] != 0 {
				for i := uint32(0); i < dim.WorkDim; i++ {
					if dim.LocalSize[i] != required[i] {
						return nil, b.fail(NewError(KindInvalidWorkSize, "local_work_size does not match kernel's required_work_group_size")).err
					}
				}
			}
		}
	}
	if _, err := kernel.Args(); err != nil {
		return nil, b.fail(err).err
	}
	return b.build(CommandNDRangeKernel, &NDRangeKernelPayload{Kernel: kernel, Dimension: dim})
}

// NewNativeKernelCommand builds a NativeKernel command.
func (b *CommandBuilder) NewNativeKernelCommand(fn func(args []byte), args []byte, memObjs []*MemoryObject, memOffsets []int) (*Command, error) {
	if len(memObjs) != len(memOffsets) {
		return nil, b.fail(NewError(KindInvalidValue, "memObjs and memOffsets must have the same length")).err
	}
	return b.build(CommandNativeKernel, &NativeKernelPayload{Func: fn, Args: args, MemObjs: memObjs, MemOffsets: memOffsets})
}
