package cpu

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/opencrun-go/opencrun/core"
	"github.com/opencrun-go/opencrun/ir"
)

// execute runs one command to completion on the calling worker goroutine
// and signals its notify event. It never returns an error: any failure is
// reported by signalling a negative status on the command's event, the
// same channel a blocked Enqueue caller or a downstream wait-list consumer
// already watches.
func (w *Worker) execute(cmd *core.Command) {
	ev := cmd.Event
	ev.Profile.Append(core.ProfileSample{Label: core.ProfileRunning, SubID: -1, NanoTime: nowNano()})

	var err error
	switch cmd.Kind {
	case core.CommandReadBuffer:
		err = w.execReadBuffer(cmd.Payload.(*core.BufferRWPayload))
	case core.CommandWriteBuffer:
		err = w.execWriteBuffer(cmd.Payload.(*core.BufferRWPayload))
	case core.CommandCopyBuffer:
		err = w.execCopyBuffer(cmd.Payload.(*core.BufferCopyPayload))
	case core.CommandFillBuffer:
		err = w.execFillBuffer(cmd.Payload.(*core.BufferFillPayload))
	case core.CommandReadBufferRect, core.CommandWriteBufferRect, core.CommandCopyBufferRect:
		err = w.execBufferRect(cmd.Kind, cmd.Payload.(*core.BufferRectPayload))
	case core.CommandReadImage:
		err = w.execReadImage(cmd.Payload.(*core.ImageRWPayload))
	case core.CommandWriteImage:
		err = w.execWriteImage(cmd.Payload.(*core.ImageRWPayload))
	case core.CommandCopyImage, core.CommandCopyImageToBuffer, core.CommandCopyBufferToImage:
		err = w.execImageCopy(cmd.Kind, cmd.Payload.(*core.ImageCopyPayload))
	case core.CommandFillImage:
		err = w.execFillImage(cmd.Payload.(*core.ImageFillPayload))
	case core.CommandMapBuffer, core.CommandMapImage:
		err = w.execMap(cmd.Payload.(*core.MapPayload))
	case core.CommandUnmapMemObject:
		err = w.execUnmap(cmd.Payload.(*core.UnmapPayload))
	case core.CommandMarker, core.CommandBarrier:
		// No-op: the command exists purely as a synchronization point.
	case core.CommandNDRangeKernelBlock:
		err = w.execNDRangeKernelBlock(cmd)
	case core.CommandNativeKernel:
		err = w.execNativeKernel(cmd.Payload.(*core.NativeKernelPayload))
	default:
		err = core.NewError(core.KindInvalidValue, "unsupported command kind %s", cmd.Kind)
	}

	ev.Profile.Append(core.ProfileSample{Label: core.ProfileCompleted, SubID: -1, NanoTime: nowNano()})
	if err != nil {
		w.log.WithError(err).WithField("command", cmd.Kind.String()).Warn("command failed")
		ev.Signal(-1)
		return
	}
	ev.Signal(core.StatusComplete)
}

var nowNano = func() int64 { return time.Now().UnixNano() }

func (w *Worker) execReadBuffer(p *core.BufferRWPayload) error {
	src := resolveBacking(w.global, p.Buffer.MemoryObject)
	copy(core.HostMemoryBytes(p.Host), src[p.Offset:p.Offset+p.Size])
	return nil
}

func (w *Worker) execWriteBuffer(p *core.BufferRWPayload) error {
	dst := resolveBacking(w.global, p.Buffer.MemoryObject)
	copy(dst[p.Offset:p.Offset+p.Size], core.HostMemoryBytes(p.Host))
	return nil
}

func (w *Worker) execCopyBuffer(p *core.BufferCopyPayload) error {
	src := resolveBacking(w.global, p.Src.MemoryObject)
	dst := resolveBacking(w.global, p.Dst.MemoryObject)
	copy(dst[p.DstOffset:p.DstOffset+p.Size], src[p.SrcOffset:p.SrcOffset+p.Size])
	return nil
}

func (w *Worker) execFillBuffer(p *core.BufferFillPayload) error {
	dst := resolveBacking(w.global, p.Buffer.MemoryObject)
	region := dst[p.Offset : p.Offset+p.Size]
	for i := range region {
		region[i] = p.Pattern[i%len(p.Pattern)]
	}
	return nil
}

func (w *Worker) execBufferRect(kind core.CommandKind, p *core.BufferRectPayload) error {
	switch kind {
	case core.CommandReadBufferRect:
		src := resolveBacking(w.global, p.Src.MemoryObject)
		copyRect(core.HostMemoryBytes(p.Host), p.DstRect, src, p.SrcRect)
	case core.CommandWriteBufferRect:
		dst := resolveBacking(w.global, p.Dst.MemoryObject)
		copyRect(dst, p.DstRect, core.HostMemoryBytes(p.Host), p.SrcRect)
	case core.CommandCopyBufferRect:
		src := resolveBacking(w.global, p.Src.MemoryObject)
		dst := resolveBacking(w.global, p.Dst.MemoryObject)
		copyRect(dst, p.DstRect, src, p.SrcRect)
	}
	return nil
}

// copyRect walks a 3-D region row by row, honoring each side's own pitch.
func copyRect(dst []byte, dstRect core.Rect3, src []byte, srcRect core.Rect3) {
	region := dstRect.Region
	for z := uint64(0); z < maxOne(region[2]); z++ {
		for y := uint64(0); y < maxOne(region[1]); y++ {
			srcOff := (srcRect.Origin[2]+z)*srcRect.SlicePitch + (srcRect.Origin[1]+y)*srcRect.RowPitch + srcRect.Origin[0]
			dstOff := (dstRect.Origin[2]+z)*dstRect.SlicePitch + (dstRect.Origin[1]+y)*dstRect.RowPitch + dstRect.Origin[0]
			n := region[0]
			copy(dst[dstOff:dstOff+n], src[srcOff:srcOff+n])
		}
	}
}

func maxOne(v uint64) uint64 {
	if v == 0 {
		return 1
	}
	return v
}

func (w *Worker) execReadImage(p *core.ImageRWPayload) error {
	src := resolveBacking(w.global, p.Image.MemoryObject)
	copyImageRegion(core.HostMemoryBytes(p.Host), nil, src, p.Image, p.Region, true)
	return nil
}

func (w *Worker) execWriteImage(p *core.ImageRWPayload) error {
	dst := resolveBacking(w.global, p.Image.MemoryObject)
	copyImageRegion(nil, dst, core.HostMemoryBytes(p.Host), p.Image, p.Region, false)
	return nil
}

// copyImageRegion walks an image region pixel-row by pixel-row using the
// image's own pitch/element-size, transferring to hostDst (toHost) or from
// hostOrDeviceSrc into deviceDst otherwise.
func copyImageRegion(hostDst, deviceDst []byte, src []byte, img *core.Image, region core.Rect3, toHost bool) {
	elem := uint64(img.ElementSize())
	rows := maxOne(region.Region[1])
	slices := maxOne(region.Region[2])
	rowBytes := region.Region[0] * elem
	for z := uint64(0); z < slices; z++ {
		for y := uint64(0); y < rows; y++ {
			srcOff := img.ByteOffset([3]uint64{region.Origin[0], region.Origin[1] + y, region.Origin[2] + z})
			hostOff := z*rowBytes*rows + y*rowBytes
			if toHost {
				copy(hostDst[hostOff:hostOff+rowBytes], src[srcOff:srcOff+rowBytes])
			} else {
				copy(deviceDst[srcOff:srcOff+rowBytes], src[hostOff:hostOff+rowBytes])
			}
		}
	}
}

func (w *Worker) execImageCopy(kind core.CommandKind, p *core.ImageCopyPayload) error {
	switch kind {
	case core.CommandCopyImage:
		src := resolveBacking(w.global, p.SrcImage.MemoryObject)
		dst := resolveBacking(w.global, p.DstImage.MemoryObject)
		elem := uint64(p.SrcImage.ElementSize())
		rows := maxOne(p.Region[1])
		slices := maxOne(p.Region[2])
		rowBytes := p.Region[0] * elem
		for z := uint64(0); z < slices; z++ {
			for y := uint64(0); y < rows; y++ {
				srcOff := p.SrcImage.ByteOffset([3]uint64{p.SrcOrigin[0], p.SrcOrigin[1] + y, p.SrcOrigin[2] + z})
				dstOff := p.DstImage.ByteOffset([3]uint64{p.DstOrigin[0], p.DstOrigin[1] + y, p.DstOrigin[2] + z})
				copy(dst[dstOff:dstOff+rowBytes], src[srcOff:srcOff+rowBytes])
			}
		}
	case core.CommandCopyImageToBuffer:
		src := resolveBacking(w.global, p.SrcImage.MemoryObject)
		dst := resolveBacking(w.global, p.DstBuffer.MemoryObject)
		elem := uint64(p.SrcImage.ElementSize())
		rowBytes := p.Region[0] * elem
		rows := maxOne(p.Region[1])
		slices := maxOne(p.Region[2])
		bufOff := p.BufferOffset
		for z := uint64(0); z < slices; z++ {
			for y := uint64(0); y < rows; y++ {
				srcOff := p.SrcImage.ByteOffset([3]uint64{p.SrcOrigin[0], p.SrcOrigin[1] + y, p.SrcOrigin[2] + z})
				copy(dst[bufOff:bufOff+rowBytes], src[srcOff:srcOff+rowBytes])
				bufOff += rowBytes
			}
		}
	case core.CommandCopyBufferToImage:
		src := resolveBacking(w.global, p.SrcBuffer.MemoryObject)
		dst := resolveBacking(w.global, p.DstImage.MemoryObject)
		elem := uint64(p.DstImage.ElementSize())
		rowBytes := p.Region[0] * elem
		rows := maxOne(p.Region[1])
		slices := maxOne(p.Region[2])
		bufOff := p.BufferOffset
		for z := uint64(0); z < slices; z++ {
			for y := uint64(0); y < rows; y++ {
				dstOff := p.DstImage.ByteOffset([3]uint64{p.DstOrigin[0], p.DstOrigin[1] + y, p.DstOrigin[2] + z})
				copy(dst[dstOff:dstOff+rowBytes], src[bufOff:bufOff+rowBytes])
				bufOff += rowBytes
			}
		}
	}
	return nil
}

func (w *Worker) execFillImage(p *core.ImageFillPayload) error {
	dst := resolveBacking(w.global, p.Image.MemoryObject)
	elem := p.Image.ElementSize()
	pattern := packImagePattern(p.Pattern, elem)
	rows := maxOne(p.Region.Region[1])
	slices := maxOne(p.Region.Region[2])
	for z := uint64(0); z < slices; z++ {
		for y := uint64(0); y < rows; y++ {
			for x := uint64(0); x < p.Region.Region[0]; x++ {
				off := p.Image.ByteOffset([3]uint64{p.Region.Origin[0] + x, p.Region.Origin[1] + y, p.Region.Origin[2] + z})
				copy(dst[off:off+uint64(elem)], pattern)
			}
		}
	}
	return nil
}

// packImagePattern reduces the 4-float fill pattern to the image's actual
// element byte width, truncating to the leading bytes of a float32-encoded
// pattern. The result is the exact pixel value only for FloatDataType
// channels; other channel types (half, normalized and integer ones) get
// the truncated float32 bytes, not a conversion to their own encoding.
func packImagePattern(pattern [4]float32, elemSize int) []byte {
	buf := make([]byte, 16)
	for i, v := range pattern {
		bits := math.Float32bits(v)
		buf[i*4+0] = byte(bits)
		buf[i*4+1] = byte(bits >> 8)
		buf[i*4+2] = byte(bits >> 16)
		buf[i*4+3] = byte(bits >> 24)
	}
	if elemSize > len(buf) {
		elemSize = len(buf)
	}
	return buf[:elemSize]
}

func (w *Worker) execMap(p *core.MapPayload) error {
	backing := resolveBacking(w.global, p.Object)
	offset, size := p.Region.Origin[0], p.Region.Region[0]
	if size == 0 {
		size = uint64(len(backing))
	}
	region := backing[offset : offset+size]
	mem := core.SliceHostMemory(region)
	ident := uintptr(mem.Pointer())
	if err := p.Object.AddMapping(ident, core.MappingInfo{Offset: [3]uint64{offset}, Size: [3]uint64{size}, Flags: p.Flags}); err != nil {
		return err
	}
	p.Result = mem
	return nil
}

func (w *Worker) execUnmap(p *core.UnmapPayload) error {
	if err := p.Object.RemoveMapping(p.HostPtr); err != nil {
		return err
	}
	if p.Object.HostPtr() != 0 {
		w.global.SynchronizeForHost()
	}
	return nil
}

// localCoordinates converts a linear (row-major) work-item index within a
// work-group into its per-axis local id, the mirror of
// core.DimensionInfo.GroupID but keyed by LocalSize instead of
// WorkGroupCount.
func localCoordinates(dim core.DimensionInfo, linear uint64) [3]uint64 {
	var id [3]uint64
	for i := int(dim.WorkDim) - 1; i >= 0; i-- {
		local := dim.LocalSize[i]
		if local == 0 {
			local = 1
		}
		id[i] = linear % local
		linear /= local
	}
	return id
}

// execNDRangeKernelBlock runs exactly one work-group of an NDRangeKernel
// launch — the sub-command Device.Submit splits a launch into, one per
// work-group, spread across the device's workers (spec §4.7 step 4). Its
// outcome is reported to the launch's shared GroupResultRecorder, which
// signals the launch's event; execute also signals the block's own
// internal notify event, which nothing waits on.
func (w *Worker) execNDRangeKernelBlock(cmd *core.Command) (err error) {
	p := cmd.Payload.(*core.NDRangeKernelBlockPayload)
	defer func() {
		status := core.StatusComplete
		if err != nil {
			status = -1
		}
		p.Recorder.Report(status)
	}()

	device := cmd.Queue.Device()
	info, ok := p.Kernel.Descriptor().InfoFor(device)
	if !ok {
		return core.NewError(core.KindInvalidProgramExecutable, "kernel %s has not been built for this device", p.Kernel.Descriptor().Name())
	}
	entry, ok := info.Entry.(ir.EntryFunc)
	if !ok {
		return core.NewError(core.KindInvalidProgramExecutable, "kernel %s has no compiled entry point", p.Kernel.Descriptor().Name())
	}
	args, err := p.Kernel.Args()
	if err != nil {
		return err
	}

	dim := p.Dimension
	groupID := dim.GroupID(p.Group)
	itemsPerGroup := dim.WorkItemsPerGroup()

	w.local.Reset()
	p.Profile.Append(core.ProfileSample{Label: core.ProfileRunning, SubID: int(p.Group), NanoTime: nowNano()})

	run := func(item uint64) {
		localID := localCoordinates(dim, item)
		globalID := dim.GlobalID(groupID, localID)
		ctx := &ir.ExecContext{
			Global: globalID, Local: localID, Group: groupID,
			Dimension: dim, Args: args, LocalArena: w.local,
			AsyncCopy: w.asyncCopy, Memory: w.resolveArgBuffer,
		}
		entry(ctx)
	}

	if info.UsesBarrier {
		fibers := make([]*Fiber, itemsPerGroup)
		for i := uint64(0); i < itemsPerGroup; i++ {
			item := i
			fibers[i] = NewFiber(func(fb *Fiber) {
				localID := localCoordinates(dim, item)
				globalID := dim.GlobalID(groupID, localID)
				ctx := &ir.ExecContext{
					Global: globalID, Local: localID, Group: groupID,
					Dimension: dim, Args: args, LocalArena: w.local,
					Barrier:   fb.Barrier,
					AsyncCopy: w.asyncCopy, Memory: w.resolveArgBuffer,
				}
				entry(ctx)
			})
		}
		RunGroupToCompletion(fibers)
	} else {
		for i := uint64(0); i < itemsPerGroup; i++ {
			run(i)
		}
	}
	p.Profile.Append(core.ProfileSample{Label: core.ProfileCompleted, SubID: int(p.Group), NanoTime: nowNano()})
	return nil
}

// resolveArgBuffer is the ir.ExecContext.Memory hook: it resolves a
// kernel's bound buffer argument to this worker's view of its backing
// bytes, lazily allocating the backing store on first touch.
func (w *Worker) resolveArgBuffer(buf *core.Buffer) []byte {
	if buf == nil {
		return nil
	}
	return resolveBacking(w.global, buf.MemoryObject)
}

// asyncCopy implements the async_work_group_copy builtin: a flat memcpy
// between a __local destination/source and the corresponding global
// region, n elements of elemSize bytes each.
func (w *Worker) asyncCopy(dst, src []byte, n, elemSize int) {
	copy(dst[:n*elemSize], src[:n*elemSize])
}

func (w *Worker) execNativeKernel(p *core.NativeKernelPayload) error {
	args := append([]byte(nil), p.Args...)
	for i, obj := range p.MemObjs {
		backing := resolveBacking(w.global, obj)
		off := p.MemOffsets[i]
		if off < 0 || off+8 > len(args) {
			return core.NewError(core.KindInvalidValue, "native kernel mem offset %d out of range", off)
		}
		addr := uintptr(core.SliceHostMemory(backing).Pointer())
		binary.NativeEndian.PutUint64(args[off:off+8], uint64(addr))
	}
	p.Func(args)
	return nil
}
