package core

// ImageType enumerates the supported image geometries.
type ImageType int

const (
	Image1D ImageType = iota
	Image1DArray
	Image1DBuffer
	Image2D
	Image2DArray
	Image3D
)

// ChannelOrder enumerates the supported channel layouts.
type ChannelOrder int

const (
	ChannelR ChannelOrder = iota
	ChannelA
	ChannelRG
	ChannelRA
	ChannelRGB
	ChannelRGBA
	ChannelBGRA
	ChannelARGB
	ChannelIntensity
	ChannelLuminance
	ChannelRx
	ChannelRGx
	ChannelRGBx
)

// numChannels returns the channel count for an order.
func (o ChannelOrder) numChannels() int {
	switch o {
	case ChannelR, ChannelA, ChannelIntensity, ChannelLuminance, ChannelRx:
		return 1
	case ChannelRG, ChannelRA, ChannelRGx:
		return 2
	case ChannelRGB, ChannelRGBx:
		return 3
	case ChannelRGBA, ChannelBGRA, ChannelARGB:
		return 4
	default:
		return 0
	}
}

// ChannelDataType enumerates the supported per-channel data encodings.
type ChannelDataType int

const (
	SNormInt8 ChannelDataType = iota
	SNormInt16
	UNormInt8
	UNormInt16
	UNormShort565
	UNormShort555
	UNormInt101010
	SignedInt8
	SignedInt16
	SignedInt32
	UnsignedInt8
	UnsignedInt16
	UnsignedInt32
	HalfFloat
	FloatDataType
)

// bytesPerChannel returns the per-channel byte width; for the three
// packed "whole pixel" types it returns the whole pixel's width instead
// (2 or 4 bytes), and 0 for an unknown type.
func (t ChannelDataType) bytesPerChannel() int {
	switch t {
	case SNormInt8, UNormInt8, SignedInt8, UnsignedInt8:
		return 1
	case SNormInt16, UNormInt16, SignedInt16, UnsignedInt16, HalfFloat:
		return 2
	case SignedInt32, UnsignedInt32, FloatDataType:
		return 4
	case UNormShort565, UNormShort555:
		return 2 // packed type override: whole pixel is 2 bytes regardless of channel count
	case UNormInt101010:
		return 4 // packed type override: whole pixel is 4 bytes regardless of channel count
	default:
		return 0
	}
}

func (t ChannelDataType) isPacked() bool {
	return t == UNormShort565 || t == UNormShort555 || t == UNormInt101010
}

// ImageFormat is the channel order/data-type pair that names a pixel
// layout.
type ImageFormat struct {
	Order ChannelOrder
	Type  ChannelDataType
}

// ElementSize derives the per-pixel byte size from the channel order and
// data type, with the packed-type overrides (565/555/101010 pack the
// whole pixel into one scalar regardless of channel count).
func (f ImageFormat) ElementSize() (int, error) {
	if f.Type.isPacked() {
		return f.Type.bytesPerChannel(), nil
	}
	channels := f.Order.numChannels()
	perChannel := f.Type.bytesPerChannel()
	if channels == 0 || perChannel == 0 {
		return 0, NewError(KindInvalidImageDescriptor, "unsupported channel order/data-type combination")
	}
	return channels * perChannel, nil
}

// ImageDescriptor carries the geometric properties of an image.
type ImageDescriptor struct {
	Type       ImageType
	Format     ImageFormat
	Width      uint64
	Height     uint64
	Depth      uint64
	ArraySize  uint64
	RowPitch   uint64
	SlicePitch uint64
}

// Image is a MemoryObject with format and geometry. An image created from
// a buffer (CL_MEM_OBJECT_IMAGE1D_BUFFER convenience) shares the buffer's
// storage through MemoryObject's parent/offset mechanism, and the buffer
// tracks the image via a non-owning back-reference.
type Image struct {
	*MemoryObject
	desc        ImageDescriptor
	elementSize int
	buffer      *Buffer
}

// NewImage validates and constructs an image. When backingBuffer is
// non-nil (image-from-buffer), host-access and host-pointer modes that
// were not explicitly specified are derived from the backing buffer.
func NewImage(ctx *Context, flags MemFlags, desc ImageDescriptor, hostPtr uintptr, backingBuffer *Buffer) (*Image, error) {
	elemSize, err := desc.Format.ElementSize()
	if err != nil {
		return nil, err
	}
	if desc.Width == 0 {
		return nil, NewError(KindInvalidImageDescriptor, "image width must be > 0")
	}
	if backingBuffer != nil {
		if flags&hostAccessMask == 0 {
			flags |= backingBuffer.Flags() & hostAccessMask
		}
		if flags&hostPtrMask == 0 {
			flags |= backingBuffer.Flags() & hostPtrMask
		}
	}
	rowPitch := desc.RowPitch
	if rowPitch == 0 {
		rowPitch = desc.Width * uint64(elemSize)
	}
	slicePitch := desc.SlicePitch
	if slicePitch == 0 {
		height := desc.Height
		if height == 0 {
			height = 1
		}
		slicePitch = rowPitch * height
	}
	desc.RowPitch = rowPitch
	desc.SlicePitch = slicePitch

	size := slicePitch
	switch desc.Type {
	case Image1D, Image1DBuffer:
		size = rowPitch
	case Image1DArray:
		size = rowPitch * max64(desc.ArraySize, 1)
	case Image2D:
		size = slicePitch
	case Image2DArray:
		size = slicePitch * max64(desc.ArraySize, 1)
	case Image3D:
		size = slicePitch * max64(desc.Depth, 1)
	}

	var parent *MemoryObject
	var hp uintptr = hostPtr
	if backingBuffer != nil {
		parent = backingBuffer.MemoryObject
		hp = backingBuffer.HostPtr()
	}
	obj, err := newMemoryObject(ObjectImage, ctx, size, hp, flags, parent, 0)
	if err != nil {
		return nil, err
	}
	img := &Image{MemoryObject: obj, desc: desc, elementSize: elemSize, buffer: backingBuffer}
	if backingBuffer != nil {
		backingBuffer.attachImage(img.MemoryObject)
	}
	return img, nil
}

func max64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

// Release detaches this image from its backing buffer's weak reference
// set, if any, breaking the buffer<->image cycle.
func (img *Image) Release() {
	if img.buffer != nil {
		img.buffer.detachImage(img.MemoryObject)
	}
}

// Descriptor returns the image's geometric descriptor.
func (img *Image) Descriptor() ImageDescriptor { return img.desc }

// ElementSize returns the per-pixel byte size.
func (img *Image) ElementSize() int { return img.elementSize }

// Buffer returns the backing buffer for an image-from-buffer, or nil.
func (img *Image) Buffer() *Buffer { return img.buffer }

// ByteOffset converts a pixel-space origin to a byte offset using the
// image's row/slice pitch and element size — the conversion image reads
// and writes go through before reducing to the generic rect form.
func (img *Image) ByteOffset(origin [3]uint64) uint64 {
	return origin[2]*img.desc.SlicePitch + origin[1]*img.desc.RowPitch + origin[0]*uint64(img.elementSize)
}
