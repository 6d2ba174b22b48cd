package core

// DeviceKind enumerates the class of compute resource a Device represents.
// This runtime only ever instantiates CPU devices; the other kinds exist
// so Platform's partitioning-by-kind logic and the public enumeration stay
// faithful to the full OpenCL device-kind set.
type DeviceKind int

const (
	DeviceCPU DeviceKind = 1 << iota
	DeviceGPU
	DeviceAccelerator
	DeviceCustom
)

// FPCapability is the per-precision floating point capability bitset
// (denorm, inf/NaN, round-to-nearest/zero/inf, FMA, correctly-rounded
// divide/sqrt).
type FPCapability uint32

const (
	FPDenorm FPCapability = 1 << iota
	FPInfNaN
	FPRoundToNearest
	FPRoundToZero
	FPRoundToInf
	FPFMA
	FPCorrectlyRoundedDivideSqrt
)

// VectorWidths records the preferred and native vector width for one
// scalar kind.
type VectorWidths struct {
	Preferred uint32
	Native    uint32
}

// PartitionKind enumerates the ways a device can be split into
// sub-devices.
type PartitionKind int

const (
	PartitionEqually PartitionKind = iota
	PartitionByCounts
	PartitionByAffinityDomain
)

// AffinityDomain enumerates the hardware boundary a
// PartitionByAffinityDomain split groups by.
type AffinityDomain int

const (
	AffinityNUMA AffinityDomain = iota
	AffinityL4Cache
	AffinityL3Cache
	AffinityL2Cache
	AffinityL1Cache
	AffinityNextPartitionable
)

// DeviceInfo is the static capability record of a Device: the data-model
// attributes of spec §3, independent of how a particular device kind
// implements execution.
type DeviceInfo struct {
	Kind    DeviceKind
	Vendor  string
	Name    string
	Version string

	MaxComputeUnits         uint32
	MaxWorkItemDimensions   uint32
	MaxWorkItemSizes        [MaxWorkItemDimensions]uint64
	MaxWorkGroupSize        uint64

	VectorWidths map[string]VectorWidths // keyed by scalar kind: "char","short","int","long","float","double","half"
	FPConfig     map[string]FPCapability // keyed by precision: "single","double","half"

	GlobalMemSize    uint64
	LocalMemSize     uint64
	MaxMemAllocSize  uint64
	CacheLineSize    uint32
	CacheSize        uint64

	SupportedImageFormats []ImageFormat
	SupportedPartitions   []PartitionKind

	AddressBits uint32
	SizeTMax    uint64
}

// Device is the execution interface a concrete device kind (only cpu.Device
// in this runtime) implements. Core packages that need to submit commands
// (CommandQueue) depend on this interface rather than on cpu directly,
// avoiding an import cycle between core and cpu.
type Device interface {
	Info() *DeviceInfo
	Submit(cmd *Command) error
	Parent() Device
}
