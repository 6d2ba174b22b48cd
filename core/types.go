package core

// Bool mirrors the tri-state-free boolean used throughout the OpenCL data
// model; kept as a distinct type (rather than a bare bool) so device
// capability tables read the same way the teacher's wrapper spelled them.
type Bool bool

// BoolFrom returns the Bool equivalent of a boolean value.
func BoolFrom(b bool) Bool { return Bool(b) }

// ToGoBool returns the plain bool value.
func (b Bool) ToGoBool() bool { return bool(b) }

// MaxWorkItemDimensions is the upper bound on NDRange dimensionality this
// runtime supports (OpenCL 1.2 mandates at least 3).
const MaxWorkItemDimensions = 3

// DimensionInfo captures the launch geometry of an NDRangeKernel command:
// dimension count, global size/offset, and local (work-group) size along
// each axis. It derives the work-group count and can enumerate every
// work-group in row-major order.
type DimensionInfo struct {
	WorkDim      uint32
	GlobalSize   [MaxWorkItemDimensions]uint64
	GlobalOffset [MaxWorkItemDimensions]uint64
	LocalSize    [MaxWorkItemDimensions]uint64
}

// NewDimensionInfo validates and builds a DimensionInfo. globalSize, offset,
// and localSize must each have exactly workDim entries; offset and
// localSize may be nil, in which case they default to zero offsets and the
// presets-derived local size respectively (the presets table itself lives
// in the cpu package's submitNDRangeKernel, since it is a device-dispatch
// concern, not a data model concern).
func NewDimensionInfo(workDim uint32, globalSize, globalOffset, localSize []uint64) (DimensionInfo, error) {
	if workDim < 1 || workDim > MaxWorkItemDimensions {
		return DimensionInfo{}, NewError(KindInvalidValue, "work_dim %d out of range [1,%d]", workDim, MaxWorkItemDimensions)
	}
	if len(globalSize) != int(workDim) {
		return DimensionInfo{}, NewError(KindInvalidWorkSize, "global_work_size must have %d entries", workDim)
	}
	var info DimensionInfo
	info.WorkDim = workDim
	for i := uint32(0); i < workDim; i++ {
		if globalSize[i] == 0 {
			return DimensionInfo{}, NewError(KindInvalidWorkSize, "global_work_size[%d] must be > 0", i)
		}
		info.GlobalSize[i] = globalSize[i]
	}
	if globalOffset != nil {
		if len(globalOffset) != int(workDim) {
			return DimensionInfo{}, NewError(KindInvalidValue, "global_work_offset must have %d entries", workDim)
		}
		for i := uint32(0); i < workDim; i++ {
			info.GlobalOffset[i] = globalOffset[i]
		}
	}
	if localSize != nil {
		if len(localSize) != int(workDim) {
			return DimensionInfo{}, NewError(KindInvalidWorkSize, "local_work_size must have %d entries", workDim)
		}
		for i := uint32(0); i < workDim; i++ {
			if localSize[i] == 0 || info.GlobalSize[i]%localSize[i] != 0 {
				return DimensionInfo{}, NewError(KindInvalidWorkSize, "local_work_size[%d]=%d does not divide global_work_size[%d]=%d", i, localSize[i], i, info.GlobalSize[i])
			}
			info.LocalSize[i] = localSize[i]
		}
	}
	return info, nil
}

// HasLocalSize reports whether the caller specified local sizes explicitly.
func (d DimensionInfo) HasLocalSize() bool {
	return d.LocalSize[0] != 0
}

// WorkGroupCount returns the number of work-groups per axis.
func (d DimensionInfo) WorkGroupCount() [MaxWorkItemDimensions]uint64 {
	var counts [MaxWorkItemDimensions]uint64
	for i := uint32(0); i < d.WorkDim; i++ {
		local := d.LocalSize[i]
		if local == 0 {
			local = 1
		}
		counts[i] = d.GlobalSize[i] / local
	}
	return counts
}

// TotalWorkGroups returns the product of WorkGroupCount across the active
// dimensions — the number of NDRangeKernelBlock sub-commands a launch
// produces (testable property 4).
func (d DimensionInfo) TotalWorkGroups() uint64 {
	counts := d.WorkGroupCount()
	total := uint64(1)
	for i := uint32(0); i < d.WorkDim; i++ {
		total *= counts[i]
	}
	return total
}

// WorkItemsPerGroup returns the product of local sizes across the active
// dimensions.
func (d DimensionInfo) WorkItemsPerGroup() uint64 {
	total := uint64(1)
	for i := uint32(0); i < d.WorkDim; i++ {
		local := d.LocalSize[i]
		if local == 0 {
			local = 1
		}
		total *= local
	}
	return total
}

// GroupID returns the work-group coordinates for a linear (row-major)
// group index.
func (d DimensionInfo) GroupID(linear uint64) [MaxWorkItemDimensions]uint64 {
	counts := d.WorkGroupCount()
	var id [MaxWorkItemDimensions]uint64
	for i := int(d.WorkDim) - 1; i >= 0; i-- {
		if counts[i] == 0 {
			continue
		}
		id[i] = linear % counts[i]
		linear /= counts[i]
	}
	return id
}

// GlobalID computes the global work-item id given a group id and a local
// (within-group) work-item id.
func (d DimensionInfo) GlobalID(groupID, localID [MaxWorkItemDimensions]uint64) [MaxWorkItemDimensions]uint64 {
	var id [MaxWorkItemDimensions]uint64
	for i := uint32(0); i < d.WorkDim; i++ {
		local := d.LocalSize[i]
		if local == 0 {
			local = 1
		}
		id[i] = d.GlobalOffset[i] + groupID[i]*local + localID[i]
	}
	return id
}
