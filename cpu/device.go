// Package cpu implements the one device kind this runtime supports: a CPU
// device backed by a pool of worker threads bound to the host's real
// hardware topology. It is the other half of core.Device — the part that
// actually runs commands instead of merely describing capabilities.
package cpu

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/opencrun-go/opencrun/compiler"
	"github.com/opencrun-go/opencrun/core"
	"github.com/opencrun-go/opencrun/hardware"
)

// Config collects the sizing knobs used to bring up a Device.
type Config struct {
	GlobalMemoryBytes uint64
	LocalMemoryBytes  uint64
	PinThreads        bool
	ProfiledCounters  bool
}

// Device is the CPU target: one GlobalMemory pool shared by every
// Multiprocessor, one Multiprocessor per cache-sharing domain of the host
// topology, and a Compiler that lowers each Program built against it.
type Device struct {
	info            *core.DeviceInfo
	global          *GlobalMemory
	multiprocessors []*Multiprocessor
	compiler        *compiler.Compiler
	log             *logrus.Entry
	nextMP          uint64
}

// NewDevice brings up one Multiprocessor per cache domain of topo, the
// host topology the caller supplies (hardware.Discover builds one).
func NewDevice(topo *hardware.Topology, cfg Config, log *logrus.Entry) *Device {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("component", "cpu.Device")

	cpus := topo.AllCPUs()
	domains := topo.FilterCacheDomains(func(hardware.CacheDomain) bool { return true })
	if len(domains) == 0 {
		domains = []hardware.CacheDomain{{ID: 0, CPUs: cpus}}
	}

	global := NewGlobalMemory(cfg.GlobalMemoryBytes)

	dev := &Device{
		info:   buildDeviceInfo(cpus),
		global: global,
		log:    log,
	}
	for _, domain := range domains {
		dev.multiprocessors = append(dev.multiprocessors, NewMultiprocessor(domain, global, cfg.LocalMemoryBytes, cfg.PinThreads, log))
	}
	dev.compiler = compiler.NewCompiler(dev, log)

	core.ProfiledCountersOverride = cfg.ProfiledCounters
	log.WithField("compute_units", dev.info.MaxComputeUnits).Info("cpu device online")
	return dev
}

func buildDeviceInfo(cpus []hardware.CPU) *core.DeviceInfo {
	n := uint32(len(cpus))
	if n == 0 {
		n = 1
	}
	return &core.DeviceInfo{
		Kind:                  core.DeviceCPU,
		Vendor:                "opencrun",
		Name:                  "CPU",
		Version:               core.RuntimeVersionString(),
		MaxComputeUnits:       n,
		MaxWorkItemDimensions: core.MaxWorkItemDimensions,
		MaxWorkItemSizes:      [core.MaxWorkItemDimensions]uint64{1024, 1024, 1024},
		MaxWorkGroupSize:      1024,
		VectorWidths: map[string]core.VectorWidths{
			"char": {Preferred: 16, Native: 16}, "int": {Preferred: 4, Native: 4},
			"float": {Preferred: 4, Native: 4}, "double": {Preferred: 2, Native: 2},
		},
		FPConfig: map[string]core.FPCapability{
			"single": core.FPDenorm | core.FPInfNaN | core.FPRoundToNearest | core.FPFMA,
			"double": core.FPDenorm | core.FPInfNaN | core.FPRoundToNearest | core.FPFMA | core.FPCorrectlyRoundedDivideSqrt,
		},
		GlobalMemSize:   0, // filled from Config.GlobalMemoryBytes by the caller if it needs reporting
		LocalMemSize:    0,
		MaxMemAllocSize: 0,
		CacheLineSize:   uint32(cacheLine),
		CacheSize:       0,
		SupportedPartitions: []core.PartitionKind{
			core.PartitionEqually, core.PartitionByCounts, core.PartitionByAffinityDomain,
		},
		AddressBits: 64,
		SizeTMax:    ^uint64(0),
	}
}

// Info implements core.Device.
func (d *Device) Info() *core.DeviceInfo { return d.info }

// Parent implements core.Device: a top-level device discovered directly
// from host topology has no parent (it is not the result of a
// clCreateSubDevices-style partition).
func (d *Device) Parent() core.Device { return nil }

// Compiler returns the device's kernel compiler.
func (d *Device) Compiler() *compiler.Compiler { return d.compiler }

// GlobalMemory returns the device's shared memory pool.
func (d *Device) GlobalMemory() *GlobalMemory { return d.global }

// Submit implements core.Device: every command except NDRangeKernel is
// load-balanced across the device's Multiprocessors round-robin — a
// command never needs to stay on the Multiprocessor of a memory object it
// touches, since the global pool is shared by all of them, so plain round
// robin is enough to spread load. An NDRangeKernel launch fans out into
// one sub-command per work-group instead (spec §4.7 step 4).
func (d *Device) Submit(cmd *core.Command) error {
	if len(d.multiprocessors) == 0 {
		return core.NewError(core.KindOutOfResources, "device has no multiprocessors")
	}
	if cmd.Kind == core.CommandNDRangeKernel {
		return d.submitNDRangeKernel(cmd)
	}
	idx := atomic.AddUint64(&d.nextMP, 1) % uint64(len(d.multiprocessors))
	return d.multiprocessors[idx].Submit(cmd)
}

// submitNDRangeKernel splits an NDRangeKernel launch into one
// NDRangeKernelBlock sub-command per work-group, round-robining each
// across the device's Multiprocessors (which in turn route to their own
// least-loaded worker), and wires a GroupResultRecorder so the launch's
// own notify event signals complete only once every work-group has
// (spec §4.7 steps 4-5). Submit returns as soon as every block has been
// handed off, not once they have run — the recorder, not this call,
// carries the launch to completion.
func (d *Device) submitNDRangeKernel(cmd *core.Command) error {
	p := cmd.Payload.(*core.NDRangeKernelPayload)
	dim := p.Dimension
	if !dim.HasLocalSize() {
		// Presets by dimension count, each axis clamped to its GCD with
		// the global size.
		presets := [core.MaxWorkItemDimensions][core.MaxWorkItemDimensions]uint64{{1024, 1, 1}, {32, 32, 1}, {16, 8, 8}}
		for i := uint32(0); i < dim.WorkDim; i++ {
			a, b := presets[dim.WorkDim-1][i], dim.GlobalSize[i]
			for b != 0 {
				a, b = b, a%b
			}
			dim.LocalSize[i] = a
		}
	}
	totalGroups := dim.TotalWorkGroups()
	recorder := core.NewGroupResultRecorder(int(totalGroups), cmd.Event)

	for g := uint64(0); g < totalGroups; g++ {
		blockCmd := &core.Command{
			Kind:  core.CommandNDRangeKernelBlock,
			Queue: cmd.Queue,
			Event: core.NewInternalEvent(cmd.Queue, core.CommandNDRangeKernelBlock, false),
			Payload: &core.NDRangeKernelBlockPayload{
				Kernel:    p.Kernel,
				Dimension: dim,
				Group:     g,
				Profile:   &cmd.Event.Profile,
				Recorder:  recorder,
			},
		}
		idx := atomic.AddUint64(&d.nextMP, 1) % uint64(len(d.multiprocessors))
		if err := d.multiprocessors[idx].Submit(blockCmd); err != nil {
			return err
		}
	}
	return nil
}
