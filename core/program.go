package core

import "sync"

// BuildStatus enumerates the state of a per-device build.
type BuildStatus int

const (
	BuildNone BuildStatus = iota
	BuildInProgress
	BuildSuccess
	BuildFailure
)

// BuildInformation is the per-device record of a program build: its
// status, the options it was built with, the accumulated diagnostic log,
// an opaque handle to the compiler's intermediate module (so the core
// never needs to know what an "IR module" actually is), and an opaque
// kernel-metadata index the compiler can use to answer KernelDescriptor
// queries.
type BuildInformation struct {
	Status          BuildStatus
	Options         string
	Log             string
	IntermediateCode any
	KernelMetadata   any
}

// Program owns the kernel source (or, when created from previously
// compiled intermediate code, a per-device handle instead) plus one
// BuildInformation per device it has been built for.
type Program struct {
	mu      sync.Mutex
	context *Context
	Source  string

	builds  map[Device]*BuildInformation
	kernels map[string]*KernelDescriptor
}

// NewProgramWithSource creates a program from OpenCL C source text.
func NewProgramWithSource(ctx *Context, source string) *Program {
	return &Program{
		context: ctx,
		Source:  source,
		builds:  make(map[Device]*BuildInformation),
		kernels: make(map[string]*KernelDescriptor),
	}
}

// Context returns the owning context.
func (p *Program) Context() *Context { return p.context }

// BuildInfo returns (creating if necessary) the BuildInformation for d.
func (p *Program) BuildInfo(d Device) *BuildInformation {
	p.mu.Lock()
	defer p.mu.Unlock()
	info, ok := p.builds[d]
	if !ok {
		info = &BuildInformation{Status: BuildNone}
		p.builds[d] = info
	}
	return info
}

// SetBuildInfo replaces the BuildInformation for d, e.g. once a compile
// pass completes.
func (p *Program) SetBuildInfo(d Device, info *BuildInformation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.builds[d] = info
}

// AttachKernel registers (or returns the existing) KernelDescriptor for a
// kernel name declared by this program. KernelDescriptors are immutable
// after construction, so a second attach with the same name is a no-op
// returning the descriptor already on file.
func (p *Program) AttachKernel(name string) *KernelDescriptor {
	p.mu.Lock()
	defer p.mu.Unlock()
	if kd, ok := p.kernels[name]; ok {
		return kd
	}
	kd := &KernelDescriptor{
		name:    name,
		program: p,
		infos:   make(map[Device]*KernelInfo),
	}
	p.kernels[name] = kd
	return kd
}

// Kernel looks up a previously attached kernel descriptor by name.
func (p *Program) Kernel(name string) (*KernelDescriptor, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	kd, ok := p.kernels[name]
	return kd, ok
}
