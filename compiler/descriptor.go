package compiler

import (
	"github.com/hashicorp/golang-lru/v2"

	"github.com/opencrun-go/opencrun/core"
	"github.com/opencrun-go/opencrun/ir"
)

// cacheKey identifies one compiled Function by the identity of the
// KernelDescriptor it was built for and the device it was built against —
// the same kernel name compiled for two devices, or attached to two
// different programs, never collide.
type cacheKey struct {
	descriptor *core.KernelDescriptor
	device     core.Device
}

// descriptorCache bounds the number of live compiled ir.Function values
// this process keeps around. A real JIT's compiled-code cache is exactly
// this shape: keyed by the thing that identifies "this kernel, for this
// device", bounded so a long-running process that builds many programs
// does not retain every historical compile forever.
type descriptorCache struct {
	lru *lru.Cache[cacheKey, *ir.Function]
}

func newDescriptorCache(size int) *descriptorCache {
	c, err := lru.New[cacheKey, *ir.Function](size)
	if err != nil {
		// Only returns an error for a non-positive size; this runtime
		// always calls it with a fixed positive constant.
		panic(err)
	}
	return &descriptorCache{lru: c}
}

func (c *descriptorCache) get(kd *core.KernelDescriptor, device core.Device) (*ir.Function, bool) {
	return c.lru.Get(cacheKey{descriptor: kd, device: device})
}

func (c *descriptorCache) put(kd *core.KernelDescriptor, device core.Device, fn *ir.Function) {
	c.lru.Add(cacheKey{descriptor: kd, device: device}, fn)
}
