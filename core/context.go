package core

import "sync"

// DiagnosticCallback receives asynchronous error strings raised by a
// context's devices (e.g. a compiler diagnostic or a command failure that
// has nowhere else to surface).
type DiagnosticCallback func(errInfo string, privateInfo []byte)

// Context groups a set of Devices with an associated diagnostic callback.
// It owns the queues, memory objects, programs, samplers, and events
// created against it, for the sole purpose of bookkeeping cross-references
// (cross-context checks in the command builders).
type Context struct {
	mu         sync.Mutex
	devices    []Device
	diagnostic DiagnosticCallback
}

// NewContext groups the given devices under one context.
func NewContext(devices []Device, diagnostic DiagnosticCallback) (*Context, error) {
	if len(devices) == 0 {
		return nil, NewError(KindInvalidValue, "a context requires at least one device")
	}
	return &Context{devices: append([]Device(nil), devices...), diagnostic: diagnostic}, nil
}

// Devices returns the devices grouped by this context.
func (c *Context) Devices() []Device {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Device(nil), c.devices...)
}

// HasDevice reports whether d is one of this context's devices.
func (c *Context) HasDevice(d Device) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, owned := range c.devices {
		if owned == d {
			return true
		}
	}
	return false
}

// Notify invokes the diagnostic callback, if one was registered.
func (c *Context) Notify(errInfo string, privateInfo []byte) {
	if c.diagnostic != nil {
		c.diagnostic(errInfo, privateInfo)
	}
}
