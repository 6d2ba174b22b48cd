// Package core implements the host-side OpenCL 1.2 object model: platforms,
// devices, contexts, command queues, events, memory objects, programs,
// kernels, and the command builders that validate and construct commands
// before they are handed to a device.
package core

import "fmt"

// Kind is the abstract error taxonomy of the runtime, independent of any
// particular C ABI error-code encoding. A thin veneer maps a Kind to the
// OpenCL enumeration; the core never encodes that mapping itself.
type Kind int

// This block enumerates the error kinds described in the error handling
// design. Keep in sync with any veneer that maps Kind to OpenCL codes.
const (
	KindInvalidHandle Kind = iota
	KindInvalidValue
	KindInvalidContext
	KindInvalidDevice
	KindInvalidMemObject
	KindInvalidImageDescriptor
	KindInvalidKernelArgs
	KindInvalidWorkSize
	KindBuildProgramFailure
	KindInvalidProgramExecutable
	KindWaitListError
	KindOutOfResources
)

func (k Kind) String() string {
	switch k {
	case KindInvalidHandle:
		return "invalid handle"
	case KindInvalidValue:
		return "invalid value"
	case KindInvalidContext:
		return "invalid context"
	case KindInvalidDevice:
		return "invalid device"
	case KindInvalidMemObject:
		return "invalid memory object"
	case KindInvalidImageDescriptor:
		return "invalid image descriptor"
	case KindInvalidKernelArgs:
		return "invalid kernel arguments"
	case KindInvalidWorkSize:
		return "invalid work size"
	case KindBuildProgramFailure:
		return "build program failure"
	case KindInvalidProgramExecutable:
		return "invalid program executable"
	case KindWaitListError:
		return "wait-list error"
	case KindOutOfResources:
		return "out of resources"
	default:
		return "unknown error"
	}
}

// Error pairs an abstract Kind with a human-readable detail. It is the
// error type returned by every fallible operation in the core.
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Is makes errors.Is report a match between two *Error values with the
// same Kind, whatever their Detail; a target that is not an *Error never
// matches.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}

// NewError constructs an *Error with a formatted detail message.
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// WaitListError reports that a predecessor event in a wait-list carries a
// negative (error) status; it is never fatal to the worker thread that
// discovers it, only to the command being validated.
func WaitListError() *Error {
	return &Error{Kind: KindWaitListError, Detail: "predecessor event signalled an error status"}
}
