package core

import (
	"sync"
	"time"
)

// QueueVariant selects in-order or out-of-order submission semantics.
type QueueVariant int

const (
	InOrderQueue QueueVariant = iota
	OutOfOrderQueue
)

// ProfiledCountersOverride forces every event's ProfileTrace to collect
// samples regardless of a queue's own profiling flag. The device package
// sets this once at start-up from the OPENCRUN_PROFILED_COUNTERS
// environment variable (spec §6); tests can flip it directly.
var ProfiledCountersOverride bool

// nowNano is overridable for deterministic tests.
var nowNano = func() int64 { return time.Now().UnixNano() }

// CommandQueue is bound to exactly one Device within a Context. It
// serializes its own FIFO/in-flight bookkeeping behind a mutex, but never
// holds that mutex across a blocking wait (Open Question #2): the mutex
// protects only the bookkeeping, while the actual ordering/dispatch logic
// runs on a per-command goroutine that waits on events with no lock held.
type CommandQueue struct {
	mu        sync.Mutex
	context   *Context
	device    Device
	variant   QueueVariant
	profiling bool

	pending  []*Command // not yet submitted to the device
	inFlight map[*Event]*Command

	lastEvent *Event // in-order chaining point
}

// NewCommandQueue creates a queue bound to device within ctx.
func NewCommandQueue(ctx *Context, device Device, variant QueueVariant, profiling bool) (*CommandQueue, error) {
	if !ctx.HasDevice(device) {
		return nil, NewError(KindInvalidDevice, "device is not part of this context")
	}
	return &CommandQueue{
		context:  ctx,
		device:   device,
		variant:  variant,
		profiling: profiling,
		inFlight: make(map[*Event]*Command),
	}, nil
}

// Context returns the owning context.
func (q *CommandQueue) Context() *Context { return q.context }

// Device returns the bound device.
func (q *CommandQueue) Device() Device { return q.device }

// Variant reports in-order vs out-of-order.
func (q *CommandQueue) Variant() QueueVariant { return q.variant }

func (q *CommandQueue) isProfiled() bool { return q.profiling || ProfiledCountersOverride }

func (q *CommandQueue) track(cmd *Command) {
	q.mu.Lock()
	q.pending = append(q.pending, cmd)
	q.inFlight[cmd.Event] = cmd
	q.mu.Unlock()
}

func (q *CommandQueue) untrack(cmd *Command) {
	q.mu.Lock()
	delete(q.inFlight, cmd.Event)
	for i, p := range q.pending {
		if p == cmd {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			break
		}
	}
	q.mu.Unlock()
}

// Enqueue attaches a notify Event to cmd and schedules it for submission
// according to the queue's ordering discipline, then — only if cmd is
// blocking — waits for it to complete. The queue mutex guards only the
// bookkeeping around this call, never the wait itself.
func (q *CommandQueue) Enqueue(cmd *Command) (*Event, error) {
	ev := NewInternalEvent(q, cmd.Kind, q.isProfiled())
	cmd.Event = ev
	cmd.Queue = q
	ev.Profile.Append(ProfileSample{Label: ProfileQueued, SubID: -1, NanoTime: nowNano()})

	if AnyError(cmd.WaitList) {
		ev.Signal(errWaitList)
		return ev, nil
	}

	q.track(cmd)

	var predecessor *Event
	if q.variant == InOrderQueue {
		q.mu.Lock()
		predecessor = q.lastEvent
		q.lastEvent = ev
		q.mu.Unlock()
	}

	go q.dispatch(cmd, predecessor)

	if cmd.Blocking {
		ev.Wait()
	}
	return ev, nil
}

// errWaitList is the negative status used to signal a command whose
// wait-list already carries an error; any negative value works, this one
// is just a stable, recognizable sentinel.
const errWaitList = -1

// dispatch waits for ordering prerequisites with no lock held, then
// submits cmd to the device. In-order queues additionally wait for the
// predecessor command (chained via lastEvent at enqueue time); out-of-order
// queues submit as soon as the wait-list is satisfied.
func (q *CommandQueue) dispatch(cmd *Command, predecessor *Event) {
	if predecessor != nil {
		predecessor.Wait()
	}
	if WaitForEvents(cmd.WaitList) < 0 || AnyError(cmd.WaitList) {
		cmd.Event.Signal(errWaitList)
		q.untrack(cmd)
		return
	}
	cmd.Event.Profile.Append(ProfileSample{Label: ProfileSubmitted, SubID: -1, NanoTime: nowNano()})
	if err := q.device.Submit(cmd); err != nil {
		cmd.Event.Signal(errWaitList)
		q.untrack(cmd)
		return
	}
	// The device (and its workers) own the command from here; untrack
	// once the notify event reaches a terminal state so Finish() can
	// observe drain-to-empty.
	cmd.Event.AddCallback(StatusComplete, func(*Event, int) { q.untrack(cmd) })
	// Device-side failures always signal -1 (see errWaitList).
	cmd.Event.AddCallback(errWaitList, func(*Event, int) { q.untrack(cmd) })
}

// Finish blocks until every command submitted so far has completed.
func (q *CommandQueue) Finish() {
	q.mu.Lock()
	events := make([]*Event, 0, len(q.inFlight))
	for ev := range q.inFlight {
		events = append(events, ev)
	}
	q.mu.Unlock()
	WaitForEvents(events)
}

// Flush is a no-op in this implementation: commands are already dispatched
// to their per-command goroutine as soon as Enqueue returns, so there is
// nothing buffered to push. It exists so callers written against the
// OpenCL ordering model compile unchanged.
func (q *CommandQueue) Flush() {}
