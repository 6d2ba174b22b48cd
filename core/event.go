package core

import "sync"

// Event status values. The scale is chosen so a single comparison detects
// an out-of-order (delayed) signal and drops it: Signal only ever accepts
// a new value that is strictly lower than the current one. Negative values encode errors
// and are always terminal, like StatusComplete.
const (
	StatusQueued    = 3
	StatusSubmitted = 2
	StatusRunning   = 1
	StatusComplete  = 0
)

// EventCallback is invoked synchronously from inside Signal the first time
// the event transitions to the status it was registered for.
type EventCallback func(event *Event, status int)

// EventKind distinguishes internal (device-driven) events from user events.
type EventKind int

const (
	InternalEventKind EventKind = iota
	UserEventKind
)

// Event is a synchronization point between commands. Internal events are
// created by the queue when a command is enqueued; user events are created
// directly by the application and transitioned exactly once via SetStatus.
type Event struct {
	mu        sync.Mutex
	cond      *sync.Cond
	kind      EventKind
	status    int
	callbacks map[int][]EventCallback

	// Internal-event-only fields.
	queue      *CommandQueue
	commandKind CommandKind
	Profile    ProfileTrace
}

// NewInternalEvent creates an event owned by a queue for one submitted
// command. It starts in StatusQueued.
func NewInternalEvent(queue *CommandQueue, kind CommandKind, profiled bool) *Event {
	ev := &Event{
		kind:        InternalEventKind,
		status:      StatusQueued,
		callbacks:   make(map[int][]EventCallback),
		queue:       queue,
		commandKind: kind,
	}
	ev.cond = sync.NewCond(&ev.mu)
	ev.Profile.Enabled = profiled
	return ev
}

// NewUserEvent creates a user event. It begins in StatusSubmitted, as
// specified: the user has not yet run anything, but the event is not
// "queued" in any device's FIFO either.
func NewUserEvent() *Event {
	ev := &Event{
		kind:      UserEventKind,
		status:    StatusSubmitted,
		callbacks: make(map[int][]EventCallback),
	}
	ev.cond = sync.NewCond(&ev.mu)
	return ev
}

// Kind reports whether this is an internal or user event.
func (e *Event) Kind() EventKind { return e.kind }

// Queue returns the owning queue of an internal event, or nil for a user
// event.
func (e *Event) Queue() *CommandQueue { return e.queue }

// CommandKind returns the kind of command this internal event notifies
// for.
func (e *Event) CommandKind() CommandKind { return e.commandKind }

// Status returns the current status without blocking.
func (e *Event) Status() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// HasCompleted reports whether the event reached a terminal status
// (complete or any error).
func (e *Event) HasCompleted() bool {
	s := e.Status()
	return s <= StatusComplete
}

// IsError reports whether the event's terminal status is negative.
func (e *Event) IsError() bool {
	return e.Status() < 0
}

// Wait blocks until the event's status is terminal (<= StatusComplete) and
// returns the final status.
func (e *Event) Wait() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	for e.status > StatusComplete {
		e.cond.Wait()
	}
	return e.status
}

// AddCallback installs f to run the first time the event reaches the given
// status value. If the event has already passed that status (including
// having already reached a terminal state at or below it), the callback
// fires immediately, synchronously, before AddCallback returns.
func (e *Event) AddCallback(status int, f EventCallback) {
	e.mu.Lock()
	if e.status <= status {
		current := e.status
		e.mu.Unlock()
		f(e, current)
		return
	}
	e.callbacks[status] = append(e.callbacks[status], f)
	e.mu.Unlock()
}

// Signal transitions the event to newStatus, guarded by the event's
// monitor. Monotonic descent is enforced: a transition is discarded if
// newStatus is not strictly less than the current status (delayed
// out-of-order submitted/running signals from racing worker threads are
// silently dropped, matching the source's "<" test). On reaching a
// terminal status (complete or negative) every waiter is broadcast.
func (e *Event) Signal(newStatus int) {
	e.mu.Lock()
	if newStatus >= e.status {
		e.mu.Unlock()
		return
	}
	e.status = newStatus
	callbacks := e.callbacks[newStatus]
	delete(e.callbacks, newStatus)
	terminal := newStatus <= StatusComplete
	e.mu.Unlock()

	for _, cb := range callbacks {
		cb(e, newStatus)
	}
	if terminal {
		e.mu.Lock()
		e.cond.Broadcast()
		e.mu.Unlock()
	}
}

// SetStatus is the user-event single-shot transition. It succeeds only
// while the event is still in StatusSubmitted (its initial state);
// executionStatus must be StatusComplete or a negative error value.
// A second call always fails.
func (e *Event) SetStatus(executionStatus int) error {
	if e.kind != UserEventKind {
		return NewError(KindInvalidValue, "SetStatus is only valid for user events")
	}
	if executionStatus > StatusComplete {
		return NewError(KindInvalidValue, "user event status must be complete or an error code")
	}
	e.mu.Lock()
	if e.status != StatusSubmitted {
		e.mu.Unlock()
		return NewError(KindInvalidValue, "user event status already set")
	}
	e.mu.Unlock()
	e.Signal(executionStatus)
	return nil
}

// WaitForEvents blocks until every event in the list has completed. It
// returns the first error status encountered, or 0 if all completed
// successfully.
func WaitForEvents(events []*Event) int {
	result := StatusComplete
	for _, ev := range events {
		if status := ev.Wait(); status < 0 && result == StatusComplete {
			result = status
		}
	}
	return result
}

// AnyError reports whether the wait-list contains an event that has
// already signalled a negative (error) status — checked eagerly by
// command builders per spec §4.9 and §7, without blocking.
func AnyError(waitList []*Event) bool {
	for _, ev := range waitList {
		if ev.IsError() {
			return true
		}
	}
	return false
}
