package cpu

// Fiber is a cooperative, goroutine-backed stand-in for the native
// stackful fibers the original engine multiplexed onto one worker thread:
// every work-item of a work-group runs as one Fiber, and the worker hands
// control to the Fibers of a group one at a time, turn by turn, switching
// only at a barrier or when a Fiber returns. Go cannot switch user-space
// stacks directly, so a Fiber is a goroutine gated by a pair of unbuffered
// handoff channels — functionally a coroutine. Only one work-item of the
// group runs at any moment, but each Fiber body runs on its own goroutine,
// which the Go scheduler places on some OS thread other than the worker's
// locked one.
type Fiber struct {
	resume chan struct{}
	yield  chan struct{}
	done   chan struct{}
}

// NewFiber starts body running on a new goroutine, immediately parked
// before its first instruction until the first Resume.
func NewFiber(body func(f *Fiber)) *Fiber {
	fb := &Fiber{
		resume: make(chan struct{}),
		yield:  make(chan struct{}),
		done:   make(chan struct{}),
	}
	go func() {
		<-fb.resume
		body(fb)
		close(fb.done)
	}()
	return fb
}

// Barrier yields control back to the scheduler (the worker running the
// group's fibers in turn) and blocks until the next Resume. A kernel's
// work_group_barrier compiles down to a call here.
func (f *Fiber) Barrier() {
	f.yield <- struct{}{}
	<-f.resume
}

// Resume hands control to the fiber and blocks until it either calls
// Barrier (yielding back) or runs to completion. It reports whether the
// fiber is still alive (false once the body has returned).
func (f *Fiber) Resume() bool {
	f.resume <- struct{}{}
	select {
	case <-f.yield:
		return true
	case <-f.done:
		return false
	}
}

// RunGroupToCompletion drives every fiber in items in lock-step: one round
// resumes each fiber once, repeated until all have returned. This is the
// context-switch discipline a work-group executes under — every work-item
// reaches the same barrier before any of them is allowed past it.
func RunGroupToCompletion(items []*Fiber) {
	alive := append([]*Fiber(nil), items...)
	for len(alive) > 0 {
		next := alive[:0]
		for _, fb := range alive {
			if fb.Resume() {
				next = append(next, fb)
			}
		}
		alive = next
	}
}
