package cpu

import (
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/opencrun-go/opencrun/core"
	"github.com/opencrun-go/opencrun/hardware"
)

// inboxCapacity bounds how many enqueued-but-not-yet-running commands a
// worker buffers before Enqueue starts applying back-pressure to its
// Multiprocessor.
const inboxCapacity = 64

// Worker is one OS thread (locked via runtime.LockOSThread, optionally
// pinned to a specific logical CPU) executing commands one at a time from
// its inbox, and driving a work-group's fibers when an NDRangeKernel
// command needs barrier semantics.
type Worker struct {
	cpu    hardware.CPU
	local  *LocalMemory
	inbox  chan *core.Command
	global *GlobalMemory
	log    *logrus.Entry
}

// NewWorker starts the worker's goroutine immediately.
func NewWorker(cpuID hardware.CPU, global *GlobalMemory, localBytes uint64, pin bool, log *logrus.Entry) *Worker {
	w := &Worker{
		cpu:    cpuID,
		local:  NewLocalMemory(localBytes),
		inbox:  make(chan *core.Command, inboxCapacity),
		global: global,
		log:    log.WithField("worker_cpu", cpuID.OSIndex),
	}
	go w.run(pin)
	return w
}

// Enqueue hands a command to this worker. It blocks if the worker's inbox
// is full, giving natural back-pressure to whichever Multiprocessor
// routed the command here.
func (w *Worker) Enqueue(cmd *core.Command) { w.inbox <- cmd }

// PendingLen reports how many commands are sitting in this worker's inbox,
// waiting to run. A Multiprocessor reads this to pick the least-loaded
// worker for its next Submit.
func (w *Worker) PendingLen() int { return len(w.inbox) }

func (w *Worker) run(pin bool) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if pin && w.cpu.OSIndex >= 0 {
		if err := pinToCPU(w.cpu.OSIndex); err != nil {
			w.log.WithError(err).Warn("failed to set CPU affinity, continuing unpinned")
		}
	}

	for cmd := range w.inbox {
		w.execute(cmd)
	}
}

// pinToCPU binds the calling OS thread to exactly one logical CPU via
// sched_setaffinity, the same primitive the host topology's NUMA/cache
// layout is discovered to make good use of.
func pinToCPU(osIndex int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(osIndex)
	return unix.SchedSetaffinity(0, &set)
}
