package cpu

import (
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/opencrun-go/opencrun/core"
	"github.com/opencrun-go/opencrun/hardware"
)

// Multiprocessor owns the WorkerThreads bound to one cache-sharing
// domain of the host topology (spec: "a set of WorkerThreads bound to the
// CPUs of one cache domain"). Commands submitted to it are spread across
// its workers; work-items of the same work-group always land on the same
// worker so they can share one LocalMemory arena and, when the kernel
// uses a barrier, cooperate through fibers on that worker's goroutine.
type Multiprocessor struct {
	domain  hardware.CacheDomain
	workers []*Worker
	log     *logrus.Entry
}

// NewMultiprocessor brings up one Worker per CPU in domain, each with its
// own LocalMemory arena of localBytes capacity. Worker start-up (goroutine
// launch plus, if pin is set, affinity pinning) happens fanned out across
// an errgroup so bringing up a many-core domain is not serialized on one
// syscall per CPU.
func NewMultiprocessor(domain hardware.CacheDomain, global *GlobalMemory, localBytes uint64, pin bool, log *logrus.Entry) *Multiprocessor {
	log = log.WithField("cache_domain", domain.ID)
	mp := &Multiprocessor{domain: domain, log: log}

	cpus := domain.CPUs
	if len(cpus) == 0 {
		cpus = []hardware.CPU{{OSIndex: -1}}
	}
	mp.workers = make([]*Worker, len(cpus))

	var g errgroup.Group
	for i, cpuID := range cpus {
		i, cpuID := i, cpuID
		g.Go(func() error {
			mp.workers[i] = NewWorker(cpuID, global, localBytes, pin, log)
			return nil
		})
	}
	_ = g.Wait() // NewWorker never returns an error; Wait only paces start-up

	log.WithField("workers", len(mp.workers)).Debug("multiprocessor online")
	return mp
}

// Submit load-balances cmd onto this Multiprocessor's least-loaded worker:
// the one with the fewest commands currently sitting in its inbox (spec
// §4.6). Ties break toward the lowest index, so while every inbox is
// empty each command goes to worker 0.
func (mp *Multiprocessor) Submit(cmd *core.Command) error {
	best := 0
	bestLen := mp.workers[0].PendingLen()
	for i := 1; i < len(mp.workers); i++ {
		if n := mp.workers[i].PendingLen(); n < bestLen {
			best, bestLen = i, n
		}
	}
	mp.workers[best].Enqueue(cmd)
	return nil
}

// Workers exposes the Multiprocessor's worker set, e.g. for diagnostics.
func (mp *Multiprocessor) Workers() []*Worker { return mp.workers }
