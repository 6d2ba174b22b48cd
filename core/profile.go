package core

import (
	"sort"
	"sync"
)

// ProfileLabel identifies the point in a command's lifecycle a timestamp
// was taken at.
type ProfileLabel int

const (
	ProfileQueued ProfileLabel = iota
	ProfileSubmitted
	ProfileRunning
	ProfileCompleted
)

func (l ProfileLabel) String() string {
	switch l {
	case ProfileQueued:
		return "queued"
	case ProfileSubmitted:
		return "submitted"
	case ProfileRunning:
		return "running"
	case ProfileCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// ProfileSample is one labelled timestamp, optionally scoped to a
// sub-command (one work-group of a multi-exec NDRangeKernel).
type ProfileSample struct {
	Label ProfileLabel
	SubID int // -1 when the sample is not sub-command scoped
	NanoTime int64
}

// ProfileTrace is an ordered collection of ProfileSamples, kept sorted by
// label then by sub-id so that consumers read a deterministic order
// regardless of the order in which the samples were appended — workers
// report running/completed per sub-command from different threads, so the
// mutex below guards concurrent Appends onto the same trace.
type ProfileTrace struct {
	Enabled bool
	mu      sync.Mutex
	samples []ProfileSample
}

// Append records a sample. It is always safe to call even when profiling is
// disabled for the owning event; in that case the call is a no-op, keeping
// the append unconditional only with respect to ordering, not enablement.
func (t *ProfileTrace) Append(sample ProfileSample) {
	if !t.Enabled {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.samples = append(t.samples, sample)
	sort.SliceStable(t.samples, func(i, j int) bool {
		if t.samples[i].Label != t.samples[j].Label {
			return t.samples[i].Label < t.samples[j].Label
		}
		return t.samples[i].SubID < t.samples[j].SubID
	})
}

// Samples returns the recorded samples in their sorted order.
func (t *ProfileTrace) Samples() []ProfileSample {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]ProfileSample(nil), t.samples...)
}

// Time returns the first recorded timestamp for a label, and whether one
// was found.
func (t *ProfileTrace) Time(label ProfileLabel) (int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.samples {
		if s.Label == label {
			return s.NanoTime, true
		}
	}
	return 0, false
}
