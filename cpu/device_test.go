package cpu

import (
	"testing"

	"github.com/opencrun-go/opencrun/core"
	"github.com/opencrun-go/opencrun/hardware"
)

func twoCPUTopology() *hardware.Topology {
	return &hardware.Topology{Nodes: []hardware.Node{
		{ID: 0, CacheDomains: []hardware.CacheDomain{
			{ID: 0, CPUs: []hardware.CPU{{OSIndex: -1}, {OSIndex: -1}}},
		}},
	}}
}

func TestNewDeviceReportsComputeUnits(t *testing.T) {
	// Not t.Parallel(): NewDevice writes the package-level
	// core.ProfiledCountersOverride, which the other device tests in this
	// file also write.
	dev := NewDevice(twoCPUTopology(), Config{GlobalMemoryBytes: 4096, LocalMemoryBytes: 1024}, nil)
	if dev.Info().MaxComputeUnits != 2 {
		t.Errorf("MaxComputeUnits = %d, want 2", dev.Info().MaxComputeUnits)
	}
	if dev.Info().Kind != core.DeviceCPU {
		t.Errorf("Kind = %v, want DeviceCPU", dev.Info().Kind)
	}
	if dev.Parent() != nil {
		t.Error("a top-level device should have no parent")
	}
}

func TestDeviceSubmitMarkerCompletes(t *testing.T) {
	dev := NewDevice(twoCPUTopology(), Config{GlobalMemoryBytes: 4096, LocalMemoryBytes: 1024}, nil)

	ev := core.NewInternalEvent(nil, core.CommandMarker, false)
	cmd := &core.Command{Kind: core.CommandMarker, Event: ev}
	if err := dev.Submit(cmd); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if status := ev.Wait(); status != core.StatusComplete {
		t.Errorf("marker event status = %d, want StatusComplete", status)
	}
}

func TestDeviceSubmitManyMarkersAllComplete(t *testing.T) {
	dev := NewDevice(twoCPUTopology(), Config{GlobalMemoryBytes: 4096, LocalMemoryBytes: 1024}, nil)

	const n = 8
	events := make([]*core.Event, n)
	for i := 0; i < n; i++ {
		ev := core.NewInternalEvent(nil, core.CommandMarker, false)
		events[i] = ev
		if err := dev.Submit(&core.Command{Kind: core.CommandMarker, Event: ev}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	if status := core.WaitForEvents(events); status != core.StatusComplete {
		t.Errorf("WaitForEvents = %d, want StatusComplete", status)
	}
}
