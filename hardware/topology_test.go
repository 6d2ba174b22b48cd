package hardware_test

import (
	"runtime"
	"testing"

	"github.com/opencrun-go/opencrun/hardware"
)

func TestDiscoverNeverFails(t *testing.T) {
	t.Parallel()
	topo := hardware.Discover()
	if topo == nil {
		t.Fatal("Discover() returned nil")
	}
	cpus := topo.AllCPUs()
	if len(cpus) != runtime.NumCPU() {
		t.Errorf("AllCPUs() returned %d CPUs, want %d", len(cpus), runtime.NumCPU())
	}
}

func TestPartitionEqually(t *testing.T) {
	t.Parallel()
	topo := &hardware.Topology{Nodes: []hardware.Node{
		{ID: 0, CacheDomains: []hardware.CacheDomain{
			{ID: 0, CPUs: []hardware.CPU{{OSIndex: 0}, {OSIndex: 1}, {OSIndex: 2}, {OSIndex: 3}}},
		}},
	}}
	groups := topo.Partition(hardware.PartitionEqually, 2, nil)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	if total != 4 {
		t.Errorf("total CPUs across groups = %d, want 4", total)
	}
}

func TestPartitionByCounts(t *testing.T) {
	t.Parallel()
	topo := &hardware.Topology{Nodes: []hardware.Node{
		{ID: 0, CacheDomains: []hardware.CacheDomain{
			{ID: 0, CPUs: []hardware.CPU{{OSIndex: 0}, {OSIndex: 1}, {OSIndex: 2}}},
		}},
	}}
	groups := topo.Partition(hardware.PartitionByCounts, 0, []int{1, 2})
	if len(groups) != 2 || len(groups[0]) != 1 || len(groups[1]) != 2 {
		t.Fatalf("groups = %v", groups)
	}
}

func TestPartitionByAffinityDomain(t *testing.T) {
	t.Parallel()
	topo := &hardware.Topology{Nodes: []hardware.Node{
		{ID: 0, CacheDomains: []hardware.CacheDomain{
			{ID: 0, CPUs: []hardware.CPU{{OSIndex: 0}}},
			{ID: 1, CPUs: []hardware.CPU{{OSIndex: 1}, {OSIndex: 2}}},
		}},
	}}
	groups := topo.Partition(hardware.PartitionByAffinityDomain, 0, nil)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2 (one per cache domain)", len(groups))
	}
}

func TestFilterCacheDomains(t *testing.T) {
	t.Parallel()
	topo := &hardware.Topology{Nodes: []hardware.Node{
		{ID: 0, CacheDomains: []hardware.CacheDomain{
			{ID: 0, CPUs: []hardware.CPU{{OSIndex: 0}}},
			{ID: 1, CPUs: []hardware.CPU{{OSIndex: 1}}},
		}},
	}}
	out := topo.FilterCacheDomains(func(d hardware.CacheDomain) bool { return d.ID == 1 })
	if len(out) != 1 || out[0].ID != 1 {
		t.Errorf("FilterCacheDomains() = %v", out)
	}
}
