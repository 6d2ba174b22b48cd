// Package hardware adapts the host machine's NUMA/socket/cache/CPU
// layout into a small tree the cpu package uses to bind worker threads
// and size the multiprocessor-per-cache-domain split. It plays the role
// of the original System/Hardware adaptor, without the hwloc dependency:
// topology is derived from runtime.NumCPU() plus, on Linux, a best-effort
// /proc/cpuinfo scan, falling back to a single flat domain anywhere else.
package hardware

import (
	"bufio"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// ComponentKind mirrors the hwloc-derived component kinds the original
// adaptor exposed, trimmed to the ones this runtime actually consumes.
type ComponentKind int

const (
	KindSystem ComponentKind = iota
	KindNode
	KindSocket
	KindCache
	KindCPU
)

// CPU is a leaf component: one logical processor, identified by the OS
// affinity id the cpu package will pin a worker thread to.
type CPU struct {
	OSIndex int
	Socket  int
	Node    int
}

// CacheDomain groups the CPUs that share a last-level cache — the unit a
// Multiprocessor is sized against (spec §4.6: "a set of WorkerThreads
// bound to the CPUs of one cache domain, typically a shared-LLC socket").
type CacheDomain struct {
	ID   int
	CPUs []CPU
}

// Node is a NUMA node: a memory pool and the cache domains built from its
// CPUs.
type Node struct {
	ID           int
	MemoryBytes  uint64
	CacheDomains []CacheDomain
}

// Topology is the full adapted tree for one host.
type Topology struct {
	Nodes []Node
}

// Discover builds the topology for the current host. It never fails: a
// machine it cannot introspect in detail still yields one Node with one
// CacheDomain containing every logical CPU runtime.NumCPU() reports.
func Discover() *Topology {
	n := runtime.NumCPU()
	sockets := readSocketMap(n)
	nodeOf := readNUMAMap(n)

	byNode := make(map[int]map[int][]CPU) // node -> socket -> cpus
	for i := 0; i < n; i++ {
		node := nodeOf[i]
		socket := sockets[i]
		if byNode[node] == nil {
			byNode[node] = make(map[int][]CPU)
		}
		byNode[node][socket] = append(byNode[node][socket], CPU{OSIndex: i, Socket: socket, Node: node})
	}

	topo := &Topology{}
	for nodeID, socketMap := range byNode {
		node := Node{ID: nodeID, MemoryBytes: readNodeMemory(nodeID)}
		for socketID, cpus := range socketMap {
			node.CacheDomains = append(node.CacheDomains, CacheDomain{ID: socketID, CPUs: cpus})
		}
		topo.Nodes = append(topo.Nodes, node)
	}
	return topo
}

// AllCPUs returns every logical CPU in the topology, in a stable order.
func (t *Topology) AllCPUs() []CPU {
	var cpus []CPU
	for _, node := range t.Nodes {
		for _, domain := range node.CacheDomains {
			cpus = append(cpus, domain.CPUs...)
		}
	}
	return cpus
}

// FilterCacheDomains returns every CacheDomain across every node for which
// keep returns true — the "filtered iteration" the data model calls for.
func (t *Topology) FilterCacheDomains(keep func(CacheDomain) bool) []CacheDomain {
	var out []CacheDomain
	for _, node := range t.Nodes {
		for _, domain := range node.CacheDomains {
			if keep(domain) {
				out = append(out, domain)
			}
		}
	}
	return out
}

// PartitionKind enumerates how Partition splits a topology into
// sub-groupings of CPUs, mirroring the CL device-partition kinds that a
// CPU device can honor by grouping along real hardware boundaries.
type PartitionKind int

const (
	PartitionEqually PartitionKind = iota
	PartitionByCounts
	PartitionByAffinityDomain
)

// Partition splits the topology's CPUs into groups. For PartitionEqually,
// arg is the number of equally sized groups (the last absorbs any
// remainder). For PartitionByCounts, counts gives the exact size of each
// group in order. For PartitionByAffinityDomain, the split follows
// CacheDomain boundaries (the NUMA-node/shared-LLC granularity Discover
// already resolved) and both arg and counts are ignored.
func (t *Topology) Partition(kind PartitionKind, arg int, counts []int) [][]CPU {
	switch kind {
	case PartitionByAffinityDomain:
		var groups [][]CPU
		for _, node := range t.Nodes {
			for _, domain := range node.CacheDomains {
				groups = append(groups, domain.CPUs)
			}
		}
		return groups
	case PartitionByCounts:
		all := t.AllCPUs()
		var groups [][]CPU
		pos := 0
		for _, c := range counts {
			end := pos + c
			if end > len(all) {
				end = len(all)
			}
			groups = append(groups, all[pos:end])
			pos = end
		}
		return groups
	default: // PartitionEqually
		all := t.AllCPUs()
		if arg <= 0 {
			return [][]CPU{all}
		}
		groups := make([][]CPU, arg)
		per := len(all) / arg
		if per == 0 {
			per = 1
		}
		pos := 0
		for i := 0; i < arg && pos < len(all); i++ {
			end := pos + per
			if i == arg-1 || end > len(all) {
				end = len(all)
			}
			groups[i] = all[pos:end]
			pos = end
		}
		return groups
	}
}

func readSocketMap(n int) map[int]int {
	sockets := make(map[int]int, n)
	for i := 0; i < n; i++ {
		sockets[i] = 0
	}
	f, err := os.Open("/proc/cpuinfo")
	if err != nil {
		return sockets
	}
	defer f.Close()

	cpu := -1
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "processor"):
			cpu = parseColonInt(line, cpu)
		case strings.HasPrefix(line, "physical id"):
			if cpu >= 0 && cpu < n {
				sockets[cpu] = parseColonInt(line, 0)
			}
		}
	}
	return sockets
}

func readNUMAMap(n int) map[int]int {
	nodes := make(map[int]int, n)
	base := "/sys/devices/system/node"
	entries, err := os.ReadDir(base)
	if err != nil {
		return nodes
	}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "node") {
			continue
		}
		nodeID, err := strconv.Atoi(strings.TrimPrefix(name, "node"))
		if err != nil {
			continue
		}
		cpuList, err := os.ReadFile(base + "/" + name + "/cpulist")
		if err != nil {
			continue
		}
		for _, cpu := range expandList(strings.TrimSpace(string(cpuList))) {
			if cpu < n {
				nodes[cpu] = nodeID
			}
		}
	}
	return nodes
}

func readNodeMemory(nodeID int) uint64 {
	path := "/sys/devices/system/node/node" + strconv.Itoa(nodeID) + "/meminfo"
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.Contains(line, "MemTotal") {
			fields := strings.Fields(line)
			if len(fields) >= 4 {
				kb, err := strconv.ParseUint(fields[3], 10, 64)
				if err == nil {
					return kb * 1024
				}
			}
		}
	}
	return 0
}

func parseColonInt(line string, fallback int) int {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return fallback
	}
	v, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return fallback
	}
	return v
}

// expandList parses a Linux cpulist range expression like "0-3,8,10-11".
func expandList(s string) []int {
	var out []int
	if s == "" {
		return out
	}
	for _, part := range strings.Split(s, ",") {
		if strings.Contains(part, "-") {
			bounds := strings.SplitN(part, "-", 2)
			lo, err1 := strconv.Atoi(bounds[0])
			hi, err2 := strconv.Atoi(bounds[1])
			if err1 != nil || err2 != nil {
				continue
			}
			for i := lo; i <= hi; i++ {
				out = append(out, i)
			}
		} else if v, err := strconv.Atoi(part); err == nil {
			out = append(out, v)
		}
	}
	return out
}
