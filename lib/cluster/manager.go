// Package cluster exposes read-only views of the Proxmox cluster: node
// listings, node status, cluster quorum state, and per-node storage
// backends. Everything here is a direct pass-through query.
package cluster

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/hostplane/pveman/lib/logger"
	"github.com/hostplane/pveman/lib/proxmox"
	"github.com/hostplane/pveman/lib/vms"
)

// Manager handles cluster inspection queries
type Manager interface {
	ListNodes(ctx context.Context) ([]Node, error)
	GetNodeStatus(ctx context.Context, node string) (*NodeStatus, error)
	GetClusterStatus(ctx context.Context) (*ClusterStatus, error)
	ListStorage(ctx context.Context, node string) ([]StorageBackend, error)
}

type manager struct {
	api proxmox.API
}

// NewManager creates a new cluster manager sharing the authenticated API
// handle.
func NewManager(api proxmox.API) Manager {
	return &manager{api: api}
}

func (m *manager) ListNodes(ctx context.Context) ([]Node, error) {
	nodes, err := m.api.ListNodes(ctx)
	if err != nil {
		return nil, vms.Classify("list cluster nodes", err)
	}

	return lo.Map(nodes, func(n proxmox.Node, _ int) Node {
		return Node{
			Name:     n.Node,
			Status:   n.Status,
			Uptime:   n.Uptime,
			CPUUsage: n.CPU,
			MaxCPU:   n.MaxCPU,
			MemUsed:  n.Mem,
			MemTotal: n.MaxMem,
		}
	}), nil
}

func (m *manager) GetNodeStatus(ctx context.Context, node string) (*NodeStatus, error) {
	status, err := m.api.GetNodeStatus(ctx, node)
	if err != nil {
		return nil, vms.Classify(fmt.Sprintf("get status of node %s", node), err)
	}

	return &NodeStatus{
		Name:       node,
		Uptime:     status.Uptime,
		PVEVersion: status.PVEVersion,
		LoadAvg:    strings.Join(status.LoadAvg, " "),
		CPUs:       status.CPUInfo.CPUs,
		CPUModel:   status.CPUInfo.Model,
		MemUsed:    status.Memory.Used,
		MemTotal:   status.Memory.Total,
	}, nil
}

func (m *manager) GetClusterStatus(ctx context.Context) (*ClusterStatus, error) {
	log := logger.FromContext(ctx)

	entries, err := m.api.GetClusterStatus(ctx)
	if err != nil {
		return nil, vms.Classify("get cluster status", err)
	}

	result := &ClusterStatus{}
	for _, entry := range entries {
		switch entry.Type {
		case "cluster":
			result.Name = entry.Name
			result.Quorate = intIsSet(entry.Quorate)
			if entry.Nodes != nil {
				result.NodeCount = *entry.Nodes
			}
		case "node":
			result.Members = append(result.Members, ClusterMember{
				Name:   entry.Name,
				IP:     entry.IP,
				Online: intIsSet(entry.Online),
				Local:  intIsSet(entry.Local),
			})
		default:
			log.DebugContext(ctx, "ignoring cluster status entry", "type", entry.Type, "id", entry.ID)
		}
	}

	// A standalone node reports no cluster entry at all.
	if result.Name == "" {
		result.Name = "standalone"
		result.NodeCount = len(result.Members)
	}

	return result, nil
}

func (m *manager) ListStorage(ctx context.Context, node string) ([]StorageBackend, error) {
	storages, err := m.api.ListStorage(ctx, node)
	if err != nil {
		return nil, vms.Classify(fmt.Sprintf("list storage on node %s", node), err)
	}

	return lo.Map(storages, func(s proxmox.Storage, _ int) StorageBackend {
		return StorageBackend{
			Name:    s.Name,
			Type:    s.Type,
			Content: strings.Split(s.Content, ","),
			Active:  s.Active != 0,
			Shared:  s.Shared != 0,
			Total:   s.Total,
			Used:    s.Used,
			Avail:   s.Avail,
		}
	}), nil
}

func intIsSet(v *int) bool {
	return v != nil && *v != 0
}
