package vms

import (
	"context"
	"fmt"

	"github.com/hostplane/pveman/lib/logger"
)

// ListVMs lists every guest on every node of the cluster. Core counts come
// from each guest's config; when that per-guest fetch fails the guest is
// still listed with a nil core count instead of failing the whole listing.
func (m *manager) ListVMs(ctx context.Context) ([]VM, error) {
	log := logger.FromContext(ctx)

	nodes, err := m.api.ListNodes(ctx)
	if err != nil {
		return nil, Classify("list cluster nodes", err)
	}

	result := make([]VM, 0)
	for _, node := range nodes {
		summaries, err := m.api.ListVMs(ctx, node.Node)
		if err != nil {
			return nil, Classify(fmt.Sprintf("list vms on node %s", node.Node), err)
		}

		for _, summary := range summaries {
			vm := VM{
				VMID:   summary.VMID,
				Name:   summary.Name,
				Node:   node.Node,
				Status: statusFromUpstream(summary.Status),
				Memory: Memory{Used: summary.Mem, Total: summary.MaxMem},
			}

			cfg, err := m.api.GetVMConfig(ctx, node.Node, summary.VMID)
			if err != nil {
				// Degrade only the core count, keep the guest listed.
				log.WarnContext(ctx, "vm config unavailable, core count degraded",
					"node", node.Node, "vmid", summary.VMID, "error", err)
			} else {
				cores := cfg.Cores
				vm.Cores = &cores
			}

			result = append(result, vm)
		}
	}

	log.DebugContext(ctx, "listed vms", "count", len(result))
	return result, nil
}

// GetVM returns a single guest's current state.
func (m *manager) GetVM(ctx context.Context, node string, vmid int) (*VM, error) {
	status, err := m.api.GetVMStatus(ctx, node, vmid)
	if err != nil {
		return nil, Classify(fmt.Sprintf("get status of vm %d on node %s", vmid, node), err)
	}

	vm := &VM{
		VMID:   vmid,
		Name:   status.Name,
		Node:   node,
		Status: statusFromUpstream(status.Status),
		Memory: Memory{Used: status.Mem, Total: status.MaxMem},
	}

	if cfg, err := m.api.GetVMConfig(ctx, node, vmid); err == nil {
		cores := cfg.Cores
		vm.Cores = &cores
	}

	return vm, nil
}
