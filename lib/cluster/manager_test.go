package cluster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostplane/pveman/lib/proxmox"
	"github.com/hostplane/pveman/lib/vms"
)

// fakeAPI stubs only the read paths this package uses; calling anything
// else panics via the embedded nil interface.
type fakeAPI struct {
	proxmox.API
	nodes      []proxmox.Node
	nodeStatus *proxmox.NodeStatus
	entries    []proxmox.ClusterStatusEntry
	storages   []proxmox.Storage
	err        error
}

func (f *fakeAPI) ListNodes(ctx context.Context) ([]proxmox.Node, error) {
	return f.nodes, f.err
}

func (f *fakeAPI) GetNodeStatus(ctx context.Context, node string) (*proxmox.NodeStatus, error) {
	return f.nodeStatus, f.err
}

func (f *fakeAPI) GetClusterStatus(ctx context.Context) ([]proxmox.ClusterStatusEntry, error) {
	return f.entries, f.err
}

func (f *fakeAPI) ListStorage(ctx context.Context, node string) ([]proxmox.Storage, error) {
	return f.storages, f.err
}

func intPtr(v int) *int { return &v }

func TestListNodes(t *testing.T) {
	mgr := NewManager(&fakeAPI{nodes: []proxmox.Node{
		{Node: "pve1", Status: "online", Uptime: 3600, CPU: 0.25, MaxCPU: 16, Mem: 1 << 30, MaxMem: 8 << 30},
	}})

	nodes, err := mgr.ListNodes(t.Context())
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "pve1", nodes[0].Name)
	assert.Equal(t, "online", nodes[0].Status)
	assert.Equal(t, 16, nodes[0].MaxCPU)
	assert.Equal(t, int64(8<<30), nodes[0].MemTotal)
}

func TestGetNodeStatus(t *testing.T) {
	status := &proxmox.NodeStatus{Uptime: 7200, PVEVersion: "pve-manager/8.2.4", LoadAvg: []string{"0.10", "0.12", "0.09"}}
	status.CPUInfo.CPUs = 32
	status.CPUInfo.Model = "AMD EPYC 7302"
	status.Memory.Used = 2 << 30
	status.Memory.Total = 64 << 30

	mgr := NewManager(&fakeAPI{nodeStatus: status})
	got, err := mgr.GetNodeStatus(t.Context(), "pve1")
	require.NoError(t, err)
	assert.Equal(t, "pve1", got.Name)
	assert.Equal(t, "0.10 0.12 0.09", got.LoadAvg)
	assert.Equal(t, 32, got.CPUs)
	assert.Equal(t, "pve-manager/8.2.4", got.PVEVersion)
}

func TestGetClusterStatus(t *testing.T) {
	mgr := NewManager(&fakeAPI{entries: []proxmox.ClusterStatusEntry{
		{Type: "cluster", Name: "homelab", Quorate: intPtr(1), Nodes: intPtr(2)},
		{Type: "node", Name: "pve1", IP: "10.0.0.1", Online: intPtr(1), Local: intPtr(1)},
		{Type: "node", Name: "pve2", IP: "10.0.0.2", Online: intPtr(0)},
	}})

	status, err := mgr.GetClusterStatus(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "homelab", status.Name)
	assert.True(t, status.Quorate)
	assert.Equal(t, 2, status.NodeCount)
	require.Len(t, status.Members, 2)
	assert.True(t, status.Members[0].Online)
	assert.True(t, status.Members[0].Local)
	assert.False(t, status.Members[1].Online)
}

func TestGetClusterStatusStandalone(t *testing.T) {
	mgr := NewManager(&fakeAPI{entries: []proxmox.ClusterStatusEntry{
		{Type: "node", Name: "pve1", Online: intPtr(1)},
	}})

	status, err := mgr.GetClusterStatus(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "standalone", status.Name)
	assert.Equal(t, 1, status.NodeCount)
}

func TestListStorageSplitsContent(t *testing.T) {
	mgr := NewManager(&fakeAPI{storages: []proxmox.Storage{
		{Name: "local-lvm", Type: "lvmthin", Content: "images,rootdir", Active: 1, Total: 100, Used: 40, Avail: 60},
	}})

	storages, err := mgr.ListStorage(t.Context(), "pve1")
	require.NoError(t, err)
	require.Len(t, storages, 1)
	assert.Equal(t, []string{"images", "rootdir"}, storages[0].Content)
	assert.True(t, storages[0].Active)
	assert.False(t, storages[0].Shared)
}

func TestQueriesClassifyUpstreamFailures(t *testing.T) {
	mgr := NewManager(&fakeAPI{err: &proxmox.APIError{
		StatusCode: 403,
		Status:     "403 Forbidden",
		Message:    "Permission check failed",
	}})

	_, err := mgr.ListNodes(t.Context())
	assert.ErrorIs(t, err, vms.ErrPermission)

	_, err = mgr.ListStorage(t.Context(), "pve1")
	assert.ErrorIs(t, err, vms.ErrPermission)
}
