package vms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostplane/pveman/lib/proxmox"
)

func TestListVMsAcrossNodes(t *testing.T) {
	api := newFakeAPI()
	api.nodes = []proxmox.Node{{Node: "pve1"}, {Node: "pve2"}}
	api.vms["pve1"] = []proxmox.VMSummary{
		{VMID: 100, Name: "web-01", Status: "running", Mem: 512 << 20, MaxMem: 2 << 30},
	}
	api.vms["pve2"] = []proxmox.VMSummary{
		{VMID: 200, Name: "db-01", Status: "stopped", MaxMem: 4 << 30},
	}
	api.configs[vmKey("pve1", 100)] = &proxmox.VMConfig{Cores: 2}
	api.configs[vmKey("pve2", 200)] = &proxmox.VMConfig{Cores: 4}

	mgr := NewManager(api, nil)
	vms, err := mgr.ListVMs(t.Context())
	require.NoError(t, err)
	require.Len(t, vms, 2)

	assert.Equal(t, "pve1", vms[0].Node)
	assert.Equal(t, StatusRunning, vms[0].Status)
	require.NotNil(t, vms[0].Cores)
	assert.Equal(t, 2, *vms[0].Cores)
	assert.Equal(t, int64(512<<20), vms[0].Memory.Used)
	assert.Equal(t, int64(2<<30), vms[0].Memory.Total)

	assert.Equal(t, "pve2", vms[1].Node)
	assert.Equal(t, StatusStopped, vms[1].Status)
	require.NotNil(t, vms[1].Cores)
	assert.Equal(t, 4, *vms[1].Cores)
}

func TestListVMsDegradesCoresOnConfigFailure(t *testing.T) {
	api := newFakeAPI()
	api.nodes = []proxmox.Node{{Node: "pve1"}}
	api.vms["pve1"] = []proxmox.VMSummary{
		{VMID: 100, Name: "healthy", Status: "running", Mem: 100, MaxMem: 200},
		{VMID: 101, Name: "locked", Status: "running", Mem: 300, MaxMem: 400},
	}
	api.configs[vmKey("pve1", 100)] = &proxmox.VMConfig{Cores: 8}
	api.configErrs[vmKey("pve1", 101)] = &proxmox.APIError{
		StatusCode: 500,
		Status:     "500 Internal Server Error",
		Message:    "got timeout",
	}

	mgr := NewManager(api, nil)
	vms, err := mgr.ListVMs(t.Context())
	require.NoError(t, err, "one guest's missing config must not fail the listing")
	require.Len(t, vms, 2)

	require.NotNil(t, vms[0].Cores)
	assert.Equal(t, 8, *vms[0].Cores)

	// Only the core count degrades; everything else stays populated.
	assert.Nil(t, vms[1].Cores)
	assert.Equal(t, "locked", vms[1].Name)
	assert.Equal(t, StatusRunning, vms[1].Status)
	assert.Equal(t, int64(300), vms[1].Memory.Used)
	assert.Equal(t, int64(400), vms[1].Memory.Total)
}

func TestGetVM(t *testing.T) {
	api := newFakeAPI()
	api.statuses[vmKey("pve1", 100)] = &proxmox.VMStatus{
		Status: "running", Name: "web-01", Mem: 100, MaxMem: 200,
	}
	api.configs[vmKey("pve1", 100)] = &proxmox.VMConfig{Cores: 2}

	mgr := NewManager(api, nil)
	vm, err := mgr.GetVM(t.Context(), "pve1", 100)
	require.NoError(t, err)
	assert.Equal(t, 100, vm.VMID)
	assert.Equal(t, "web-01", vm.Name)
	assert.Equal(t, StatusRunning, vm.Status)
	require.NotNil(t, vm.Cores)
	assert.Equal(t, 2, *vm.Cores)

	_, err = mgr.GetVM(t.Context(), "pve1", 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
