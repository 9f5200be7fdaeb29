package vms

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hostplane/pveman/lib/proxmox"
)

// fakeAPI is an in-memory proxmox.API that records every call in order.
// Mutating calls return canned task references so tests can assert both
// the submission order and the absence of submissions.
type fakeAPI struct {
	nodes    []proxmox.Node
	vms      map[string][]proxmox.VMSummary
	storages map[string][]proxmox.Storage
	statuses map[string]*proxmox.VMStatus
	configs  map[string]*proxmox.VMConfig

	configErrs map[string]error
	statusErr  error
	actionErr  error
	deleteErr  error
	createErr  error

	calls      []string
	lastCreate url.Values
}

var _ proxmox.API = (*fakeAPI)(nil)

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		vms:        map[string][]proxmox.VMSummary{},
		storages:   map[string][]proxmox.Storage{},
		statuses:   map[string]*proxmox.VMStatus{},
		configs:    map[string]*proxmox.VMConfig{},
		configErrs: map[string]error{},
	}
}

func vmKey(node string, vmid int) string {
	return fmt.Sprintf("%s/%d", node, vmid)
}

func (f *fakeAPI) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

// mutations returns the recorded mutating calls only.
func (f *fakeAPI) mutations() []string {
	var out []string
	for _, c := range f.calls {
		switch c[0] {
		case '!':
			out = append(out, c[1:])
		}
	}
	return out
}

func (f *fakeAPI) ListNodes(ctx context.Context) ([]proxmox.Node, error) {
	f.record("ListNodes")
	return f.nodes, nil
}

func (f *fakeAPI) GetNodeStatus(ctx context.Context, node string) (*proxmox.NodeStatus, error) {
	f.record("GetNodeStatus %s", node)
	return &proxmox.NodeStatus{}, nil
}

func (f *fakeAPI) GetClusterStatus(ctx context.Context) ([]proxmox.ClusterStatusEntry, error) {
	f.record("GetClusterStatus")
	return nil, nil
}

func (f *fakeAPI) ListVMs(ctx context.Context, node string) ([]proxmox.VMSummary, error) {
	f.record("ListVMs %s", node)
	return f.vms[node], nil
}

func (f *fakeAPI) ListStorage(ctx context.Context, node string) ([]proxmox.Storage, error) {
	f.record("ListStorage %s", node)
	return f.storages[node], nil
}

func (f *fakeAPI) GetVMConfig(ctx context.Context, node string, vmid int) (*proxmox.VMConfig, error) {
	f.record("GetVMConfig %s", vmKey(node, vmid))
	if err, ok := f.configErrs[vmKey(node, vmid)]; ok {
		return nil, err
	}
	if cfg, ok := f.configs[vmKey(node, vmid)]; ok {
		return cfg, nil
	}
	return nil, &proxmox.APIError{
		StatusCode: 500,
		Status:     "500 Internal Server Error",
		Message:    fmt.Sprintf("Configuration file 'nodes/%s/qemu-server/%d.conf' does not exist", node, vmid),
	}
}

func (f *fakeAPI) GetVMStatus(ctx context.Context, node string, vmid int) (*proxmox.VMStatus, error) {
	f.record("GetVMStatus %s", vmKey(node, vmid))
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	if status, ok := f.statuses[vmKey(node, vmid)]; ok {
		return status, nil
	}
	return nil, &proxmox.APIError{
		StatusCode: 500,
		Status:     "500 Internal Server Error",
		Message:    fmt.Sprintf("VM %d not found", vmid),
	}
}

func (f *fakeAPI) CreateVM(ctx context.Context, node string, params url.Values) (proxmox.TaskRef, error) {
	f.record("!CreateVM %s vmid=%s", node, params.Get("vmid"))
	f.lastCreate = params
	if f.createErr != nil {
		return "", f.createErr
	}
	return proxmox.TaskRef("UPID:" + node + ":qmcreate:" + params.Get("vmid")), nil
}

func (f *fakeAPI) VMAction(ctx context.Context, node string, vmid int, action string) (proxmox.TaskRef, error) {
	f.record("!VMAction %s %s", vmKey(node, vmid), action)
	if f.actionErr != nil {
		return "", f.actionErr
	}
	return proxmox.TaskRef(fmt.Sprintf("UPID:%s:qm%s:%d", node, action, vmid)), nil
}

func (f *fakeAPI) DeleteVM(ctx context.Context, node string, vmid int) (proxmox.TaskRef, error) {
	f.record("!DeleteVM %s", vmKey(node, vmid))
	if f.deleteErr != nil {
		return "", f.deleteErr
	}
	return proxmox.TaskRef(fmt.Sprintf("UPID:%s:qmdestroy:%d", node, vmid)), nil
}

func (f *fakeAPI) AgentExec(ctx context.Context, node string, vmid int, command []string) (int, error) {
	f.record("!AgentExec %s", vmKey(node, vmid))
	return 1000, nil
}

func (f *fakeAPI) AgentExecStatus(ctx context.Context, node string, vmid int, pid int) (*proxmox.ExecStatus, error) {
	f.record("AgentExecStatus %s pid=%d", vmKey(node, vmid), pid)
	return &proxmox.ExecStatus{Exited: 1}, nil
}
