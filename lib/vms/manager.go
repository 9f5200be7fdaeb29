// Package vms implements guest lifecycle orchestration against the
// Proxmox API: state-aware transition guards, storage-aware creation
// planning, task submission, and classification of upstream failures.
//
// Every operation queries fresh state from Proxmox; nothing is cached
// across calls, no submitted task is polled, and no failed call is
// retried.
package vms

import (
	"context"

	"github.com/hostplane/pveman/lib/proxmox"
)

// Manager handles guest lifecycle operations
type Manager interface {
	ListVMs(ctx context.Context) ([]VM, error)
	GetVM(ctx context.Context, node string, vmid int) (*VM, error)
	CreateVM(ctx context.Context, node string, req CreateRequest) (*CreateResult, error)
	StartVM(ctx context.Context, node string, vmid int) (*ActionResult, error)
	StopVM(ctx context.Context, node string, vmid int) (*ActionResult, error)
	ShutdownVM(ctx context.Context, node string, vmid int) (*ActionResult, error)
	ResetVM(ctx context.Context, node string, vmid int) (*ActionResult, error)
	DeleteVM(ctx context.Context, node string, vmid int, force bool) (*ActionResult, error)
}

type manager struct {
	api     proxmox.API
	metrics *Metrics
}

// NewManager creates a new guest manager. The API handle is shared and
// already authenticated; metrics may be nil when telemetry is disabled.
func NewManager(api proxmox.API, metrics *Metrics) Manager {
	return &manager{
		api:     api,
		metrics: metrics,
	}
}
