package vms

import (
	"net/url"
	"strconv"

	"github.com/hostplane/pveman/lib/proxmox"
)

// Status is the observed lifecycle state of a guest. The service never
// mutates it directly; Proxmox drives transitions and this core only reads
// the state before acting.
type Status string

const (
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
	StatusUnknown Status = "unknown"
)

// statusFromUpstream folds every state this service does not reason about
// (paused, suspended, ...) into StatusUnknown.
func statusFromUpstream(s string) Status {
	switch s {
	case "running":
		return StatusRunning
	case "stopped":
		return StatusStopped
	default:
		return StatusUnknown
	}
}

// Action is a requested lifecycle transition.
type Action string

const (
	ActionStart    Action = "start"
	ActionStop     Action = "stop"
	ActionShutdown Action = "shutdown"
	ActionReset    Action = "reset"
	ActionDelete   Action = "delete"
)

// Outcome reports what happened to a lifecycle request. Rejections are
// errors, not outcomes.
type Outcome string

const (
	// OutcomeNoop means the guest already satisfies the action's goal and
	// no mutating call was issued.
	OutcomeNoop Outcome = "noop"
	// OutcomeSubmitted means the action was handed to Proxmox. Completion
	// is not awaited; the task reference is the caller's to poll.
	OutcomeSubmitted Outcome = "submitted"
)

// ActionResult is the structured result of a lifecycle operation.
type ActionResult struct {
	Outcome Outcome
	Message string
	// Task references the submitted operation. Empty on noop.
	Task proxmox.TaskRef
	// StopTask is set only for a forced delete of a running guest, where a
	// stop is submitted before the delete as an independent task.
	StopTask proxmox.TaskRef
}

// Memory is the guest's memory usage in bytes as Proxmox reports it.
type Memory struct {
	Used  int64
	Total int64
}

// VM is one entry of the cluster-wide guest listing. Cores is nil when the
// per-guest config could not be retrieved; the listing still succeeds and
// every other field stays populated.
type VM struct {
	VMID   int
	Name   string
	Node   string
	Status Status
	Cores  *int
	Memory Memory
}

// CreateRequest carries the caller-supplied parameters for a new guest.
type CreateRequest struct {
	VMID       int
	Name       string
	Cores      int
	MemoryMB   int
	DiskSizeGB int
	// Storage optionally pins the storage backend. Empty means auto-detect.
	Storage string
	// OSType defaults to "l26" (Linux 2.6+ kernel family).
	OSType string
}

// CreateSpec is the complete, validated creation specification assembled
// by the planner. It is immutable once built and is submitted exactly once.
type CreateSpec struct {
	Node       string
	VMID       int
	Name       string
	Cores      int
	MemoryMB   int
	OSType     string
	Storage    string
	DiskFormat string
	DiskSizeGB int
	CloudInit  bool
}

// params renders the spec as the form parameters of POST /nodes/{node}/qemu.
func (s CreateSpec) params() url.Values {
	p := url.Values{}
	p.Set("vmid", strconv.Itoa(s.VMID))
	p.Set("name", s.Name)
	p.Set("cores", strconv.Itoa(s.Cores))
	p.Set("memory", strconv.Itoa(s.MemoryMB))
	p.Set("ostype", s.OSType)
	p.Set("scsihw", "virtio-scsi-pci")
	p.Set("boot", "order=scsi0")
	p.Set("agent", "1")
	p.Set("vga", "std")
	p.Set("net0", "virtio,bridge=vmbr0")
	p.Set("scsi0", s.Storage+":"+strconv.Itoa(s.DiskSizeGB)+",format="+s.DiskFormat)
	if s.CloudInit {
		p.Set("ide2", s.Storage+":cloudinit")
	}
	return p
}

// CreateResult is returned on successful creation submission.
type CreateResult struct {
	Spec CreateSpec
	Task proxmox.TaskRef
}
