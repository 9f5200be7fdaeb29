// Package guest runs shell commands inside guests through the QEMU guest
// agent. Execution is awaitable from the caller's side: the agent starts
// the process, and this package polls its status until it exits or the
// request context expires.
package guest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hostplane/pveman/lib/logger"
	"github.com/hostplane/pveman/lib/proxmox"
	"github.com/hostplane/pveman/lib/vms"
)

var (
	// ErrNotRunning is returned when the target guest is not running
	ErrNotRunning = errors.New("vm is not running")

	// ErrAgentUnavailable is returned when the QEMU guest agent is not
	// installed or not responding inside the guest
	ErrAgentUnavailable = errors.New("qemu guest agent unavailable")
)

// ExecResult is the outcome of a completed in-guest command.
type ExecResult struct {
	Success  bool
	ExitCode int
	Output   string
	Stderr   string
}

// Manager handles in-guest command execution
type Manager interface {
	ExecCommand(ctx context.Context, node string, vmid int, command string) (*ExecResult, error)
}

type manager struct {
	api          proxmox.API
	metrics      *Metrics
	pollInterval time.Duration
}

// NewManager creates a new guest exec manager. metrics may be nil.
func NewManager(api proxmox.API, metrics *Metrics) Manager {
	return &manager{
		api:          api,
		metrics:      metrics,
		pollInterval: time.Second,
	}
}

// ExecCommand starts command in a shell inside the guest and blocks until
// the process exits or ctx expires. A submitted process is not killed on
// context expiry; only the wait is abandoned.
func (m *manager) ExecCommand(ctx context.Context, node string, vmid int, command string) (*ExecResult, error) {
	log := logger.FromContext(ctx)
	start := time.Now()

	status, err := m.api.GetVMStatus(ctx, node, vmid)
	if err != nil {
		m.recordExec(ctx, "error", 0, nil, start)
		return nil, vms.Classify(fmt.Sprintf("get status of vm %d on node %s", vmid, node), err)
	}
	if status.Status != "running" {
		m.recordExec(ctx, "rejected", 0, nil, start)
		return nil, fmt.Errorf("%w: vm %d is %s", ErrNotRunning, vmid, status.Status)
	}

	pid, err := m.api.AgentExec(ctx, node, vmid, []string{"/bin/sh", "-c", command})
	if err != nil {
		m.recordExec(ctx, "error", 0, nil, start)
		return nil, classifyAgentError(fmt.Sprintf("exec in vm %d on node %s", vmid, node), err)
	}
	log.DebugContext(ctx, "guest command started", "node", node, "vmid", vmid, "pid", pid)

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	polls := 0
	for {
		select {
		case <-ctx.Done():
			m.recordExec(ctx, "timeout", polls, nil, start)
			return nil, fmt.Errorf("waiting for guest command (pid %d): %w", pid, ctx.Err())
		case <-ticker.C:
		}

		polls++
		execStatus, err := m.api.AgentExecStatus(ctx, node, vmid, pid)
		if err != nil {
			m.recordExec(ctx, "error", polls, nil, start)
			return nil, classifyAgentError(fmt.Sprintf("poll guest command in vm %d (pid %d)", vmid, pid), err)
		}
		if !execStatus.Done() {
			continue
		}

		result := &ExecResult{
			Output: execStatus.OutData,
			Stderr: execStatus.ErrData,
		}
		if execStatus.ExitCode != nil {
			result.ExitCode = *execStatus.ExitCode
		}
		result.Success = execStatus.ExitCode != nil && *execStatus.ExitCode == 0 && execStatus.Signal == nil

		m.recordExec(ctx, "completed", polls, result, start)
		log.InfoContext(ctx, "guest command finished",
			"node", node, "vmid", vmid, "pid", pid, "exit_code", result.ExitCode, "success", result.Success)
		return result, nil
	}
}

// classifyAgentError recognizes the agent's own failure text before
// falling back to the shared classifier, since "guest agent is not
// running" would otherwise be read as a guest state problem.
func classifyAgentError(op string, err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "guest agent") || strings.Contains(msg, "qga") {
		return fmt.Errorf("%w: %s: %v", ErrAgentUnavailable, op, err)
	}
	return vms.Classify(op, err)
}
