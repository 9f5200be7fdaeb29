package vms

import (
	"context"
	"fmt"
	"time"

	"github.com/hostplane/pveman/lib/logger"
	"github.com/hostplane/pveman/lib/proxmox"
)

// StartVM requests a start. Already-running guests yield a noop.
func (m *manager) StartVM(ctx context.Context, node string, vmid int) (*ActionResult, error) {
	return m.runAction(ctx, node, vmid, ActionStart, false)
}

// StopVM requests a hard stop. Already-stopped guests yield a noop.
func (m *manager) StopVM(ctx context.Context, node string, vmid int) (*ActionResult, error) {
	return m.runAction(ctx, node, vmid, ActionStop, false)
}

// ShutdownVM requests a graceful shutdown. Already-stopped guests yield a
// noop.
func (m *manager) ShutdownVM(ctx context.Context, node string, vmid int) (*ActionResult, error) {
	return m.runAction(ctx, node, vmid, ActionShutdown, false)
}

// ResetVM requests a reset. Only running guests may be reset.
func (m *manager) ResetVM(ctx context.Context, node string, vmid int) (*ActionResult, error) {
	return m.runAction(ctx, node, vmid, ActionReset, false)
}

// DeleteVM permanently removes a guest, its disks and snapshots. A running
// guest is only deleted with force, in which case a stop is submitted and
// must complete its own round trip before the delete goes out. The two
// submissions are not transactional: if the stop fails the delete is never
// attempted and the stop failure is surfaced.
func (m *manager) DeleteVM(ctx context.Context, node string, vmid int, force bool) (*ActionResult, error) {
	return m.runAction(ctx, node, vmid, ActionDelete, force)
}

// runAction fetches fresh state, consults the transition guard, and
// submits the action only when allowed. No mutating call is ever issued
// for noop or rejected verdicts.
func (m *manager) runAction(ctx context.Context, node string, vmid int, action Action, force bool) (*ActionResult, error) {
	start := time.Now()
	log := logger.FromContext(ctx)

	ctx, span := m.startSpan(ctx, "VM"+string(action))
	defer span.End()

	status, err := m.api.GetVMStatus(ctx, node, vmid)
	if err != nil {
		err = Classify(fmt.Sprintf("get status of vm %d on node %s", vmid, node), err)
		log.ErrorContext(ctx, "failed to read vm status", "node", node, "vmid", vmid, "action", action, "error", err)
		m.recordAction(ctx, string(action), "error", start)
		return nil, err
	}
	current := statusFromUpstream(status.Status)

	verdict := guard(current, action, force)
	if verdict.err != nil {
		log.InfoContext(ctx, "action rejected by transition guard",
			"node", node, "vmid", vmid, "action", action, "state", current, "force", force)
		m.recordAction(ctx, string(action), "rejected", start)
		return nil, verdict.err
	}
	if verdict.outcome == OutcomeNoop {
		log.InfoContext(ctx, "action is a noop", "node", node, "vmid", vmid, "action", action, "state", current)
		m.recordAction(ctx, string(action), string(OutcomeNoop), start)
		return &ActionResult{Outcome: OutcomeNoop, Message: fmt.Sprintf("vm %d is %s", vmid, verdict.message)}, nil
	}

	result := &ActionResult{Outcome: OutcomeSubmitted}

	if verdict.stopFirst {
		stopTask, err := m.api.VMAction(ctx, node, vmid, string(ActionStop))
		if err != nil {
			err = Classify(fmt.Sprintf("stop vm %d on node %s before delete", vmid, node), err)
			log.ErrorContext(ctx, "stop before delete failed, delete not attempted",
				"node", node, "vmid", vmid, "error", err)
			m.recordAction(ctx, string(action), "error", start)
			return nil, err
		}
		result.StopTask = stopTask
		log.InfoContext(ctx, "stop submitted before delete", "node", node, "vmid", vmid, "task", stopTask)
	}

	task, err := m.submit(ctx, node, vmid, action)
	if err != nil {
		err = Classify(fmt.Sprintf("%s vm %d on node %s", action, vmid, node), err)
		log.ErrorContext(ctx, "action submission failed", "node", node, "vmid", vmid, "action", action, "error", err)
		m.recordAction(ctx, string(action), "error", start)
		return nil, err
	}

	result.Task = task
	result.Message = fmt.Sprintf("vm %d %s submitted", vmid, action)
	m.recordAction(ctx, string(action), string(OutcomeSubmitted), start)
	log.InfoContext(ctx, "action submitted", "node", node, "vmid", vmid, "action", action, "task", task)
	return result, nil
}

// submit issues the single mutating call for an allowed action.
func (m *manager) submit(ctx context.Context, node string, vmid int, action Action) (proxmox.TaskRef, error) {
	if action == ActionDelete {
		return m.api.DeleteVM(ctx, node, vmid)
	}
	return m.api.VMAction(ctx, node, vmid, string(action))
}
