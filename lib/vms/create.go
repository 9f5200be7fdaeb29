package vms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hostplane/pveman/lib/logger"
)

// CreateVM plans and submits the creation of a new guest. Planning and
// submission are separate steps: planCreate never touches the network
// beyond read-only queries, so it can be exercised against a fake API.
func (m *manager) CreateVM(ctx context.Context, node string, req CreateRequest) (*CreateResult, error) {
	start := time.Now()
	log := logger.FromContext(ctx)
	log.InfoContext(ctx, "creating vm", "node", node, "vmid", req.VMID, "name", req.Name)

	ctx, span := m.startSpan(ctx, "CreateVM")
	defer span.End()

	spec, err := m.planCreate(ctx, node, req)
	if err != nil {
		log.ErrorContext(ctx, "vm creation rejected", "node", node, "vmid", req.VMID, "error", err)
		m.recordAction(ctx, "create", "rejected", start)
		return nil, err
	}

	task, err := m.api.CreateVM(ctx, node, spec.params())
	if err != nil {
		err = Classify(fmt.Sprintf("create vm %d on node %s", req.VMID, node), err)
		log.ErrorContext(ctx, "vm creation failed", "node", node, "vmid", req.VMID, "error", err)
		m.recordAction(ctx, "create", "error", start)
		return nil, err
	}

	m.recordAction(ctx, "create", string(OutcomeSubmitted), start)
	log.InfoContext(ctx, "vm creation submitted",
		"node", node, "vmid", req.VMID, "storage", spec.Storage, "format", spec.DiskFormat, "task", task)
	return &CreateResult{Spec: *spec, Task: task}, nil
}

// planCreate assembles the validated creation spec. The existence
// pre-check runs before any storage resolution so a duplicate id is
// rejected cheaply.
func (m *manager) planCreate(ctx context.Context, node string, req CreateRequest) (*CreateSpec, error) {
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	// Only a NotFound answer for the config lets creation proceed; any
	// other failure is surfaced as-is.
	if _, err := m.api.GetVMConfig(ctx, node, req.VMID); err == nil {
		return nil, fmt.Errorf("%w: vm %d on node %s", ErrAlreadyExists, req.VMID, node)
	} else if classified := Classify(fmt.Sprintf("check vm %d config on node %s", req.VMID, node), err); !errors.Is(classified, ErrNotFound) {
		return nil, classified
	}

	storages, err := m.api.ListStorage(ctx, node)
	if err != nil {
		return nil, Classify(fmt.Sprintf("list storage on node %s", node), err)
	}

	selection, err := selectStorage(storages, req.Storage)
	if err != nil {
		return nil, err
	}

	osType := req.OSType
	if osType == "" {
		osType = "l26"
	}

	return &CreateSpec{
		Node:       node,
		VMID:       req.VMID,
		Name:       req.Name,
		Cores:      req.Cores,
		MemoryMB:   req.MemoryMB,
		OSType:     osType,
		Storage:    selection.Name,
		DiskFormat: selection.Format,
		DiskSizeGB: req.DiskSizeGB,
		CloudInit:  selection.CloudInit,
	}, nil
}

func validateCreateRequest(req CreateRequest) error {
	if req.VMID < 100 {
		return fmt.Errorf("%w: vmid must be 100 or greater, proxmox reserves lower ids", ErrInvalidRequest)
	}
	if req.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}
	if req.Cores < 1 {
		return fmt.Errorf("%w: cores must be at least 1", ErrInvalidRequest)
	}
	if req.MemoryMB < 16 {
		return fmt.Errorf("%w: memory must be at least 16 MB", ErrInvalidRequest)
	}
	if req.DiskSizeGB < 1 {
		return fmt.Errorf("%w: disk size must be at least 1 GB", ErrInvalidRequest)
	}
	return nil
}
