package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hostplane/pveman/lib/logger"
	"github.com/hostplane/pveman/lib/vms"
)

// VMResponse is one guest in listings and detail responses. Cores is the
// configured core count, or the string "unavailable" when the per-guest
// config could not be read.
type VMResponse struct {
	VMID        int    `json:"vmid"`
	Name        string `json:"name"`
	Node        string `json:"node"`
	Status      string `json:"status"`
	Cores       any    `json:"cores"`
	MemoryUsed  int64  `json:"memory_used"`
	MemoryTotal int64  `json:"memory_total"`
}

func vmToResponse(vm vms.VM) VMResponse {
	var cores any = "unavailable"
	if vm.Cores != nil {
		cores = *vm.Cores
	}
	return VMResponse{
		VMID:        vm.VMID,
		Name:        vm.Name,
		Node:        vm.Node,
		Status:      string(vm.Status),
		Cores:       cores,
		MemoryUsed:  vm.Memory.Used,
		MemoryTotal: vm.Memory.Total,
	}
}

// ActionResponse reports a lifecycle submission. Task fields are opaque
// Proxmox UPIDs.
type ActionResponse struct {
	Outcome  string `json:"outcome"`
	Message  string `json:"message,omitempty"`
	Task     string `json:"task,omitempty"`
	StopTask string `json:"stop_task,omitempty"`
}

func actionToResponse(result *vms.ActionResult) ActionResponse {
	return ActionResponse{
		Outcome:  string(result.Outcome),
		Message:  result.Message,
		Task:     string(result.Task),
		StopTask: string(result.StopTask),
	}
}

// CreateVMRequest is the JSON body of POST /nodes/{node}/vms.
type CreateVMRequest struct {
	VMID       int    `json:"vmid"`
	Name       string `json:"name"`
	Cores      int    `json:"cores"`
	MemoryMB   int    `json:"memory_mb"`
	DiskSizeGB int    `json:"disk_gb"`
	Storage    string `json:"storage,omitempty"`
	OSType     string `json:"ostype,omitempty"`
}

// CreateVMResponse reports the submitted creation and the resolved storage
// placement.
type CreateVMResponse struct {
	VMID       int    `json:"vmid"`
	Node       string `json:"node"`
	Storage    string `json:"storage"`
	DiskFormat string `json:"disk_format"`
	CloudInit  bool   `json:"cloudinit"`
	Task       string `json:"task"`
}

// ListVMs lists all guests across the cluster
func (s *ApiService) ListVMs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	domainVMs, err := s.VMManager.ListVMs(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	out := make([]VMResponse, len(domainVMs))
	for i, vm := range domainVMs {
		out[i] = vmToResponse(vm)
	}
	respondJSON(w, http.StatusOK, out)
}

// GetVM gets one guest's details
func (s *ApiService) GetVM(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	node, vmid, err := pathTarget(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	vm, err := s.VMManager.GetVM(ctx, node, vmid)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(w, http.StatusOK, vmToResponse(*vm))
}

// CreateVM plans and submits creation of a new guest
func (s *ApiService) CreateVM(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)
	node := chi.URLParam(r, "node")

	var body CreateVMRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(ctx, w, fmt.Errorf("%w: malformed json body", vms.ErrInvalidRequest))
		return
	}

	result, err := s.VMManager.CreateVM(ctx, node, vms.CreateRequest{
		VMID:       body.VMID,
		Name:       body.Name,
		Cores:      body.Cores,
		MemoryMB:   body.MemoryMB,
		DiskSizeGB: body.DiskSizeGB,
		Storage:    body.Storage,
		OSType:     body.OSType,
	})
	if err != nil {
		log.ErrorContext(ctx, "failed to create vm", "error", err, "node", node, "vmid", body.VMID)
		respondError(ctx, w, err)
		return
	}

	respondJSON(w, http.StatusCreated, CreateVMResponse{
		VMID:       result.Spec.VMID,
		Node:       result.Spec.Node,
		Storage:    result.Spec.Storage,
		DiskFormat: result.Spec.DiskFormat,
		CloudInit:  result.Spec.CloudInit,
		Task:       string(result.Task),
	})
}

// StartVM starts a guest
func (s *ApiService) StartVM(w http.ResponseWriter, r *http.Request) {
	s.handleAction(w, r, s.VMManager.StartVM)
}

// StopVM forcefully stops a guest
func (s *ApiService) StopVM(w http.ResponseWriter, r *http.Request) {
	s.handleAction(w, r, s.VMManager.StopVM)
}

// ShutdownVM gracefully shuts a guest down
func (s *ApiService) ShutdownVM(w http.ResponseWriter, r *http.Request) {
	s.handleAction(w, r, s.VMManager.ShutdownVM)
}

// ResetVM hard-resets a running guest
func (s *ApiService) ResetVM(w http.ResponseWriter, r *http.Request) {
	s.handleAction(w, r, s.VMManager.ResetVM)
}

// DeleteVM deletes a guest. ?force=true stops a running guest first.
func (s *ApiService) DeleteVM(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	node, vmid, err := pathTarget(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	force := false
	if raw := r.URL.Query().Get("force"); raw != "" {
		force, err = strconv.ParseBool(raw)
		if err != nil {
			respondError(ctx, w, fmt.Errorf("%w: force must be a boolean", vms.ErrInvalidRequest))
			return
		}
	}

	result, err := s.VMManager.DeleteVM(ctx, node, vmid, force)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(w, http.StatusOK, actionToResponse(result))
}

func (s *ApiService) handleAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, node string, vmid int) (*vms.ActionResult, error)) {
	ctx := r.Context()

	node, vmid, err := pathTarget(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	result, err := action(ctx, node, vmid)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(w, http.StatusOK, actionToResponse(result))
}

// pathTarget extracts the {node} and {vmid} route parameters.
func pathTarget(r *http.Request) (string, int, error) {
	node := chi.URLParam(r, "node")
	vmid, err := strconv.Atoi(chi.URLParam(r, "vmid"))
	if err != nil {
		return "", 0, fmt.Errorf("%w: vmid must be an integer", vms.ErrInvalidRequest)
	}
	return node, vmid, nil
}
