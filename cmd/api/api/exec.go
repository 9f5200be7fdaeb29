package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hostplane/pveman/lib/vms"
)

const (
	defaultExecTimeout = 30 * time.Second
	maxExecTimeout     = 10 * time.Minute
)

// ExecRequest is the JSON body of POST /nodes/{node}/vms/{vmid}/exec.
type ExecRequest struct {
	Command        string `json:"command"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// ExecResponse is the result of a completed in-guest command.
type ExecResponse struct {
	Success  bool   `json:"success"`
	ExitCode int    `json:"exit_code"`
	Output   string `json:"output"`
	Stderr   string `json:"stderr,omitempty"`
}

// ExecCommand runs a shell command inside a guest via the QEMU guest agent
// and waits for it to finish.
func (s *ApiService) ExecCommand(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	node, vmid, err := pathTarget(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var body ExecRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(ctx, w, fmt.Errorf("%w: malformed json body", vms.ErrInvalidRequest))
		return
	}
	if body.Command == "" {
		respondError(ctx, w, fmt.Errorf("%w: command is required", vms.ErrInvalidRequest))
		return
	}

	timeout := defaultExecTimeout
	if body.TimeoutSeconds > 0 {
		timeout = time.Duration(body.TimeoutSeconds) * time.Second
		if timeout > maxExecTimeout {
			timeout = maxExecTimeout
		}
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := s.GuestManager.ExecCommand(execCtx, node, vmid, body.Command)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			respondJSON(w, http.StatusGatewayTimeout, Error{
				Code:    "exec_timeout",
				Message: fmt.Sprintf("command did not finish within %s", timeout),
			})
			return
		}
		respondError(ctx, w, err)
		return
	}

	respondJSON(w, http.StatusOK, ExecResponse{
		Success:  result.Success,
		ExitCode: result.ExitCode,
		Output:   result.Output,
		Stderr:   result.Stderr,
	})
}
