package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hostplane/pveman/lib/guest"
	"github.com/hostplane/pveman/lib/logger"
	"github.com/hostplane/pveman/lib/proxmox"
	"github.com/hostplane/pveman/lib/vms"
)

// Error is the JSON body of every non-2xx response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError maps the error taxonomy onto HTTP statuses. Client mistakes
// are 4xx with the underlying message; upstream Proxmox failures are 502 so
// callers can tell this service's faults from the hypervisor's.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	log := logger.FromContext(ctx)

	var status int
	var code string
	switch {
	case errors.Is(err, vms.ErrInvalidRequest):
		status, code = http.StatusBadRequest, "invalid_request"
	case errors.Is(err, vms.ErrUnsupportedStorage):
		status, code = http.StatusBadRequest, "unsupported_storage"
	case errors.Is(err, vms.ErrNoSuitableStorage):
		status, code = http.StatusBadRequest, "no_suitable_storage"
	case errors.Is(err, vms.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, vms.ErrAlreadyExists):
		status, code = http.StatusConflict, "already_exists"
	case errors.Is(err, vms.ErrInvalidState), errors.Is(err, guest.ErrNotRunning):
		status, code = http.StatusConflict, "invalid_state"
	case errors.Is(err, guest.ErrAgentUnavailable):
		status, code = http.StatusBadGateway, "agent_unavailable"
	case errors.Is(err, vms.ErrPermission):
		status, code = http.StatusBadGateway, "upstream_permission"
	case isUpstreamError(err):
		status, code = http.StatusBadGateway, "upstream_error"
	default:
		log.ErrorContext(ctx, "unhandled error", "error", err)
		respondJSON(w, http.StatusInternalServerError, Error{
			Code:    "internal_error",
			Message: "internal error",
		})
		return
	}

	respondJSON(w, status, Error{Code: code, Message: err.Error()})
}

func isUpstreamError(err error) bool {
	var apiErr *proxmox.APIError
	return errors.As(err, &apiErr)
}
