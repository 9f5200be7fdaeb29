package api

import "net/http"

// GetHealth implements the health check endpoint. It reports process
// liveness only; it deliberately does not call Proxmox.
func (s *ApiService) GetHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
