package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"github.com/hostplane/pveman/lib/cluster"
)

// NodeResponse is one node in the listing.
type NodeResponse struct {
	Name     string  `json:"name"`
	Status   string  `json:"status"`
	Uptime   int64   `json:"uptime"`
	CPUUsage float64 `json:"cpu_usage"`
	MaxCPU   int     `json:"max_cpu"`
	MemUsed  int64   `json:"memory_used"`
	MemTotal int64   `json:"memory_total"`
}

// NodeStatusResponse is the detailed status of one node.
type NodeStatusResponse struct {
	Name       string `json:"name"`
	Uptime     int64  `json:"uptime"`
	PVEVersion string `json:"pve_version"`
	LoadAvg    string `json:"load_avg"`
	CPUs       int    `json:"cpus"`
	CPUModel   string `json:"cpu_model"`
	MemUsed    int64  `json:"memory_used"`
	MemTotal   int64  `json:"memory_total"`
}

// ClusterStatusResponse summarizes quorum and membership.
type ClusterStatusResponse struct {
	Name      string                  `json:"name"`
	Quorate   bool                    `json:"quorate"`
	NodeCount int                     `json:"node_count"`
	Members   []ClusterMemberResponse `json:"members"`
}

// ClusterMemberResponse is one member node of the cluster.
type ClusterMemberResponse struct {
	Name   string `json:"name"`
	IP     string `json:"ip,omitempty"`
	Online bool   `json:"online"`
	Local  bool   `json:"local"`
}

// StorageResponse is one storage backend of a node.
type StorageResponse struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Content []string `json:"content"`
	Active  bool     `json:"active"`
	Shared  bool     `json:"shared"`
	Total   int64    `json:"total"`
	Used    int64    `json:"used"`
	Avail   int64    `json:"avail"`
}

// ListNodes lists all cluster nodes
func (s *ApiService) ListNodes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	nodes, err := s.ClusterManager.ListNodes(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(w, http.StatusOK, lo.Map(nodes, func(n cluster.Node, _ int) NodeResponse {
		return NodeResponse{
			Name:     n.Name,
			Status:   n.Status,
			Uptime:   n.Uptime,
			CPUUsage: n.CPUUsage,
			MaxCPU:   n.MaxCPU,
			MemUsed:  n.MemUsed,
			MemTotal: n.MemTotal,
		}
	}))
}

// GetNodeStatus reports one node's detailed status
func (s *ApiService) GetNodeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	node := chi.URLParam(r, "node")

	status, err := s.ClusterManager.GetNodeStatus(ctx, node)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(w, http.StatusOK, NodeStatusResponse{
		Name:       status.Name,
		Uptime:     status.Uptime,
		PVEVersion: status.PVEVersion,
		LoadAvg:    status.LoadAvg,
		CPUs:       status.CPUs,
		CPUModel:   status.CPUModel,
		MemUsed:    status.MemUsed,
		MemTotal:   status.MemTotal,
	})
}

// GetClusterStatus reports quorum state and membership
func (s *ApiService) GetClusterStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status, err := s.ClusterManager.GetClusterStatus(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(w, http.StatusOK, ClusterStatusResponse{
		Name:      status.Name,
		Quorate:   status.Quorate,
		NodeCount: status.NodeCount,
		Members: lo.Map(status.Members, func(m cluster.ClusterMember, _ int) ClusterMemberResponse {
			return ClusterMemberResponse{
				Name:   m.Name,
				IP:     m.IP,
				Online: m.Online,
				Local:  m.Local,
			}
		}),
	})
}

// ListStorage lists one node's storage backends
func (s *ApiService) ListStorage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	node := chi.URLParam(r, "node")

	storages, err := s.ClusterManager.ListStorage(ctx, node)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(w, http.StatusOK, lo.Map(storages, func(b cluster.StorageBackend, _ int) StorageResponse {
		return StorageResponse{
			Name:    b.Name,
			Type:    b.Type,
			Content: b.Content,
			Active:  b.Active,
			Shared:  b.Shared,
			Total:   b.Total,
			Used:    b.Used,
			Avail:   b.Avail,
		}
	}))
}
