package proxmox

// TaskRef is the opaque UPID handle Proxmox returns for every submitted
// asynchronous operation. Callers decide whether and how to poll it; this
// client never interprets it.
type TaskRef string

// Node is one entry of the cluster node listing.
type Node struct {
	Node   string  `json:"node"`
	Status string  `json:"status"`
	Uptime int64   `json:"uptime"`
	CPU    float64 `json:"cpu"`
	MaxCPU int     `json:"maxcpu"`
	Mem    int64   `json:"mem"`
	MaxMem int64   `json:"maxmem"`
}

// NodeStatus is the detailed status of a single node.
type NodeStatus struct {
	Uptime     int64    `json:"uptime"`
	PVEVersion string   `json:"pveversion"`
	LoadAvg    []string `json:"loadavg"`
	CPUInfo    struct {
		CPUs  int    `json:"cpus"`
		Model string `json:"model"`
	} `json:"cpuinfo"`
	Memory struct {
		Total int64 `json:"total"`
		Used  int64 `json:"used"`
		Free  int64 `json:"free"`
	} `json:"memory"`
}

// ClusterStatusEntry is one row of /cluster/status. Entries are either the
// cluster itself (type "cluster") or a member node (type "node").
type ClusterStatusEntry struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	IP      string `json:"ip,omitempty"`
	Online  *int   `json:"online,omitempty"`
	Local   *int   `json:"local,omitempty"`
	Quorate *int   `json:"quorate,omitempty"`
	Nodes   *int   `json:"nodes,omitempty"`
}

// VMSummary is one entry of a node's QEMU guest listing.
type VMSummary struct {
	VMID   int     `json:"vmid"`
	Name   string  `json:"name"`
	Status string  `json:"status"`
	CPUs   float64 `json:"cpus"`
	Mem    int64   `json:"mem"`
	MaxMem int64   `json:"maxmem"`
	Uptime int64   `json:"uptime"`
}

// Storage is one entry of a node's storage listing. Content is the
// comma-separated capability list as Proxmox reports it, e.g.
// "images,rootdir".
type Storage struct {
	Name    string `json:"storage"`
	Type    string `json:"type"`
	Content string `json:"content"`
	Active  int    `json:"active"`
	Shared  int    `json:"shared"`
	Total   int64  `json:"total"`
	Used    int64  `json:"used"`
	Avail   int64  `json:"avail"`
}

// VMConfig carries the subset of a guest's configuration this service
// reads. Existence of the config at all is what the creation pre-check
// cares about.
type VMConfig struct {
	Name    string `json:"name"`
	Cores   int    `json:"cores"`
	Sockets int    `json:"sockets"`
	OSType  string `json:"ostype"`
}

// VMStatus is the current runtime status of a guest.
type VMStatus struct {
	Status string  `json:"status"`
	Name   string  `json:"name"`
	Uptime int64   `json:"uptime"`
	CPUs   float64 `json:"cpus"`
	Mem    int64   `json:"mem"`
	MaxMem int64   `json:"maxmem"`
}

// ExecStatus is the guest agent's report on a previously started process.
type ExecStatus struct {
	Exited   int    `json:"exited"`
	ExitCode *int   `json:"exitcode"`
	OutData  string `json:"out-data"`
	ErrData  string `json:"err-data"`
	Signal   *int   `json:"signal"`
}

// Done reports whether the guest process has exited.
func (s *ExecStatus) Done() bool {
	return s.Exited != 0
}
