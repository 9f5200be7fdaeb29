package cluster

// Node is one member of the node listing.
type Node struct {
	Name     string
	Status   string
	Uptime   int64
	CPUUsage float64
	MaxCPU   int
	MemUsed  int64
	MemTotal int64
}

// NodeStatus is the detailed status of a single node.
type NodeStatus struct {
	Name       string
	Uptime     int64
	PVEVersion string
	LoadAvg    string
	CPUs       int
	CPUModel   string
	MemUsed    int64
	MemTotal   int64
}

// ClusterStatus summarizes quorum and membership. Standalone nodes (no
// cluster configured) report Name "standalone".
type ClusterStatus struct {
	Name      string
	Quorate   bool
	NodeCount int
	Members   []ClusterMember
}

// ClusterMember is one node entry of the cluster status listing.
type ClusterMember struct {
	Name   string
	IP     string
	Online bool
	Local  bool
}

// StorageBackend is one storage entry of a node, with the content
// capability list split out of Proxmox's comma-separated form.
type StorageBackend struct {
	Name    string
	Type    string
	Content []string
	Active  bool
	Shared  bool
	Total   int64
	Used    int64
	Avail   int64
}
