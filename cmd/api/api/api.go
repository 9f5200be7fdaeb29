package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/hostplane/pveman/cmd/api/config"
	"github.com/hostplane/pveman/lib/cluster"
	"github.com/hostplane/pveman/lib/guest"
	"github.com/hostplane/pveman/lib/vms"
)

// ApiService holds the managers behind the HTTP surface.
type ApiService struct {
	Config         *config.Config
	VMManager      vms.Manager
	ClusterManager cluster.Manager
	GuestManager   guest.Manager
}

// New creates a new ApiService
func New(
	config *config.Config,
	vmManager vms.Manager,
	clusterManager cluster.Manager,
	guestManager guest.Manager,
) *ApiService {
	return &ApiService{
		Config:         config,
		VMManager:      vmManager,
		ClusterManager: clusterManager,
		GuestManager:   guestManager,
	}
}

// Routes registers every endpoint on the given router.
func (s *ApiService) Routes(r chi.Router) {
	r.Get("/vms", s.ListVMs)

	r.Route("/nodes", func(r chi.Router) {
		r.Get("/", s.ListNodes)
		r.Route("/{node}", func(r chi.Router) {
			r.Get("/status", s.GetNodeStatus)
			r.Get("/storage", s.ListStorage)
			r.Route("/vms", func(r chi.Router) {
				r.Post("/", s.CreateVM)
				r.Route("/{vmid}", func(r chi.Router) {
					r.Get("/", s.GetVM)
					r.Delete("/", s.DeleteVM)
					r.Post("/start", s.StartVM)
					r.Post("/stop", s.StopVM)
					r.Post("/shutdown", s.ShutdownVM)
					r.Post("/reset", s.ResetVM)
					r.Post("/exec", s.ExecCommand)
				})
			})
		})
	})

	r.Get("/cluster/status", s.GetClusterStatus)
}
