// Package api exposes the daemon's HTTP surface: raw/aggregated ping
// queries, target CRUD, storage statistics, and discovery, per spec.md
// §4.11 and §6.
package api

import (
	"sync"

	"github.com/gorilla/mux"

	"github.com/pingwarden/pingwarden/internal/config"
	"github.com/pingwarden/pingwarden/internal/logger"
	"github.com/pingwarden/pingwarden/internal/models"
	"github.com/pingwarden/pingwarden/internal/probe"
	"github.com/pingwarden/pingwarden/internal/storage"
)

// SupervisorStarter starts a new supervisor goroutine for a target and
// registers its cancel handle, matching the callback the daemon's boot
// sequence also uses for the initial target set and for watcher-driven
// reconciliation.
type SupervisorStarter func(target models.Target)

// State is the shared bundle every handler closes over, per spec.md §4.11:
// {store, config_lock, supervisor_registry, write_flag, config_path}. The
// write_flag itself lives in the config package as a process-wide atomic;
// State exposes the config.Editor that toggles it.
type State struct {
	Store      storage.Store
	Editor     *config.Editor
	Registry   *probe.Registry
	StartSuper SupervisorStarter
	Log        logger.Logger

	mu  sync.RWMutex
	cfg *models.AppConfig
}

// NewState builds the shared handler state.
func NewState(store storage.Store, editor *config.Editor, registry *probe.Registry, start SupervisorStarter, cfg *models.AppConfig, log logger.Logger) *State {
	return &State{
		Store:      store,
		Editor:     editor,
		Registry:   registry,
		StartSuper: start,
		Log:        log,
		cfg:        cfg,
	}
}

// Config returns the current in-memory config under the readers lock.
func (s *State) Config() *models.AppConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.cfg
}

// SetConfig replaces the cached in-memory config under the writer lock, per
// spec.md §5's ordering guarantee (config write completes, then this update,
// then supervisor reconciliation).
func (s *State) SetConfig(cfg *models.AppConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg = cfg
}

// NewRouter builds the gorilla/mux router wiring every handler in State to
// its path, per spec.md §6.
func NewRouter(state *State, ingressOnly bool) *mux.Router {
	r := mux.NewRouter()

	if ingressOnly {
		r.Use(IngressOnlyMiddleware)
	}

	r.HandleFunc("/api/ping/data", state.handlePingData).Methods("GET")
	r.HandleFunc("/api/ping/aggregated", state.handlePingAggregated).Methods("GET")
	r.HandleFunc("/api/targets", state.handleListTargets).Methods("GET")
	r.HandleFunc("/api/targets", state.handleCreateTarget).Methods("POST")
	r.HandleFunc("/api/targets/{id}", state.handleUpdateTarget).Methods("PUT")
	r.HandleFunc("/api/targets/{id}", state.handleDeleteTarget).Methods("DELETE")
	r.HandleFunc("/api/storage/stats", state.handleStorageStats).Methods("GET")
	r.HandleFunc("/api/discovery/subnets", state.handleDiscoverySubnets).Methods("GET")
	r.HandleFunc("/api/discovery/unified", state.handleDiscoveryUnified).Methods("GET")

	return r
}
