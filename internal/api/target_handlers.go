package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pingwarden/pingwarden/internal/config"
	"github.com/pingwarden/pingwarden/internal/models"
)

// targetRequest is the POST/PUT body for target CRUD, per spec.md §6.
type targetRequest struct {
	ID           string  `json:"id,omitempty"`
	Address      string  `json:"address"`
	Name         string  `json:"name,omitempty"`
	PingCount    *uint16 `json:"ping_count,omitempty"`
	PingInterval *uint64 `json:"ping_interval,omitempty"`
}

func (req targetRequest) toTarget(id string) models.Target {
	t := models.Target{ID: id, Address: req.Address, Name: req.Name}

	if req.PingCount != nil {
		t.PingCount = *req.PingCount
	}

	if req.PingInterval != nil {
		t.PingInterval = *req.PingInterval
	}

	return t.WithDefaults()
}

func (s *State) handleListTargets(w http.ResponseWriter, _ *http.Request) {
	cfg := s.Config()
	writeJSON(w, cfg.Targets)
}

// handleCreateTarget implements POST /api/targets, per spec.md §6: 400 on
// empty address, 409 on duplicate id, 200 with the generated/completed
// Target on success. The write completes before the in-memory config is
// updated, which completes before the supervisor is started (spec.md §5).
func (s *State) handleCreateTarget(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeClientError(w, err)
		return
	}

	if req.Address == "" {
		writeClientError(w, config.ErrEmptyAddress)
		return
	}

	if req.ID != "" {
		if _, exists := s.Config().TargetByID(req.ID); exists {
			writeError(w, http.StatusConflict, config.ErrDuplicateTarget.Error())
			return
		}
	}

	target := req.toTarget(req.ID)

	added, err := s.Editor.AddTarget(target)
	if err != nil {
		if errors.Is(err, config.ErrDuplicateTarget) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}

		writeServerError(w, err)
		return
	}

	s.reloadFromDisk()
	s.StartSuper(added)

	writeJSON(w, added)
}

// handleUpdateTarget implements PUT /api/targets/{id}: 404 if unknown,
// otherwise replaces the target and restarts its supervisor.
func (s *State) handleUpdateTarget(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, exists := s.Config().TargetByID(id); !exists {
		writeError(w, http.StatusNotFound, config.ErrUnknownTarget.Error())
		return
	}

	var req targetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeClientError(w, err)
		return
	}

	if req.Address == "" {
		writeClientError(w, config.ErrEmptyAddress)
		return
	}

	target := req.toTarget(id)

	if err := s.Editor.UpdateTarget(target); err != nil {
		if errors.Is(err, config.ErrUnknownTarget) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}

		writeServerError(w, err)
		return
	}

	s.reloadFromDisk()

	s.Registry.Abort(id)
	s.StartSuper(target)

	writeJSON(w, target)
}

// handleDeleteTarget implements DELETE /api/targets/{id}: 404 if unknown,
// 204 on success, stopping the supervisor.
func (s *State) handleDeleteTarget(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, exists := s.Config().TargetByID(id); !exists {
		writeError(w, http.StatusNotFound, config.ErrUnknownTarget.Error())
		return
	}

	if err := s.Editor.RemoveTarget(id); err != nil {
		if errors.Is(err, config.ErrUnknownTarget) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}

		writeServerError(w, err)
		return
	}

	s.reloadFromDisk()
	s.Registry.Abort(id)

	w.WriteHeader(http.StatusNoContent)
}

// reloadFromDisk re-reads the file this State's own write just committed
// and swaps it into the cached config, per spec.md §3's invariant that the
// on-disk file and in-memory AppConfig are eventually equal. The file
// watcher ignores this write because it occurs under WriteInProgress.
func (s *State) reloadFromDisk() {
	doc, err := s.Editor.Read()
	if err != nil {
		s.Log.Error().Err(err).Msg("reload after self-write failed")
		return
	}

	cfg, err := doc.Typed()
	if err != nil {
		s.Log.Error().Err(err).Msg("decode after self-write failed")
		return
	}

	s.SetConfig(cfg)
}
