package config

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/pingwarden/pingwarden/internal/logger"
	"github.com/pingwarden/pingwarden/internal/models"
)

// coalesceDelay absorbs the two writes (temp file create, then rename)
// that one editor commit produces, per spec.md §4.4.
const coalesceDelay = 100 * time.Millisecond

// ReconcileFunc is invoked with the computed delta whenever the watcher
// picks up an external edit. It is expected to update the supervisor
// registry and swap in the new AppConfig atomically, per spec.md §4.4/§5.
type ReconcileFunc func(newCfg *models.AppConfig, delta Delta)

// Watcher watches one config file non-recursively and reconciles the
// daemon's live state against external edits.
type Watcher struct {
	path    string
	log     logger.Logger
	fsw     *fsnotify.Watcher
	current *models.AppConfig
	onDelta ReconcileFunc
}

// NewWatcher opens an fsnotify watch on the directory containing path
// (fsnotify does not support watching a bare file reliably across
// editors' rename-based saves) and filters events to that one file.
func NewWatcher(path string, initial *models.AppConfig, log logger.Logger, onDelta ReconcileFunc) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := NewEditor(path).ConfigDir()

	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	return &Watcher{
		path:    path,
		log:     log,
		fsw:     fsw,
		current: initial,
		onDelta: onDelta,
	}, nil
}

// Run blocks, processing filesystem events until stopCh is closed.
func (w *Watcher) Run(stopCh <-chan struct{}) {
	defer func() { _ = w.fsw.Close() }()

	for {
		select {
		case <-stopCh:
			return

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}

			w.log.Warn().Err(err).Msg("config watcher error")

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}

			if filepath.Base(ev.Name) != filepath.Base(w.path) || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			w.handleEvent(stopCh)
		}
	}
}

func (w *Watcher) handleEvent(stopCh <-chan struct{}) {
	if WriteInProgress() {
		return
	}

	select {
	case <-time.After(coalesceDelay):
	case <-stopCh:
		return
	}

	if WriteInProgress() {
		return
	}

	editor := NewEditor(w.path)

	doc, err := editor.Read()
	if err != nil {
		w.log.Error().Err(err).Msg("config reload: parse error, retaining previous config")
		return
	}

	newCfg, err := doc.Typed()
	if err != nil {
		w.log.Error().Err(err).Msg("config reload: decode error, retaining previous config")
		return
	}

	if err := Validate(newCfg); err != nil {
		w.log.Error().Err(err).Msg("config reload: validation error, retaining previous config")
		return
	}

	ApplyDefaults(newCfg, uuid.NewString)

	delta := Diff(w.current, newCfg)
	w.current = newCfg

	w.onDelta(newCfg, delta)
}
