package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/pingwarden/pingwarden/internal/models"
)

// writeInProgress is a process-wide flag read by the file watcher to
// suppress self-triggered reloads, per spec.md §4.3/§4.4. A single atomic
// boolean is sufficient because writes are short (spec.md §9).
var writeInProgress atomic.Bool

// WriteInProgress reports whether a self-write is currently underway.
func WriteInProgress() bool {
	return writeInProgress.Load()
}

// Editor owns the on-disk document and the write protocol around it.
type Editor struct {
	path string
}

// NewEditor returns an editor bound to the given config file path.
func NewEditor(path string) *Editor {
	return &Editor{path: path}
}

// Read parses the current file into a Document.
func (e *Editor) Read() (*Document, error) {
	data, err := os.ReadFile(e.path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return LoadDocument(data)
}

// AddTarget appends a target to the document and writes the file.
func (e *Editor) AddTarget(t models.Target) (models.Target, error) {
	doc, err := e.Read()
	if err != nil {
		return models.Target{}, err
	}

	added, err := doc.AddTarget(t, uuid.NewString)
	if err != nil {
		return models.Target{}, err
	}

	if err := e.write(doc); err != nil {
		return models.Target{}, err
	}

	return added, nil
}

// UpdateTarget replaces a target in the document and writes the file.
func (e *Editor) UpdateTarget(t models.Target) error {
	doc, err := e.Read()
	if err != nil {
		return err
	}

	if err := doc.UpdateTarget(t); err != nil {
		return err
	}

	return e.write(doc)
}

// RemoveTarget deletes a target from the document and writes the file.
func (e *Editor) RemoveTarget(id string) error {
	doc, err := e.Read()
	if err != nil {
		return err
	}

	if err := doc.RemoveTarget(id); err != nil {
		return err
	}

	return e.write(doc)
}

// CommitDocument writes an already-edited Document back to disk under the
// same write protocol as AddTarget/UpdateTarget/RemoveTarget. It is used by
// the boot sequence to persist ids synthesized for blank-id targets.
func (e *Editor) CommitDocument(doc *Document) error {
	return e.write(doc)
}

// write serializes doc and commits it to disk under the write protocol
// described in spec.md §4.3: set write_in_progress, write to a sibling
// temp file, copy permissions from the existing file, atomically rename
// temp -> target, and on rename failure (cross-device / bind-mount EBUSY)
// fall back to a direct in-place write.
func (e *Editor) write(doc *Document) error {
	writeInProgress.Store(true)
	defer writeInProgress.Store(false)

	data, err := doc.Bytes()
	if err != nil {
		return fmt.Errorf("serialize config: %w", err)
	}

	mode := os.FileMode(0o644)

	if fi, statErr := os.Stat(e.path); statErr == nil {
		mode = fi.Mode()
	}

	tmp := e.path + ".tmp"

	if err := os.WriteFile(tmp, data, mode); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}

	if err := os.Rename(tmp, e.path); err != nil {
		// Cross-device or bind-mount rename failure: fall back to a direct
		// in-place write. Success is still reported (spec.md §7).
		_ = os.Remove(tmp)

		if writeErr := os.WriteFile(e.path, data, mode); writeErr != nil {
			return fmt.Errorf("fallback direct write: %w", writeErr)
		}
	}

	return nil
}

// ConfigDir returns the directory containing the config file, for watcher setup.
func (e *Editor) ConfigDir() string {
	return filepath.Dir(e.path)
}

// Path returns the config file path.
func (e *Editor) Path() string {
	return e.path
}
