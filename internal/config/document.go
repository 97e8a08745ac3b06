package config

import (
	"fmt"

	"github.com/pelletier/go-toml"

	"github.com/pingwarden/pingwarden/internal/models"
)

// Document is an in-memory view of the config file: a pelletier/go-toml
// Tree that edits mutate, plus the typed AppConfig rebuilt from it by
// unmarshalling the tree. The go-toml v1 parser does not keep comments in
// the Tree, so a file written back from a Document keeps its keys and
// values but not its comments or original layout.
type Document struct {
	tree *toml.Tree
}

// LoadDocument parses raw TOML bytes into a Document.
func LoadDocument(data []byte) (*Document, error) {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &Document{tree: tree}, nil
}

// Typed rebuilds the typed AppConfig view from the current document tree.
func (d *Document) Typed() (*models.AppConfig, error) {
	var cfg models.AppConfig

	if err := d.tree.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Bytes serializes the current document tree back to TOML text.
func (d *Document) Bytes() ([]byte, error) {
	return []byte(d.tree.String()), nil
}

// targetsArray returns the current [[targets]] array of subtrees, or nil if
// the section is missing; it does not create the section.
func (d *Document) targetsArray() []*toml.Tree {
	existing := d.tree.Get("targets")

	arr, ok := existing.([]*toml.Tree)
	if !ok {
		return nil
	}

	return arr
}

func targetToMap(t models.Target) map[string]interface{} {
	m := map[string]interface{}{
		"id":      t.ID,
		"address": t.Address,
	}

	if t.Name != "" {
		m["name"] = t.Name
	}

	if t.PingCount != 0 && t.PingCount != models.DefaultPingCount {
		m["ping_count"] = int64(t.PingCount)
	}

	if t.PingInterval != 0 && t.PingInterval != models.DefaultPingInterval {
		m["ping_interval"] = int64(t.PingInterval)
	}

	return m
}

// AddTarget appends a new [[targets]] table, synthesizing an id if t.ID is
// blank and writing only non-default fields.
func (d *Document) AddTarget(t models.Target, newID func() string) (models.Target, error) {
	if t.ID == "" {
		t.ID = newID()
	}

	sub, err := toml.TreeFromMap(targetToMap(t))
	if err != nil {
		return models.Target{}, fmt.Errorf("build target table: %w", err)
	}

	arr := append(d.targetsArray(), sub)
	d.tree.Set("targets", arr)

	return t, nil
}

// UpdateTarget locates the table whose id matches t.ID and replaces it in
// place, keeping the tables before and after it. Returns ErrUnknownTarget
// if no such target exists. The replaced table itself is rebuilt from a
// fresh map holding only its non-default fields.
func (d *Document) UpdateTarget(t models.Target) error {
	arr := d.targetsArray()

	for i, sub := range arr {
		if id, ok := sub.Get("id").(string); ok && id == t.ID {
			replacement, err := toml.TreeFromMap(targetToMap(t))
			if err != nil {
				return fmt.Errorf("build target table: %w", err)
			}

			arr[i] = replacement
			d.tree.Set("targets", arr)

			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrUnknownTarget, t.ID)
}

// FillBlankTargetIDs assigns a freshly generated id to every [[targets]]
// table whose id field is blank or absent, in document order, per spec.md
// §3: "a blank id on load is filled with a freshly generated UUID and the
// file is rewritten once." Returns whether any table was touched, so the
// caller knows whether a rewrite is needed.
func (d *Document) FillBlankTargetIDs(newID func() string) bool {
	arr := d.targetsArray()
	changed := false

	for _, sub := range arr {
		if id, ok := sub.Get("id").(string); ok && id != "" {
			continue
		}

		sub.Set("id", newID())
		changed = true
	}

	if changed {
		d.tree.Set("targets", arr)
	}

	return changed
}

// RemoveTarget deletes the table whose id matches id. Returns
// ErrUnknownTarget if no such target exists.
func (d *Document) RemoveTarget(id string) error {
	arr := d.targetsArray()

	for i, sub := range arr {
		if tid, ok := sub.Get("id").(string); ok && tid == id {
			arr = append(arr[:i], arr[i+1:]...)
			d.tree.Set("targets", arr)

			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrUnknownTarget, id)
}
