// Package hooks exposes the op stream to external consumers: a TOML-backed
// registry of webhook endpoints, a feed for reading or subscribing to ops
// past a cursor, and a JSONL delivery ledger keyed hookId:opId for
// at-least-once bookkeeping. The delivery worker itself (HTTP posting,
// retry, backoff) lives outside this module.
package hooks

import (
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// DefaultRegistryPath is the conventional registry location inside a repo.
const DefaultRegistryPath = ".kanban/hooks.toml"

// Hook is one registered webhook endpoint. Cursor is the highest seq the
// worker has confirmed delivering for this hook.
type Hook struct {
	ID     string `toml:"id"`
	URL    string `toml:"url"`
	Cursor int64  `toml:"cursor"`
}

// Registry is the set of registered hooks for one repo.
type Registry struct {
	Hooks []Hook `toml:"hooks"`
}

// LoadRegistry reads the hook registry from path. A missing file is an empty
// registry, not an error, so callers can proceed before any hook exists.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Registry{}, nil
		}
		return nil, fmt.Errorf("hooks: read registry: %w", err)
	}
	var r Registry
	if err := toml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("hooks: parse registry: %w", err)
	}
	return &r, nil
}

// SaveRegistry writes the registry to path, creating parent directories as
// needed.
func SaveRegistry(path string, r *Registry) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("hooks: create %s: %w", dir, err)
	}
	data, err := toml.Marshal(r)
	if err != nil {
		return fmt.Errorf("hooks: marshal registry: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("hooks: write registry: %w", err)
	}
	return nil
}

// Find returns the hook with the given id, or nil.
func (r *Registry) Find(id string) *Hook {
	for i := range r.Hooks {
		if r.Hooks[i].ID == id {
			return &r.Hooks[i]
		}
	}
	return nil
}

// Upsert adds or replaces a hook by id.
func (r *Registry) Upsert(h Hook) {
	if existing := r.Find(h.ID); existing != nil {
		*existing = h
		return
	}
	r.Hooks = append(r.Hooks, h)
}
