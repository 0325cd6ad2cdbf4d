// Package engine implements the aggregation layer: the per-dataset
// snapshot cache, the freshness evaluator, and the refresh orchestrator.
package engine

import (
	"fmt"
	"sync"

	"github.com/polycrisisio/wssi-deck/internal/models"
)

// SnapshotCache stores the last successful snapshot for each dataset.
// A failed fetch never touches it; writes only happen when a refresh
// cycle settles. Thread-safe with sync.RWMutex.
type SnapshotCache struct {
	mu    sync.RWMutex
	items map[models.DatasetKind]*models.DatasetSnapshot
}

// NewSnapshotCache creates an empty snapshot cache.
func NewSnapshotCache() *SnapshotCache {
	return &SnapshotCache{
		items: make(map[models.DatasetKind]*models.DatasetSnapshot),
	}
}

// Get returns the cached snapshot for a dataset, or nil when none exists.
func (c *SnapshotCache) Get(kind models.DatasetKind) *models.DatasetSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.items[kind]
}

// Set stores a snapshot under its own kind. The snapshot must validate;
// a mismatched or unknown payload is rejected rather than stored.
func (c *SnapshotCache) Set(snap *models.DatasetSnapshot) error {
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("rejected snapshot: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[snap.Kind] = snap
	return nil
}

// Clear removes the cached snapshot for a dataset. Clearing an absent
// or unknown kind is a no-op.
func (c *SnapshotCache) Clear(kind models.DatasetKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, kind)
}

// Apply commits a settled cycle's staged writes and clears in one
// critical section so a reader never observes a partially updated cycle.
// Invalid writes are skipped; clears run after writes.
func (c *SnapshotCache) Apply(writes []*models.DatasetSnapshot, clears []models.DatasetKind) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, snap := range writes {
		if snap == nil || snap.Validate() != nil {
			continue
		}
		c.items[snap.Kind] = snap
	}
	for _, kind := range clears {
		delete(c.items, kind)
	}
}

// SnapshotAll returns the current snapshot for every dataset kind as one
// consistent read. Absent datasets map to nil.
func (c *SnapshotCache) SnapshotAll() map[models.DatasetKind]*models.DatasetSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[models.DatasetKind]*models.DatasetSnapshot, len(models.AllDatasetKinds))
	for _, kind := range models.AllDatasetKinds {
		out[kind] = c.items[kind]
	}
	return out
}

// Len returns the number of datasets currently cached.
func (c *SnapshotCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
