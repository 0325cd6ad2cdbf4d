package engine

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/polycrisisio/wssi-deck/internal/models"
)

// Snapshot builders shared across the engine tests.

func summarySnap(fetchedAt time.Time, source string, signals ...models.ThemeSignal) *models.DatasetSnapshot {
	return &models.DatasetSnapshot{
		Kind:      models.DatasetSummary,
		Source:    source,
		FetchedAt: fetchedAt,
		Summary: &models.SummaryPayload{
			WSSIValue:    1.42,
			WSSIScore:    61.0,
			WSSIDelta:    0.08,
			StressLevel:  "watch",
			ActiveThemes: len(signals),
			ThemeSignals: signals,
		},
	}
}

func timelineSnap(fetchedAt time.Time, points ...models.TimelinePoint) *models.DatasetSnapshot {
	return &models.DatasetSnapshot{
		Kind:      models.DatasetTimeline,
		Source:    "wssi-api",
		FetchedAt: fetchedAt,
		Timeline:  &models.TimelinePayload{History: points, Count: len(points)},
	}
}

func alertsSnap(fetchedAt time.Time, active ...models.Alert) *models.DatasetSnapshot {
	return &models.DatasetSnapshot{
		Kind:      models.DatasetAlerts,
		Source:    "wssi-api",
		FetchedAt: fetchedAt,
		Alerts:    &models.AlertsPayload{ActiveAlerts: active},
	}
}

func emptySnap(kind models.DatasetKind, fetchedAt time.Time, source string) *models.DatasetSnapshot {
	snap := &models.DatasetSnapshot{Kind: kind, Source: source, FetchedAt: fetchedAt}
	switch kind {
	case models.DatasetSummary:
		snap.Summary = &models.SummaryPayload{}
	case models.DatasetTimeline:
		snap.Timeline = &models.TimelinePayload{}
	case models.DatasetCorrelations:
		snap.Correlations = &models.CorrelationsPayload{}
	case models.DatasetNetwork:
		snap.Network = &models.NetworkPayload{}
	case models.DatasetAlerts:
		snap.Alerts = &models.AlertsPayload{}
	case models.DatasetPatterns:
		snap.Patterns = &models.PatternsPayload{}
	}
	return snap
}

func TestSnapshotCache_GetSet(t *testing.T) {
	c := NewSnapshotCache()
	now := time.Now()

	if err := c.Set(summarySnap(now, "wssi-api")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got := c.Get(models.DatasetSummary)
	if got == nil {
		t.Fatal("expected cached summary snapshot")
	}
	if got.Source != "wssi-api" {
		t.Errorf("expected source wssi-api, got %s", got.Source)
	}
	if !got.FetchedAt.Equal(now) {
		t.Errorf("expected fetch timestamp preserved, got %v", got.FetchedAt)
	}
}

func TestSnapshotCache_GetAbsent(t *testing.T) {
	c := NewSnapshotCache()

	if got := c.Get(models.DatasetNetwork); got != nil {
		t.Errorf("expected nil for absent dataset, got %+v", got)
	}
}

func TestSnapshotCache_SetRejectsMismatchedPayload(t *testing.T) {
	c := NewSnapshotCache()

	// Kind says network but only a summary payload is attached.
	bad := &models.DatasetSnapshot{
		Kind:    models.DatasetNetwork,
		Summary: &models.SummaryPayload{},
	}
	if err := c.Set(bad); err == nil {
		t.Error("expected rejection for kind/payload mismatch")
	}
	if c.Get(models.DatasetNetwork) != nil {
		t.Error("rejected snapshot must not reach the cache")
	}
}

func TestSnapshotCache_SetRejectsUnknownKind(t *testing.T) {
	c := NewSnapshotCache()

	bad := &models.DatasetSnapshot{Kind: "telemetry", Summary: &models.SummaryPayload{}}
	if err := c.Set(bad); err == nil {
		t.Error("expected rejection for unknown dataset kind")
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache after rejection, got %d entries", c.Len())
	}
}

func TestSnapshotCache_Clear(t *testing.T) {
	c := NewSnapshotCache()
	now := time.Now()

	if err := c.Set(alertsSnap(now)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	c.Clear(models.DatasetAlerts)

	if c.Get(models.DatasetAlerts) != nil {
		t.Error("expected alerts snapshot cleared")
	}

	// Clearing an absent kind is a no-op, not a panic.
	c.Clear(models.DatasetPatterns)
	c.Clear("bogus")
}

func TestSnapshotCache_ApplyWritesAndClears(t *testing.T) {
	c := NewSnapshotCache()
	t0 := time.Now().Add(-time.Hour)
	t1 := time.Now()

	for _, kind := range models.AllDatasetKinds {
		if err := c.Set(emptySnap(kind, t0, "old")); err != nil {
			t.Fatalf("seed Set failed for %s: %v", kind, err)
		}
	}

	writes := []*models.DatasetSnapshot{summarySnap(t1, "new")}
	clears := []models.DatasetKind{models.DatasetNetwork, models.DatasetPatterns}
	c.Apply(writes, clears)

	if got := c.Get(models.DatasetSummary); got == nil || got.Source != "new" {
		t.Error("expected summary replaced by staged write")
	}
	if c.Get(models.DatasetNetwork) != nil {
		t.Error("expected network cleared")
	}
	if c.Get(models.DatasetPatterns) != nil {
		t.Error("expected patterns cleared")
	}
	// Untouched datasets keep their prior snapshots.
	if got := c.Get(models.DatasetAlerts); got == nil || got.Source != "old" {
		t.Error("expected alerts snapshot untouched by Apply")
	}
}

func TestSnapshotCache_ApplySkipsInvalidWrites(t *testing.T) {
	c := NewSnapshotCache()

	c.Apply([]*models.DatasetSnapshot{
		nil,
		{Kind: models.DatasetNetwork}, // payload missing
		summarySnap(time.Now(), "ok"),
	}, nil)

	if c.Get(models.DatasetNetwork) != nil {
		t.Error("invalid write must be skipped")
	}
	if c.Get(models.DatasetSummary) == nil {
		t.Error("valid write alongside invalid ones must still land")
	}
}

func TestSnapshotCache_SnapshotAllHasEveryKind(t *testing.T) {
	c := NewSnapshotCache()
	if err := c.Set(summarySnap(time.Now(), "wssi-api")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	all := c.SnapshotAll()
	if len(all) != len(models.AllDatasetKinds) {
		t.Fatalf("expected %d entries, got %d", len(models.AllDatasetKinds), len(all))
	}
	if all[models.DatasetSummary] == nil {
		t.Error("expected summary present")
	}
	if all[models.DatasetCorrelations] != nil {
		t.Error("expected absent dataset mapped to nil")
	}
}

func TestSnapshotCache_ThreadSafety(t *testing.T) {
	c := NewSnapshotCache()
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func(n int) {
			defer wg.Done()
			c.Set(summarySnap(now, fmt.Sprintf("writer-%d", n)))
		}(i)
		go func() {
			defer wg.Done()
			c.SnapshotAll()
		}()
		go func() {
			defer wg.Done()
			c.Apply([]*models.DatasetSnapshot{alertsSnap(now)}, []models.DatasetKind{models.DatasetPatterns})
		}()
	}
	wg.Wait()

	if c.Get(models.DatasetSummary) == nil {
		t.Error("expected a summary snapshot after concurrent writes")
	}
}
