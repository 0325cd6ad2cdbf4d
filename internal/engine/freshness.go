package engine

import (
	"time"

	"github.com/polycrisisio/wssi-deck/internal/models"
)

// Freshness windows for dataset snapshots. Age is measured from the
// snapshot's fetch timestamp, not the upstream calculation timestamp:
// the badge answers "how old is what you are looking at", upstream lag
// is the upstream's problem.
const (
	FreshWindow   = 10 * time.Minute
	RecentWindow  = 60 * time.Minute
	WarningWindow = 240 * time.Minute
)

// FreshnessEvaluator classifies snapshot age into badge states.
// The clock is injectable for tests.
type FreshnessEvaluator struct {
	now func() time.Time
}

// NewFreshnessEvaluator creates an evaluator on the system clock.
func NewFreshnessEvaluator() *FreshnessEvaluator {
	return &FreshnessEvaluator{now: time.Now}
}

// NewFreshnessEvaluatorWithClock creates an evaluator with a fixed clock
// function. Used by tests and by the orchestrator, which shares one clock
// across staging and evaluation.
func NewFreshnessEvaluatorWithClock(now func() time.Time) *FreshnessEvaluator {
	if now == nil {
		now = time.Now
	}
	return &FreshnessEvaluator{now: now}
}

// Evaluate maps a snapshot to its freshness state.
//
// A missing snapshot is unknown: there is nothing to be stale. A dataset
// whose most recent fetch failed is stale regardless of age, so the badge
// can't claim fresh just because the last success was recent. Otherwise
// the state follows the age windows and never decreases in severity as
// the snapshot ages.
func (e *FreshnessEvaluator) Evaluate(snap *models.DatasetSnapshot, failedThisCycle bool) models.FreshnessState {
	if snap == nil {
		return models.FreshnessUnknown
	}
	if failedThisCycle {
		return models.FreshnessStale
	}
	if snap.FetchedAt.IsZero() {
		return models.FreshnessUnknown
	}

	age := e.now().Sub(snap.FetchedAt)
	switch {
	case age <= FreshWindow:
		return models.FreshnessFresh
	case age <= RecentWindow:
		return models.FreshnessRecent
	case age <= WarningWindow:
		return models.FreshnessWarning
	default:
		return models.FreshnessStale
	}
}

// Age returns the snapshot's age on the evaluator's clock, or zero for
// nil/unstamped snapshots.
func (e *FreshnessEvaluator) Age(snap *models.DatasetSnapshot) time.Duration {
	if snap == nil || snap.FetchedAt.IsZero() {
		return 0
	}
	return e.now().Sub(snap.FetchedAt)
}
