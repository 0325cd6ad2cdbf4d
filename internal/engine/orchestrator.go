package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/polycrisisio/wssi-deck/internal/common"
	"github.com/polycrisisio/wssi-deck/internal/models"
)

// FetchFunc retrieves one dataset from the upstream API. It either
// resolves with a validated snapshot or returns an error; it never
// returns a snapshot carrying an embedded failure.
type FetchFunc func(ctx context.Context) (*models.DatasetSnapshot, error)

// TokenSource issues monotonically increasing refresh tokens.
// Injectable so tests can observe and control cycle ordering.
type TokenSource interface {
	Next() uint64
}

// counterTokenSource is the default TokenSource.
type counterTokenSource struct {
	n atomic.Uint64
}

func (s *counterTokenSource) Next() uint64 {
	return s.n.Add(1)
}

// CycleOutcome records what one refresh cycle attempted and how it ended.
type CycleOutcome struct {
	Token       uint64                        `json:"token"`
	Tier        models.Tier                   `json:"tier"`
	StartedAt   time.Time                     `json:"started_at"`
	CompletedAt time.Time                     `json:"completed_at"`
	Attempted   []models.DatasetKind          `json:"attempted"`
	Failures    map[models.DatasetKind]string `json:"failures,omitempty"`
	Applied     bool                          `json:"applied"`
}

// FailureCount returns the number of datasets that failed in this cycle.
func (o *CycleOutcome) FailureCount() int {
	if o == nil {
		return 0
	}
	return len(o.Failures)
}

// DatasetStatus is the per-dataset badge input: freshness, provenance,
// and the latest cycle's failure reason if any.
type DatasetStatus struct {
	Kind          models.DatasetKind    `json:"kind"`
	Freshness     models.FreshnessState `json:"freshness"`
	Source        string                `json:"source,omitempty"`
	FetchedAt     time.Time             `json:"fetched_at,omitempty"`
	FailedCycle   bool                  `json:"failed_cycle"`
	FailureReason string                `json:"failure_reason,omitempty"`
}

// Status is one consistent read of the aggregation state: the tier in
// effect, every cached snapshot, the last applied cycle, and the badges
// derived from both.
type Status struct {
	Tier      models.TierState
	Snapshots map[models.DatasetKind]*models.DatasetSnapshot
	Outcome   *CycleOutcome
	Datasets  []DatasetStatus
}

// OrchestratorConfig wires an Orchestrator. Cache, Evaluator, Fetchers,
// and Tier are required; the rest default sensibly.
type OrchestratorConfig struct {
	Cache     *SnapshotCache
	Evaluator *FreshnessEvaluator
	Fetchers  map[models.DatasetKind]FetchFunc
	Tier      func() models.TierState
	Interval  time.Duration
	Logger    *common.Logger
	Now       func() time.Time
	Tokens    TokenSource
}

// Orchestrator runs refresh cycles: one concurrent fetch per dataset,
// an all-settle barrier, and an atomic cache apply gated by a monotonic
// token so a superseded cycle can never clobber a newer one.
type Orchestrator struct {
	cache     *SnapshotCache
	eval      *FreshnessEvaluator
	fetchers  map[models.DatasetKind]FetchFunc
	tierFn    func() models.TierState
	interval  time.Duration
	logger    *common.Logger
	now       func() time.Time
	tokens    TokenSource
	latest    atomic.Uint64
	refreshCh chan struct{}

	mu        sync.Mutex
	outcome   *CycleOutcome
	listeners []func(Status)
}

// NewOrchestrator creates an orchestrator from config.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	tokens := cfg.Tokens
	if tokens == nil {
		tokens = &counterTokenSource{}
	}
	eval := cfg.Evaluator
	if eval == nil {
		eval = NewFreshnessEvaluatorWithClock(now)
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Orchestrator{
		cache:     cfg.Cache,
		eval:      eval,
		fetchers:  cfg.Fetchers,
		tierFn:    cfg.Tier,
		interval:  interval,
		logger:    logger,
		now:       now,
		tokens:    tokens,
		refreshCh: make(chan struct{}, 1),
	}
}

// Subscribe registers a listener invoked after every applied cycle and
// tier change, with the post-apply Status. Listeners run on the applying
// goroutine with the orchestrator lock held and must not call back into
// the Orchestrator.
func (o *Orchestrator) Subscribe(fn func(Status)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.listeners = append(o.listeners, fn)
}

// paidKinds returns the five datasets the free tier never holds.
func paidKinds() []models.DatasetKind {
	kinds := make([]models.DatasetKind, 0, len(models.AllDatasetKinds)-1)
	for _, kind := range models.AllDatasetKinds {
		if kind != models.DatasetSummary {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// Refresh runs one cycle to completion and returns its outcome. Safe to
// call concurrently: each call gets its own token, and only the most
// recently initiated cycle may apply its staged results.
func (o *Orchestrator) Refresh(ctx context.Context) CycleOutcome {
	token := o.tokens.Next()
	o.storeLatest(token)

	tier := o.tierFn()
	started := o.now()

	kinds := models.AllDatasetKinds
	if !tier.Tier.Paid() {
		kinds = []models.DatasetKind{models.DatasetSummary}
	}

	// Cycle-local staging. Nothing here reaches the cache until the
	// barrier settles and the token check passes.
	var stageMu sync.Mutex
	staged := make(map[models.DatasetKind]*models.DatasetSnapshot)
	failures := make(map[models.DatasetKind]string)

	var wg sync.WaitGroup
	for _, kind := range kinds {
		fetch, ok := o.fetchers[kind]
		if !ok {
			stageMu.Lock()
			failures[kind] = "no fetcher registered"
			stageMu.Unlock()
			continue
		}

		wg.Add(1)
		go func(kind models.DatasetKind, fetch FetchFunc) {
			defer wg.Done()

			snap, err := o.runFetch(ctx, kind, fetch)

			stageMu.Lock()
			defer stageMu.Unlock()
			if err != nil {
				failures[kind] = err.Error()
				return
			}
			staged[kind] = snap
		}(kind, fetch)
	}
	wg.Wait() // all-settle barrier: every fetch resolves or fails first

	var clears []models.DatasetKind
	if !tier.Tier.Paid() {
		clears = paidKinds()
	}

	outcome := CycleOutcome{
		Token:       token,
		Tier:        tier.Tier,
		StartedAt:   started,
		CompletedAt: o.now(),
		Attempted:   kinds,
		Failures:    failures,
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.latest.Load() != token {
		o.logger.Debug().
			Int("token", int(token)).
			Int("latest", int(o.latest.Load())).
			Msg("refresh cycle superseded, discarding staged results")
		return outcome
	}

	writes := make([]*models.DatasetSnapshot, 0, len(staged))
	for _, snap := range staged {
		writes = append(writes, snap)
	}
	o.cache.Apply(writes, clears)
	outcome.Applied = true
	o.outcome = &outcome

	if len(failures) > 0 {
		o.logger.Warn().
			Int("token", int(token)).
			Int("fetched", len(staged)).
			Int("failed", len(failures)).
			Msg("refresh cycle applied with degraded datasets")
	} else {
		o.logger.Info().
			Int("token", int(token)).
			Int("fetched", len(staged)).
			Str("tier", string(tier.Tier)).
			Msg("refresh cycle applied")
	}

	o.notifyLocked()
	return outcome
}

// runFetch executes one dataset fetch, stamping and validating the
// result. A panicking fetcher becomes a failure, not a dead barrier.
func (o *Orchestrator) runFetch(ctx context.Context, kind models.DatasetKind, fetch FetchFunc) (snap *models.DatasetSnapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			snap = nil
			err = fmt.Errorf("fetch panicked: %v", r)
		}
	}()

	snap, err = fetch(ctx)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, fmt.Errorf("fetcher returned no snapshot")
	}
	if snap.Kind != kind {
		return nil, fmt.Errorf("fetcher for %s returned snapshot of kind %s", kind, snap.Kind)
	}
	if verr := snap.Validate(); verr != nil {
		return nil, verr
	}
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = o.now()
	}
	return snap, nil
}

// OnTierChange re-materializes the view for a new tier. A downgrade to
// free purges the paid snapshots immediately, without waiting for the
// follow-up network cycle, so paid data cannot linger in the cache.
func (o *Orchestrator) OnTierChange(state models.TierState) {
	o.mu.Lock()
	if !state.Tier.Paid() {
		o.cache.Apply(nil, paidKinds())
		o.logger.Info().Str("tier", string(state.Tier)).Msg("tier downgraded, paid snapshots purged")
	} else {
		o.logger.Info().Str("tier", string(state.Tier)).Msg("tier changed")
	}
	o.notifyLocked()
	o.mu.Unlock()

	o.TriggerRefresh()
}

// TriggerRefresh queues a manual refresh for the Run loop. Non-blocking;
// a trigger while one is already queued coalesces.
func (o *Orchestrator) TriggerRefresh() {
	select {
	case o.refreshCh <- struct{}{}:
	default:
	}
}

// Run drives the periodic refresh loop until ctx is canceled. An initial
// cycle runs immediately so the dashboard is populated at startup.
func (o *Orchestrator) Run(ctx context.Context) {
	o.Refresh(ctx)

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Debug().Msg("refresh loop stopped")
			return
		case <-ticker.C:
			o.Refresh(ctx)
		case <-o.refreshCh:
			o.Refresh(ctx)
		}
	}
}

// Status returns one consistent read of tier, snapshots, last outcome,
// and freshness badges.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.statusLocked()
}

// statusLocked builds Status. Caller holds o.mu.
func (o *Orchestrator) statusLocked() Status {
	var outcome *CycleOutcome
	if o.outcome != nil {
		c := *o.outcome
		outcome = &c
	}

	snaps := o.cache.SnapshotAll()
	return Status{
		Tier:      o.tierFn(),
		Snapshots: snaps,
		Outcome:   outcome,
		Datasets:  o.datasetStatuses(snaps, outcome),
	}
}

// datasetStatuses derives the per-dataset badges from the cache and the
// last applied cycle.
func (o *Orchestrator) datasetStatuses(snaps map[models.DatasetKind]*models.DatasetSnapshot, outcome *CycleOutcome) []DatasetStatus {
	out := make([]DatasetStatus, 0, len(models.AllDatasetKinds))
	for _, kind := range models.AllDatasetKinds {
		snap := snaps[kind]

		var reason string
		if outcome != nil {
			reason = outcome.Failures[kind]
		}
		failed := reason != ""

		ds := DatasetStatus{
			Kind:          kind,
			Freshness:     o.eval.Evaluate(snap, failed),
			FailedCycle:   failed,
			FailureReason: reason,
		}
		if snap != nil {
			ds.Source = snap.Source
			ds.FetchedAt = snap.FetchedAt
		}
		out = append(out, ds)
	}
	return out
}

// notifyLocked dispatches the current status to listeners. Caller holds o.mu.
func (o *Orchestrator) notifyLocked() {
	if len(o.listeners) == 0 {
		return
	}
	st := o.statusLocked()
	for _, fn := range o.listeners {
		fn(st)
	}
}

// storeLatest advances the latest-token watermark, never retreating it.
// A plain store would let a slower goroutine overwrite a newer token.
func (o *Orchestrator) storeLatest(token uint64) {
	for {
		cur := o.latest.Load()
		if token <= cur {
			return
		}
		if o.latest.CompareAndSwap(cur, token) {
			return
		}
	}
}
