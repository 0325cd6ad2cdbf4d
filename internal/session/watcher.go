package session

import (
	"context"
	"sync"
	"time"

	"github.com/polycrisisio/wssi-deck/internal/common"
	"github.com/polycrisisio/wssi-deck/internal/models"
)

// Watcher observes the session store for tier or key changes and fans
// them out to subscribers. The concrete change signal is external: a
// poll timer plus Notify, which the host wires to whatever focus or
// storage-changed event it has.
type Watcher struct {
	store    *Store
	logger   *common.Logger
	poll     time.Duration
	notifyCh chan struct{}

	mu        sync.Mutex
	last      models.TierState
	listeners []func(models.TierState)
}

// NewWatcher creates a watcher and primes it with the store's current
// state. A store that cannot be read at startup primes as free.
func NewWatcher(store *Store, poll time.Duration, logger *common.Logger) *Watcher {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	if poll <= 0 {
		poll = 15 * time.Second
	}
	w := &Watcher{
		store:    store,
		logger:   logger,
		poll:     poll,
		notifyCh: make(chan struct{}, 1),
	}

	state, err := store.TierState()
	if err != nil {
		logger.Warn().Err(err).Msg("session store unreadable at startup, assuming free tier")
		state = models.TierState{Tier: models.TierFree}
	}
	w.last = state
	return w
}

// Subscribe registers a listener for tier-state changes. Listeners run
// on the watcher goroutine, outside the watcher's lock, so they may
// safely call back into Current.
func (w *Watcher) Subscribe(fn func(models.TierState)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
}

// Current returns the last known tier state. This is the engine's tier
// source; it never blocks on the store.
func (w *Watcher) Current() models.TierState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// Notify requests an immediate re-check. Non-blocking; repeated calls
// before the check runs coalesce.
func (w *Watcher) Notify() {
	select {
	case w.notifyCh <- struct{}{}:
	default:
	}
}

// Run polls the store until ctx is canceled, re-checking early whenever
// Notify fires.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug().Msg("session watcher stopped")
			return
		case <-ticker.C:
			w.check()
		case <-w.notifyCh:
			w.check()
		}
	}
}

// check re-reads the store and dispatches on change. A read failure
// keeps the last known state: a broken session store must not silently
// downgrade a paying viewer, only an actually-changed value may.
func (w *Watcher) check() {
	state, err := w.store.TierState()
	if err != nil {
		w.logger.Warn().Err(err).Msg("session store read failed, keeping last known tier")
		return
	}

	w.mu.Lock()
	changed := state != w.last
	if changed {
		w.last = state
	}
	listeners := make([]func(models.TierState), len(w.listeners))
	copy(listeners, w.listeners)
	w.mu.Unlock()

	if !changed {
		return
	}

	w.logger.Info().
		Str("tier", string(state.Tier)).
		Bool("has_key", state.APIKey != "").
		Msg("session state changed")

	// Dispatch outside the lock: listeners are allowed to read Current.
	for _, fn := range listeners {
		fn(state)
	}
}
