// Package app wires the deck together: session state, the aggregation
// engine, projection, export, the live feed, and the HTTP handlers the
// server mounts.
package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/polycrisisio/wssi-deck/internal/audit"
	"github.com/polycrisisio/wssi-deck/internal/client"
	"github.com/polycrisisio/wssi-deck/internal/common"
	"github.com/polycrisisio/wssi-deck/internal/config"
	"github.com/polycrisisio/wssi-deck/internal/engine"
	"github.com/polycrisisio/wssi-deck/internal/export"
	"github.com/polycrisisio/wssi-deck/internal/feed"
	"github.com/polycrisisio/wssi-deck/internal/handlers"
	"github.com/polycrisisio/wssi-deck/internal/mcp"
	"github.com/polycrisisio/wssi-deck/internal/models"
	"github.com/polycrisisio/wssi-deck/internal/projector"
	"github.com/polycrisisio/wssi-deck/internal/seed"
	"github.com/polycrisisio/wssi-deck/internal/session"
)

// App holds all application components and dependencies.
type App struct {
	Config *config.Config
	Logger *common.Logger

	Store     *session.Store
	Watcher   *session.Watcher
	Client    *client.WSSIClient
	Cache     *engine.SnapshotCache
	Engine    *engine.Orchestrator
	Projector *projector.Projector
	Audit     *audit.Log
	Exporter  *export.Service
	Hub       *feed.Hub

	// HTTP handlers
	HealthHandler         *handlers.HealthHandler
	UpstreamHealthHandler *handlers.UpstreamHealthHandler
	VersionHandler        *handlers.VersionHandler
	DashboardHandler      *handlers.DashboardHandler
	FreshnessHandler      *handlers.FreshnessHandler
	RefreshHandler        *handlers.RefreshHandler
	ExportHandler         *handlers.ExportHandler
	ExportListHandler     *handlers.ExportListHandler
	SessionHandler        *handlers.SessionHandler
	SessionNotifyHandler  *handlers.SessionNotifyHandler
	MCPHandler            *mcp.Handler
	FeedHandler           http.HandlerFunc

	// feedCh carries post-cycle statuses from the engine to the
	// projection push loop. Capacity one: only the newest matters.
	feedCh chan engine.Status
}

// New initializes the application with all dependencies.
func New(cfg *config.Config, logger *common.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
		feedCh: make(chan engine.Status, 1),
	}

	env := strings.ToLower(strings.TrimSpace(cfg.Environment))
	if cfg.IsDevMode() {
		logger.Warn().Msg("running in dev mode; fresh sessions are granted a paid tier")
	} else if env != "prod" && env != "" {
		logger.Warn().
			Str("environment", cfg.Environment).
			Msg("unrecognized environment value, defaulting to prod behavior")
	}

	store, err := session.NewStore(session.StoreOptions{Path: cfg.Session.Path})
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	a.Store = store

	// Seed before the watcher primes so the first tier read already
	// sees the dev grant.
	if cfg.IsDevMode() {
		seed.DevSession(store, logger)
	}

	a.Watcher = session.NewWatcher(store, cfg.Session.GetPollInterval(), logger)

	// The session key wins over the config key; the config key is the
	// fallback for a session that has not stored one.
	state := a.Watcher.Current()
	apiKey := state.APIKey
	if apiKey == "" {
		apiKey = cfg.Upstream.APIKey
	}
	a.Client = client.NewWSSIClient(cfg.Upstream.URL, apiKey, cfg.Upstream.GetTimeout())

	a.Cache = engine.NewSnapshotCache()
	a.Engine = engine.NewOrchestrator(engine.OrchestratorConfig{
		Cache:    a.Cache,
		Fetchers: a.Client.FetchFuncs(),
		Tier:     a.Watcher.Current,
		Interval: cfg.Refresh.GetInterval(),
		Logger:   logger,
	})
	a.Projector = projector.NewProjector()

	auditLog, err := audit.NewLog(cfg.Audit.Path)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	a.Audit = auditLog

	a.Exporter = export.NewService(export.Options{
		OutDir:    cfg.Export.OutputDir,
		Converter: export.NewChromeConverter(cfg.Export.GetTimeout()),
		Trail:     auditLog,
		Projector: a.Projector,
		Logger:    logger,
	})

	a.Hub = feed.NewHub(logger)

	a.initHandlers()
	a.wireSubscriptions()

	logger.Info().Msg("application initialization complete")

	return a, nil
}

// initHandlers initializes all HTTP handlers.
func (a *App) initHandlers() {
	a.HealthHandler = handlers.NewHealthHandler(a.Logger)
	a.UpstreamHealthHandler = handlers.NewUpstreamHealthHandler(a.Logger, a.Config.Upstream.URL)
	a.VersionHandler = handlers.NewVersionHandler(a.Logger)

	a.DashboardHandler = handlers.NewDashboardHandler(a.Logger, a.Engine.Status, a.Projector)
	a.FreshnessHandler = handlers.NewFreshnessHandler(a.Logger, a.Engine.Status, a.Projector)
	a.RefreshHandler = handlers.NewRefreshHandler(a.Logger, a.Engine.TriggerRefresh)
	a.ExportHandler = handlers.NewExportHandler(a.Logger, a.Exporter, a.Engine.Status)
	a.ExportListHandler = handlers.NewExportListHandler(a.Logger, a.Exporter)
	a.SessionHandler = handlers.NewSessionHandler(a.Logger, a.Store, a.Watcher)
	a.SessionNotifyHandler = handlers.NewSessionNotifyHandler(a.Logger, a.Watcher)

	a.MCPHandler = mcp.NewHandler(mcp.Deps{
		Status:    a.Engine.Status,
		Trigger:   a.Engine.TriggerRefresh,
		Projector: a.Projector,
		Exporter:  a.Exporter,
	}, a.Logger)

	a.FeedHandler = feed.Serve(a.Hub, a.Logger)

	a.Logger.Debug().Msg("HTTP handlers initialized")
}

// wireSubscriptions connects the session watcher to the engine and the
// engine to the feed.
func (a *App) wireSubscriptions() {
	// Key first: the refresh queued by the tier change must already run
	// with the new credentials.
	a.Watcher.Subscribe(func(state models.TierState) {
		key := state.APIKey
		if key == "" {
			key = a.Config.Upstream.APIKey
		}
		a.Client.SetAPIKey(key)
		a.Engine.OnTierChange(state)
	})

	// Engine listeners run under the orchestrator lock, so only hand
	// the status to the push loop here. Never block; keep the newest
	// status when the loop lags.
	a.Engine.Subscribe(func(st engine.Status) {
		select {
		case <-a.feedCh:
		default:
		}
		select {
		case a.feedCh <- st:
		default:
		}
	})
}

// Run starts the background loops: session watching, refresh cycles,
// the feed hub, and projection pushes. It returns immediately; the
// loops stop when ctx is canceled.
func (a *App) Run(ctx context.Context) {
	go a.Watcher.Run(ctx)
	go a.Engine.Run(ctx)
	go a.Hub.Run(ctx)
	go a.pushProjections(ctx)
}

// pushProjections rebuilds the live projection after every applied
// cycle and broadcasts it to feed clients.
func (a *App) pushProjections(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case st := <-a.feedCh:
			a.Hub.BroadcastProjection(a.Projector.BuildLiveProjection(st))
		}
	}
}

// Close closes all application resources. Stop the background loops
// first by canceling the Run context.
func (a *App) Close() error {
	var firstErr error
	if a.Audit != nil {
		if err := a.Audit.Close(); err != nil {
			firstErr = err
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
