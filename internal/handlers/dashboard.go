package handlers

import (
	"net/http"

	"github.com/polycrisisio/wssi-deck/internal/common"
	"github.com/polycrisisio/wssi-deck/internal/engine"
	"github.com/polycrisisio/wssi-deck/internal/projector"
)

// DashboardHandler serves the live dashboard projection.
type DashboardHandler struct {
	logger    *common.Logger
	status    func() engine.Status
	projector *projector.Projector
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(logger *common.Logger, status func() engine.Status, p *projector.Projector) *DashboardHandler {
	if p == nil {
		p = projector.NewProjector()
	}
	return &DashboardHandler{logger: logger, status: status, projector: p}
}

// ServeHTTP handles GET /api/dashboard. The projection is rebuilt on
// every request so the viewer always sees the current tier and cache.
func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	view := h.projector.BuildLiveProjection(h.status())
	WriteJSON(w, http.StatusOK, view)
}

// FreshnessHandler serves the per-dataset freshness badges on their own
// for lightweight polling.
type FreshnessHandler struct {
	logger    *common.Logger
	status    func() engine.Status
	projector *projector.Projector
}

// NewFreshnessHandler creates a new freshness handler.
func NewFreshnessHandler(logger *common.Logger, status func() engine.Status, p *projector.Projector) *FreshnessHandler {
	if p == nil {
		p = projector.NewProjector()
	}
	return &FreshnessHandler{logger: logger, status: status, projector: p}
}

// ServeHTTP handles GET /api/freshness.
func (h *FreshnessHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	view := h.projector.BuildLiveProjection(h.status())
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"badges": view.Badges,
		"banner": view.Banner,
	})
}
