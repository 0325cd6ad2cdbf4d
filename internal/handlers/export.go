package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/polycrisisio/wssi-deck/internal/common"
	"github.com/polycrisisio/wssi-deck/internal/engine"
	"github.com/polycrisisio/wssi-deck/internal/export"
	"github.com/polycrisisio/wssi-deck/internal/projector"
)

// ExportHandler runs the brief export pipeline.
type ExportHandler struct {
	logger *common.Logger
	svc    *export.Service
	status func() engine.Status
}

// NewExportHandler creates a new export handler.
func NewExportHandler(logger *common.Logger, svc *export.Service, status func() engine.Status) *ExportHandler {
	return &ExportHandler{logger: logger, svc: svc, status: status}
}

// ServeHTTP handles POST /api/export. No summary data yet means there
// is nothing truthful to export, so the request fails with 503.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	res, err := h.svc.Export(r.Context(), h.status())
	if err != nil {
		if errors.Is(err, projector.ErrNoData) {
			WriteError(w, http.StatusServiceUnavailable, "no data to export yet")
			return
		}
		h.logger.Error().Err(err).Msg("export failed")
		WriteError(w, http.StatusInternalServerError, "export failed")
		return
	}

	WriteJSON(w, http.StatusOK, res)
}

// ExportListHandler lists recent export audit entries.
type ExportListHandler struct {
	logger *common.Logger
	svc    *export.Service
}

// NewExportListHandler creates a new export list handler.
func NewExportListHandler(logger *common.Logger, svc *export.Service) *ExportListHandler {
	return &ExportListHandler{logger: logger, svc: svc}
}

// ServeHTTP handles GET /api/exports?limit=N.
func (h *ExportListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := h.svc.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list exports")
		WriteError(w, http.StatusInternalServerError, "failed to list exports")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"exports": entries,
		"count":   len(entries),
	})
}
