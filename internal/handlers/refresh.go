package handlers

import (
	"net/http"

	"github.com/polycrisisio/wssi-deck/internal/common"
)

// RefreshHandler queues a manual refresh cycle.
type RefreshHandler struct {
	logger  *common.Logger
	trigger func()
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(logger *common.Logger, trigger func()) *RefreshHandler {
	return &RefreshHandler{logger: logger, trigger: trigger}
}

// ServeHTTP handles POST /api/refresh. The cycle runs asynchronously;
// 202 means queued, not completed.
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	h.trigger()
	h.logger.Debug().Msg("manual refresh queued")

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"status": "accepted",
	})
}
