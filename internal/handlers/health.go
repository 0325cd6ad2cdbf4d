package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/polycrisisio/wssi-deck/internal/common"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	logger *common.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(logger *common.Logger) *HealthHandler {
	return &HealthHandler{logger: logger}
}

// ServeHTTP handles GET /api/health.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// UpstreamHealthHandler probes the WSSI API so widgets can distinguish
// "deck down" from "upstream down".
type UpstreamHealthHandler struct {
	logger *common.Logger
	apiURL string
}

// NewUpstreamHealthHandler creates a new upstream health handler.
func NewUpstreamHealthHandler(logger *common.Logger, apiURL string) *UpstreamHealthHandler {
	return &UpstreamHealthHandler{logger: logger, apiURL: apiURL}
}

// ServeHTTP handles GET /api/upstream-health.
func (h *UpstreamHealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", h.apiURL+"/health", nil)
	if err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "down"})
		return
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "down"})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "down"})
}
