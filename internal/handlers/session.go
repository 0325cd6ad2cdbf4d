package handlers

import (
	"net/http"

	"github.com/polycrisisio/wssi-deck/internal/common"
	"github.com/polycrisisio/wssi-deck/internal/models"
	"github.com/polycrisisio/wssi-deck/internal/session"
)

// SessionHandler reads and writes the viewer's session state. Writes go
// through the store and then nudge the watcher, which is the only path
// by which the engine learns about tier changes.
type SessionHandler struct {
	logger  *common.Logger
	store   *session.Store
	watcher *session.Watcher
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(logger *common.Logger, store *session.Store, watcher *session.Watcher) *SessionHandler {
	return &SessionHandler{logger: logger, store: store, watcher: watcher}
}

// sessionUpdate is the PUT body. Nil fields are left untouched.
type sessionUpdate struct {
	Tier   *string `json:"tier"`
	APIKey *string `json:"api_key"`
}

// ServeHTTP handles GET and PUT /api/session. The API key itself is
// never echoed back, only whether one is set.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		h.get(w)
	case http.MethodPut:
		h.put(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SessionHandler) get(w http.ResponseWriter) {
	state := h.watcher.Current()
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"tier":    state.Tier,
		"paid":    state.Tier.Paid(),
		"has_key": state.APIKey != "",
	})
}

func (h *SessionHandler) put(w http.ResponseWriter, r *http.Request) {
	var update sessionUpdate
	if err := ReadJSON(r, &update); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid session body")
		return
	}
	if update.Tier == nil && update.APIKey == nil {
		WriteError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	if update.Tier != nil {
		if err := h.store.SetTier(*update.Tier); err != nil {
			h.logger.Error().Err(err).Msg("failed to store tier")
			WriteError(w, http.StatusInternalServerError, "failed to store tier")
			return
		}
	}
	if update.APIKey != nil {
		if err := h.store.SetAPIKey(*update.APIKey); err != nil {
			h.logger.Error().Err(err).Msg("failed to store api key")
			WriteError(w, http.StatusInternalServerError, "failed to store api key")
			return
		}
	}

	h.watcher.Notify()

	resp := map[string]interface{}{"status": "ok"}
	if update.Tier != nil {
		resp["tier"] = models.ParseTier(*update.Tier)
	}
	WriteJSON(w, http.StatusOK, resp)
}

// SessionNotifyHandler is the external change signal: something else
// wrote the session store and the deck should re-read it now instead of
// waiting for the next poll.
type SessionNotifyHandler struct {
	logger  *common.Logger
	watcher *session.Watcher
}

// NewSessionNotifyHandler creates a new session notify handler.
func NewSessionNotifyHandler(logger *common.Logger, watcher *session.Watcher) *SessionNotifyHandler {
	return &SessionNotifyHandler{logger: logger, watcher: watcher}
}

// ServeHTTP handles POST /api/session/notify.
func (h *SessionNotifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	h.watcher.Notify()
	WriteJSON(w, http.StatusAccepted, map[string]string{
		"status": "accepted",
	})
}
