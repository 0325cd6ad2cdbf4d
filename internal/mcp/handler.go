// Package mcp exposes the deck's read surface and actions as MCP tools
// over a streamable HTTP endpoint, so agent clients can query the same
// projections the widgets see.
package mcp

import (
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/polycrisisio/wssi-deck/internal/common"
	"github.com/polycrisisio/wssi-deck/internal/config"
	"github.com/polycrisisio/wssi-deck/internal/engine"
	"github.com/polycrisisio/wssi-deck/internal/export"
	"github.com/polycrisisio/wssi-deck/internal/projector"
)

// Deps are the collaborators the MCP tools call into. Tools read
// through the same projector as the HTTP surface and never reach the
// cache directly.
type Deps struct {
	Status    func() engine.Status
	Trigger   func()
	Projector *projector.Projector
	Exporter  *export.Service
}

// Handler is the HTTP handler for the MCP endpoint.
// It wraps mcp-go's StreamableHTTPServer and delegates to it.
type Handler struct {
	streamable *mcpserver.StreamableHTTPServer
	logger     *common.Logger
}

// NewHandler creates a new MCP handler with the deck's tool set.
func NewHandler(deps Deps, logger *common.Logger) *Handler {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	if deps.Projector == nil {
		deps.Projector = projector.NewProjector()
	}

	mcpSrv := mcpserver.NewMCPServer(
		"wssi-deck",
		config.GetVersion(),
		mcpserver.WithToolCapabilities(true),
	)

	toolCount := RegisterTools(mcpSrv, deps)

	streamable := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithStateLess(true),
	)

	logger.Info().
		Int("tools", toolCount).
		Msg("MCP handler initialized")

	return &Handler{
		streamable: streamable,
		logger:     logger,
	}
}

// ServeHTTP delegates to the mcp-go StreamableHTTPServer.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.streamable.ServeHTTP(w, r)
}
