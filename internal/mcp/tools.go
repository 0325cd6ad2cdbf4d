package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/polycrisisio/wssi-deck/internal/projector"
)

// RegisterTools registers the deck's tool set on the MCP server.
func RegisterTools(s *server.MCPServer, deps Deps) int {
	s.AddTool(DashboardTool(), DashboardToolHandler(deps))
	s.AddTool(FreshnessTool(), FreshnessToolHandler(deps))
	s.AddTool(RefreshTool(), RefreshToolHandler(deps))
	s.AddTool(ExportTool(), ExportToolHandler(deps))
	s.AddTool(VersionTool(), VersionToolHandler())
	return 5
}

// DashboardTool returns the get_dashboard tool definition.
func DashboardTool() mcp.Tool {
	return mcp.NewTool("get_dashboard",
		mcp.WithDescription("Get the current WSSI dashboard projection for the viewer's tier: headline, ranked theme ledger, section states, freshness badges, and degradation banner."),
	)
}

// DashboardToolHandler serves the live projection.
func DashboardToolHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		view := deps.Projector.BuildLiveProjection(deps.Status())
		return jsonResult(view), nil
	}
}

// FreshnessTool returns the get_freshness tool definition.
func FreshnessTool() mcp.Tool {
	return mcp.NewTool("get_freshness",
		mcp.WithDescription("Get per-dataset freshness badges (fresh/recent/warning/stale/unknown) with source labels, plus the degradation banner."),
	)
}

// FreshnessToolHandler serves the freshness badges.
func FreshnessToolHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		view := deps.Projector.BuildLiveProjection(deps.Status())
		return jsonResult(map[string]interface{}{
			"badges": view.Badges,
			"banner": view.Banner,
		}), nil
	}
}

// RefreshTool returns the refresh_now tool definition.
func RefreshTool() mcp.Tool {
	return mcp.NewTool("refresh_now",
		mcp.WithDescription("Queue an immediate refresh cycle against the WSSI API. Returns as soon as the cycle is queued; poll get_freshness for the result."),
	)
}

// RefreshToolHandler queues a manual refresh.
func RefreshToolHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		deps.Trigger()
		return jsonResult(map[string]string{"status": "accepted"}), nil
	}
}

// ExportTool returns the export_brief tool definition.
func ExportTool() mcp.Tool {
	return mcp.NewTool("export_brief",
		mcp.WithDescription("Export a point-in-time composite risk brief for the viewer's tier. Produces a PDF, or an HTML fallback when the converter is unavailable."),
	)
}

// ExportToolHandler runs the export pipeline.
func ExportToolHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := deps.Exporter.Export(ctx, deps.Status())
		if err != nil {
			if errors.Is(err, projector.ErrNoData) {
				return errorResult("no data to export yet"), nil
			}
			return errorResult("export failed: " + err.Error()), nil
		}
		return jsonResult(res), nil
	}
}
