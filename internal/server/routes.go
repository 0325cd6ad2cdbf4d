package server

import "net/http"

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Service index
	mux.HandleFunc("/", s.handleIndex)

	// Live feed (websocket)
	mux.HandleFunc("/ws/feed", s.app.FeedHandler)

	// MCP endpoint (JSON-RPC over HTTP)
	if s.app.MCPHandler != nil {
		mux.Handle("/mcp", s.app.MCPHandler)
	}

	// Exported briefs (HTML and PDF artifacts)
	mux.Handle("/artifacts/", http.StripPrefix("/artifacts/",
		http.FileServer(http.Dir(s.app.Config.Export.OutputDir))))

	// API routes
	mux.HandleFunc("/api/dashboard", s.app.DashboardHandler.ServeHTTP)
	mux.HandleFunc("/api/freshness", s.app.FreshnessHandler.ServeHTTP)
	mux.HandleFunc("/api/refresh", s.app.RefreshHandler.ServeHTTP)
	mux.HandleFunc("/api/export", s.app.ExportHandler.ServeHTTP)
	mux.HandleFunc("/api/exports", s.app.ExportListHandler.ServeHTTP)
	mux.HandleFunc("/api/session", s.app.SessionHandler.ServeHTTP)
	mux.HandleFunc("/api/session/notify", s.app.SessionNotifyHandler.ServeHTTP)
	mux.HandleFunc("/api/health", s.app.HealthHandler.ServeHTTP)
	mux.HandleFunc("/api/upstream-health", s.app.UpstreamHealthHandler.ServeHTTP)
	mux.HandleFunc("/api/version", s.app.VersionHandler.ServeHTTP)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.handleNotFound)

	return mux
}

// handleIndex describes the service. The root pattern also catches
// every path no other route matched, so anything but "/" is a 404.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.handleNotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"service":"wssi-deck","endpoints":["/api/dashboard","/api/freshness","/api/refresh","/api/export","/api/exports","/api/session","/api/session/notify","/api/health","/api/upstream-health","/api/version","/ws/feed","/mcp","/artifacts/"]}`))
}

// handleNotFound returns a JSON 404 for unmatched routes.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"Not Found","message":"The requested endpoint does not exist"}`))
}
