// Package client talks to the upstream WSSI analytics REST API, one
// fetch per dataset. Every method either returns a complete snapshot or
// an error; failures are never embedded in a result.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/polycrisisio/wssi-deck/internal/engine"
	"github.com/polycrisisio/wssi-deck/internal/models"
)

// historyDays is the window requested for the timeline chart.
const historyDays = 90

// WSSIClient communicates with the upstream WSSI API. Timeouts live in
// the embedded http.Client; callers get no other cancellation knob
// beyond the request context.
type WSSIClient struct {
	baseURL    string
	source     string
	httpClient *http.Client

	mu     sync.RWMutex
	apiKey string
}

// NewWSSIClient creates a client targeting the given API base URL. The
// source label on returned snapshots is the API host.
func NewWSSIClient(baseURL, apiKey string, timeout time.Duration) *WSSIClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	source := baseURL
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		source = u.Host
	}
	return &WSSIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		source:     source,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetAPIKey swaps the key sent on subsequent requests. Called when the
// session store reports a credential change; safe against in-flight
// fetches.
func (c *WSSIClient) SetAPIKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiKey = key
}

func (c *WSSIClient) currentKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey
}

// FetchFuncs adapts the client to the orchestrator's per-dataset fetch
// table.
func (c *WSSIClient) FetchFuncs() map[models.DatasetKind]engine.FetchFunc {
	return map[models.DatasetKind]engine.FetchFunc{
		models.DatasetSummary:      c.FetchSummary,
		models.DatasetTimeline:     c.FetchTimeline,
		models.DatasetCorrelations: c.FetchCorrelations,
		models.DatasetNetwork:      c.FetchNetwork,
		models.DatasetAlerts:       c.FetchAlerts,
		models.DatasetPatterns:     c.FetchPatterns,
	}
}

// FetchSummary retrieves the current composite index and theme signals.
// GET /api/v1/wssi
func (c *WSSIClient) FetchSummary(ctx context.Context) (*models.DatasetSnapshot, error) {
	var payload models.SummaryPayload
	if err := c.getJSON(ctx, "/api/v1/wssi", &payload); err != nil {
		return nil, err
	}
	snap := c.newSnapshot(models.DatasetSummary)
	snap.Summary = &payload
	return snap, nil
}

// FetchTimeline retrieves the WSSI history series.
// GET /api/v1/wssi/history?days=N
func (c *WSSIClient) FetchTimeline(ctx context.Context) (*models.DatasetSnapshot, error) {
	var payload models.TimelinePayload
	path := fmt.Sprintf("/api/v1/wssi/history?days=%d", historyDays)
	if err := c.getJSON(ctx, path, &payload); err != nil {
		return nil, err
	}
	snap := c.newSnapshot(models.DatasetTimeline)
	snap.Timeline = &payload
	return snap, nil
}

// FetchCorrelations retrieves theme-level cross-correlations.
// GET /api/v1/correlations -> { generated_at, theme_level: { pairs: [...] } }
func (c *WSSIClient) FetchCorrelations(ctx context.Context) (*models.DatasetSnapshot, error) {
	var result struct {
		GeneratedAt string `json:"generated_at"`
		ThemeLevel  struct {
			Pairs []models.CorrelationPair `json:"pairs"`
		} `json:"theme_level"`
	}
	if err := c.getJSON(ctx, "/api/v1/correlations", &result); err != nil {
		return nil, err
	}
	snap := c.newSnapshot(models.DatasetCorrelations)
	snap.Correlations = &models.CorrelationsPayload{
		GeneratedAt: result.GeneratedAt,
		Pairs:       result.ThemeLevel.Pairs,
	}
	return snap, nil
}

// FetchNetwork retrieves the contagion network graph.
// GET /api/v1/network
func (c *WSSIClient) FetchNetwork(ctx context.Context) (*models.DatasetSnapshot, error) {
	var payload models.NetworkPayload
	if err := c.getJSON(ctx, "/api/v1/network", &payload); err != nil {
		return nil, err
	}
	snap := c.newSnapshot(models.DatasetNetwork)
	snap.Network = &payload
	return snap, nil
}

// FetchAlerts retrieves the alert register.
// GET /api/v1/alerts
func (c *WSSIClient) FetchAlerts(ctx context.Context) (*models.DatasetSnapshot, error) {
	var payload models.AlertsPayload
	if err := c.getJSON(ctx, "/api/v1/alerts", &payload); err != nil {
		return nil, err
	}
	snap := c.newSnapshot(models.DatasetAlerts)
	snap.Alerts = &payload
	return snap, nil
}

// FetchPatterns retrieves historical-analogue pattern matches.
// GET /api/v1/patterns
func (c *WSSIClient) FetchPatterns(ctx context.Context) (*models.DatasetSnapshot, error) {
	var payload models.PatternsPayload
	if err := c.getJSON(ctx, "/api/v1/patterns", &payload); err != nil {
		return nil, err
	}
	snap := c.newSnapshot(models.DatasetPatterns)
	snap.Patterns = &payload
	return snap, nil
}

func (c *WSSIClient) newSnapshot(kind models.DatasetKind) *models.DatasetSnapshot {
	return &models.DatasetSnapshot{
		Kind:      kind,
		Source:    c.source,
		FetchedAt: time.Now().UTC(),
	}
}

func (c *WSSIClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if key := c.currentKey(); key != "" {
		req.Header.Set("X-API-Key", key)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach wssi-api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("api key rejected (%d): %s", resp.StatusCode, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wssi-api returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
