// Package models defines the dataset payloads and shared types for the
// WSSI composite-risk dashboard.
package models

import (
	"fmt"
	"time"
)

// DatasetKind identifies one of the six upstream analytic datasets.
type DatasetKind string

const (
	DatasetSummary      DatasetKind = "summary"
	DatasetTimeline     DatasetKind = "timeline"
	DatasetCorrelations DatasetKind = "correlations"
	DatasetNetwork      DatasetKind = "network"
	DatasetAlerts       DatasetKind = "alerts"
	DatasetPatterns     DatasetKind = "patterns"
)

// AllDatasetKinds lists every dataset kind in display order.
var AllDatasetKinds = []DatasetKind{
	DatasetSummary,
	DatasetTimeline,
	DatasetCorrelations,
	DatasetNetwork,
	DatasetAlerts,
	DatasetPatterns,
}

// IsValid reports whether k names a known dataset kind.
func (k DatasetKind) IsValid() bool {
	switch k {
	case DatasetSummary, DatasetTimeline, DatasetCorrelations,
		DatasetNetwork, DatasetAlerts, DatasetPatterns:
		return true
	}
	return false
}

// IndicatorDetail is one raw indicator observation contributing to a theme.
type IndicatorDetail struct {
	IndicatorID   string  `json:"indicator_id"`
	IndicatorName string  `json:"indicator_name"`
	Source        string  `json:"source"`
	RawValue      float64 `json:"raw_value"`
	NormalizedZ   float64 `json:"normalized_z"`
	Unit          string  `json:"unit,omitempty"`
	Observed      string  `json:"observed,omitempty"`
}

// ThemeSignal is one theme's contribution to the composite index.
// StressLevel is one of "critical", "approaching", "watch", "stable".
type ThemeSignal struct {
	ThemeID              string            `json:"theme_id"`
	ThemeName            string            `json:"theme_name"`
	Category             string            `json:"category"`
	StressLevel          string            `json:"stress_level"`
	MeanZScore           float64           `json:"mean_z_score"`
	Momentum30D          float64           `json:"momentum_30d"`
	Weight               float64           `json:"weight"`
	WeightedContribution float64           `json:"weighted_contribution"`
	IndicatorDetails     []IndicatorDetail `json:"indicator_details,omitempty"`
}

// SummaryPayload is the composite index headline: the current WSSI value,
// its stress classification, and the per-theme signal breakdown.
type SummaryPayload struct {
	WSSIValue            float64       `json:"wssi_value"`
	WSSIScore            float64       `json:"wssi_score"`
	WSSIDelta            float64       `json:"wssi_delta"`
	StressLevel          string        `json:"stress_level"`
	ActiveThemes         int           `json:"active_themes"`
	AboveWarning         int           `json:"above_warning"`
	CalculationTimestamp string        `json:"calculation_timestamp"`
	ThemeSignals         []ThemeSignal `json:"theme_signals"`
}

// TimelinePoint is one dated WSSI observation.
type TimelinePoint struct {
	Date      string  `json:"date"`
	WSSIValue float64 `json:"wssi_value"`
	WSSIScore float64 `json:"wssi_score"`
}

// TimelinePayload is the WSSI history series, dates ascending. Current
// echoes the latest WSSI value the series converges on.
type TimelinePayload struct {
	History []TimelinePoint `json:"history"`
	Count   int             `json:"count"`
	Current float64         `json:"current,omitempty"`
}

// CorrelationPair is one theme-pair correlation estimate.
type CorrelationPair struct {
	ThemeA   string  `json:"theme_a"`
	ThemeB   string  `json:"theme_b"`
	PearsonR float64 `json:"pearson_r"`
	PValue   float64 `json:"p_value"`
	SampleN  int     `json:"sample_n"`
}

// CorrelationsPayload holds theme-level cross-correlations.
type CorrelationsPayload struct {
	GeneratedAt string            `json:"generated_at"`
	Pairs       []CorrelationPair `json:"pairs"`
}

// NetworkNode is one node in the contagion network graph.
type NetworkNode struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	ThemeID     string `json:"theme_id,omitempty"`
	StressLevel string `json:"stress_level,omitempty"`
}

// NetworkEdge is one weighted edge in the contagion network graph.
type NetworkEdge struct {
	ID     string  `json:"id"`
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// NetworkPayload is the contagion network graph.
type NetworkPayload struct {
	GeneratedAt string        `json:"generated_at"`
	Nodes       []NetworkNode `json:"nodes"`
	Edges       []NetworkEdge `json:"edges"`
}

// Alert is one monitoring alert. Severity is "critical", "warning", or
// "info"; Status is "active" or "resolved".
type Alert struct {
	ID          string `json:"id"`
	Severity    string `json:"severity"`
	Status      string `json:"status"`
	Message     string `json:"message"`
	ThemeID     string `json:"theme_id,omitempty"`
	TriggeredAt string `json:"triggered_at"`
}

// AlertsPayload is the alert register: currently active alerts plus a
// recent-history window.
type AlertsPayload struct {
	GeneratedAt  string  `json:"generated_at"`
	ActiveAlerts []Alert `json:"active_alerts"`
	RecentAlerts []Alert `json:"recent_alerts"`
}

// PatternDiagnostics explains a historical-analogue match.
type PatternDiagnostics struct {
	Overlap           []string `json:"overlap,omitempty"`
	MissingIndicators []string `json:"missing_indicators,omitempty"`
}

// PatternMatch is one historical episode matched against current conditions.
// SimilarityPct is 0..100; matches arrive ranked descending.
type PatternMatch struct {
	EpisodeID      string             `json:"episode_id"`
	Label          string             `json:"label"`
	Period         string             `json:"period"`
	SimilarityPct  float64            `json:"similarity_pct"`
	ConfidenceTier string             `json:"confidence_tier"`
	Diagnostics    PatternDiagnostics `json:"diagnostics"`
}

// PatternsPayload holds historical-analogue pattern matches.
type PatternsPayload struct {
	GeneratedAt string         `json:"generated_at"`
	Matches     []PatternMatch `json:"matches"`
}

// DatasetSnapshot is the last successful fetch result for one dataset.
// Exactly one payload pointer is non-nil, matching Kind. Snapshots are
// immutable once stored; a failed fetch never produces one.
type DatasetSnapshot struct {
	Kind      DatasetKind `json:"kind"`
	Source    string      `json:"source"`
	FetchedAt time.Time   `json:"fetched_at"`

	Summary      *SummaryPayload      `json:"summary,omitempty"`
	Timeline     *TimelinePayload     `json:"timeline,omitempty"`
	Correlations *CorrelationsPayload `json:"correlations,omitempty"`
	Network      *NetworkPayload      `json:"network,omitempty"`
	Alerts       *AlertsPayload       `json:"alerts,omitempty"`
	Patterns     *PatternsPayload     `json:"patterns,omitempty"`
}

// Validate checks that the snapshot's payload matches its declared kind.
func (s *DatasetSnapshot) Validate() error {
	if s == nil {
		return fmt.Errorf("snapshot is nil")
	}
	if !s.Kind.IsValid() {
		return fmt.Errorf("unknown dataset kind %q", s.Kind)
	}
	var want bool
	switch s.Kind {
	case DatasetSummary:
		want = s.Summary != nil
	case DatasetTimeline:
		want = s.Timeline != nil
	case DatasetCorrelations:
		want = s.Correlations != nil
	case DatasetNetwork:
		want = s.Network != nil
	case DatasetAlerts:
		want = s.Alerts != nil
	case DatasetPatterns:
		want = s.Patterns != nil
	}
	if !want {
		return fmt.Errorf("snapshot kind %q has no matching payload", s.Kind)
	}
	return nil
}
