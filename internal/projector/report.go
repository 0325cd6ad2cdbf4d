package projector

import (
	"errors"
	"time"

	"github.com/polycrisisio/wssi-deck/internal/engine"
	"github.com/polycrisisio/wssi-deck/internal/models"
)

// StrongCorrelationR is the |pearson r| cutoff for the report's
// strong-correlation table.
const StrongCorrelationR = 0.7

// ReportTitle heads every exported brief.
const ReportTitle = "WSSI Composite Risk Brief"

// ErrNoData is returned when a report is requested before any summary
// fetch ever succeeded. A brief with fabricated defaults would be worse
// than no brief.
var ErrNoData = errors.New("no summary snapshot available")

// AlertSummary is the report's alert block: severity counts over the
// full active set plus the tier-truncated rows.
type AlertSummary struct {
	State       SectionState   `json:"state"`
	BySeverity  map[string]int `json:"by_severity,omitempty"`
	Rows        []AlertRow     `json:"rows,omitempty"`
	ActiveTotal int            `json:"active_total"`
	RecentTotal int            `json:"recent_total"`
}

// ReportModel is the point-in-time structure handed to the export
// pipeline. Immutable once built, serializable for the audit trail,
// discarded after the export completes.
type ReportModel struct {
	GeneratedAt  time.Time          `json:"generated_at"`
	Title        string             `json:"title"`
	Tier         models.Tier        `json:"tier"`
	Paid         bool               `json:"paid"`
	Banner       string             `json:"banner,omitempty"`
	Summary      SummaryHeadline    `json:"summary"`
	Trend        TrendInfo          `json:"trend"`
	Themes       ThemeSection       `json:"themes"`
	Alerts       AlertSummary       `json:"alerts"`
	Correlations CorrelationSection `json:"correlations"`
	Network      NetworkSection     `json:"network"`
	Patterns     PatternSection     `json:"patterns"`
	Appendix     AppendixSection    `json:"appendix"`
	Freshness    []FreshnessBadge   `json:"freshness"`
}

// BuildReportModel renders the export report for the status's tier,
// sharing the live view's ranking and gating. Returns ErrNoData when no
// summary snapshot exists.
func (p *Projector) BuildReportModel(st engine.Status) (*ReportModel, error) {
	summary := summaryPayload(st.Snapshots)
	if summary == nil {
		return nil, ErrNoData
	}

	tier := st.Tier.Tier
	paid := tier.Paid()
	limits := LimitsFor(tier)

	timeline := timelinePayload(st.Snapshots)
	trend := TrendInfo{Direction: TrendInsufficientHistory, Label: "insufficient history"}
	if paid && timeline != nil {
		trend = computeTrend(timeline.History)
	}

	return &ReportModel{
		GeneratedAt:  p.now(),
		Title:        ReportTitle,
		Tier:         tier,
		Paid:         paid,
		Banner:       buildBanner(st.Outcome),
		Summary:      *buildHeadline(summary),
		Trend:        trend,
		Themes:       buildThemeSection(summary, limits.Themes),
		Alerts:       buildAlertSummary(alertsPayload(st.Snapshots), limits.AlertRows),
		Correlations: buildCorrelationSection(correlationsPayload(st.Snapshots), paid, limits.CorrelationPairs, StrongCorrelationR),
		Network:      buildNetworkSection(networkPayload(st.Snapshots), paid, limits.NetworkNodes, limits.NetworkEdges),
		Patterns:     buildPatternSection(patternsPayload(st.Snapshots), paid, limits.PatternMatches),
		Appendix:     buildAppendixSection(summary, paid, limits.AppendixThemes, limits.AppendixIndicators),
		Freshness:    p.buildBadges(st.Datasets),
	}, nil
}

func buildAlertSummary(payload *models.AlertsPayload, limit int) AlertSummary {
	section := buildAlertSection(payload, limit)
	summary := AlertSummary{
		State:       section.State,
		Rows:        section.Rows,
		ActiveTotal: section.ActiveTotal,
		RecentTotal: section.RecentTotal,
	}
	if payload != nil && len(payload.ActiveAlerts) > 0 {
		counts := make(map[string]int, 3)
		for _, alert := range payload.ActiveAlerts {
			counts[alert.Severity]++
		}
		summary.BySeverity = counts
	}
	return summary
}
