package projector

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/polycrisisio/wssi-deck/internal/common"
	"github.com/polycrisisio/wssi-deck/internal/engine"
	"github.com/polycrisisio/wssi-deck/internal/models"
)

// Projector builds tier-limited projections from engine status. It holds
// no state beyond a clock and never mutates the snapshots it reads.
type Projector struct {
	now func() time.Time
}

// NewProjector creates a projector on the system clock.
func NewProjector() *Projector {
	return &Projector{now: time.Now}
}

// NewProjectorWithClock creates a projector with an injected clock.
func NewProjectorWithClock(now func() time.Time) *Projector {
	if now == nil {
		now = time.Now
	}
	return &Projector{now: now}
}

// SummaryHeadline is the composite index headline block.
type SummaryHeadline struct {
	WSSIValue    float64 `json:"wssi_value"`
	WSSIScore    float64 `json:"wssi_score"`
	WSSIDelta    float64 `json:"wssi_delta"`
	DeltaLabel   string  `json:"delta_label"`
	StressLevel  string  `json:"stress_level"`
	ActiveThemes int     `json:"active_themes"`
	AboveWarning int     `json:"above_warning"`
	CalculatedAt string  `json:"calculated_at,omitempty"`
}

// FreshnessBadge is the per-dataset provenance badge.
type FreshnessBadge struct {
	Dataset       models.DatasetKind    `json:"dataset"`
	State         models.FreshnessState `json:"state"`
	Source        string                `json:"source,omitempty"`
	FetchedAt     time.Time             `json:"fetched_at"`
	AgeLabel      string                `json:"age_label"`
	FailedCycle   bool                  `json:"failed_cycle"`
	FailureReason string                `json:"failure_reason,omitempty"`
}

// ViewModel is the live dashboard projection: the headline, every
// section in its explicit state, freshness badges, and the degradation
// banner. Blocking is set when no summary was ever obtained; consumers
// must show a hard "no data" state instead of the sections.
type ViewModel struct {
	GeneratedAt  time.Time          `json:"generated_at"`
	Tier         models.Tier        `json:"tier"`
	Paid         bool               `json:"paid"`
	Blocking     bool               `json:"blocking"`
	Banner       string             `json:"banner,omitempty"`
	Summary      *SummaryHeadline   `json:"summary,omitempty"`
	Themes       ThemeSection       `json:"themes"`
	Timeline     TimelineSection    `json:"timeline"`
	Correlations CorrelationSection `json:"correlations"`
	Network      NetworkSection     `json:"network"`
	Alerts       AlertSection       `json:"alerts"`
	Patterns     PatternSection     `json:"patterns"`
	Badges       []FreshnessBadge   `json:"badges"`
	Limits       ProjectionLimits   `json:"limits"`
}

// BuildLiveProjection renders the live view for the status's tier. Pure
// with respect to the input: snapshots are read, never modified.
func (p *Projector) BuildLiveProjection(st engine.Status) ViewModel {
	tier := st.Tier.Tier
	paid := tier.Paid()
	limits := LimitsFor(tier)

	summary := summaryPayload(st.Snapshots)

	vm := ViewModel{
		GeneratedAt:  p.now(),
		Tier:         tier,
		Paid:         paid,
		Blocking:     summary == nil,
		Banner:       buildBanner(st.Outcome),
		Themes:       buildThemeSection(summary, limits.Themes),
		Timeline:     buildTimelineSection(timelinePayload(st.Snapshots), paid),
		Correlations: buildCorrelationSection(correlationsPayload(st.Snapshots), paid, limits.CorrelationPairs, 0),
		Network:      buildNetworkSection(networkPayload(st.Snapshots), paid, limits.NetworkNodes, limits.NetworkEdges),
		Alerts:       buildAlertSection(alertsPayload(st.Snapshots), limits.AlertRows),
		Patterns:     buildPatternSection(patternsPayload(st.Snapshots), paid, limits.PatternMatches),
		Badges:       p.buildBadges(st.Datasets),
		Limits:       limits,
	}
	if summary != nil {
		vm.Summary = buildHeadline(summary)
	}
	return vm
}

func buildHeadline(summary *models.SummaryPayload) *SummaryHeadline {
	return &SummaryHeadline{
		WSSIValue:    summary.WSSIValue,
		WSSIScore:    summary.WSSIScore,
		WSSIDelta:    summary.WSSIDelta,
		DeltaLabel:   common.FormatSignedDelta(summary.WSSIDelta),
		StressLevel:  summary.StressLevel,
		ActiveThemes: summary.ActiveThemes,
		AboveWarning: summary.AboveWarning,
		CalculatedAt: summary.CalculationTimestamp,
	}
}

// buildBanner renders the global degradation banner. Empty when the last
// cycle had no failures or no cycle has applied yet.
func buildBanner(outcome *engine.CycleOutcome) string {
	n := outcome.FailureCount()
	switch n {
	case 0:
		return ""
	case 1:
		return "1 data feed degraded"
	default:
		return fmt.Sprintf("%d data feeds degraded", n)
	}
}

func (p *Projector) buildBadges(datasets []engine.DatasetStatus) []FreshnessBadge {
	now := p.now()
	badges := make([]FreshnessBadge, 0, len(datasets))
	for _, ds := range datasets {
		badges = append(badges, FreshnessBadge{
			Dataset:       ds.Kind,
			State:         ds.Freshness,
			Source:        ds.Source,
			FetchedAt:     ds.FetchedAt,
			AgeLabel:      common.FormatAge(ds.FetchedAt, now),
			FailedCycle:   ds.FailedCycle,
			FailureReason: ds.FailureReason,
		})
	}
	return badges
}

// Payload accessors. Each returns nil when the dataset is absent.

func summaryPayload(snaps map[models.DatasetKind]*models.DatasetSnapshot) *models.SummaryPayload {
	if s := snaps[models.DatasetSummary]; s != nil {
		return s.Summary
	}
	return nil
}

func timelinePayload(snaps map[models.DatasetKind]*models.DatasetSnapshot) *models.TimelinePayload {
	if s := snaps[models.DatasetTimeline]; s != nil {
		return s.Timeline
	}
	return nil
}

func correlationsPayload(snaps map[models.DatasetKind]*models.DatasetSnapshot) *models.CorrelationsPayload {
	if s := snaps[models.DatasetCorrelations]; s != nil {
		return s.Correlations
	}
	return nil
}

func networkPayload(snaps map[models.DatasetKind]*models.DatasetSnapshot) *models.NetworkPayload {
	if s := snaps[models.DatasetNetwork]; s != nil {
		return s.Network
	}
	return nil
}

func alertsPayload(snaps map[models.DatasetKind]*models.DatasetSnapshot) *models.AlertsPayload {
	if s := snaps[models.DatasetAlerts]; s != nil {
		return s.Alerts
	}
	return nil
}

func patternsPayload(snaps map[models.DatasetKind]*models.DatasetSnapshot) *models.PatternsPayload {
	if s := snaps[models.DatasetPatterns]; s != nil {
		return s.Patterns
	}
	return nil
}

// buildThemeSection ranks the full signal set and truncates to the tier
// cap. Universally visible: never locked, only unavailable or empty.
func buildThemeSection(summary *models.SummaryPayload, limit int) ThemeSection {
	if summary == nil {
		return ThemeSection{State: SectionUnavailable}
	}
	if len(summary.ThemeSignals) == 0 {
		return ThemeSection{State: SectionEmpty}
	}

	top := engine.TopThemeSignals(summary.ThemeSignals, limit)
	rows := make([]ThemeRow, 0, len(top))
	for _, sig := range top {
		rows = append(rows, ThemeRow{
			ThemeID:              sig.ThemeID,
			ThemeName:            sig.ThemeName,
			Category:             sig.Category,
			StressLevel:          sig.StressLevel,
			StressRank:           engine.StressRank(sig.StressLevel),
			MeanZScore:           sig.MeanZScore,
			ZScoreLabel:          common.FormatZScore(sig.MeanZScore),
			Momentum30D:          sig.Momentum30D,
			WeightedContribution: sig.WeightedContribution,
		})
	}
	return ThemeSection{State: SectionReady, Rows: rows, Total: len(summary.ThemeSignals)}
}

// buildTimelineSection passes the history through and derives the trend.
// The trend is a paid feature; free always reads insufficient history.
func buildTimelineSection(timeline *models.TimelinePayload, paid bool) TimelineSection {
	trend := TrendInfo{Direction: TrendInsufficientHistory, Label: "insufficient history"}

	if timeline == nil {
		return TimelineSection{State: SectionUnavailable, Trend: trend}
	}
	if len(timeline.History) == 0 {
		return TimelineSection{State: SectionEmpty, Trend: trend}
	}
	if paid {
		trend = computeTrend(timeline.History)
	}
	return TimelineSection{State: SectionReady, Points: timeline.History, Trend: trend}
}

// computeTrend reads the movement between the last two points. Fewer
// than two points yields the explicit insufficient-history sentinel,
// never a fabricated delta.
func computeTrend(points []models.TimelinePoint) TrendInfo {
	if len(points) < 2 {
		return TrendInfo{Direction: TrendInsufficientHistory, Label: "insufficient history"}
	}
	last := points[len(points)-1]
	prev := points[len(points)-2]
	delta := last.WSSIValue - prev.WSSIValue

	direction := TrendFlat
	switch {
	case delta > 0:
		direction = TrendRising
	case delta < 0:
		direction = TrendFalling
	}
	return TrendInfo{Direction: direction, Delta: delta, Label: common.FormatSignedDelta(delta)}
}

// buildCorrelationSection ranks pairs by correlation strength. minAbsR
// filters weak pairs out first; the live view passes 0 (no filter), the
// report passes the strong-correlation threshold.
func buildCorrelationSection(payload *models.CorrelationsPayload, paid bool, limit int, minAbsR float64) CorrelationSection {
	if !paid {
		return CorrelationSection{State: SectionLocked}
	}
	if payload == nil {
		return CorrelationSection{State: SectionUnavailable}
	}

	kept := make([]models.CorrelationPair, 0, len(payload.Pairs))
	for _, pair := range payload.Pairs {
		if math.Abs(pair.PearsonR) >= minAbsR {
			kept = append(kept, pair)
		}
	}
	if len(kept) == 0 {
		return CorrelationSection{State: SectionEmpty}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		ri, rj := math.Abs(kept[i].PearsonR), math.Abs(kept[j].PearsonR)
		if ri != rj {
			return ri > rj
		}
		if kept[i].ThemeA != kept[j].ThemeA {
			return kept[i].ThemeA < kept[j].ThemeA
		}
		return kept[i].ThemeB < kept[j].ThemeB
	})

	total := len(kept)
	if limit >= 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	rows := make([]CorrelationRow, 0, len(kept))
	for _, pair := range kept {
		rows = append(rows, CorrelationRow{
			ThemeA:   pair.ThemeA,
			ThemeB:   pair.ThemeB,
			PearsonR: pair.PearsonR,
			PValue:   pair.PValue,
			SampleN:  pair.SampleN,
		})
	}
	return CorrelationSection{State: SectionReady, Rows: rows, Total: total}
}

// buildNetworkSection truncates the graph to the tier's node cap and
// drops every edge that lost an endpoint to the truncation.
func buildNetworkSection(payload *models.NetworkPayload, paid bool, nodeLimit, edgeLimit int) NetworkSection {
	if !paid {
		return NetworkSection{State: SectionLocked}
	}
	if payload == nil {
		return NetworkSection{State: SectionUnavailable}
	}
	if len(payload.Nodes) == 0 {
		return NetworkSection{State: SectionEmpty}
	}

	nodes := make([]models.NetworkNode, len(payload.Nodes))
	copy(nodes, payload.Nodes)
	sort.SliceStable(nodes, func(i, j int) bool {
		ri, rj := engine.StressRank(nodes[i].StressLevel), engine.StressRank(nodes[j].StressLevel)
		if ri != rj {
			return ri > rj
		}
		return nodes[i].Label < nodes[j].Label
	})
	if nodeLimit >= 0 && len(nodes) > nodeLimit {
		nodes = nodes[:nodeLimit]
	}

	keep := make(map[string]bool, len(nodes))
	for _, node := range nodes {
		keep[node.ID] = true
	}

	edges := make([]models.NetworkEdge, 0, len(payload.Edges))
	for _, edge := range payload.Edges {
		if keep[edge.Source] && keep[edge.Target] {
			edges = append(edges, edge)
		}
	}
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].Weight != edges[j].Weight {
			return edges[i].Weight > edges[j].Weight
		}
		return edges[i].ID < edges[j].ID
	})
	if edgeLimit >= 0 && len(edges) > edgeLimit {
		edges = edges[:edgeLimit]
	}

	return NetworkSection{State: SectionReady, Nodes: nodes, Edges: edges}
}

var alertSeverityRanks = map[string]int{
	"critical": 2,
	"warning":  1,
	"info":     0,
}

// buildAlertSection ranks active alerts by severity then recency.
// Universally visible: never locked.
func buildAlertSection(payload *models.AlertsPayload, limit int) AlertSection {
	if payload == nil {
		return AlertSection{State: SectionUnavailable}
	}
	if len(payload.ActiveAlerts) == 0 && len(payload.RecentAlerts) == 0 {
		return AlertSection{State: SectionEmpty}
	}

	active := make([]models.Alert, len(payload.ActiveAlerts))
	copy(active, payload.ActiveAlerts)
	sort.SliceStable(active, func(i, j int) bool {
		ri, rj := alertSeverityRanks[active[i].Severity], alertSeverityRanks[active[j].Severity]
		if ri != rj {
			return ri > rj
		}
		// Timestamps are RFC 3339, so lexical order is chronological.
		if active[i].TriggeredAt != active[j].TriggeredAt {
			return active[i].TriggeredAt > active[j].TriggeredAt
		}
		return active[i].ID < active[j].ID
	})
	if limit >= 0 && len(active) > limit {
		active = active[:limit]
	}

	rows := make([]AlertRow, 0, len(active))
	for _, alert := range active {
		rows = append(rows, AlertRow{
			ID:          alert.ID,
			Severity:    alert.Severity,
			Status:      alert.Status,
			Message:     alert.Message,
			ThemeID:     alert.ThemeID,
			TriggeredAt: alert.TriggeredAt,
		})
	}
	return AlertSection{
		State:       SectionReady,
		Rows:        rows,
		ActiveTotal: len(payload.ActiveAlerts),
		RecentTotal: len(payload.RecentAlerts),
	}
}

// buildPatternSection ranks analogue matches by similarity.
func buildPatternSection(payload *models.PatternsPayload, paid bool, limit int) PatternSection {
	if !paid {
		return PatternSection{State: SectionLocked}
	}
	if payload == nil {
		return PatternSection{State: SectionUnavailable}
	}
	if len(payload.Matches) == 0 {
		return PatternSection{State: SectionEmpty}
	}

	matches := make([]models.PatternMatch, len(payload.Matches))
	copy(matches, payload.Matches)
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].SimilarityPct != matches[j].SimilarityPct {
			return matches[i].SimilarityPct > matches[j].SimilarityPct
		}
		return matches[i].EpisodeID < matches[j].EpisodeID
	})

	total := len(matches)
	if limit >= 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	rows := make([]PatternRow, 0, len(matches))
	for _, match := range matches {
		rows = append(rows, PatternRow{
			EpisodeID:       match.EpisodeID,
			Label:           match.Label,
			Period:          match.Period,
			SimilarityPct:   match.SimilarityPct,
			SimilarityLabel: common.FormatSimilarity(match.SimilarityPct),
			ConfidenceTier:  match.ConfidenceTier,
		})
	}
	return PatternSection{State: SectionReady, Rows: rows, Total: total}
}

// buildAppendixSection details each theme's indicators, both axes capped
// by tier. Report-only and tier-gated.
func buildAppendixSection(summary *models.SummaryPayload, paid bool, themeLimit, indicatorLimit int) AppendixSection {
	if !paid {
		return AppendixSection{State: SectionLocked}
	}
	if summary == nil {
		return AppendixSection{State: SectionUnavailable}
	}
	if len(summary.ThemeSignals) == 0 {
		return AppendixSection{State: SectionEmpty}
	}

	top := engine.TopThemeSignals(summary.ThemeSignals, themeLimit)
	themes := make([]AppendixTheme, 0, len(top))
	for _, sig := range top {
		details := sig.IndicatorDetails
		if indicatorLimit >= 0 && len(details) > indicatorLimit {
			details = details[:indicatorLimit]
		}
		indicators := make([]AppendixIndicatorRow, 0, len(details))
		for _, det := range details {
			indicators = append(indicators, AppendixIndicatorRow{
				IndicatorID:   det.IndicatorID,
				IndicatorName: det.IndicatorName,
				Source:        det.Source,
				RawValue:      det.RawValue,
				NormalizedZ:   det.NormalizedZ,
				ZScoreLabel:   common.FormatZScore(det.NormalizedZ),
			})
		}
		themes = append(themes, AppendixTheme{
			ThemeName:   sig.ThemeName,
			Category:    sig.Category,
			StressLevel: sig.StressLevel,
			MeanZScore:  sig.MeanZScore,
			Indicators:  indicators,
		})
	}
	return AppendixSection{State: SectionReady, Themes: themes}
}
