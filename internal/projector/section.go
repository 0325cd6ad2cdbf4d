package projector

import (
	"github.com/polycrisisio/wssi-deck/internal/models"
)

// SectionState is the explicit three-way-plus-ready marker every section
// carries. Consumers must render each state differently: locked is an
// upgrade prompt, unavailable is missing data, empty is a clean zero.
type SectionState string

const (
	SectionLocked      SectionState = "locked"
	SectionUnavailable SectionState = "unavailable"
	SectionEmpty       SectionState = "empty"
	SectionReady       SectionState = "ready"
)

// ThemeRow is one ranked theme ledger row.
type ThemeRow struct {
	ThemeID              string  `json:"theme_id"`
	ThemeName            string  `json:"theme_name"`
	Category             string  `json:"category,omitempty"`
	StressLevel          string  `json:"stress_level"`
	StressRank           int     `json:"stress_rank"`
	MeanZScore           float64 `json:"mean_z_score"`
	ZScoreLabel          string  `json:"z_score_label"`
	Momentum30D          float64 `json:"momentum_30d"`
	WeightedContribution float64 `json:"weighted_contribution"`
}

// ThemeSection is the ranked, tier-truncated theme ledger.
type ThemeSection struct {
	State SectionState `json:"state"`
	Rows  []ThemeRow   `json:"rows,omitempty"`
	Total int          `json:"total,omitempty"`
}

// TrendDirection labels the movement between the last two timeline points.
type TrendDirection string

const (
	TrendRising              TrendDirection = "rising"
	TrendFalling             TrendDirection = "falling"
	TrendFlat                TrendDirection = "flat"
	TrendInsufficientHistory TrendDirection = "insufficient_history"
)

// TrendInfo is the short-horizon movement readout. Delta and Label are
// only meaningful when Direction is rising, falling, or flat.
type TrendInfo struct {
	Direction TrendDirection `json:"direction"`
	Delta     float64        `json:"delta,omitempty"`
	Label     string         `json:"label"`
}

// TimelineSection is the WSSI history series plus its derived trend.
type TimelineSection struct {
	State  SectionState           `json:"state"`
	Points []models.TimelinePoint `json:"points,omitempty"`
	Trend  TrendInfo              `json:"trend"`
}

// CorrelationRow is one theme-pair correlation estimate for display.
type CorrelationRow struct {
	ThemeA   string  `json:"theme_a"`
	ThemeB   string  `json:"theme_b"`
	PearsonR float64 `json:"pearson_r"`
	PValue   float64 `json:"p_value"`
	SampleN  int     `json:"sample_n"`
}

// CorrelationSection is the tier-gated cross-correlation table.
type CorrelationSection struct {
	State SectionState     `json:"state"`
	Rows  []CorrelationRow `json:"rows,omitempty"`
	Total int              `json:"total,omitempty"`
}

// NetworkSection is the tier-gated contagion graph, truncated to the
// tier's node and edge caps. Edges whose endpoints were truncated away
// are dropped with them.
type NetworkSection struct {
	State SectionState         `json:"state"`
	Nodes []models.NetworkNode `json:"nodes,omitempty"`
	Edges []models.NetworkEdge `json:"edges,omitempty"`
}

// AlertRow is one alert register row.
type AlertRow struct {
	ID          string `json:"id"`
	Severity    string `json:"severity"`
	Status      string `json:"status"`
	Message     string `json:"message"`
	ThemeID     string `json:"theme_id,omitempty"`
	TriggeredAt string `json:"triggered_at"`
}

// AlertSection is the alert register: active rows truncated to the tier
// cap, with full counts alongside.
type AlertSection struct {
	State       SectionState `json:"state"`
	Rows        []AlertRow   `json:"rows,omitempty"`
	ActiveTotal int          `json:"active_total"`
	RecentTotal int          `json:"recent_total"`
}

// PatternRow is one historical-analogue match row.
type PatternRow struct {
	EpisodeID       string  `json:"episode_id"`
	Label           string  `json:"label"`
	Period          string  `json:"period"`
	SimilarityPct   float64 `json:"similarity_pct"`
	SimilarityLabel string  `json:"similarity_label"`
	ConfidenceTier  string  `json:"confidence_tier"`
}

// PatternSection is the tier-gated historical-analogue table.
type PatternSection struct {
	State SectionState `json:"state"`
	Rows  []PatternRow `json:"rows,omitempty"`
	Total int          `json:"total,omitempty"`
}

// AppendixIndicatorRow is one raw indicator line in the report appendix.
type AppendixIndicatorRow struct {
	IndicatorID   string  `json:"indicator_id"`
	IndicatorName string  `json:"indicator_name"`
	Source        string  `json:"source,omitempty"`
	RawValue      float64 `json:"raw_value"`
	NormalizedZ   float64 `json:"normalized_z"`
	ZScoreLabel   string  `json:"z_score_label"`
}

// AppendixTheme is one theme's indicator detail block in the report
// appendix, indicators truncated to the tier cap.
type AppendixTheme struct {
	ThemeName   string                 `json:"theme_name"`
	Category    string                 `json:"category,omitempty"`
	StressLevel string                 `json:"stress_level"`
	MeanZScore  float64                `json:"mean_z_score"`
	Indicators  []AppendixIndicatorRow `json:"indicators,omitempty"`
}

// AppendixSection is the report-only indicator appendix.
type AppendixSection struct {
	State  SectionState    `json:"state"`
	Themes []AppendixTheme `json:"themes,omitempty"`
}
