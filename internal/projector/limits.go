// Package projector materializes the tier-limited live view and the
// point-in-time export report from the aggregation engine's state.
package projector

import (
	"github.com/polycrisisio/wssi-deck/internal/models"
)

// ProjectionLimits caps how much of each section a tier may see. A zero
// cap on a gated section means the section is locked for that tier.
type ProjectionLimits struct {
	Themes             int `json:"themes"`
	AlertRows          int `json:"alert_rows"`
	CorrelationPairs   int `json:"correlation_pairs"`
	NetworkNodes       int `json:"network_nodes"`
	NetworkEdges       int `json:"network_edges"`
	PatternMatches     int `json:"pattern_matches"`
	AppendixThemes     int `json:"appendix_themes"`
	AppendixIndicators int `json:"appendix_indicators"`
}

// Per-tier caps. Every free cap is at or below every paid cap so the
// gate stays monotone: nothing visible to free is hidden from paid.
var tierLimits = map[models.Tier]ProjectionLimits{
	models.TierFree: {
		Themes:             5,
		AlertRows:          3,
		CorrelationPairs:   0,
		NetworkNodes:       0,
		NetworkEdges:       0,
		PatternMatches:     0,
		AppendixThemes:     0,
		AppendixIndicators: 0,
	},
	models.TierBasic: {
		Themes:             8,
		AlertRows:          10,
		CorrelationPairs:   10,
		NetworkNodes:       12,
		NetworkEdges:       20,
		PatternMatches:     3,
		AppendixThemes:     6,
		AppendixIndicators: 2,
	},
	models.TierPro: {
		Themes:             11,
		AlertRows:          25,
		CorrelationPairs:   25,
		NetworkNodes:       24,
		NetworkEdges:       60,
		PatternMatches:     5,
		AppendixThemes:     11,
		AppendixIndicators: 4,
	},
	models.TierEnterprise: {
		Themes:             11,
		AlertRows:          50,
		CorrelationPairs:   55,
		NetworkNodes:       34,
		NetworkEdges:       120,
		PatternMatches:     8,
		AppendixThemes:     11,
		AppendixIndicators: 6,
	},
}

// LimitsFor returns the projection caps for a tier. Unknown tiers get
// the free caps.
func LimitsFor(tier models.Tier) ProjectionLimits {
	if limits, ok := tierLimits[tier]; ok {
		return limits
	}
	return tierLimits[models.TierFree]
}
