package models

import "strings"

// Tier is the viewer's subscription tier. Unknown values normalize to free.
type Tier string

const (
	TierFree       Tier = "free"
	TierBasic      Tier = "basic"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

// ParseTier maps a raw tier string to a known tier. Anything unrecognized,
// including empty, maps to free so a bad value can never unlock paid data.
func ParseTier(raw string) Tier {
	switch Tier(strings.ToLower(strings.TrimSpace(raw))) {
	case TierBasic:
		return TierBasic
	case TierPro:
		return TierPro
	case TierEnterprise:
		return TierEnterprise
	default:
		return TierFree
	}
}

// Paid reports whether the tier grants access to the paid datasets.
func (t Tier) Paid() bool {
	return t == TierBasic || t == TierPro || t == TierEnterprise
}

// TierState is the viewer's subscription context as read from the
// session store. The aggregation engine treats it as read-only.
type TierState struct {
	Tier   Tier   `json:"tier"`
	APIKey string `json:"api_key,omitempty"`
}

// FreshnessState classifies the age of a dataset snapshot.
type FreshnessState string

const (
	FreshnessUnknown FreshnessState = "unknown"
	FreshnessFresh   FreshnessState = "fresh"
	FreshnessRecent  FreshnessState = "recent"
	FreshnessWarning FreshnessState = "warning"
	FreshnessStale   FreshnessState = "stale"
)
