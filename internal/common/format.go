// Package common provides shared utilities for wssi-deck.
package common

import (
	"fmt"
	"time"
)

// FormatSignedDelta formats an index delta with a +/- prefix.
func FormatSignedDelta(v float64) string {
	if v >= 0 {
		return fmt.Sprintf("+%.2f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

// FormatZScore formats a z-score to two decimal places with sign.
func FormatZScore(v float64) string {
	if v >= 0 {
		return fmt.Sprintf("+%.2fσ", v)
	}
	return fmt.Sprintf("%.2fσ", v)
}

// FormatSimilarity formats a 0..100 similarity percentage.
func FormatSimilarity(pct float64) string {
	return fmt.Sprintf("%.0f%%", pct)
}

// FormatAge renders the elapsed time since a timestamp as a short badge
// label ("2m ago", "3h ago"). Zero timestamps render as "never".
func FormatAge(t time.Time, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := now.Sub(t)
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
