package engine

import (
	"math"
	"sort"
	"strings"

	"github.com/polycrisisio/wssi-deck/internal/models"
)

// stressRanks orders the four stress levels for ranking. Unknown levels
// rank with stable so malformed upstream data sinks rather than floats.
var stressRanks = map[string]int{
	"critical":    3,
	"approaching": 2,
	"watch":       1,
	"stable":      0,
}

// StressRank returns the sort weight for a stress level. Case and
// surrounding whitespace are ignored.
func StressRank(level string) int {
	return stressRanks[strings.ToLower(strings.TrimSpace(level))]
}

// themeLess is the shared theme row ordering: stress rank descending,
// then |mean z| descending, then theme name ascending. The live view and
// the export report both rank with this comparator so a tier's top-N is
// the same rows everywhere.
func themeLess(a, b models.ThemeSignal) bool {
	ra, rb := StressRank(a.StressLevel), StressRank(b.StressLevel)
	if ra != rb {
		return ra > rb
	}
	za, zb := math.Abs(a.MeanZScore), math.Abs(b.MeanZScore)
	if za != zb {
		return za > zb
	}
	return a.ThemeName < b.ThemeName
}

// RankThemeSignals returns a ranked copy of the theme signals. The input
// slice (usually a cached payload) is never reordered in place.
func RankThemeSignals(rows []models.ThemeSignal) []models.ThemeSignal {
	out := make([]models.ThemeSignal, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return themeLess(out[i], out[j])
	})
	return out
}

// TopThemeSignals returns the first limit rows of the ranked copy.
// A limit at or below zero returns an empty slice.
func TopThemeSignals(rows []models.ThemeSignal, limit int) []models.ThemeSignal {
	ranked := RankThemeSignals(rows)
	if limit <= 0 {
		return []models.ThemeSignal{}
	}
	if limit < len(ranked) {
		return ranked[:limit]
	}
	return ranked
}
