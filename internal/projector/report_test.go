package projector

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/polycrisisio/wssi-deck/internal/models"
)

func TestBuildReportModel_NoSummaryIsError(t *testing.T) {
	p := NewProjector()

	_, err := p.BuildReportModel(testStatus(models.TierPro, nil, nil))
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestBuildReportModel_PaidTier(t *testing.T) {
	p := NewProjector()

	report, err := p.BuildReportModel(fullStatus(models.TierEnterprise))
	if err != nil {
		t.Fatalf("BuildReportModel failed: %v", err)
	}

	if report.Title != ReportTitle {
		t.Errorf("expected title %q, got %q", ReportTitle, report.Title)
	}
	if report.Tier != models.TierEnterprise || !report.Paid {
		t.Error("expected enterprise tier context")
	}
	if report.Themes.State != SectionReady || len(report.Themes.Rows) != 8 {
		t.Errorf("expected all 8 themes for enterprise, got %d in state %s",
			len(report.Themes.Rows), report.Themes.State)
	}
	if report.Trend.Direction != TrendRising {
		t.Errorf("expected rising trend, got %s", report.Trend.Direction)
	}
	if report.Appendix.State != SectionReady {
		t.Errorf("expected ready appendix, got %s", report.Appendix.State)
	}
}

func TestBuildReportModel_FreeTierLockedSections(t *testing.T) {
	p := NewProjector()

	report, err := p.BuildReportModel(fullStatus(models.TierFree))
	if err != nil {
		t.Fatalf("BuildReportModel failed: %v", err)
	}

	if len(report.Themes.Rows) != 5 {
		t.Errorf("expected 5 themes for free, got %d", len(report.Themes.Rows))
	}
	for name, state := range map[string]SectionState{
		"correlations": report.Correlations.State,
		"network":      report.Network.State,
		"patterns":     report.Patterns.State,
		"appendix":     report.Appendix.State,
	} {
		if state != SectionLocked {
			t.Errorf("%s: expected locked for free, got %s", name, state)
		}
	}
	if report.Trend.Direction != TrendInsufficientHistory {
		t.Errorf("free trend: expected insufficient history, got %s", report.Trend.Direction)
	}
}

func TestBuildReportModel_StrongCorrelationsOnly(t *testing.T) {
	p := NewProjector()

	st := testStatus(models.TierPro, map[models.DatasetKind]*models.DatasetSnapshot{
		models.DatasetSummary: snapSummary(themeSignal("argentina", "watch", 0.4)),
		models.DatasetCorrelations: snapCorrelations(
			models.CorrelationPair{ThemeA: "a", ThemeB: "b", PearsonR: 0.95},
			models.CorrelationPair{ThemeA: "c", ThemeB: "d", PearsonR: -0.71},
			models.CorrelationPair{ThemeA: "e", ThemeB: "f", PearsonR: 0.69},
			models.CorrelationPair{ThemeA: "g", ThemeB: "h", PearsonR: 0.10},
		),
	}, nil)

	report, err := p.BuildReportModel(st)
	if err != nil {
		t.Fatalf("BuildReportModel failed: %v", err)
	}
	if len(report.Correlations.Rows) != 2 {
		t.Fatalf("expected 2 strong pairs, got %d", len(report.Correlations.Rows))
	}
	for _, row := range report.Correlations.Rows {
		if row.PearsonR < StrongCorrelationR && row.PearsonR > -StrongCorrelationR {
			t.Errorf("weak pair %s-%s (r=%.2f) leaked into the report", row.ThemeA, row.ThemeB, row.PearsonR)
		}
	}
}

func TestBuildReportModel_AlertSummaryCounts(t *testing.T) {
	p := NewProjector()

	report, err := p.BuildReportModel(fullStatus(models.TierPro))
	if err != nil {
		t.Fatalf("BuildReportModel failed: %v", err)
	}

	if report.Alerts.BySeverity["critical"] != 1 || report.Alerts.BySeverity["warning"] != 1 {
		t.Errorf("expected 1 critical + 1 warning, got %v", report.Alerts.BySeverity)
	}
	if report.Alerts.ActiveTotal != 2 || report.Alerts.RecentTotal != 1 {
		t.Errorf("expected totals 2/1, got %d/%d", report.Alerts.ActiveTotal, report.Alerts.RecentTotal)
	}
}

func TestBuildReportModel_AppendixIndicatorCap(t *testing.T) {
	p := NewProjector()

	sig := themeSignal("argentina", "critical", 2.1)
	sig.IndicatorDetails = []models.IndicatorDetail{
		{IndicatorID: "i1", IndicatorName: "fx reserves", NormalizedZ: 2.4},
		{IndicatorID: "i2", IndicatorName: "cds spread", NormalizedZ: 1.9},
		{IndicatorID: "i3", IndicatorName: "bond yield", NormalizedZ: 1.1},
	}
	st := testStatus(models.TierBasic, map[models.DatasetKind]*models.DatasetSnapshot{
		models.DatasetSummary: snapSummary(sig),
	}, nil)

	report, err := p.BuildReportModel(st)
	if err != nil {
		t.Fatalf("BuildReportModel failed: %v", err)
	}
	if report.Appendix.State != SectionReady {
		t.Fatalf("expected ready appendix, got %s", report.Appendix.State)
	}
	// Basic caps indicators per theme at 2.
	if got := len(report.Appendix.Themes[0].Indicators); got != 2 {
		t.Errorf("expected 2 indicators for basic, got %d", got)
	}
}

func TestReportModel_SerializesForAudit(t *testing.T) {
	p := NewProjector()

	report, err := p.BuildReportModel(fullStatus(models.TierPro))
	if err != nil {
		t.Fatalf("BuildReportModel failed: %v", err)
	}

	raw, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("report must serialize cleanly: %v", err)
	}
	if len(raw) == 0 {
		t.Fatal("expected non-empty serialized report")
	}
}

func TestLimitsFor_MonotoneAcrossTiers(t *testing.T) {
	free := LimitsFor(models.TierFree)
	basic := LimitsFor(models.TierBasic)
	pro := LimitsFor(models.TierPro)
	ent := LimitsFor(models.TierEnterprise)

	check := func(name string, a, b, c, d int) {
		if a > b || b > c || c > d {
			t.Errorf("%s caps not monotone: %d/%d/%d/%d", name, a, b, c, d)
		}
	}
	check("themes", free.Themes, basic.Themes, pro.Themes, ent.Themes)
	check("alert_rows", free.AlertRows, basic.AlertRows, pro.AlertRows, ent.AlertRows)
	check("correlation_pairs", free.CorrelationPairs, basic.CorrelationPairs, pro.CorrelationPairs, ent.CorrelationPairs)
	check("network_nodes", free.NetworkNodes, basic.NetworkNodes, pro.NetworkNodes, ent.NetworkNodes)
	check("network_edges", free.NetworkEdges, basic.NetworkEdges, pro.NetworkEdges, ent.NetworkEdges)
	check("pattern_matches", free.PatternMatches, basic.PatternMatches, pro.PatternMatches, ent.PatternMatches)
	check("appendix_themes", free.AppendixThemes, basic.AppendixThemes, pro.AppendixThemes, ent.AppendixThemes)
	check("appendix_indicators", free.AppendixIndicators, basic.AppendixIndicators, pro.AppendixIndicators, ent.AppendixIndicators)
}

func TestLimitsFor_UnknownTierGetsFreeCaps(t *testing.T) {
	got := LimitsFor(models.Tier("platinum"))
	if got != LimitsFor(models.TierFree) {
		t.Errorf("unknown tier must fall back to free caps, got %+v", got)
	}
}
