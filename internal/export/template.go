package export

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/polycrisisio/wssi-deck/internal/projector"
)

// briefTemplate renders a ReportModel as a print-oriented HTML page.
// Chrome turns this into the PDF artifact; on conversion failure the
// page itself is the fallback artifact.
const briefTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { font-family: "Helvetica Neue", Arial, sans-serif; color: #1a1a2e; margin: 32px; font-size: 13px; }
  h1 { font-size: 22px; margin-bottom: 2px; }
  h2 { font-size: 15px; border-bottom: 1px solid #d0d0da; padding-bottom: 4px; margin-top: 28px; }
  .meta { color: #6a6a7a; font-size: 11px; }
  .banner { background: #fdecea; border: 1px solid #e5b4ae; color: #8a2a1d; padding: 8px 12px; margin: 14px 0; border-radius: 4px; }
  .headline { display: flex; gap: 28px; margin: 18px 0; }
  .headline .value { font-size: 34px; font-weight: 700; }
  .headline .cell { text-align: center; }
  .headline .label { color: #6a6a7a; font-size: 10px; text-transform: uppercase; letter-spacing: 0.05em; }
  table { border-collapse: collapse; width: 100%; margin-top: 8px; }
  th { text-align: left; font-size: 10px; text-transform: uppercase; letter-spacing: 0.05em; color: #6a6a7a; border-bottom: 1px solid #d0d0da; padding: 4px 8px; }
  td { padding: 4px 8px; border-bottom: 1px solid #ececf2; }
  .stress-critical { color: #b02318; font-weight: 600; }
  .stress-approaching { color: #b06a18; font-weight: 600; }
  .stress-watch { color: #8a7a18; }
  .stress-stable { color: #2a7a3a; }
  .locked { background: #f2f2f8; color: #6a6a7a; padding: 10px 12px; border-radius: 4px; font-style: italic; }
  .muted { color: #8a8a9a; font-style: italic; }
  .appendix-theme { margin-top: 14px; }
  .appendix-theme h3 { font-size: 13px; margin-bottom: 2px; }
  .footer { margin-top: 30px; font-size: 10px; color: #8a8a9a; }
</style>
</head>
<body>

<h1>{{.Title}}</h1>
<p class="meta">Generated {{.GeneratedAt.Format "2 Jan 2006 15:04 MST"}} &middot; {{.Tier}} tier</p>

{{if .Banner}}<div class="banner">{{.Banner}}</div>{{end}}

<div class="headline">
  <div class="cell">
    <div class="value stress-{{.Summary.StressLevel}}">{{printf "%.2f" .Summary.WSSIValue}}</div>
    <div class="label">WSSI</div>
  </div>
  <div class="cell">
    <div class="value">{{.Summary.DeltaLabel}}</div>
    <div class="label">Change</div>
  </div>
  <div class="cell">
    <div class="value stress-{{.Summary.StressLevel}}">{{.Summary.StressLevel}}</div>
    <div class="label">Stress level</div>
  </div>
  <div class="cell">
    <div class="value">{{.Summary.ActiveThemes}}</div>
    <div class="label">Active themes</div>
  </div>
  <div class="cell">
    <div class="value">{{.Summary.AboveWarning}}</div>
    <div class="label">Above warning</div>
  </div>
</div>

<p><strong>Trend:</strong>
{{if eq .Trend.Direction "insufficient_history"}}<span class="muted">insufficient history</span>
{{else}}{{.Trend.Direction}} ({{.Trend.Label}}){{end}}</p>

<h2>Theme Stress Ledger</h2>
{{if eq .Themes.State "ready"}}
<table>
  <tr><th>Theme</th><th>Category</th><th>Stress</th><th>Mean z</th><th>30d momentum</th><th>Contribution</th></tr>
  {{range .Themes.Rows}}
  <tr>
    <td>{{.ThemeName}}</td>
    <td>{{.Category}}</td>
    <td class="stress-{{.StressLevel}}">{{.StressLevel}}</td>
    <td>{{.ZScoreLabel}}</td>
    <td>{{printf "%+.2f" .Momentum30D}}</td>
    <td>{{printf "%.3f" .WeightedContribution}}</td>
  </tr>
  {{end}}
</table>
{{if gt .Themes.Total (len .Themes.Rows)}}<p class="muted">Showing {{len .Themes.Rows}} of {{.Themes.Total}} themes for this tier.</p>{{end}}
{{else if eq .Themes.State "empty"}}<p class="muted">No themes in the current window.</p>
{{else}}<p class="muted">Theme data unavailable.</p>
{{end}}

<h2>Alert Register</h2>
{{if eq .Alerts.State "ready"}}
{{if .Alerts.BySeverity}}<p>
  {{with index .Alerts.BySeverity "critical"}}<span class="stress-critical">{{.}} critical</span> {{end}}
  {{with index .Alerts.BySeverity "warning"}}<span class="stress-approaching">{{.}} warning</span> {{end}}
  {{with index .Alerts.BySeverity "info"}}<span>{{.}} info</span>{{end}}
  &middot; {{.Alerts.ActiveTotal}} active, {{.Alerts.RecentTotal}} recently resolved
</p>{{end}}
<table>
  <tr><th>Severity</th><th>Message</th><th>Triggered</th></tr>
  {{range .Alerts.Rows}}
  <tr>
    <td class="stress-{{if eq .Severity "critical"}}critical{{else if eq .Severity "warning"}}approaching{{else}}stable{{end}}">{{.Severity}}</td>
    <td>{{.Message}}</td>
    <td>{{.TriggeredAt}}</td>
  </tr>
  {{end}}
</table>
{{else if eq .Alerts.State "empty"}}<p class="muted">No active alerts.</p>
{{else}}<p class="muted">Alert data unavailable.</p>
{{end}}

<h2>Strong Cross-Theme Correlations</h2>
{{if eq .Correlations.State "locked"}}<p class="locked">Cross-theme correlation analysis requires a paid tier.</p>
{{else if eq .Correlations.State "ready"}}
<table>
  <tr><th>Theme pair</th><th>Pearson r</th><th>p-value</th><th>n</th></tr>
  {{range .Correlations.Rows}}
  <tr>
    <td>{{.ThemeA}} &harr; {{.ThemeB}}</td>
    <td>{{printf "%+.2f" .PearsonR}}</td>
    <td>{{printf "%.3f" .PValue}}</td>
    <td>{{.SampleN}}</td>
  </tr>
  {{end}}
</table>
{{else if eq .Correlations.State "empty"}}<p class="muted">No correlations above the strength cutoff.</p>
{{else}}<p class="muted">Correlation data unavailable.</p>
{{end}}

<h2>Contagion Network</h2>
{{if eq .Network.State "locked"}}<p class="locked">Contagion network analysis requires a paid tier.</p>
{{else if eq .Network.State "ready"}}
<p>{{len .Network.Nodes}} nodes, {{len .Network.Edges}} transmission channels.</p>
<table>
  <tr><th>Node</th><th>Stress</th></tr>
  {{range .Network.Nodes}}
  <tr><td>{{.Label}}</td><td class="stress-{{.StressLevel}}">{{.StressLevel}}</td></tr>
  {{end}}
</table>
{{else if eq .Network.State "empty"}}<p class="muted">No network nodes in the current window.</p>
{{else}}<p class="muted">Network data unavailable.</p>
{{end}}

<h2>Historical Pattern Matches</h2>
{{if eq .Patterns.State "locked"}}<p class="locked">Historical pattern matching requires a paid tier.</p>
{{else if eq .Patterns.State "ready"}}
<table>
  <tr><th>Episode</th><th>Period</th><th>Similarity</th><th>Confidence</th></tr>
  {{range .Patterns.Rows}}
  <tr>
    <td>{{.Label}}</td>
    <td>{{.Period}}</td>
    <td>{{.SimilarityLabel}}</td>
    <td>{{.ConfidenceTier}}</td>
  </tr>
  {{end}}
</table>
{{else if eq .Patterns.State "empty"}}<p class="muted">No historical analogues matched.</p>
{{else}}<p class="muted">Pattern data unavailable.</p>
{{end}}

<h2>Appendix: Indicator Detail</h2>
{{if eq .Appendix.State "locked"}}<p class="locked">The indicator appendix requires a paid tier.</p>
{{else if eq .Appendix.State "ready"}}
{{range .Appendix.Themes}}
<div class="appendix-theme">
  <h3>{{.ThemeName}} <span class="stress-{{.StressLevel}}">({{.StressLevel}}, mean z {{printf "%+.2f" .MeanZScore}})</span></h3>
  <table>
    <tr><th>Indicator</th><th>Source</th><th>Raw value</th><th>z-score</th></tr>
    {{range .Indicators}}
    <tr>
      <td>{{.IndicatorName}}</td>
      <td>{{.Source}}</td>
      <td>{{printf "%.2f" .RawValue}}</td>
      <td>{{.ZScoreLabel}}</td>
    </tr>
    {{end}}
  </table>
</div>
{{end}}
{{else if eq .Appendix.State "empty"}}<p class="muted">No indicator detail in the current window.</p>
{{else}}<p class="muted">Indicator detail unavailable.</p>
{{end}}

<h2>Data Provenance</h2>
<table>
  <tr><th>Dataset</th><th>Freshness</th><th>Source</th><th>Fetched</th></tr>
  {{range .Freshness}}
  <tr>
    <td>{{.Dataset}}</td>
    <td>{{.State}}{{if .FailedCycle}} (last refresh failed){{end}}</td>
    <td>{{.Source}}</td>
    <td>{{if .FetchedAt.IsZero}}&mdash;{{else}}{{.FetchedAt.Format "2 Jan 2006 15:04 MST"}}{{end}}</td>
  </tr>
  {{end}}
</table>

<p class="footer">World System Stress Index &middot; composite risk brief &middot; point-in-time snapshot, not investment advice.</p>

</body>
</html>
`

var brief = template.Must(template.New("brief").Parse(briefTemplate))

// renderBrief executes the brief template over a report model.
func renderBrief(report *projector.ReportModel) ([]byte, error) {
	var buf bytes.Buffer
	if err := brief.Execute(&buf, report); err != nil {
		return nil, fmt.Errorf("execute brief template: %w", err)
	}
	return buf.Bytes(), nil
}
