package output

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/torosent/httpbatch/internal/metrics"
)

type htmlRow struct {
	Index  int
	Result metrics.RequestResult
	Tier   metrics.Tier
	Body   string
	Cut    int
}

type htmlReportData struct {
	Report
	Generated      string
	Rows           []htmlRow
	Tiers          []metrics.Bucket
	Errors         []metrics.Bucket
	ThresholdsPass int
}

// GenerateHTMLReport writes a standalone HTML page with the summary, latency
// statistics, threshold outcomes and every result in arrival order.
func GenerateHTMLReport(w io.Writer, r Report) error {
	generated := r.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	data := htmlReportData{
		Report:    r,
		Generated: generated.Format(time.RFC3339),
		Tiers:     metrics.FlattenBuckets(r.Stats.Tiers),
		Errors:    metrics.FlattenBuckets(r.Stats.Errors),
	}
	for i, res := range r.Summary.Results {
		row := htmlRow{Index: i + 1, Result: res, Tier: metrics.TierOf(res)}
		if len(res.ResponseBody) > 0 {
			row.Body, row.Cut = PreviewBody(res.ResponseBody)
		}
		data.Rows = append(data.Rows, row)
	}
	for _, t := range r.Thresholds {
		if t.Pass {
			data.ThresholdsPass++
		}
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatDuration": func(d time.Duration) string {
			return d.Round(time.Microsecond).String()
		},
		"formatFloat": func(f float64) string {
			return fmt.Sprintf("%.2f", f)
		},
		"formatSeconds": metrics.FormatSeconds,
		"msToSeconds": func(ms float64) string {
			return fmt.Sprintf("%.2f", ms/1000)
		},
		"deref": derefString,
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>HTTP Batch Report</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background: #f5f7fa; color: #2c3e50; line-height: 1.5; padding: 20px; }
        .container { max-width: 1200px; margin: 0 auto; background: white; border-radius: 8px; box-shadow: 0 2px 8px rgba(0,0,0,0.1); overflow: hidden; }
        header { background: #1f3a5f; color: white; padding: 24px 32px; }
        header h1 { font-size: 1.6rem; margin-bottom: 6px; }
        header .meta { opacity: 0.85; font-size: 0.85rem; }
        .content { padding: 32px; }
        .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(180px, 1fr)); gap: 16px; margin-bottom: 32px; }
        .card { background: #f8f9fa; border-radius: 6px; padding: 16px; border-left: 4px solid #1f3a5f; }
        .card h3 { font-size: 0.8rem; color: #6c757d; text-transform: uppercase; margin-bottom: 6px; }
        .card .value { font-size: 1.6rem; font-weight: bold; }
        .card.success { border-left-color: #10b981; }
        .card.error { border-left-color: #ef4444; }
        .section { margin-bottom: 32px; }
        .section h2 { font-size: 1.25rem; margin-bottom: 12px; padding-bottom: 6px; border-bottom: 2px solid #e5e7eb; }
        table { width: 100%; border-collapse: collapse; }
        th, td { text-align: left; padding: 8px 10px; border-bottom: 1px solid #e5e7eb; vertical-align: top; font-size: 0.9rem; }
        th { background: #f8f9fa; color: #4b5563; text-transform: uppercase; font-size: 0.75rem; }
        .badge { display: inline-block; padding: 2px 10px; border-radius: 10px; font-size: 0.8rem; font-weight: 600; }
        .success { color: #065f46; } .badge.success { background: #d1fae5; }
        .client_error { color: #92400e; } .badge.client_error { background: #fef3c7; }
        .server_error, .no_response { color: #991b1b; } .badge.server_error, .badge.no_response { background: #fee2e2; }
        .other { color: #1e40af; } .badge.other { background: #dbeafe; }
        pre { white-space: pre-wrap; word-break: break-all; font-size: 0.8rem; max-height: 240px; overflow: auto; background: #f8f9fa; padding: 6px; }
        .muted { color: #6c757d; font-style: italic; }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>HTTP Batch Report</h1>
            {{if .Source}}<div class="meta">Source: {{.Source}}</div>{{end}}
            <div class="meta">Run: {{.RunID}} | Generated: {{.Generated}} | Timeout: {{formatSeconds .Timeout}}s | Duration: {{formatDuration .Stats.Duration}}</div>
        </header>

        <div class="content">
            <div class="grid">
                <div class="card"><h3>Total</h3><div class="value">{{.Summary.Total}}</div></div>
                <div class="card success"><h3>Success</h3><div class="value">{{.Summary.Success}}</div></div>
                <div class="card error"><h3>Failed</h3><div class="value">{{.Summary.Failed}}</div></div>
                <div class="card"><h3>Success rate</h3><div class="value">{{printf "%.1f" .Summary.SuccessRate}}%</div></div>
            </div>

            <div class="section">
                <h2>Latency</h2>
                <table>
                    <thead><tr><th>Min</th><th>Mean</th><th>P50</th><th>P90</th><th>P95</th><th>P99</th><th>Max</th></tr></thead>
                    <tbody><tr>
                        <td>{{formatDuration .Stats.MinLatency}}</td>
                        <td>{{formatDuration .Stats.MeanLatency}}</td>
                        <td>{{formatDuration .Stats.P50Latency}}</td>
                        <td>{{formatDuration .Stats.P90Latency}}</td>
                        <td>{{formatDuration .Stats.P95Latency}}</td>
                        <td>{{formatDuration .Stats.P99Latency}}</td>
                        <td>{{formatDuration .Stats.MaxLatency}}</td>
                    </tr></tbody>
                </table>
            </div>

            {{if .Tiers}}
            <div class="section">
                <h2>Outcomes</h2>
                <table>
                    <thead><tr><th>Status class</th><th>Count</th></tr></thead>
                    <tbody>{{range .Tiers}}<tr><td><span class="badge {{.Key}}">{{.Key}}</span></td><td>{{.Count}}</td></tr>{{end}}</tbody>
                </table>
            </div>
            {{end}}

            {{if .Errors}}
            <div class="section">
                <h2>Errors</h2>
                <table>
                    <thead><tr><th>Category</th><th>Count</th></tr></thead>
                    <tbody>{{range .Errors}}<tr><td>{{.Key}}</td><td>{{.Count}}</td></tr>{{end}}</tbody>
                </table>
            </div>
            {{end}}

            {{if .Thresholds}}
            <div class="section">
                <h2>Thresholds ({{.ThresholdsPass}}/{{len .Thresholds}} Passed)</h2>
                <table>
                    <thead><tr><th>Threshold</th><th>Actual</th><th>Status</th></tr></thead>
                    <tbody>
                        {{range .Thresholds}}
                        <tr>
                            <td>{{.Threshold.Raw}}</td>
                            <td>{{formatFloat .Actual}}</td>
                            <td>{{if .Pass}}<span class="badge success">✓ PASS</span>{{else}}<span class="badge server_error">✗ FAIL</span>{{end}}</td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}

            <div class="section">
                <h2>Requests</h2>
                {{if .Rows}}
                <table>
                    <thead><tr><th>#</th><th>Name</th><th>Request</th><th>Status</th><th>Time (s)</th><th>Response</th></tr></thead>
                    <tbody>
                        {{range .Rows}}
                        <tr>
                            <td>{{.Index}}</td>
                            <td><strong>{{.Result.Name}}</strong></td>
                            <td>{{.Result.Method}} {{.Result.URL}}</td>
                            <td>{{if .Result.HasStatus}}<span class="badge {{.Tier}}">{{.Result.Status}} {{deref .Result.StatusText}}</span>{{else}}<span class="badge no_response">no response</span>{{end}}</td>
                            <td>{{msToSeconds .Result.ResponseTimeMs}}</td>
                            <td>
                                {{if .Result.Error}}<div class="server_error">{{deref .Result.Error}}</div>{{end}}
                                {{if .Body}}<pre>{{.Body}}</pre>{{if .Cut}}<div class="muted">... ({{.Cut}} bytes truncated)</div>{{end}}{{else}}<span class="muted">(empty)</span>{{end}}
                            </td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
                {{else}}
                <p class="muted">No requests were run.</p>
                {{end}}
            </div>
        </div>
    </div>
</body>
</html>
`
