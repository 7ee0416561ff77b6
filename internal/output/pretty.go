package output

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/tidwall/pretty"

	"github.com/torosent/httpbatch/internal/metrics"
	"github.com/torosent/httpbatch/internal/threshold"
)

const (
	bodyPreviewLimit = 500
	ruleWidth        = 60
	summaryTitle     = "Test Summary"
)

var bodyIndent = &pretty.Options{Width: 80, Indent: "  "}

// Printer renders results for a terminal. Colors are used only when the
// writer is a color-capable terminal.
type Printer struct {
	w io.Writer

	banner  lipgloss.Style
	index   lipgloss.Style
	name    lipgloss.Style
	method  lipgloss.Style
	muted   lipgloss.Style
	heading lipgloss.Style
	errText lipgloss.Style
	note    lipgloss.Style
	tiers   map[metrics.Tier]lipgloss.Style
}

func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:       w,
		banner:  r.NewStyle().Foreground(lipgloss.Color("12")),
		index:   r.NewStyle().Foreground(lipgloss.Color("14")),
		name:    r.NewStyle().Foreground(lipgloss.Color("15")).Bold(true),
		method:  r.NewStyle().Foreground(lipgloss.Color("11")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		heading: r.NewStyle().Foreground(lipgloss.Color("15")).Bold(true),
		errText: r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		note:    r.NewStyle().Foreground(lipgloss.Color("8")).Italic(true),
		tiers: map[metrics.Tier]lipgloss.Style{
			metrics.TierSuccess:     r.NewStyle().Foreground(lipgloss.Color("10")),
			metrics.TierClientError: r.NewStyle().Foreground(lipgloss.Color("11")),
			metrics.TierServerError: r.NewStyle().Foreground(lipgloss.Color("9")),
			metrics.TierOther:       r.NewStyle().Foreground(lipgloss.Color("12")),
		},
	}
}

// Banner announces the start of a run.
func (p *Printer) Banner(timeout time.Duration) {
	rule := strings.Repeat("=", ruleWidth)
	fmt.Fprintln(p.w, p.banner.Render(rule))
	fmt.Fprintln(p.w, p.banner.Bold(true).Render(fmt.Sprintf("HTTP Request Test Started (Timeout: %ss)", metrics.FormatSeconds(timeout))))
	fmt.Fprintln(p.w, p.banner.Render(rule))
}

var tierMarks = map[metrics.Tier]string{
	metrics.TierSuccess:     "✅",
	metrics.TierClientError: "⚠️ ",
	metrics.TierServerError: "❌",
	metrics.TierOther:       "ℹ️ ",
}

// Result prints one completed request. index is its 1-based arrival position.
func (p *Printer) Result(index, total int, r metrics.RequestResult) {
	fmt.Fprintf(p.w, "\n%s %s\n", p.index.Render(fmt.Sprintf("[%d/%d]", index, total)), p.name.Render(r.Name))
	fmt.Fprintf(p.w, "%s %s %s\n", p.muted.Render("Method:"), p.method.Render(strings.ToUpper(r.Method)), p.muted.Render(r.URL))

	if r.HasStatus() {
		tier := metrics.TierOf(r)
		line := fmt.Sprintf("%s Status: %d %s", tierMarks[tier], r.Status(), derefString(r.StatusText))
		fmt.Fprintln(p.w, p.tiers[tier].Render(line))
	}

	fmt.Fprintf(p.w, "%s %.2fs\n", p.muted.Render("Response time:"), r.ResponseTimeMs/1000)

	if r.Error != nil {
		fmt.Fprintf(p.w, "%s %s\n", p.errText.Render("❌ Error:"), p.muted.Render(*r.Error))
	}

	fmt.Fprintf(p.w, "\n%s\n", p.heading.Render("Response body:"))
	if len(r.ResponseBody) == 0 {
		fmt.Fprintln(p.w, p.muted.Render("(empty)"))
	} else {
		preview, cut := PreviewBody(r.ResponseBody)
		fmt.Fprintln(p.w, preview)
		if cut > 0 {
			fmt.Fprintln(p.w, p.note.Render(fmt.Sprintf("... (%d bytes truncated)", cut)))
		}
	}
	fmt.Fprintln(p.w, p.muted.Render(strings.Repeat("-", ruleWidth)))
}

// PreviewBody pretty-prints a JSON body and cuts it to the first 500 bytes,
// backing off to a rune boundary. It returns the preview and the number of bytes cut.
func PreviewBody(body []byte) (string, int) {
	text := strings.TrimRight(string(pretty.PrettyOptions(body, bodyIndent)), "\n")
	if len(text) <= bodyPreviewLimit {
		return text, 0
	}
	end := bodyPreviewLimit
	for end > 0 && !utf8.RuneStart(text[end]) {
		end--
	}
	return text[:end], len(text) - end
}

// Summary prints the boxed totals, latency line and failed request names.
func (p *Printer) Summary(s metrics.TestSummary, stats metrics.Stats) {
	lines := []string{
		fmt.Sprintf("Total: %d", s.Total),
		fmt.Sprintf("Success: %d", s.Success),
		fmt.Sprintf("Failed: %d", s.Failed),
		fmt.Sprintf("Success rate: %.1f%%", s.SuccessRate),
	}
	if stats.P50Latency > 0 || stats.MaxLatency > 0 {
		lines = append(lines, fmt.Sprintf("Latency: avg %.1fms, p50 %.1fms, p99 %.1fms, max %.1fms",
			stats.MeanLatencyMs, stats.P50LatencyMs, stats.P99LatencyMs, stats.MaxLatencyMs))
	}
	if failed := s.FailedNames(); len(failed) > 0 {
		lines = append(lines, "", "Failed Requests:")
		for _, name := range failed {
			lines = append(lines, "  - "+name)
		}
	}
	fmt.Fprint(p.w, "\n"+SummaryBox(summaryTitle, lines))
}

// SummaryBox draws lines inside a single-line box with a centered title row.
func SummaryBox(title string, lines []string) string {
	width := lipgloss.Width(title)
	for _, l := range lines {
		if w := lipgloss.Width(l); w > width {
			width = w
		}
	}
	width += 4

	var b strings.Builder
	bar := strings.Repeat("─", width)
	left := (width - lipgloss.Width(title)) / 2
	right := width - lipgloss.Width(title) - left

	b.WriteString("┌" + bar + "┐\n")
	b.WriteString("│" + strings.Repeat(" ", left) + title + strings.Repeat(" ", right) + "│\n")
	b.WriteString("├" + bar + "┤\n")
	for _, l := range lines {
		content := "  " + l
		b.WriteString("│" + content + strings.Repeat(" ", width-lipgloss.Width(content)) + "│\n")
	}
	b.WriteString("└" + bar + "┘\n")
	return b.String()
}

// Thresholds prints each threshold outcome.
func (p *Printer) Thresholds(results []threshold.Result) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintf(p.w, "\n%s\n", p.heading.Render("Thresholds:"))
	for _, r := range results {
		style := p.tiers[metrics.TierSuccess]
		if !r.Pass {
			style = p.tiers[metrics.TierServerError]
		}
		fmt.Fprintln(p.w, "  "+style.Render(r.Message))
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
