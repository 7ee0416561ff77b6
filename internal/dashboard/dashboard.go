// Package dashboard renders a live terminal view of a running batch.
package dashboard

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/torosent/httpbatch/internal/metrics"
)

const recentLimit = 8

// RunInfo holds batch parameters for display.
type RunInfo struct {
	RunID       string
	Source      string
	Total       int
	Concurrency int // 0 = unbounded
	Timeout     time.Duration
}

type resultMsg struct {
	index  int
	total  int
	result metrics.RequestResult
}

type finishMsg struct{}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	tierStyles = map[metrics.Tier]lipgloss.Style{
		metrics.TierSuccess:     lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		metrics.TierClientError: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		metrics.TierServerError: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		metrics.TierNoResponse:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		metrics.TierOther:       lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	}
)

// Model is the Bubble Tea model behind the dashboard.
type Model struct {
	info      RunInfo
	spinner   spinner.Model
	bar       progress.Model
	collector *metrics.Collector
	start     time.Time
	completed int
	recent    []metrics.RequestResult
	done      bool
	aborted   bool
	onAbort   func()
}

// NewModel creates a model. onAbort runs once when the user quits early.
func NewModel(info RunInfo, onAbort func()) Model {
	return Model{
		info:      info,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		collector: metrics.NewCollector(),
		start:     time.Now(),
		onAbort:   onAbort,
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.done && !m.aborted && m.onAbort != nil {
				m.onAbort()
			}
			m.aborted = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		width := msg.Width - 4
		if width > 80 {
			width = 80
		}
		if width > 10 {
			m.bar.Width = width
		}
	case resultMsg:
		m.collector.RecordResult(msg.result)
		m.completed = msg.index
		m.info.Total = msg.total
		m.recent = append(m.recent, msg.result)
		if len(m.recent) > recentLimit {
			m.recent = m.recent[len(m.recent)-recentLimit:]
		}
		if m.completed >= m.info.Total {
			m.done = true
			return m, tea.Quit
		}
	case finishMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	stats := m.collector.Stats(time.Since(m.start))

	b.WriteString(titleStyle.Render("HTTP Batch") + "  " + labelStyle.Render(m.formatRunParams()) + "\n\n")

	status := m.spinner.View() + " Running"
	if m.done {
		status = "✔ Finished"
	} else if m.aborted {
		status = "✖ Aborted"
	}
	fmt.Fprintf(&b, "%s %d/%d\n", status, m.completed, m.info.Total)
	b.WriteString(m.bar.ViewAs(m.percent()) + "\n\n")

	fmt.Fprintf(&b, "%s %d   %s %d   %s %.1f%%\n",
		labelStyle.Render("Success:"), stats.Successes,
		labelStyle.Render("Failed:"), stats.Failures,
		labelStyle.Render("Success rate:"), successRate(stats))
	if stats.P50Latency > 0 {
		fmt.Fprintf(&b, "%s min %.1fms  p50 %.1fms  p90 %.1fms  p99 %.1fms  max %.1fms\n",
			labelStyle.Render("Latency:"),
			stats.MinLatencyMs, stats.P50LatencyMs, stats.P90LatencyMs, stats.P99LatencyMs, stats.MaxLatencyMs)
	}
	if rows := formatTierRows(stats.Tiers); len(rows) > 0 {
		b.WriteString(labelStyle.Render("Outcomes:") + " " + strings.Join(rows, ", ") + "\n")
	}

	if len(m.recent) > 0 {
		b.WriteString("\n" + labelStyle.Render("Recent:") + "\n")
		for _, r := range m.recent {
			b.WriteString("  " + formatRecent(r) + "\n")
		}
	}

	b.WriteString("\n" + helpStyle.Render("press q to abort") + "\n")
	return b.String()
}

// Done reports whether every result arrived.
func (m Model) Done() bool { return m.done }

// Aborted reports whether the user quit early.
func (m Model) Aborted() bool { return m.aborted }

func (m Model) percent() float64 {
	if m.info.Total <= 0 {
		return 1
	}
	return float64(m.completed) / float64(m.info.Total)
}

func successRate(stats metrics.Stats) float64 {
	if stats.Total == 0 {
		return 0
	}
	return float64(stats.Successes) / float64(stats.Total) * 100
}

func formatTierRows(tiers map[string]int) []string {
	rows := metrics.FlattenBuckets(tiers)
	formatted := make([]string, 0, len(rows))
	for _, row := range rows {
		style := tierStyles[metrics.Tier(row.Key)]
		formatted = append(formatted, style.Render(fmt.Sprintf("%s x%d", strings.ReplaceAll(row.Key, "_", " "), row.Count)))
	}
	return formatted
}

func formatRecent(r metrics.RequestResult) string {
	tier := metrics.TierOf(r)
	outcome := "no response"
	if r.HasStatus() {
		outcome = fmt.Sprintf("%d", r.Status())
	}
	line := fmt.Sprintf("%-4s %s %s (%.2fs)", outcome, strings.ToUpper(r.Method), r.Name, r.ResponseTimeMs/1000)
	return tierStyles[tier].Render(line)
}

// formatRunParams formats the batch parameters for display.
func (m Model) formatRunParams() string {
	var parts []string
	if m.info.Source != "" {
		parts = append(parts, m.info.Source)
	}
	if m.info.Concurrency > 0 {
		parts = append(parts, fmt.Sprintf("Concurrency: %d", m.info.Concurrency))
	} else {
		parts = append(parts, "Concurrency: unbounded")
	}
	if m.info.Timeout > 0 {
		parts = append(parts, fmt.Sprintf("Timeout: %s", m.info.Timeout))
	}
	if m.info.RunID != "" {
		parts = append(parts, "Run: "+m.info.RunID)
	}
	return strings.Join(parts, " | ")
}

// Dashboard drives a Bubble Tea program from runner results.
type Dashboard struct {
	program *tea.Program
	done    chan struct{}
	final   Model
	err     error
}

// New creates a dashboard drawing to out. onAbort is called if the user quits early.
func New(info RunInfo, out io.Writer, onAbort func(), opts ...tea.ProgramOption) *Dashboard {
	opts = append([]tea.ProgramOption{tea.WithOutput(out)}, opts...)
	return &Dashboard{
		program: tea.NewProgram(NewModel(info, onAbort), opts...),
		done:    make(chan struct{}),
	}
}

// Start runs the program in the background.
func (d *Dashboard) Start() {
	go func() {
		defer close(d.done)
		final, err := d.program.Run()
		d.err = err
		if m, ok := final.(Model); ok {
			d.final = m
		}
	}()
}

// Observe forwards one result. It has the runner's observer signature.
func (d *Dashboard) Observe(index, total int, r metrics.RequestResult) {
	d.program.Send(resultMsg{index: index, total: total, result: r})
}

// Stop ends the program and waits for the terminal to be restored.
func (d *Dashboard) Stop() error {
	d.program.Send(finishMsg{})
	<-d.done
	if d.err != nil {
		return fmt.Errorf("dashboard: %w", d.err)
	}
	return nil
}

// Aborted reports whether the user quit before the batch finished. Valid after Stop.
func (d *Dashboard) Aborted() bool {
	return d.final.Aborted()
}
