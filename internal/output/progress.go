package output

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/torosent/httpbatch/internal/metrics"
)

// ProgressReporter rewrites a single status line as results arrive.
type ProgressReporter struct {
	collector *metrics.Collector
	ticker    *time.Ticker
	done      chan struct{}
	finished  chan struct{}
	writer    io.Writer
	active    int32
	start     time.Time

	mu        sync.Mutex
	completed int
	total     int
}

// NewProgressReporter creates a progress reporter that updates at the given interval.
func NewProgressReporter(total int, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{
		collector: metrics.NewCollector(),
		ticker:    time.NewTicker(interval),
		done:      make(chan struct{}),
		finished:  make(chan struct{}),
		writer:    writer,
		start:     time.Now(),
		total:     total,
	}
}

// Observe records one result. It has the runner's observer signature.
func (p *ProgressReporter) Observe(index, total int, r metrics.RequestResult) {
	p.collector.RecordResult(r)
	p.mu.Lock()
	p.completed = index
	p.total = total
	p.mu.Unlock()
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return
	}
	go p.run()
}

// Stop halts progress updates and writes a final line.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
		fmt.Fprintln(p.writer, p.Line())
	}
}

// Line renders the current status line.
func (p *ProgressReporter) Line() string {
	stats := p.collector.Stats(time.Since(p.start))
	p.mu.Lock()
	completed, total := p.completed, p.total
	p.mu.Unlock()

	line := fmt.Sprintf("\rCompleted: %d/%d | Success: %d | Failed: %d", completed, total, stats.Successes, stats.Failures)
	if stats.P50Latency > 0 {
		line += fmt.Sprintf(" | P50 %.1fms | Max %.1fms", stats.P50LatencyMs, stats.MaxLatencyMs)
	}
	return line
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			fmt.Fprint(p.writer, p.Line())
		case <-p.done:
			return
		}
	}
}
