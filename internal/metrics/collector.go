package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Collector aggregates latency and outcome statistics from results in a thread-safe manner.
type Collector struct {
	mu         sync.Mutex
	hist       *hdrhistogram.Histogram
	successes  int64
	failures   int64
	minLatency time.Duration
	maxLatency time.Duration
	sumLatency time.Duration
	timed      int64
	errors     map[string]int
	tiers      map[string]int
}

// Stats represents aggregated metrics.
type Stats struct {
	Total          int64         `json:"total"`
	Successes      int64         `json:"successes"`
	Failures       int64         `json:"failures"`
	MinLatency     time.Duration `json:"-"`
	MaxLatency     time.Duration `json:"-"`
	MeanLatency    time.Duration `json:"-"`
	P50Latency     time.Duration `json:"-"`
	P90Latency     time.Duration `json:"-"`
	P95Latency     time.Duration `json:"-"`
	P99Latency     time.Duration `json:"-"`
	Duration       time.Duration `json:"-"`
	RequestsPerSec float64       `json:"requests_per_sec"`

	MinLatencyMs  float64        `json:"min_latency_ms"`
	MaxLatencyMs  float64        `json:"max_latency_ms"`
	MeanLatencyMs float64        `json:"mean_latency_ms"`
	P50LatencyMs  float64        `json:"p50_latency_ms"`
	P90LatencyMs  float64        `json:"p90_latency_ms"`
	P95LatencyMs  float64        `json:"p95_latency_ms"`
	P99LatencyMs  float64        `json:"p99_latency_ms"`
	DurationMs    float64        `json:"duration_ms"`
	Errors        map[string]int `json:"errors,omitempty"`
	Tiers         map[string]int `json:"tiers,omitempty"`
}

// FailureRate returns failures/total as a fraction, 0 when nothing was recorded.
func (s Stats) FailureRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Failures) / float64(s.Total)
}

func NewCollector() *Collector {
	// Track latencies from 1µs up to 10m with 3 significant figures.
	h := hdrhistogram.New(1, 600_000_000, 3)
	return &Collector{
		hist:   h,
		errors: make(map[string]int),
		tiers:  make(map[string]int),
	}
}

// RecordResult records one result. Results that never reached the network
// (zero elapsed time) count toward outcomes but not latency.
func (c *Collector) RecordResult(r RequestResult) {
	latency := time.Duration(r.ResponseTimeMs * float64(time.Millisecond))

	c.mu.Lock()
	defer c.mu.Unlock()

	if r.Success {
		c.successes++
	} else {
		c.failures++
	}
	c.tiers[string(TierOf(r))]++
	if r.Error != nil {
		c.errors[ErrorCategory(*r.Error)]++
	}

	if latency <= 0 {
		return
	}
	us := latency.Microseconds()
	if us < c.hist.LowestTrackableValue() {
		us = c.hist.LowestTrackableValue()
	}
	if us > c.hist.HighestTrackableValue() {
		us = c.hist.HighestTrackableValue()
	}
	_ = c.hist.RecordValue(us)

	c.timed++
	c.sumLatency += latency
	if c.minLatency == 0 || latency < c.minLatency {
		c.minLatency = latency
	}
	if latency > c.maxLatency {
		c.maxLatency = latency
	}
}

// Stats computes and returns current aggregated statistics.
func (c *Collector) Stats(elapsed time.Duration) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.successes + c.failures
	stats := Stats{
		Total:      total,
		Successes:  c.successes,
		Failures:   c.failures,
		MinLatency: c.minLatency,
		MaxLatency: c.maxLatency,
	}

	if c.timed > 0 {
		stats.MeanLatency = time.Duration(int64(c.sumLatency) / c.timed)
	}

	if c.hist.TotalCount() > 0 {
		stats.P50Latency = time.Duration(c.hist.ValueAtQuantile(50)) * time.Microsecond
		stats.P90Latency = time.Duration(c.hist.ValueAtQuantile(90)) * time.Microsecond
		stats.P95Latency = time.Duration(c.hist.ValueAtQuantile(95)) * time.Microsecond
		stats.P99Latency = time.Duration(c.hist.ValueAtQuantile(99)) * time.Microsecond
	}

	stats.MinLatencyMs = toMillis(stats.MinLatency)
	stats.MaxLatencyMs = toMillis(stats.MaxLatency)
	stats.MeanLatencyMs = toMillis(stats.MeanLatency)
	stats.P50LatencyMs = toMillis(stats.P50Latency)
	stats.P90LatencyMs = toMillis(stats.P90Latency)
	stats.P95LatencyMs = toMillis(stats.P95Latency)
	stats.P99LatencyMs = toMillis(stats.P99Latency)

	stats.Duration = elapsed
	stats.DurationMs = toMillis(elapsed)
	if elapsed > 0 && total > 0 {
		stats.RequestsPerSec = float64(total) / elapsed.Seconds()
	}

	if len(c.errors) > 0 {
		stats.Errors = copyCounts(c.errors)
	}
	if len(c.tiers) > 0 {
		stats.Tiers = copyCounts(c.tiers)
	}

	return stats
}

// ErrorCategory returns the category prefix of a result error ("Unknown error" when empty).
func ErrorCategory(msg string) string {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return "Unknown error"
	}
	if idx := strings.Index(msg, ": "); idx > 0 {
		return msg[:idx]
	}
	return msg
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func copyCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
