// Package threshold checks run statistics against pass/fail assertions such as
// "http_req_duration:p99 < 500".
package threshold

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/torosent/httpbatch/internal/metrics"
)

const (
	MetricDuration = "http_req_duration"
	MetricFailed   = "http_req_failed"
	MetricRequests = "http_requests"
)

var thresholdPattern = regexp.MustCompile(`^([a-z_]+):([a-z0-9]+)\s*(<=|>=|==|<|>)\s*([0-9]+(?:\.[0-9]+)?)$`)

// extractors maps metric -> aggregate -> value source. Durations are in milliseconds.
var extractors = map[string]map[string]func(metrics.Stats) float64{
	MetricDuration: {
		"min": func(s metrics.Stats) float64 { return s.MinLatencyMs },
		"max": func(s metrics.Stats) float64 { return s.MaxLatencyMs },
		"avg": func(s metrics.Stats) float64 { return s.MeanLatencyMs },
		"p50": func(s metrics.Stats) float64 { return s.P50LatencyMs },
		"p90": func(s metrics.Stats) float64 { return s.P90LatencyMs },
		"p95": func(s metrics.Stats) float64 { return s.P95LatencyMs },
		"p99": func(s metrics.Stats) float64 { return s.P99LatencyMs },
	},
	MetricFailed: {
		"rate":  func(s metrics.Stats) float64 { return s.FailureRate() },
		"count": func(s metrics.Stats) float64 { return float64(s.Failures) },
	},
	MetricRequests: {
		"count": func(s metrics.Stats) float64 { return float64(s.Total) },
		"rate":  func(s metrics.Stats) float64 { return s.RequestsPerSec },
	},
}

// Threshold is one parsed assertion.
type Threshold struct {
	Metric    string
	Aggregate string
	Operator  string
	Value     float64
	Raw       string
}

// Result is the outcome of checking one Threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

// Parse reads "metric:aggregate operator value".
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	m := thresholdPattern.FindStringSubmatch(s)
	if m == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format %q (expected metric:aggregate operator value, e.g. 'http_req_duration:p99 < 500')", s)
	}

	aggregates, ok := extractors[m[1]]
	if !ok {
		return Threshold{}, fmt.Errorf("unsupported metric %q (supported: %s)", m[1], strings.Join(sortedKeys(extractors), ", "))
	}
	if _, ok := aggregates[m[2]]; !ok {
		return Threshold{}, fmt.Errorf("unsupported aggregate %q for %s (supported: %s)", m[2], m[1], strings.Join(sortedKeys(aggregates), ", "))
	}

	value, err := strconv.ParseFloat(m[4], 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %w", m[4], err)
	}

	return Threshold{
		Metric:    m[1],
		Aggregate: m[2],
		Operator:  m[3],
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses every entry and reports all failures together.
func ParseMultiple(raw []string) ([]Threshold, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	out := make([]Threshold, 0, len(raw))
	var problems []string
	for i, s := range raw {
		t, err := Parse(s)
		if err != nil {
			problems = append(problems, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		out = append(out, t)
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(problems, "; "))
	}
	return out, nil
}

// Evaluate checks every threshold against stats, in order.
func Evaluate(thresholds []Threshold, stats metrics.Stats) []Result {
	if len(thresholds) == 0 {
		return nil
	}
	results := make([]Result, 0, len(thresholds))
	for _, t := range thresholds {
		results = append(results, evaluate(t, stats))
	}
	return results
}

// AllPassed reports whether no result failed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func evaluate(t Threshold, stats metrics.Stats) Result {
	extract, ok := extractors[t.Metric][t.Aggregate]
	if !ok {
		return Result{
			Threshold: t,
			Message:   fmt.Sprintf("✗ %s: unsupported %s:%s", t.Raw, t.Metric, t.Aggregate),
		}
	}

	actual := extract(stats)
	pass := compare(actual, t.Operator, t.Value)
	mark := "✓"
	if !pass {
		mark = "✗"
	}
	return Result{
		Threshold: t,
		Actual:    actual,
		Pass:      pass,
		Message:   fmt.Sprintf("%s %s: %.2f %s %.2f", mark, t.Raw, actual, t.Operator, t.Value),
	}
}

func compare(actual float64, operator string, expected float64) bool {
	const epsilon = 1e-9
	equal := math.Abs(actual-expected) < epsilon

	switch operator {
	case "<":
		return actual < expected && !equal
	case "<=":
		return actual < expected || equal
	case ">":
		return actual > expected && !equal
	case ">=":
		return actual > expected || equal
	case "==":
		return equal
	default:
		return false
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
