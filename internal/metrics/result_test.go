package metrics_test

import (
	"testing"

	"github.com/torosent/httpbatch/internal/metrics"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestSummarizeEmpty(t *testing.T) {
	s := metrics.Summarize(0, nil)
	if s.Total != 0 || s.Success != 0 || s.Failed != 0 {
		t.Fatalf("counts = %d/%d/%d, want 0/0/0", s.Total, s.Success, s.Failed)
	}
	if s.SuccessRate != 0.0 {
		t.Fatalf("SuccessRate = %v, want 0", s.SuccessRate)
	}
	if s.Results == nil || len(s.Results) != 0 {
		t.Fatalf("Results = %#v, want empty slice", s.Results)
	}
	if names := s.FailedNames(); len(names) != 0 {
		t.Fatalf("FailedNames() = %v, want none", names)
	}
}

func TestSummarizeCountsAndRate(t *testing.T) {
	results := []metrics.RequestResult{
		{Name: "b", StatusCode: intPtr(500), StatusText: strPtr("Internal Server Error")},
		{Name: "a", StatusCode: intPtr(200), Success: true},
		{Name: "c", Error: strPtr("Unable to connect to server: refused")},
		{Name: "d", StatusCode: intPtr(204), Success: true},
	}
	s := metrics.Summarize(len(results), results)

	if s.Total != 4 || s.Success != 2 || s.Failed != 2 {
		t.Fatalf("counts = %d/%d/%d, want 4/2/2", s.Total, s.Success, s.Failed)
	}
	if s.Total != s.Success+s.Failed || len(s.Results) != s.Success+s.Failed {
		t.Fatalf("totals do not reconcile: %+v", s)
	}
	if s.SuccessRate != 50.0 {
		t.Fatalf("SuccessRate = %v, want 50", s.SuccessRate)
	}

	names := s.FailedNames()
	if len(names) != 2 || names[0] != "b" || names[1] != "c" {
		t.Fatalf("FailedNames() = %v, want [b c] in arrival order", names)
	}
}

func TestSummarizeRateIsExact(t *testing.T) {
	results := []metrics.RequestResult{{Success: true}, {}, {}}
	s := metrics.Summarize(3, results)
	want := float64(1) / float64(3) * 100
	if s.SuccessRate != want {
		t.Fatalf("SuccessRate = %v, want %v", s.SuccessRate, want)
	}
}

func TestRequestResultAccessors(t *testing.T) {
	var r metrics.RequestResult
	if r.HasStatus() || r.Status() != 0 || r.ErrorText() != "" {
		t.Fatalf("zero result accessors = %v/%d/%q", r.HasStatus(), r.Status(), r.ErrorText())
	}
	r.StatusCode = intPtr(404)
	r.Error = strPtr("boom")
	if !r.HasStatus() || r.Status() != 404 || r.ErrorText() != "boom" {
		t.Fatalf("populated accessors = %v/%d/%q", r.HasStatus(), r.Status(), r.ErrorText())
	}
}
