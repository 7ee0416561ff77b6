package metrics

import (
	"encoding/json"
)

// RequestResult is the recorded outcome of attempting one request spec exactly once.
// Optional fields are pointers and serialize as null when absent.
type RequestResult struct {
	Name           string          `json:"name"`
	URL            string          `json:"url"`
	Method         string          `json:"method"`
	StatusCode     *int            `json:"status_code"`
	StatusText     *string         `json:"status_text"`
	Success        bool            `json:"success"`
	ResponseTimeMs float64         `json:"response_time_ms"`
	ResponseBody   json.RawMessage `json:"response_body"`
	Error          *string         `json:"error"`
}

// HasStatus reports whether a response was received.
func (r RequestResult) HasStatus() bool {
	return r.StatusCode != nil
}

// Status returns the status code, or 0 when no response was received.
func (r RequestResult) Status() int {
	if r.StatusCode == nil {
		return 0
	}
	return *r.StatusCode
}

// ErrorText returns the error message, or "" when the request completed.
func (r RequestResult) ErrorText() string {
	if r.Error == nil {
		return ""
	}
	return *r.Error
}

// TestSummary is the batch-level reduction of all results.
type TestSummary struct {
	Total       int             `json:"total"`
	Success     int             `json:"success"`
	Failed      int             `json:"failed"`
	SuccessRate float64         `json:"success_rate"`
	Results     []RequestResult `json:"results"`
}

// FailedNames lists the names of unsuccessful results in arrival order.
func (s TestSummary) FailedNames() []string {
	var names []string
	for _, r := range s.Results {
		if !r.Success {
			names = append(names, r.Name)
		}
	}
	return names
}

// Summarize reduces results, given in arrival order, into a TestSummary.
// total is the number of specs submitted.
func Summarize(total int, results []RequestResult) TestSummary {
	success := 0
	for _, r := range results {
		if r.Success {
			success++
		}
	}

	rate := 0.0
	if total > 0 {
		rate = float64(success) / float64(total) * 100
	}

	if results == nil {
		results = []RequestResult{}
	}

	return TestSummary{
		Total:       total,
		Success:     success,
		Failed:      total - success,
		SuccessRate: rate,
		Results:     results,
	}
}
