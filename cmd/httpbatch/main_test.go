package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/torosent/httpbatch/internal/config"
	"github.com/torosent/httpbatch/internal/metrics"
	"github.com/torosent/httpbatch/internal/spec"
)

func newTestServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ok":true}`))
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func specFile(t *testing.T, dir, baseURL string) string {
	return writeFile(t, dir, "requests.json", `[
		{"name": "ok", "url": "`+baseURL+`/ok", "method": "GET"},
		{"name": "missing", "url": "`+baseURL+`/missing", "method": "post", "body": {"a": 1}}
	]`)
}

func TestRunHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run([]string{"--help"}, &stdout, &stderr); err != nil {
		t.Fatalf("expected nil error for help, got %v", err)
	}
}

func TestRunValidationError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{"--timeout", "5"}, &stdout, &stderr)
	var vErr config.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRunJSONOutput(t *testing.T) {
	var hits int32
	server := newTestServer(t, &hits)
	dir := t.TempDir()
	path := specFile(t, dir, server.URL)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"--file", path, "--output", "json"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}

	var summary struct {
		Total       int     `json:"total"`
		Success     int     `json:"success"`
		Failed      int     `json:"failed"`
		SuccessRate float64 `json:"success_rate"`
		Results     []struct {
			Name       string `json:"name"`
			StatusCode *int   `json:"status_code"`
		} `json:"results"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &summary); err != nil {
		t.Fatalf("stdout is not a JSON summary: %v\n%s", err, stdout.String())
	}
	if summary.Total != 2 || summary.Success != 1 || summary.Failed != 1 || summary.SuccessRate != 50 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if len(summary.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(summary.Results))
	}
	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Errorf("server hits = %d, want 2", n)
	}
	if !strings.Contains(stderr.String(), "[httpbatch] run ") {
		t.Errorf("expected start line on stderr, got %q", stderr.String())
	}
}

func TestRunPrettyOutput(t *testing.T) {
	var hits int32
	server := newTestServer(t, &hits)
	dir := t.TempDir()
	path := specFile(t, dir, server.URL)

	var stdout, stderr bytes.Buffer
	args := []string{"--file", path, "--concurrency", "1", "--log-errors"}
	if err := run(args, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}

	out := stdout.String()
	for _, want := range []string{
		"HTTP Request Test Started (Timeout: 30s)",
		"[1/2] ok",
		"[2/2] missing",
		"✅ Status: 200 OK",
		"⚠️  Status: 404 Not Found",
		"Test Summary",
		"Success rate: 50.0%",
		"  - missing",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(stderr.String(), `request 2/2 "missing" failed: status 404`) {
		t.Errorf("expected failure log, got %q", stderr.String())
	}
}

func TestRunResolvesPlaceholdersFromEnvFile(t *testing.T) {
	var hits int32
	server := newTestServer(t, &hits)
	dir := t.TempDir()
	envPath := writeFile(t, dir, "test.env", "BATCH_TEST_BASE_URL="+server.URL+"\n")
	t.Cleanup(func() { os.Unsetenv("BATCH_TEST_BASE_URL") })
	path := writeFile(t, dir, "requests.yaml", "- name: ok\n  url: \"{{BATCH_TEST_BASE_URL}}/ok\"\n  method: GET\n")

	var stdout, stderr bytes.Buffer
	if err := run([]string{"--file", path, "--output", "json", "--env-file", envPath}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("server hits = %d, want 1", n)
	}
	if !strings.Contains(stdout.String(), `"success": 1`) && !strings.Contains(stdout.String(), `"success":1`) {
		t.Errorf("expected one success:\n%s", stdout.String())
	}
}

func TestRunMissingExplicitEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "requests.json", `[]`)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"--file", path, "--env-file", filepath.Join(dir, "nope.env")}, &stdout, &stderr); err == nil {
		t.Fatal("expected an error for a missing explicit env file")
	}
}

func TestRunFatalInputErrorsSendNothing(t *testing.T) {
	var hits int32
	server := newTestServer(t, &hits)
	dir := t.TempDir()
	malformed := writeFile(t, dir, "bad.json", `[{"url": "`+server.URL+`/ok", "method": "GET"`)

	var stdout, stderr bytes.Buffer
	err := run([]string{"--file", malformed}, &stdout, &stderr)
	var parseErr *spec.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected parse error, got %v", err)
	}

	err = run([]string{"--file", filepath.Join(dir, "missing.json")}, &stdout, &stderr)
	if err == nil {
		t.Fatal("expected error for missing request file")
	}
	if n := atomic.LoadInt32(&hits); n != 0 {
		t.Errorf("no request should be sent, got %d", n)
	}
}

func TestRunThresholdFailure(t *testing.T) {
	var hits int32
	server := newTestServer(t, &hits)
	dir := t.TempDir()
	path := specFile(t, dir, server.URL)

	var stdout, stderr bytes.Buffer
	args := []string{
		"--file", path,
		"--threshold", "http_req_failed:count == 0",
		"--threshold", "http_requests:count == 2",
	}
	err := run(args, &stdout, &stderr)
	var thErr *thresholdError
	if !errors.As(err, &thErr) {
		t.Fatalf("expected threshold error, got %v", err)
	}
	if thErr.failed != 1 || thErr.total != 2 {
		t.Errorf("unexpected threshold error: %+v", thErr)
	}
	if !strings.Contains(stdout.String(), "Thresholds:") {
		t.Errorf("expected thresholds in output:\n%s", stdout.String())
	}
}

func TestRunWritesReports(t *testing.T) {
	var hits int32
	server := newTestServer(t, &hits)
	dir := t.TempDir()
	path := specFile(t, dir, server.URL)
	htmlPath := filepath.Join(dir, "out", "report.html")
	xlsxPath := filepath.Join(dir, "out", "report.xlsx")

	var stdout, stderr bytes.Buffer
	args := []string{
		"--file", path,
		"--output", "json",
		"--html-output", htmlPath,
		"--xlsx-output", xlsxPath,
	}
	if err := run(args, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}

	html, err := os.ReadFile(htmlPath)
	if err != nil {
		t.Fatalf("read HTML report: %v", err)
	}
	if !strings.Contains(string(html), "HTTP Batch Report") || !strings.Contains(string(html), "missing") {
		t.Error("HTML report is missing content")
	}
	if info, err := os.Stat(xlsxPath); err != nil || info.Size() == 0 {
		t.Errorf("XLSX report not written: %v", err)
	}
	if !strings.Contains(stderr.String(), "HTML report written to") {
		t.Errorf("expected report log line, got %q", stderr.String())
	}
}

func TestRunHARInput(t *testing.T) {
	var hits int32
	server := newTestServer(t, &hits)
	dir := t.TempDir()
	harPath := writeFile(t, dir, "capture.har", `{"log": {"version": "1.2", "entries": [
		{"request": {"method": "GET", "url": "`+server.URL+`/ok?x=1", "headers": [], "queryString": [{"name": "x", "value": "1"}]}},
		{"request": {"method": "GET", "url": "`+server.URL+`/app.js", "headers": []}}
	]}}`)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"--har", harPath, "--output", "json"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("static asset should be skipped, server hits = %d", n)
	}
}

func TestUnresolvedPlaceholders(t *testing.T) {
	label := "list {{ENV}}"
	specs := []spec.RequestSpec{
		{Name: &label, URL: "{{HOST}}/a", Headers: map[string]string{"Authorization": "Bearer {{TOKEN}}"}},
		{URL: "https://example.com", Body: []byte(`{"id": "{{ID}}", "host": "{{HOST}}"}`)},
	}
	got := unresolvedPlaceholders(specs)
	want := []string{"ENV", "HOST", "ID", "TOKEN"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("unresolvedPlaceholders = %v, want %v", got, want)
	}
	if got := unresolvedPlaceholders([]spec.RequestSpec{{URL: "https://example.com"}}); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestStderrLoggerLogFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := newStderrLogger(&buf)
	msg := "Connection failed: refused"
	code := 503

	logger.LogFailure(1, 3, failedResult("a", nil, &msg))
	logger.LogFailure(2, 3, failedResult("b", &code, nil))

	out := buf.String()
	if !strings.Contains(out, `[httpbatch] request 1/3 "a" failed: Connection failed: refused`) {
		t.Errorf("unexpected log: %q", out)
	}
	if !strings.Contains(out, `[httpbatch] request 2/3 "b" failed: status 503`) {
		t.Errorf("unexpected log: %q", out)
	}
}

func TestIsTerminalRejectsBuffers(t *testing.T) {
	if isTerminal(&bytes.Buffer{}) {
		t.Error("a buffer is not a terminal")
	}
}

func failedResult(name string, code *int, errMsg *string) metrics.RequestResult {
	return metrics.RequestResult{Name: name, StatusCode: code, Error: errMsg}
}
