package config

import (
	"testing"
	"time"
)

func TestAsString(t *testing.T) {
	tests := []struct {
		input interface{}
		want  string
	}{
		{"hello", "hello"},
		{123, "123"},
		{true, "true"},
		{nil, ""},
		{[]byte("bytes"), "bytes"},
	}

	for _, tt := range tests {
		got, err := asString(tt.input)
		if err != nil {
			t.Errorf("asString(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asString(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestAsInt(t *testing.T) {
	tests := []struct {
		input interface{}
		want  int
	}{
		{123, 123},
		{"456", 456},
		{" 12 ", 12},
		{int64(789), 789},
		{float64(10.0), 10},
		{"", 0},
		{nil, 0},
	}

	for _, tt := range tests {
		got, err := asInt(tt.input)
		if err != nil {
			t.Errorf("asInt(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asInt(%v) = %d, want %d", tt.input, got, tt.want)
		}
	}

	if _, err := asInt("many"); err == nil {
		t.Error("asInt(\"many\") expected error")
	}
}

func TestAsBool(t *testing.T) {
	tests := []struct {
		input interface{}
		want  bool
	}{
		{true, true},
		{"true", true},
		{"1", true},
		{false, false},
		{"false", false},
		{"0", false},
		{"", false},
		{nil, false},
	}

	for _, tt := range tests {
		got, err := asBool(tt.input)
		if err != nil {
			t.Errorf("asBool(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asBool(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestAsDuration(t *testing.T) {
	tests := []struct {
		input interface{}
		want  time.Duration
	}{
		{30, 30 * time.Second},
		{int64(2), 2 * time.Second},
		{1.5, 1500 * time.Millisecond},
		{"10", 10 * time.Second},
		{"250ms", 250 * time.Millisecond},
		{"1m", time.Minute},
		{time.Second, time.Second},
		{nil, 0},
	}

	for _, tt := range tests {
		got, err := asDuration(tt.input)
		if err != nil {
			t.Errorf("asDuration(%v) error = %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("asDuration(%v) = %s, want %s", tt.input, got, tt.want)
		}
	}

	if _, err := asDuration("later"); err == nil {
		t.Error("asDuration(\"later\") expected error")
	}
}

func TestAsStringSlice(t *testing.T) {
	got, err := asStringSlice("http_req_duration:p99 < 500")
	if err != nil {
		t.Fatalf("asStringSlice() error = %v", err)
	}
	if len(got) != 1 || got[0] != "http_req_duration:p99 < 500" {
		t.Errorf("single string should stay one element, got %v", got)
	}

	got, err = asStringSlice([]interface{}{"a", "b"})
	if err != nil {
		t.Fatalf("asStringSlice() error = %v", err)
	}
	if len(got) != 2 || got[1] != "b" {
		t.Errorf("asStringSlice(list) = %v", got)
	}
}

func TestLookupSetting(t *testing.T) {
	settings := map[string]interface{}{
		"log_errors": true,
		"timeout":    "5s",
	}
	if v, ok := lookupSetting(settings, "logErrors", "log_errors"); !ok || v != true {
		t.Errorf("lookupSetting(log_errors) = %v, %v", v, ok)
	}
	if _, ok := lookupSetting(settings, "missing"); ok {
		t.Error("lookupSetting(missing) found a value")
	}
}

func TestApplyTracingSettings(t *testing.T) {
	var tc TracingConfig
	err := applyTracingSettings(&tc, map[string]interface{}{
		"endpoint":    " collector:4317 ",
		"protocol":    "HTTP",
		"sample_rate": "0.25",
		"propagate":   false,
	})
	if err != nil {
		t.Fatalf("applyTracingSettings() error = %v", err)
	}
	if tc.Endpoint != "collector:4317" || tc.Protocol != "http" || tc.SampleRate != 0.25 {
		t.Errorf("TracingConfig = %+v", tc)
	}
	if tc.Propagate == nil || *tc.Propagate {
		t.Errorf("Propagate = %v, want explicit false", tc.Propagate)
	}
}
