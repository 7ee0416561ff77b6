package metrics

import (
	"testing"
	"time"
)

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{30 * time.Second, "30"},
		{1500 * time.Millisecond, "1.5"},
		{250 * time.Millisecond, "0.25"},
		{0, "0"},
		{1000000 * time.Second, "1000000"},
	}
	for _, tt := range tests {
		if got := FormatSeconds(tt.in); got != tt.want {
			t.Errorf("FormatSeconds(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
