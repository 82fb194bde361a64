package telemetry

import (
	"math"
	"testing"
)

func TestParseElapsed(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"89.708", 89.708},
		{" 0 ", 0},
		{"1m29.708s", 89.708},
		{"250ms", 0.25},
		{"01:29.708", 89.708},
		{"00:01:29.708", 89.708},
		{"1:00:00", 3600},
		{"0 days 00:01:29.708000", 89.708},
		{"0 days 00:00:00", 0},
		{"1 days 00:00:01", 86401},
		{"-1 days +23:59:59.5", -0.5},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseElapsed(tt.in)
			if err != nil {
				t.Fatalf("ParseElapsed(%q) error: %v", tt.in, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ParseElapsed(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseElapsed_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "1:2:3:4", "00:xx:01", "1.5:00", "x days 00:00:01", "0 days", "0 weeks 00:00:01"} {
		if _, err := ParseElapsed(in); err == nil {
			t.Errorf("ParseElapsed(%q) expected error", in)
		}
	}
}
