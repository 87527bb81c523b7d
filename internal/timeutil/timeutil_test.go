package timeutil

import (
	"math"
	"testing"
)

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		name     string
		seconds  float64
		expected string
	}{
		{"Zero", 0, "00:00:00.00"},
		{"One second", 1, "00:00:01.00"},
		{"One minute", 60, "00:01:00.00"},
		{"One hour", 3600, "01:00:00.00"},
		{"Complex time", 3661, "01:01:01.00"},
		{"90 seconds", 90, "00:01:30.00"},
		{"Fractional seconds", 30.53, "00:00:30.53"},
		{"Sub-second", 0.5, "00:00:00.50"},
		{"Minute with fraction", 90.75, "00:01:30.75"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatSeconds(tt.seconds)
			if result != tt.expected {
				t.Errorf("FormatSeconds(%.3f) = %s; want %s", tt.seconds, result, tt.expected)
			}
		})
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		seconds  float64
		expected string
	}{
		{0, "0:00"},
		{-3, "0:00"},
		{59.9, "0:59"},
		{61, "1:01"},
		{3600, "1:00:00"},
		{3725, "1:02:05"},
	}

	for _, tt := range tests {
		if got := FormatClock(tt.seconds); got != tt.expected {
			t.Errorf("FormatClock(%.1f) = %s; want %s", tt.seconds, got, tt.expected)
		}
	}
}

func TestParseSexagesimal(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		wantErr  bool
	}{
		{"00:00:10.5", 10.5, false},
		{"01:02:03.250000000", 3723.25, false},
		{"00:03:25.123456789", 205.123456789, false},
		{"02:30", 150, false},
		{"42.5", 42.5, false},
		{"-00:00:01.5", -1.5, false},
		{" 00:00:01 ", 1, false},
		{"", 0, true},
		{"N/A", 0, true},
		{"00:61:00", 0, true},
		{"1:2:3:4", 0, true},
		{"aa:bb:cc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSexagesimal(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseSexagesimal(%q) expected error, got %f", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSexagesimal(%q) unexpected error: %v", tt.input, err)
			}
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("ParseSexagesimal(%q) = %f; want %f", tt.input, got, tt.expected)
			}
		})
	}
}
