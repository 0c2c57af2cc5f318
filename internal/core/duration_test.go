package core

import "testing"

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   int
		want string
	}{
		{0, "0m"},
		{45, "45m"},
		{60, "1h"},
		{90, "1h 30m"},
		{125, "2h 5m"},
		{-5, "0m"},
	}
	for _, tc := range cases {
		if got := FormatDuration(tc.in); got != tc.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDurationFromParts(t *testing.T) {
	if got, err := DurationFromParts(1, 30); err != nil || got != 90 {
		t.Fatalf("got %d, %v", got, err)
	}
	for _, tc := range [][2]int{{-1, 0}, {0, -1}, {0, 60}, {MaxDurationMinutes/60 + 1, 0}} {
		if _, err := DurationFromParts(tc[0], tc[1]); err == nil {
			t.Errorf("expected error for %v", tc)
		}
	}
}

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"90", 90, true},
		{"1h30m", 90, true},
		{"1h 30m", 90, true},
		{"2h", 120, true},
		{"45m", 45, true},
		{"", 0, false},
		{"-5", 0, false},
		{"h", 0, false},
		{"1x", 0, false},
		{"abc", 0, false},
		{"8784h", MaxDurationMinutes, true},
		{"8784h1m", 0, false},
		{"527041", 0, false},
		{"153722867280912930h", 0, false},
		{"9223372036854775807h", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDuration(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Errorf("ParseDuration(%q) = %d, %v; want %d", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Errorf("ParseDuration(%q) expected error, got %d", tc.in, got)
		}
	}
}
