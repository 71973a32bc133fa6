package srt

import (
	"math"
	"testing"
)

func TestFormatTimestamp(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00,000"},
		{1.5, "00:00:01,500"},
		{3.25, "00:00:03,250"},
		{59.999, "00:00:59,999"},
		{60, "00:01:00,000"},
		{3599.5, "00:59:59,500"},
		{3600, "01:00:00,000"},
		{1800, "00:30:00,000"},
		// truncation, not rounding
		{1.2349, "00:00:01,234"},
	}
	for _, tc := range cases {
		if got := FormatTimestamp(tc.seconds); got != tc.want {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestFormatTimestamp_Monotonic(t *testing.T) {
	prev := ""
	for sec := 0.0; sec <= 1800.0; sec += 0.37 {
		got := FormatTimestamp(sec)
		// The fixed-width format makes lexical order match time order.
		if prev != "" && got < prev {
			t.Fatalf("FormatTimestamp not monotonic at %v: %q < %q", sec, got, prev)
		}
		prev = got
	}
}

func TestParseTimestamp_RoundTrip(t *testing.T) {
	for _, sec := range []float64{0, 0.001, 1.5, 3.25, 59.999, 61.234, 3600.5, 1799.999} {
		got, err := ParseTimestamp(FormatTimestamp(sec))
		if err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", FormatTimestamp(sec), err)
		}
		if math.Abs(got-sec) > 0.001 {
			t.Errorf("round trip of %v drifted to %v", sec, got)
		}
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, ts := range []string{"", "garbage", "00:00:00.000", "00:61:00,000"} {
		if _, err := ParseTimestamp(ts); err == nil {
			t.Errorf("ParseTimestamp(%q) succeeded, want error", ts)
		}
	}
}
