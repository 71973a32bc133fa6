package srt

import (
	"fmt"
	"strings"
)

// FormatTimestamp converts fractional seconds to the SRT time format
// HH:MM:SS,mmm. Sub-millisecond precision is truncated, not rounded. The
// caller guarantees the input is finite and non-negative.
func FormatTimestamp(seconds float64) string {
	ms := int64(seconds * 1000)
	h := ms / 3_600_000
	ms -= h * 3_600_000
	m := ms / 60_000
	ms -= m * 60_000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// ParseTimestamp is the inverse of FormatTimestamp. The pipeline itself
// never reads subtitle files back; this exists for validation and tests.
func ParseTimestamp(ts string) (float64, error) {
	var h, m, s, ms int64
	clean := strings.TrimSpace(ts)
	if _, err := fmt.Sscanf(clean, "%02d:%02d:%02d,%03d", &h, &m, &s, &ms); err != nil {
		return 0, fmt.Errorf("parse timestamp %q: %w", ts, err)
	}
	if m > 59 || s > 59 || ms > 999 || h < 0 || m < 0 || s < 0 || ms < 0 {
		return 0, fmt.Errorf("parse timestamp %q: component out of range", ts)
	}
	return float64(h*3600+m*60+s) + float64(ms)/1000, nil
}
