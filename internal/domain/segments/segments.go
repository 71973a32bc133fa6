// Package segments holds the pure segment-list logic shared by the
// transcribe and translate stages: normalization, alignment validation,
// prompt rendering, and recovery of segments from noisy model replies.
package segments

import (
	"fmt"
	"math"
	"strings"

	"transub/internal/types"
)

// Epsilon is the maximum allowed timestamp drift, in seconds, between
// corresponding segments across pipeline stages.
const Epsilon = 0.1

// Normalize rounds timestamps to one decimal place and trims text, the
// shape segments keep for the rest of the pipeline.
func Normalize(segs []types.Segment) []types.Segment {
	out := make([]types.Segment, len(segs))
	for i, s := range segs {
		out[i] = types.Segment{
			Start: round1(s.Start),
			End:   round1(s.End),
			Text:  strings.TrimSpace(s.Text),
		}
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Validate checks a candidate segment list against its source, pairing
// positionally. Checks run in order and stop at the first failure: length
// match, per-index start/end drift within Epsilon, non-blank text. The
// returned reason names the offending index and values. Validate never
// mutates its inputs.
func Validate(source, candidate []types.Segment) (bool, string) {
	if len(candidate) != len(source) {
		return false, fmt.Sprintf("segment count mismatch: source has %d, candidate has %d", len(source), len(candidate))
	}
	for i := range source {
		src, cand := source[i], candidate[i]
		if math.Abs(src.Start-cand.Start) > Epsilon {
			return false, fmt.Sprintf("segment %d: start drift too large: %v vs %v", i+1, src.Start, cand.Start)
		}
		if math.Abs(src.End-cand.End) > Epsilon {
			return false, fmt.Sprintf("segment %d: end drift too large: %v vs %v", i+1, src.End, cand.End)
		}
		if strings.TrimSpace(cand.Text) == "" {
			return false, fmt.Sprintf("segment %d: text is blank", i+1)
		}
	}
	return true, ""
}

// RenderPrompt serializes source segments into the user-message body the
// translation service expects: a comma-joined sequence of JSON-shaped
// blocks.
func RenderPrompt(segs []types.Segment) string {
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		parts = append(parts, fmt.Sprintf("{\n    \"start\": %v,\n    \"end\": %v,\n    \"text\": %q\n}", s.Start, s.End, s.Text))
	}
	return strings.Join(parts, ",\n")
}
